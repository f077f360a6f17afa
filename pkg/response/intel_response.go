// Package response renders successful API responses.
package response

import (
	"github.com/gofiber/fiber/v2"
)

// Response is the standard success envelope. Errors are rendered by the
// fiber error handler in infra/middleware.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta carries pagination details.
type Meta struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

func OK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(Response{Success: true, Data: data})
}

func OKWithMeta(c *fiber.Ctx, data interface{}, meta *Meta) error {
	return c.JSON(Response{Success: true, Data: data, Meta: meta})
}

func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{Success: true, Data: data})
}

// Accepted is used for requests whose work continues in the background.
func Accepted(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusAccepted).JSON(Response{Success: true, Data: data})
}

// Page is a limit/offset window read from the query string.
type Page struct {
	Limit  int
	Offset int
}

// GetPage reads limit and offset, clamping limit to [1, maxLimit].
func GetPage(c *fiber.Ctx, defaultLimit, maxLimit int) Page {
	limit := c.QueryInt("limit", defaultLimit)
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: limit, Offset: offset}
}

// NewMeta builds pagination metadata for a page of n items out of total.
func NewMeta(page Page, n, total int) *Meta {
	return &Meta{
		Total:   total,
		Limit:   page.Limit,
		Offset:  page.Offset,
		HasMore: page.Offset+n < total,
	}
}
