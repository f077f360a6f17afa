package http

import (
	"intel_server/core/domain"
	"intel_server/core/port/in"
	"intel_server/pkg/apperr"
	"intel_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// EmailHandler serves message processing and classification corrections.
type EmailHandler struct {
	service in.EmailService
}

func NewEmailHandler(service in.EmailService) *EmailHandler {
	return &EmailHandler{service: service}
}

func (h *EmailHandler) Register(router fiber.Router) {
	emails := router.Group("/emails")
	emails.Post("/process", h.Process)
	emails.Get("/", h.List)
	emails.Get("/:id", h.Get)
	emails.Post("/:id/correct", h.Correct)
}

// Process classifies a message, or returns the stored result for a known email_id.
func (h *EmailHandler) Process(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}

	var req in.ProcessEmailInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	req.OwnerID = owner

	processed, err := h.service.Process(c.UserContext(), &req)
	if err != nil {
		return toAppError(err, "email")
	}
	return response.OK(c, toProcessedEmailResponse(processed))
}

func (h *EmailHandler) Get(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	processed, err := h.service.Get(c.UserContext(), owner, id)
	if err != nil {
		return toAppError(err, "email")
	}
	return response.OK(c, toProcessedEmailResponse(processed))
}

// List filters by priority, category and requires_response query parameters.
func (h *EmailHandler) List(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}

	page := response.GetPage(c, 20, 100)
	filter := domain.EmailFilter{Limit: page.Limit, Offset: page.Offset}

	if v := c.Query("priority"); v != "" {
		p, err := domain.ParsePriority(v)
		if err != nil {
			return apperr.InvalidInput("priority", err.Error())
		}
		filter.Priority = &p
	}
	if v := c.Query("category"); v != "" {
		cat, err := domain.ParseCategory(v)
		if err != nil {
			return apperr.InvalidInput("category", err.Error())
		}
		filter.Category = &cat
	}
	if v := c.Query("requires_response"); v != "" {
		b := c.QueryBool("requires_response")
		filter.RequiresResponse = &b
	}

	emails, total, err := h.service.List(c.UserContext(), owner, filter)
	if err != nil {
		return toAppError(err, "email")
	}

	items := make([]processedEmailResponse, 0, len(emails))
	for _, e := range emails {
		items = append(items, toProcessedEmailResponse(e))
	}
	return response.OKWithMeta(c, items, response.NewMeta(page, len(items), total))
}

type correctRequest struct {
	Priority *string `json:"priority"`
	Category *string `json:"category"`
}

// Correct overrides priority and/or category. Each change is fed to the pattern learner.
func (h *EmailHandler) Correct(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req correctRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Priority == nil && req.Category == nil {
		return apperr.MissingField("priority or category")
	}

	var processed *domain.ProcessedEmail
	if req.Priority != nil {
		p, err := domain.ParsePriority(*req.Priority)
		if err != nil {
			return apperr.InvalidInput("priority", err.Error())
		}
		if processed, err = h.service.CorrectPriority(c.UserContext(), owner, id, p); err != nil {
			return toAppError(err, "email")
		}
	}
	if req.Category != nil {
		cat, err := domain.ParseCategory(*req.Category)
		if err != nil {
			return apperr.InvalidInput("category", err.Error())
		}
		if processed, err = h.service.CorrectCategory(c.UserContext(), owner, id, cat); err != nil {
			return toAppError(err, "email")
		}
	}
	return response.OK(c, toProcessedEmailResponse(processed))
}
