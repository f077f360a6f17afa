package http

import (
	"context"

	"intel_server/core/domain"
	"intel_server/core/port/in"
	"intel_server/pkg/apperr"
	"intel_server/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// DraftHandler serves reply drafts and their review lifecycle.
type DraftHandler struct {
	service in.DraftService
}

func NewDraftHandler(service in.DraftService) *DraftHandler {
	return &DraftHandler{service: service}
}

func (h *DraftHandler) Register(router fiber.Router) {
	drafts := router.Group("/drafts")
	drafts.Post("/", h.Generate)
	drafts.Get("/:id", h.Get)
	drafts.Put("/:id", h.Edit)
	drafts.Post("/:id/approve", h.transition(h.service.Approve))
	drafts.Post("/:id/reject", h.transition(h.service.Reject))
	drafts.Post("/:id/sent", h.transition(h.service.MarkSent))
}

type generateRequest struct {
	ProcessedEmailID  string `json:"processed_email_id"`
	AdditionalContext string `json:"additional_context"`
}

func (h *DraftHandler) Generate(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}

	var req generateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	emailID, err := uuid.Parse(req.ProcessedEmailID)
	if err != nil {
		return apperr.InvalidInput("processed_email_id", "must be a uuid")
	}

	draft, err := h.service.Generate(c.UserContext(), owner, emailID, req.AdditionalContext)
	if err != nil {
		return toAppError(err, "email")
	}
	return response.Created(c, toDraftResponse(draft))
}

func (h *DraftHandler) Get(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	draft, err := h.service.Get(c.UserContext(), owner, id)
	if err != nil {
		return toAppError(err, "draft")
	}
	return response.OK(c, toDraftResponse(draft))
}

type editRequest struct {
	Content   string   `json:"content"`
	EditTypes []string `json:"edit_types"`
}

// Edit saves the user's version. Learning from it happens in the background.
func (h *DraftHandler) Edit(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req editRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	draft, err := h.service.Edit(c.UserContext(), owner, id, req.Content, req.EditTypes)
	if err != nil {
		return toAppError(err, "draft")
	}
	return response.OK(c, toDraftResponse(draft))
}

type transitionFunc func(ctx context.Context, ownerID, id uuid.UUID) (*domain.EmailDraft, error)

func (h *DraftHandler) transition(fn transitionFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner, err := ownerID(c)
		if err != nil {
			return err
		}
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}

		draft, err := fn(c.UserContext(), owner, id)
		if err != nil {
			return toAppError(err, "draft")
		}
		return response.OK(c, toDraftResponse(draft))
	}
}
