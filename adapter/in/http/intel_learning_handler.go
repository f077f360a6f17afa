package http

import (
	"intel_server/core/domain"
	"intel_server/core/port/in"
	"intel_server/pkg/apperr"
	"intel_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LearningHandler exposes learned patterns and the owner's tone profile.
type LearningHandler struct {
	service in.LearningService
}

func NewLearningHandler(service in.LearningService) *LearningHandler {
	return &LearningHandler{service: service}
}

func (h *LearningHandler) Register(router fiber.Router) {
	learning := router.Group("/learning")
	learning.Get("/patterns/applicable", h.Applicable)
	learning.Get("/tone-profile", h.ToneProfile)
	learning.Post("/tone-profile/refresh", h.RefreshToneProfile)
}

// Applicable lists patterns for ?content=, scoped by optional category and priority.
func (h *LearningHandler) Applicable(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}

	content := c.Query("content")
	if content == "" {
		return apperr.MissingField("content")
	}

	scope := map[string]any{}
	if v := c.Query("category"); v != "" {
		cat, err := domain.ParseCategory(v)
		if err != nil {
			return apperr.InvalidInput("category", err.Error())
		}
		scope["category"] = string(cat)
	}
	if v := c.Query("priority"); v != "" {
		p, err := domain.ParsePriority(v)
		if err != nil {
			return apperr.InvalidInput("priority", err.Error())
		}
		scope["priority"] = p.String()
	}

	patterns := h.service.FindApplicable(c.UserContext(), owner, content, scope)
	return response.OK(c, toPatternResponses(patterns))
}

func (h *LearningHandler) ToneProfile(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}

	profile, err := h.service.GetToneProfile(c.UserContext(), owner)
	if err != nil {
		return toAppError(err, "tone profile")
	}
	if profile == nil {
		return apperr.NotFound("tone profile")
	}
	return response.OK(c, toToneProfileResponse(profile))
}

// RefreshToneProfile folds any unlearned edits into the profile now.
func (h *LearningHandler) RefreshToneProfile(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}

	profile, err := h.service.RefreshToneProfile(c.UserContext(), owner)
	if err != nil {
		return toAppError(err, "tone profile")
	}
	if profile == nil {
		return apperr.NotFound("tone profile")
	}
	return response.OK(c, toToneProfileResponse(profile))
}
