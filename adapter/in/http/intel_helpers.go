// Package http exposes the classification and learning services over fiber.
package http

import (
	"errors"
	"strings"

	"intel_server/core/domain"
	"intel_server/core/service/common"
	"intel_server/infra/middleware"
	"intel_server/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ownerID returns the authenticated owner set by middleware.JWTAuth.
func ownerID(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := c.Locals(middleware.UserIDLocal).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, apperr.Unauthorized("")
	}
	return id, nil
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.InvalidInput(name, "must be a uuid")
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	return nil
}

// toAppError maps service errors onto the HTTP error vocabulary.
func toAppError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if apperr.IsAppError(err) {
		return err
	}

	var transition *domain.TransitionError
	switch {
	case errors.As(err, &transition):
		return apperr.InvalidTransition(string(transition.From), string(transition.To))
	case errors.Is(err, common.ErrNotFound):
		return apperr.NotFound(resource)
	case errors.Is(err, common.ErrInvalidInput):
		return apperr.BadRequest(strings.TrimPrefix(err.Error(), common.ErrInvalidInput.Error()+": "))
	case errors.Is(err, common.ErrLockTimeout):
		return apperr.Timeout("owner lock")
	default:
		return apperr.InternalWithError(err)
	}
}
