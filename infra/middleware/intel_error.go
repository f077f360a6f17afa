package middleware

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"intel_server/pkg/apperr"
	"intel_server/pkg/logger"
	"intel_server/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Success   bool        `json:"success"`
	Error     ErrorDetail `json:"error"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorHandler renders every error returned by a handler as an ErrorResponse.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		requestID, _ := c.Locals("request_id").(string)
		status, detail := describe(err)

		log := logger.WithField("request_id", requestID).WithField("error_code", detail.Code)
		if status >= 500 {
			log.WithError(err).Error("request failed: %s", detail.Message)
		} else {
			log.Debug("client error: %s", detail.Message)
		}

		return c.Status(status).JSON(ErrorResponse{
			Success:   false,
			Error:     detail,
			RequestID: requestID,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func describe(err error) (int, ErrorDetail) {
	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return appErr.Status, ErrorDetail{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, ErrorDetail{Code: mapHTTPStatusToCode(fiberErr.Code), Message: fiberErr.Message}
	}

	return fiber.StatusInternalServerError, ErrorDetail{
		Code:    apperr.CodeInternalError,
		Message: "An unexpected error occurred",
	}
}

// RequestID adds a request id to each request and its user context.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Locals("request_id", requestID)
		c.Set("X-Request-ID", requestID)
		c.SetUserContext(context.WithValue(c.UserContext(), logger.RequestIDKey, requestID))
		return c.Next()
	}
}

// RequestLogger logs every request once it completes.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		// the error handler has not run yet, so derive the status from err
		status := c.Response().StatusCode()
		if err != nil {
			status, _ = describe(err)
		}

		log := logger.WithContext(c.UserContext()).
			WithDuration(time.Since(start)).
			WithFields(map[string]any{
				"method": c.Method(),
				"path":   c.Path(),
				"status": status,
				"ip":     c.IP(),
			})

		switch {
		case status >= 500:
			log.Error("Request failed: %s %s -> %d", c.Method(), c.Path(), status)
		case status >= 400:
			log.Warn("Request error: %s %s -> %d", c.Method(), c.Path(), status)
		default:
			log.Info("Request completed: %s %s -> %d", c.Method(), c.Path(), status)
		}
		return err
	}
}

// Latency records the handling time of every matched route.
func Latency(reg *metrics.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		reg.Record(c.Method()+" "+c.Route().Path, time.Since(start))
		return err
	}
}

// Recover turns handler panics into 500 responses.
func Recover() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithFields(map[string]any{
					"panic":  fmt.Sprintf("%v", r),
					"path":   c.Path(),
					"method": c.Method(),
					"stack":  string(debug.Stack()),
				}).Error("Panic recovered")
				err = apperr.Internal("panic recovered")
			}
		}()
		return c.Next()
	}
}

func mapHTTPStatusToCode(status int) string {
	switch status {
	case 400:
		return apperr.CodeBadRequest
	case 401:
		return apperr.CodeUnauthorized
	case 403:
		return apperr.CodeForbidden
	case 404:
		return apperr.CodeNotFound
	case 409:
		return apperr.CodeConflict
	case 429:
		return apperr.CodeRateLimited
	case 502, 503, 504:
		return "SERVICE_UNAVAILABLE"
	default:
		return apperr.CodeInternalError
	}
}
