// Package middleware holds the fiber middleware shared by the API routes.
package middleware

import (
	"context"
	"fmt"
	"strings"

	"intel_server/pkg/apperr"
	"intel_server/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// UserIDLocal is the fiber local holding the authenticated owner id.
const UserIDLocal = "user_id"

// JWTAuth validates HS256 bearer tokens and stores the "sub" claim as the owner id.
func JWTAuth(secret string) fiber.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		tokenString := bearerToken(c.Get(fiber.HeaderAuthorization))
		if tokenString == "" {
			return apperr.Unauthorized("missing authorization")
		}

		claims := jwt.MapClaims{}
		_, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
			if secret == "" {
				return nil, fmt.Errorf("JWT secret not configured")
			}
			return []byte(secret), nil
		})
		if err != nil {
			logger.WithError(err).Warn("JWT validation failed")
			return apperr.InvalidToken("invalid token")
		}

		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			return apperr.InvalidToken("missing subject")
		}
		userID, err := uuid.Parse(sub)
		if err != nil {
			return apperr.InvalidToken("subject is not a user id")
		}

		c.Locals(UserIDLocal, userID)
		c.SetUserContext(context.WithValue(c.UserContext(), logger.UserIDKey, userID.String()))
		return c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
