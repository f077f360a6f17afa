package middleware

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"intel_server/pkg/apperr"
	"intel_server/pkg/metrics"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(Recover(), RequestID(), JWTAuth(testSecret))
	app.Get("/me", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(UserIDLocal).(uuid.UUID).String())
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		panic("boom")
	})
	return app
}

func sign(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims, key any) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func errorCode(t *testing.T, body io.Reader) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp.Error.Code
}

func TestJWTAuth(t *testing.T) {
	user := uuid.New()
	valid := jwt.MapClaims{"sub": user.String(), "exp": time.Now().Add(time.Hour).Unix()}

	tests := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"valid", "Bearer " + sign(t, jwt.SigningMethodHS256, valid, []byte(testSecret)), 200, ""},
		{"lowercase scheme", "bearer " + sign(t, jwt.SigningMethodHS256, valid, []byte(testSecret)), 200, ""},
		{"missing", "", 401, apperr.CodeUnauthorized},
		{"wrong scheme", "Basic abc", 401, apperr.CodeUnauthorized},
		{"wrong secret", "Bearer " + sign(t, jwt.SigningMethodHS256, valid, []byte("other")), 401, apperr.CodeInvalidToken},
		{"wrong alg", "Bearer " + sign(t, jwt.SigningMethodHS512, valid, []byte(testSecret)), 401, apperr.CodeInvalidToken},
		{"expired", "Bearer " + sign(t, jwt.SigningMethodHS256,
			jwt.MapClaims{"sub": user.String(), "exp": time.Now().Add(-time.Hour).Unix()}, []byte(testSecret)), 401, apperr.CodeInvalidToken},
		{"no exp", "Bearer " + sign(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": user.String()}, []byte(testSecret)), 401, apperr.CodeInvalidToken},
		{"bad subject", "Bearer " + sign(t, jwt.SigningMethodHS256,
			jwt.MapClaims{"sub": "alice", "exp": time.Now().Add(time.Hour).Unix()}, []byte(testSecret)), 401, apperr.CodeInvalidToken},
	}

	app := newApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.status == 200 {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, user.String(), string(body))
				return
			}
			assert.Equal(t, tt.code, errorCode(t, resp.Body))
		})
	}
}

func TestRecoverRendersInternalError(t *testing.T) {
	token := sign(t, jwt.SigningMethodHS256,
		jwt.MapClaims{"sub": uuid.NewString(), "exp": time.Now().Add(time.Hour).Unix()}, []byte(testSecret))

	req := httptest.NewRequest("GET", "/boom", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", "req-1")

	resp, err := newApp().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, "req-1", resp.Header.Get("X-Request-ID"))
	assert.Equal(t, apperr.CodeInternalError, errorCode(t, resp.Body))
}

func TestDescribe(t *testing.T) {
	status, detail := describe(apperr.NotFound("draft"))
	assert.Equal(t, 404, status)
	assert.Equal(t, apperr.CodeNotFound, detail.Code)

	status, detail = describe(fiber.NewError(fiber.StatusTooManyRequests, "slow down"))
	assert.Equal(t, 429, status)
	assert.Equal(t, "RATE_LIMITED", detail.Code)

	status, detail = describe(errors.New("db exploded"))
	assert.Equal(t, 500, status)
	assert.NotContains(t, detail.Message, "db exploded")
}

type fixedLimiter struct {
	allow bool
	wait  time.Duration
	keys  []string
}

func (l *fixedLimiter) Allow(_ context.Context, key string) (bool, time.Duration) {
	l.keys = append(l.keys, key)
	return l.allow, l.wait
}

func TestRateLimit(t *testing.T) {
	owner := uuid.New()
	limiter := &fixedLimiter{}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(func(c *fiber.Ctx) error {
		if c.Get("X-Anonymous") == "" {
			c.Locals(UserIDLocal, owner)
		}
		return c.Next()
	}, RateLimit(limiter))
	app.Get("/x", func(c *fiber.Ctx) error { return c.SendStatus(204) })

	limiter.allow, limiter.wait = false, 1500*time.Millisecond
	resp, err := app.Test(httptest.NewRequest("GET", "/x", nil))
	require.NoError(t, err)
	assert.Equal(t, 429, resp.StatusCode)
	assert.Equal(t, "2", resp.Header.Get("Retry-After"))
	assert.Equal(t, []string{owner.String()}, limiter.keys)

	var body ErrorResponse
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, apperr.CodeRateLimited, body.Error.Code)

	limiter.allow = true
	resp, err = app.Test(httptest.NewRequest("GET", "/x", nil))
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)

	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("X-Anonymous", "1")
	limiter.allow = false
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode, "requests without an owner are not limited")
	assert.Len(t, limiter.keys, 2)
}

func TestLatencyRecordsRoutePattern(t *testing.T) {
	reg := metrics.NewRegistry(10)
	app := fiber.New()
	app.Use(Latency(reg))
	app.Get("/items/:id", func(c *fiber.Ctx) error { return c.SendStatus(204) })

	for _, id := range []string{"a", "b"} {
		_, err := app.Test(httptest.NewRequest("GET", "/items/"+id, nil))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, reg.Stats("GET /items/:id").Count)
}
