package http

import (
	"context"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"

	"intel_server/pkg/metrics"
)

// PingFunc checks one dependency.
type PingFunc func(ctx context.Context) error

type HealthHandler struct {
	checks  map[string]PingFunc
	latency *metrics.Registry
}

// NewHealthHandler reports readiness from the named checks. Unconfigured stores are simply omitted.
func NewHealthHandler(checks map[string]PingFunc) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// WithLatency exposes the registry's per-route percentiles on /metrics/latency.
func (h *HealthHandler) WithLatency(reg *metrics.Registry) *HealthHandler {
	h.latency = reg
	return h
}

func (h *HealthHandler) Register(app fiber.Router) {
	app.Get("/health", h.Health)
	app.Get("/ready", h.Ready)
	if h.latency != nil {
		app.Get("/metrics/latency", h.Latency)
	}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]string, len(names))
	allHealthy := true
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			checks[name] = "unhealthy: " + err.Error()
			allHealthy = false
			continue
		}
		checks[name] = "healthy"
	}

	status := "ready"
	statusCode := fiber.StatusOK
	if !allHealthy {
		status = "not ready"
		statusCode = fiber.StatusServiceUnavailable
	}
	return c.Status(statusCode).JSON(fiber.Map{
		"status":    status,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) Latency(c *fiber.Ctx) error {
	all := h.latency.All()
	routes := make(map[string]map[string]any, len(all))
	for op, stats := range all {
		routes[op] = stats.Millis()
	}
	return c.JSON(fiber.Map{"routes": routes})
}
