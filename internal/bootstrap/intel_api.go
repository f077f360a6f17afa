// Package bootstrap wires configuration, stores and services into runnable processes.
package bootstrap

import (
	"strings"

	"intel_server/adapter/in/http"
	"intel_server/config"
	"intel_server/infra/middleware"
	"intel_server/pkg/logger"
	"intel_server/pkg/metrics"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// NewAPI builds the fiber app serving the /api/v1 routes.
func NewAPI(deps *Dependencies) *fiber.App {
	app := newApp(deps.Config, deps.Latency)
	registerRoutes(app, deps)

	logger.Info("API server initialized")
	return app
}

func newApp(cfg *config.Config, latency *metrics.Registry) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		BodyLimit:             4 * 1024 * 1024,
		ServerHeader:          "",
	})

	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.Latency(latency))

	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	allowCredentials := allowOrigins != "" && allowOrigins != "*"
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,PUT,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		ExposeHeaders:    "X-Request-ID",
		AllowCredentials: allowCredentials,
		MaxAge:           86400,
	}))
	return app
}

func registerRoutes(app *fiber.App, deps *Dependencies) {
	// no auth
	http.NewHealthHandler(deps.Checks).WithLatency(deps.Latency).Register(app)

	api := app.Group("/api/v1")
	api.Use(middleware.JWTAuth(deps.Config.JWTSecret))
	if deps.Limiter != nil {
		api.Use(middleware.RateLimit(deps.Limiter))
	}

	http.NewEmailHandler(deps.EmailService).Register(api)
	http.NewDraftHandler(deps.DraftService).Register(api)
	http.NewLearningHandler(deps.Learning).Register(api)
}
