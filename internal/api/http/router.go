package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"

	"github.com/Cristi-la/EOL-Net/internal/api/http/handlers"
	"github.com/Cristi-la/EOL-Net/internal/auth"
	"github.com/Cristi-la/EOL-Net/internal/observability"
	"github.com/Cristi-la/EOL-Net/internal/ratelimit"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Admin    *handlers.AdminHandler
	Vendors  *handlers.VendorsHandler
	Products *handlers.EntitiesHandler
	Software *handlers.EntitiesHandler

	Credentials     *auth.CredentialManager
	Authenticator   *auth.Authenticator
	Gate            *auth.Gate
	Limiter         *ratelimit.Limiter
	AdminMiddleware *auth.AdminMiddleware
	LoginLimiter    *LoginLimiter
	Metrics         *observability.Metrics
	Logger          *zap.Logger
}

// RegisterRoutes wires HTTP routes. API requests pass credential verification, the
// request-level gate and throttling, in that order; denied requests are not counted.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	api := app.Group("/api",
		auth.CredentialMiddleware(cfg.Credentials, cfg.Logger),
		auth.GateMiddleware(cfg.Authenticator, cfg.Gate, cfg.Metrics, cfg.Logger),
		ThrottleMiddleware(cfg.Limiter, cfg.Metrics, cfg.Logger),
	)

	api.Get("/vendors", cfg.Vendors.List)
	api.Get("/vendors/:id", cfg.Vendors.Get)

	registerEntityRoutes(api.Group("/products"), cfg.Products)
	registerEntityRoutes(api.Group("/software"), cfg.Software)

	admin := app.Group("/admin")
	admin.Post("/login", cfg.LoginLimiter.Handle, cfg.Admin.Login)

	tokens := admin.Group("/tokens", cfg.AdminMiddleware.Handle, auth.RequireAdmin())
	tokens.Get("/", cfg.Admin.ListTokens)
	tokens.Post("/", cfg.Admin.CreateToken)
	tokens.Delete("/:id", cfg.Admin.DeleteToken)
}

func registerEntityRoutes(group fiber.Router, h *handlers.EntitiesHandler) {
	group.Get("/", h.List)
	group.Post("/", h.Create)
	group.Get("/:id", h.Get)
	group.Put("/:id", h.Replace)
	group.Patch("/:id", h.Patch)
	group.Delete("/:id", h.Delete)
}
