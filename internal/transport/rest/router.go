package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"

	"github.com/frahmantamala/visitor-management/api"
	"github.com/frahmantamala/visitor-management/internal"
	"github.com/frahmantamala/visitor-management/internal/auth"
	"github.com/frahmantamala/visitor-management/internal/menu"
	"github.com/frahmantamala/visitor-management/internal/permission"
	"github.com/frahmantamala/visitor-management/internal/rbac"
	"github.com/frahmantamala/visitor-management/internal/transport"
	"github.com/frahmantamala/visitor-management/internal/transport/middleware"
	"github.com/frahmantamala/visitor-management/internal/transport/swagger"
	"github.com/frahmantamala/visitor-management/internal/user"
)

// Routes groups what RegisterAllRoutes mounts. Nil handlers are skipped.
type Routes struct {
	Health      *HealthHandler
	Auth        *auth.Handler
	User        *user.Handler
	RBAC        *rbac.Handler
	Menu        *menu.Handler
	Permissions *rbac.Middleware

	Metrics        *middleware.HTTPMetrics
	MetricsHandler http.Handler
}

func RegisterAllRoutes(router *chi.Mux, cfg *internal.Config, routes Routes, logger *slog.Logger) {
	// Apply global middleware
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.SecureHeaders(cfg.IsProduction(), logger))
	router.Use(routes.Metrics.Middleware)

	router.Get(swagger.SpecURL, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.OpenAPI)
	})
	router.Handle("/swagger/*", swagger.Handler())

	if cfg.Observability.Metrics.Enabled && routes.MetricsHandler != nil {
		router.Handle(cfg.Observability.Metrics.Path, routes.MetricsHandler)
	}

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		if routes.Health != nil {
			r.Get("/health", routes.Health.healthCheckHandler)
			r.Get("/ping", routes.Health.pingHandler)
		}

		if routes.Auth == nil {
			return
		}

		r.Route("/auth", func(sr chi.Router) {
			sr.With(loginLimiter(cfg.Server.LoginRateLimit, logger)).Post("/login", routes.Auth.Login)
		})

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(routes.Auth.AuthMiddleware)

			if routes.User != nil {
				pr.Get("/users/me", routes.User.GetCurrentUser)
			}
			if routes.Menu != nil {
				pr.Get("/menus/me", routes.Menu.GetMyMenu)
			}

			if routes.Permissions == nil {
				return
			}

			pr.Group(func(vr chi.Router) {
				vr.Use(routes.Permissions.Require(permission.ViewRoles))

				if routes.RBAC != nil {
					vr.Get("/roles", routes.RBAC.ListRoles)
					vr.Get("/permissions", routes.RBAC.ListPermissions)
					vr.Get("/roles/{id}/permissions", routes.RBAC.GetRolePermissions)
				}
				if routes.Menu != nil {
					vr.Get("/roles/{id}/menus", routes.Menu.GetRoleMenu)
				}
			})

			if routes.RBAC != nil {
				pr.Group(func(ur chi.Router) {
					ur.Use(routes.Permissions.Require(permission.UpdateRoles))
					ur.Put("/roles/{id}/permissions", routes.RBAC.ReplaceRolePermissions)
					ur.Put("/roles/{id}/menu-items", routes.RBAC.ReplaceRoleMenuItems)
				})
			}
		})
	})
}

// loginLimiter throttles credential guessing per client address.
func loginLimiter(perMinute int, logger *slog.Logger) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(logger)
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			base.WriteAppError(w, r, internal.ErrTooManyRequests)
		}),
	)
}
