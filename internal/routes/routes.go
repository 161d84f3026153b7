package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/monroy-qms/api/internal/auth"
	"github.com/monroy-qms/api/internal/handlers"
	"github.com/monroy-qms/api/internal/middleware"
	"github.com/monroy-qms/api/internal/models"
	pkghttp "github.com/monroy-qms/api/pkg/http"
)

const (
	publicVerifyRequestsPerMinute  = 60
	authenticatedRequestsPerMinute = 300
)

// Handlers groups the HTTP handlers mounted by RegisterRoutes
type Handlers struct {
	Auth        *handlers.AuthHandler
	Users       *handlers.UserHandler
	Clients     *handlers.ClientHandler
	Equipment   *handlers.EquipmentHandler
	Inspections *handlers.InspectionHandler
	NCRs        *handlers.NCRHandler
	Audit       *handlers.AuditHandler
	Dashboard   *handlers.DashboardHandler
	Public      *handlers.PublicHandler
	Health      *handlers.HealthHandler
}

// Options tune the route-level middleware
type Options struct {
	AuthRequestsPerMinute int
	IPConfig              *pkghttp.IPConfig
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, h Handlers, tokens auth.AccessTokenValidator, opts Options) {
	authLimit := middleware.DefaultAuthRateLimit(opts.IPConfig)
	if opts.AuthRequestsPerMinute > 0 {
		authLimit.RequestsPerMinute = opts.AuthRequestsPerMinute
	}

	router.Get("/health", h.Health.Health)
	router.Get("/health/db", h.Health.Database)

	router.With(middleware.RateLimitByIP(middleware.RateLimitConfig{
		RequestsPerMinute: publicVerifyRequestsPerMinute,
		IPConfig:          opts.IPConfig,
	})).Get("/public/verify/{publicCode}", h.Public.Verify)

	router.Route("/api", func(r chi.Router) {
		// Public auth endpoints share one per-IP bucket.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(authLimit))
			r.Post("/auth/login", h.Auth.Login)
			r.Post("/auth/refresh", h.Auth.Refresh)
			r.Post("/auth/logout", h.Auth.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate(tokens))
			r.Use(middleware.RateLimitByUser(middleware.RateLimitConfig{
				RequestsPerMinute: authenticatedRequestsPerMinute,
				IPConfig:          opts.IPConfig,
			}))

			r.Post("/auth/logout-all", h.Auth.LogoutAll)
			r.Get("/auth/me", h.Auth.Me)

			r.Get("/clients", h.Clients.List)
			r.Get("/clients/{id}", h.Clients.Get)
			r.Get("/equipment", h.Equipment.List)
			r.Get("/equipment/{id}", h.Equipment.Get)
			r.Get("/inspections", h.Inspections.List)
			r.Get("/inspections/{id}/pfmea", h.Inspections.ListPFMEA)
			r.Get("/ncrs", h.NCRs.List)
			r.Get("/dashboard/kpis", h.Dashboard.KPIs)
			r.Get("/dashboard/inspections-by-month", h.Dashboard.InspectionsByMonth)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(models.StaffRoles...))
				r.Post("/equipment", h.Equipment.Create)
				r.Post("/inspections", h.Inspections.Create)
				r.Post("/inspections/{id}/pfmea", h.Inspections.AddPFMEA)
				r.Post("/ncrs", h.NCRs.Create)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(models.ManagementRoles...))
				r.Post("/clients", h.Clients.Create)
				r.Patch("/ncrs/{id}", h.NCRs.UpdateStatus)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(models.RoleAdmin))
				r.Get("/users", h.Users.ListUsers)
				r.Post("/users", h.Users.CreateUser)
				r.Patch("/users/{id}", h.Users.UpdateStatus)
				r.Post("/users/{id}/password", h.Users.ResetPassword)
				r.Get("/audit-logs", h.Audit.List)
			})
		})
	})
}
