package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"procurement/models"
)

type RouterOptions struct {
	AllowedOrigins []string
	// AuthLimiter throttles register and login; nil disables throttling.
	AuthLimiter *RateLimiter
	Log         zerolog.Logger
}

// NewRouter wires every API route.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(opts.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", h.HealthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if opts.AuthLimiter != nil {
					r.Use(opts.AuthLimiter.Middleware)
				}
				r.Post("/register", h.RegisterHandler)
				r.Post("/login", h.LoginHandler)
			})
			r.Group(func(r chi.Router) {
				r.Use(h.Authenticate)
				r.Get("/profile", h.GetProfileHandler)
				r.Put("/profile", h.UpdateProfileHandler)
				r.Put("/change-password", h.ChangePasswordHandler)
			})
		})

		// Supplier-facing RFP listings need no token.
		r.Get("/rfps/active", h.ActiveRFPsHandler)
		r.Get("/rfps/{rfpId}", h.PublicRFPHandler)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)

			r.With(RequireRole(models.RoleSupplier)).Get("/dashboard/supplier", h.SupplierDashboardHandler)

			r.Route("/projects", func(r chi.Router) {
				r.Use(RequireRole(models.RoleCustomer))
				r.Post("/", h.CreateProjectHandler)
				r.Get("/", h.ListProjectsHandler)
				r.Get("/dashboard", h.CustomerDashboardHandler)

				r.Route("/{projectId}", func(r chi.Router) {
					r.Get("/", h.GetProjectHandler)
					r.Put("/", h.UpdateProjectHandler)
					r.Delete("/", h.DeleteProjectHandler)

					r.Route("/products", func(r chi.Router) {
						r.Post("/", h.CreateProductHandler)
						r.Get("/", h.ListProductsHandler)
						r.Get("/category", h.ListProductsByCategoryHandler)
						r.Get("/{productId}", h.GetProductHandler)
						r.Put("/{productId}", h.UpdateProductHandler)
						r.Delete("/{productId}", h.DeleteProductHandler)
					})

					r.Route("/rfps", func(r chi.Router) {
						r.Post("/", h.CreateRFPHandler)
						r.Get("/", h.ListRFPsHandler)
						r.Get("/comparison", h.ComparisonHandler)
						r.Get("/comparison/export", h.ExportComparisonHandler)
						r.Get("/{rfpId}", h.GetRFPHandler)
						r.Put("/{rfpId}", h.UpdateRFPHandler)
						r.Delete("/{rfpId}", h.DeleteRFPHandler)
						r.Put("/{rfpId}/toggle", h.ToggleRFPHandler)
					})
				})
			})

			r.Route("/proposals", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(RequireRole(models.RoleSupplier))
					r.Post("/", h.CreateProposalHandler)
					r.Get("/", h.ListProposalsHandler)
					r.Get("/{proposalId}", h.GetProposalHandler)
					r.Put("/{proposalId}", h.UpdateProposalHandler)
					r.Put("/{proposalId}/withdraw", h.WithdrawProposalHandler)
					r.Get("/{proposalId}/document", h.ProposalDocumentHandler)
				})
				r.Group(func(r chi.Router) {
					r.Use(RequireRole(models.RoleCustomer))
					r.Get("/customer/{proposalId}", h.GetCustomerProposalHandler)
					r.Put("/customer/{proposalId}/status", h.DecideProposalHandler)
					r.Get("/customer/{proposalId}/document", h.ProposalDocumentHandler)
					r.Get("/rfp/{rfpId}", h.ListRFPProposalsHandler)
				})
				r.With(RequireRole(models.RoleAdmin)).Put("/{proposalId}/status", h.UpdateProposalStatusHandler)
			})
		})
	})

	return r
}
