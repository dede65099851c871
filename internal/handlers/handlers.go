package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"procurement/internal/auth"
	"procurement/internal/service"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles the application services the handlers call into.
type Services struct {
	Auth      *service.AuthService
	Projects  *service.ProjectService
	Products  *service.ProductService
	RFPs      *service.RFPService
	Proposals *service.ProposalService
	Dashboard *service.DashboardService
}

// Handler serves the HTTP API on top of the services.
type Handler struct {
	auth      *service.AuthService
	projects  *service.ProjectService
	products  *service.ProductService
	rfps      *service.RFPService
	proposals *service.ProposalService
	dashboard *service.DashboardService
	store     Pinger
	log       zerolog.Logger
	debug     bool
}

// NewHandler creates a Handler. With debug set, internal error messages are
// returned to clients.
func NewHandler(s Services, store Pinger, log zerolog.Logger, debug bool) *Handler {
	return &Handler{
		auth:      s.Auth,
		projects:  s.Projects,
		products:  s.Products,
		rfps:      s.RFPs,
		proposals: s.Proposals,
		dashboard: s.Dashboard,
		store:     store,
		log:       log,
		debug:     debug,
	}
}

type healthStatus struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthHandler reports liveness and store connectivity.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := healthStatus{Status: "ok", Database: "ok", Timestamp: time.Now().UTC()}
	if err := h.store.Ping(ctx); err != nil {
		h.log.Warn().Err(err).Msg("health check: store unreachable")
		status.Status, status.Database = "degraded", "unreachable"
		writeJSON(w, http.StatusServiceUnavailable, envelope{Success: false, Message: "service degraded", Data: status})
		return
	}
	respondOK(w, "service is healthy", status)
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "access token required")
	}
	return p, ok
}
