package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"intake/internal/submission/formconfig"
	"intake/internal/submission/models"
	dErrors "intake/pkg/domain-errors"
	"intake/pkg/platform/httputil"
	"intake/pkg/platform/middleware/requestid"
	"intake/pkg/platform/middleware/requesttime"
	"intake/pkg/platform/sentinel"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency that can report its health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// ResponseFinder looks up the latest completed response of a subject.
type ResponseFinder interface {
	LatestResponse(ctx context.Context, subject models.Reference, templateID string) (*models.FormResponse, error)
}

// opsHandler serves health, readiness and read-only introspection. There is
// no submission API; submissions enter through the service package.
type opsHandler struct {
	configs   *formconfig.Registry
	responses ResponseFinder
	checks  map[string]Pinger
	logger  *slog.Logger
}

func newOpsRouter(h *opsHandler, metrics http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)

	r.Get("/healthz", h.handleHealth)
	r.Get("/readyz", h.handleReady)
	r.Method(http.MethodGet, "/metrics", metrics)
	r.Get("/configs", h.handleListConfigs)
	r.Get("/configs/{id}", h.handleGetConfig)
	r.Get("/responses/latest", h.handleLatestResponse)
	return r
}

func (h *opsHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady pings every dependency and reports each result.
func (h *opsHandler) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name].Ping(ctx); err != nil {
			h.logger.WarnContext(ctx, "readiness check failed", "dependency", name, "error", err)
			results[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	httputil.WriteJSON(w, status, results)
}

func (h *opsHandler) handleListConfigs(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string][]string{"configs": h.configs.IDs()})
}

func (h *opsHandler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cfg, err := h.configs.Get(id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "submission config not found"))
			return
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cfg)
}

// handleLatestResponse handles GET /responses/latest?subject=Type/id&template=id.
func (h *opsHandler) handleLatestResponse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := h.responses.LatestResponse(r.Context(), models.Reference(q.Get("subject")), q.Get("template"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
