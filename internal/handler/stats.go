package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/portfolio/internal/service"
)

// Pinger checks that the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsHandler serves the admin dashboard and the health check.
type StatsHandler struct {
	svc    *service.StatsService
	db     Pinger
	logger *slog.Logger
}

func NewStatsHandler(svc *service.StatsService, db Pinger, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{svc: svc, db: db, logger: logger}
}

// HandleStats returns content counts, the average rating and the visitor
// counters.
//
// HTTP: GET /api/stats
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dashboard(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// HandleHealth reports whether the server can reach its database.
//
// HTTP: GET /healthz
func (h *StatsHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		h.logger.Error("health check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
