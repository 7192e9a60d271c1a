package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/service"
)

// VisitorCookie holds the anonymous visitor token.
const VisitorCookie = "visitor_id"

const visitorCookieTTL = 365 * 24 * time.Hour

// VisitorHandler serves the visit counter and the reading ledger. Neither
// needs a login; the visitor is identified by the visitor_id cookie.
type VisitorHandler struct {
	visits       *service.VisitorService
	engagement   *service.EngagementService
	secureCookie bool
	logger       *slog.Logger
}

func NewVisitorHandler(visits *service.VisitorService, engagement *service.EngagementService, secureCookie bool, logger *slog.Logger) *VisitorHandler {
	return &VisitorHandler{visits: visits, engagement: engagement, secureCookie: secureCookie, logger: logger}
}

func visitorToken(r *http.Request) string {
	c, err := r.Cookie(VisitorCookie)
	if err != nil || !service.ValidVisitorToken(c.Value) {
		return ""
	}
	return c.Value
}

func (h *VisitorHandler) setVisitorCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     VisitorCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(visitorCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// HandleTrack counts a visit.
//
// HTTP: POST /api/track-visitor
// RESPONSE: {"isNewVisitor": true, "totalVisitors": 42, "uniqueVisitors": 17}
func (h *VisitorHandler) HandleTrack(w http.ResponseWriter, r *http.Request) {
	current := visitorToken(r)
	res, token, err := h.visits.Track(r.Context(), current)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if token != current {
		h.setVisitorCookie(w, token)
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleStats returns the counters without counting a visit.
//
// HTTP: GET /api/visitor-stats
func (h *VisitorHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.visits.Stats(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type engagementRequest struct {
	Action model.Action `json:"action"`
}

// HandleRecordEngagement awards an action on a post, issuing a visitor
// cookie first when the browser has none.
//
// HTTP: POST /api/blog/{id}/engagement
// REQUEST BODY: {"action": "like"}
func (h *VisitorHandler) HandleRecordEngagement(w http.ResponseWriter, r *http.Request) {
	var req engagementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	token := visitorToken(r)
	if token == "" {
		var err error
		if token, err = service.NewVisitorToken(); err != nil {
			writeError(w, h.logger, err)
			return
		}
		h.setVisitorCookie(w, token)
	}

	res, err := h.engagement.Record(r.Context(), token, r.PathValue("id"), req.Action)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandlePostEngagement returns per-action counts for a post and which of
// them the caller has done.
//
// HTTP: GET /api/blog/{id}/engagement
func (h *VisitorHandler) HandlePostEngagement(w http.ResponseWriter, r *http.Request) {
	res, err := h.engagement.Post(r.Context(), r.PathValue("id"), visitorToken(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleMyEngagement returns the caller's points and level.
//
// HTTP: GET /api/engagement/me
func (h *VisitorHandler) HandleMyEngagement(w http.ResponseWriter, r *http.Request) {
	res, err := h.engagement.Visitor(r.Context(), visitorToken(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
