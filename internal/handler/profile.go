package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/portfolio/internal/service"
)

// ProfileHandler serves the two singletons. POST and PATCH are both upserts;
// the {id} in PATCH /api/profile/{id} is accepted for compatibility and
// ignored because there is only one profile.
type ProfileHandler struct {
	svc    *service.ProfileService
	logger *slog.Logger
}

func NewProfileHandler(svc *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, logger: logger}
}

func (h *ProfileHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.Profile(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) HandleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var in service.ProfileInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	profile, created, err := h.svc.SaveProfile(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, upsertStatus(created), profile)
}

func (h *ProfileHandler) HandleGetResume(w http.ResponseWriter, r *http.Request) {
	resume, err := h.svc.Resume(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resume)
}

func (h *ProfileHandler) HandleSaveResume(w http.ResponseWriter, r *http.Request) {
	var in service.ResumeInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	resume, created, err := h.svc.SaveResume(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, upsertStatus(created), resume)
}

func (h *ProfileHandler) HandleDeleteResume(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteResume(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "resume deleted")
}

func upsertStatus(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}
