package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/portfolio/internal/service"
)

// MessageHandler serves the contact form and feedback. Submitting is public;
// reading and deleting need a session.
type MessageHandler struct {
	svc    *service.MessageService
	logger *slog.Logger
}

func NewMessageHandler(svc *service.MessageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{svc: svc, logger: logger}
}

// HandleCreateContact stores a contact message.
//
// HTTP: POST /api/contact
// REQUEST BODY: {"name": "...", "email": "...", "subject": "...", "message": "..."}
func (h *MessageHandler) HandleCreateContact(w http.ResponseWriter, r *http.Request) {
	var in service.ContactInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	c, err := h.svc.SubmitContact(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *MessageHandler) HandleListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.svc.Contacts(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (h *MessageHandler) HandleDeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteContact(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "contact deleted")
}

// HandleCreateFeedback stores a 1-5 star rating.
//
// HTTP: POST /api/feedback
// REQUEST BODY: {"rating": 5, "comment": "optional"}
func (h *MessageHandler) HandleCreateFeedback(w http.ResponseWriter, r *http.Request) {
	var in service.FeedbackInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	fb, err := h.svc.SubmitFeedback(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, fb)
}

func (h *MessageHandler) HandleListFeedback(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Feedback(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
