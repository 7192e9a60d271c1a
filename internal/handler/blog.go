package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/portfolio/internal/service"
)

// BlogHandler adds the blog routes that are not plain CRUD: slug lookup and
// comments. CRUD on posts goes through a CollectionHandler.
type BlogHandler struct {
	svc    *service.BlogService
	logger *slog.Logger
}

func NewBlogHandler(svc *service.BlogService, logger *slog.Logger) *BlogHandler {
	return &BlogHandler{svc: svc, logger: logger}
}

// HandleGetBySlug looks a post up by its public slug.
//
// HTTP: GET /api/blog/slug/{slug}
func (h *BlogHandler) HandleGetBySlug(w http.ResponseWriter, r *http.Request) {
	post, err := h.svc.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleListComments returns a post's comments, oldest first.
//
// HTTP: GET /api/blog/{id}/comments
func (h *BlogHandler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.svc.Comments(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// HandleCreateComment adds a public comment.
//
// HTTP: POST /api/blog/{id}/comments
// REQUEST BODY: {"name": "...", "email": "...", "comment": "..."}
func (h *BlogHandler) HandleCreateComment(w http.ResponseWriter, r *http.Request) {
	var in service.CommentInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	c, err := h.svc.AddComment(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *BlogHandler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteComment(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "comment deleted")
}
