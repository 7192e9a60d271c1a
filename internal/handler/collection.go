package handler

import (
	"context"
	"log/slog"
	"net/http"
)

// Collection is the CRUD surface shared by skills, projects, experiences,
// socials and blog posts. In is the service's input struct; its pointer
// fields let the same type serve POST and PATCH.
type Collection[T, In any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, in In) (*T, error)
	Update(ctx context.Context, id string, in In) (*T, error)
	Delete(ctx context.Context, id string) error
}

// CollectionHandler serves one Collection:
//
//	GET    /api/{name}       → HandleList
//	GET    /api/{name}/{id}  → HandleGet
//	POST   /api/{name}       → HandleCreate  (201)
//	PATCH  /api/{name}/{id}  → HandleUpdate
//	DELETE /api/{name}/{id}  → HandleDelete
type CollectionHandler[T, In any] struct {
	name   string
	svc    Collection[T, In]
	logger *slog.Logger
}

// NewCollectionHandler creates a handler; name is the singular used in
// messages ("skill deleted").
func NewCollectionHandler[T, In any](name string, svc Collection[T, In], logger *slog.Logger) *CollectionHandler[T, In] {
	return &CollectionHandler[T, In]{name: name, svc: svc, logger: logger}
}

func (h *CollectionHandler[T, In]) HandleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *CollectionHandler[T, In]) HandleGet(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *CollectionHandler[T, In]) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in In
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	item, err := h.svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// HandleUpdate applies a partial update. Fields absent from the body are
// left unchanged.
func (h *CollectionHandler[T, In]) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in In
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	item, err := h.svc.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *CollectionHandler[T, In]) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, h.name+" deleted")
}
