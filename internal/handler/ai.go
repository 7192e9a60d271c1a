package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/portfolio/internal/service"
)

// AIHandler exposes the three AI features. Upstream failures come back as
// 500 with error "upstream_error", or "rate_limited" when the provider
// throttled us.
type AIHandler struct {
	svc    *service.AIService
	logger *slog.Logger
}

func NewAIHandler(svc *service.AIService, logger *slog.Logger) *AIHandler {
	return &AIHandler{svc: svc, logger: logger}
}

// HandleGenerateBlog drafts a post. The draft is returned, not saved.
//
// HTTP: POST /api/ai/generate-blog
// REQUEST BODY: {"topic": "...", "keywords": ["..."], "length": "medium"}
func (h *AIHandler) HandleGenerateBlog(w http.ResponseWriter, r *http.Request) {
	var in service.GenerateBlogInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	draft, err := h.svc.GenerateBlog(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// HandleChat answers the last user message. The client sends the whole
// conversation each time; nothing is kept server-side.
//
// HTTP: POST /api/ai/chat
// REQUEST BODY: {"messages": [{"role": "user", "content": "..."}]}
func (h *AIHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var in service.ChatInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	reply, err := h.svc.Chat(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

// HandleRecommend ranks site content for a visitor.
//
// HTTP: POST /api/content-recommendations
// REQUEST BODY: {"interests": ["go"], "currentContent": {"type": "blog", "id": "..."}, "limit": 3}
func (h *AIHandler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	var in service.RecommendInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	recs, err := h.svc.Recommend(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}
