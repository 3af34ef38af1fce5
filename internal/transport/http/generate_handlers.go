package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"medlearn-service/internal/app"
)

// GenerateHandler exposes generative synthesis of step content and MCQs.
type GenerateHandler struct {
	service *app.GenerateService
}

func NewGenerateHandler(service *app.GenerateService) *GenerateHandler {
	return &GenerateHandler{service: service}
}

func (h *GenerateHandler) GenerateSteps(w http.ResponseWriter, r *http.Request) {
	merged, err := h.service.GenerateSteps(r.Context(), chi.URLParam(r, "topicID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"steps": merged})
}

func (h *GenerateHandler) GenerateMCQs(w http.ResponseWriter, r *http.Request) {
	mcqs, err := h.service.GenerateMCQs(r.Context(), chi.URLParam(r, "topicID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"mcqs": mcqs})
}
