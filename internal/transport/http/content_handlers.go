package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medlearn-service/internal/app"
)

// ContentHandler exposes the curriculum tree and step uploads over REST.
type ContentHandler struct {
	service *app.ContentService
}

func NewContentHandler(service *app.ContentService) *ContentHandler {
	return &ContentHandler{service: service}
}

type nameRequest struct {
	Name string `json:"name"`
}

func (h *ContentHandler) CreateSubject(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	subject, err := h.service.CreateSubject(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, subject)
}

func (h *ContentHandler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.service.ListSubjects(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subjects)
}

func (h *ContentHandler) GetSubject(w http.ResponseWriter, r *http.Request) {
	subject, err := h.service.GetSubject(r.Context(), chi.URLParam(r, "subjectID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subject)
}

func (h *ContentHandler) RenameSubject(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	subject, err := h.service.RenameSubject(r.Context(), chi.URLParam(r, "subjectID"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subject)
}

func (h *ContentHandler) DeleteSubject(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSubject(r.Context(), chi.URLParam(r, "subjectID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *ContentHandler) CreateChapter(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	chapter, err := h.service.CreateChapter(r.Context(), chi.URLParam(r, "subjectID"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, chapter)
}

func (h *ContentHandler) ListChapters(w http.ResponseWriter, r *http.Request) {
	chapters, err := h.service.ListChapters(r.Context(), chi.URLParam(r, "subjectID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chapters)
}

func (h *ContentHandler) GetChapter(w http.ResponseWriter, r *http.Request) {
	chapter, err := h.service.GetChapter(r.Context(), chi.URLParam(r, "chapterID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chapter)
}

func (h *ContentHandler) RenameChapter(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	chapter, err := h.service.RenameChapter(r.Context(), chi.URLParam(r, "chapterID"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chapter)
}

func (h *ContentHandler) DeleteChapter(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteChapter(r.Context(), chi.URLParam(r, "chapterID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *ContentHandler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	topic, err := h.service.CreateTopic(r.Context(), chi.URLParam(r, "chapterID"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, topic)
}

func (h *ContentHandler) ListTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.service.ListTopics(r.Context(), chi.URLParam(r, "chapterID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topics)
}

func (h *ContentHandler) GetTopic(w http.ResponseWriter, r *http.Request) {
	topic, err := h.service.GetTopic(r.Context(), chi.URLParam(r, "topicID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topic)
}

func (h *ContentHandler) RenameTopic(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	topic, err := h.service.RenameTopic(r.Context(), chi.URLParam(r, "topicID"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topic)
}

func (h *ContentHandler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteTopic(r.Context(), chi.URLParam(r, "topicID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type uploadRequest struct {
	Steps json.RawMessage `json:"steps"`
}

// UploadSteps accepts one batch of steps and responds with the merged view.
func (h *ContentHandler) UploadSteps(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	merged, err := h.service.UploadSteps(r.Context(), chi.URLParam(r, "topicID"), req.Steps)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"steps": merged})
}

func (h *ContentHandler) MergedContent(w http.ResponseWriter, r *http.Request) {
	merged, err := h.service.MergedContent(r.Context(), chi.URLParam(r, "topicID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"steps": merged})
}

func (h *ContentHandler) DeleteUploads(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteUploads(r.Context(), chi.URLParam(r, "topicID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
