package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"medlearn-service/internal/app"
	"medlearn-service/internal/domain"
)

// QuizHandler exposes MCQ uploads, answer submission, and leaderboards.
type QuizHandler struct {
	service *app.QuizService
}

func NewQuizHandler(service *app.QuizService) *QuizHandler {
	return &QuizHandler{service: service}
}

type mcqUploadRequest struct {
	MCQs []app.MCQInput `json:"mcqs"`
}

func (h *QuizHandler) UploadMCQs(w http.ResponseWriter, r *http.Request) {
	var req mcqUploadRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	mcqs, err := h.service.UploadMCQs(r.Context(), chi.URLParam(r, "topicID"), req.MCQs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"mcqs": mcqs})
}

func (h *QuizHandler) ListMCQs(w http.ResponseWriter, r *http.Request) {
	mcqs, err := h.service.ListMCQs(r.Context(), chi.URLParam(r, "topicID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mcqs": mcqs})
}

type answerRequest struct {
	UserID     string `json:"userId"`
	QuestionID string `json:"questionId"`
	Selected   string `json:"selectedAnswer"`
}

type answerResponse struct {
	Response    domain.Response    `json:"response"`
	Leaderboard domain.Leaderboard `json:"leaderboard"`
}

func (h *QuizHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	response, board, err := h.service.SubmitAnswer(r.Context(), chi.URLParam(r, "topicID"), req.UserID, req.QuestionID, req.Selected)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answerResponse{Response: response, Leaderboard: board})
}

func (h *QuizHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.Leaderboard(r.Context(), chi.URLParam(r, "topicID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// PositionalLeaderboard freezes the board at a question's position in
// the topic's question sequence.
func (h *QuizHandler) PositionalLeaderboard(w http.ResponseWriter, r *http.Request) {
	questionID := r.URL.Query().Get("questionId")
	userID := r.URL.Query().Get("userId")
	if questionID == "" || userID == "" {
		writeError(w, domain.Validationf("questionId and userId query params required"))
		return
	}
	status, err := h.service.PositionalStatus(r.Context(), chi.URLParam(r, "topicID"), questionID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
