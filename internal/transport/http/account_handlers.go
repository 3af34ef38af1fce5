package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"medlearn-service/internal/app"
)

// AccountHandler exposes registration, status, colleges, and OTP flows.
type AccountHandler struct {
	service *app.AccountService
}

func NewAccountHandler(service *app.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

type registerRequest struct {
	Phone     string `json:"phone"`
	Name      string `json:"name"`
	CollegeID string `json:"collegeId"`
}

func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	user, err := h.service.Register(r.Context(), req.Phone, req.Name, req.CollegeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *AccountHandler) Status(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Status(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AccountHandler) Colleges(w http.ResponseWriter, r *http.Request) {
	colleges, err := h.service.Colleges(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, colleges)
}

type otpStartRequest struct {
	Phone string `json:"phone"`
}

func (h *AccountHandler) StartOTP(w http.ResponseWriter, r *http.Request) {
	var req otpStartRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	status, err := h.service.StartOTP(r.Context(), req.Phone)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

type otpCheckRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

func (h *AccountHandler) CheckOTP(w http.ResponseWriter, r *http.Request) {
	var req otpCheckRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	approved, err := h.service.CheckOTP(r.Context(), req.Phone, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"approved": approved})
}
