package profiles

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fdg312/adaptive-tdee/internal/recalc"
	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/google/uuid"
)

// Handler содержит HTTP обработчики для профилей
type Handler struct {
	service *Service
}

// NewHandler создаёт новый handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleGet обрабатывает GET /v1/users/{user_id}/profile
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("user_id"))
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_user_id", "Invalid user ID")
		return
	}

	profile, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.sendError(w, http.StatusNotFound, "not_found", "Profile not found")
			return
		}
		h.sendError(w, http.StatusInternalServerError, "internal_error", "Failed to get profile")
		return
	}

	h.sendJSON(w, http.StatusOK, profile)
}

// HandlePut обрабатывает PUT /v1/users/{user_id}/profile
func (h *Handler) HandlePut(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("user_id"))
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_user_id", "Invalid user ID")
		return
	}

	var req UpsertProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON")
		return
	}

	resp, err := h.service.UpsertProfile(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSex):
			h.sendError(w, http.StatusBadRequest, "invalid_sex", err.Error())
		case errors.Is(err, ErrInvalidHeight):
			h.sendError(w, http.StatusBadRequest, "invalid_height", err.Error())
		case errors.Is(err, ErrInvalidBirthDate):
			h.sendError(w, http.StatusBadRequest, "invalid_birth_date", err.Error())
		case errors.Is(err, ErrInvalidGoalType):
			h.sendError(w, http.StatusBadRequest, "invalid_goal_type", err.Error())
		case errors.Is(err, ErrInvalidGoalRate):
			h.sendError(w, http.StatusBadRequest, "invalid_goal_rate", err.Error())
		case errors.Is(err, ErrInvalidTarget):
			h.sendError(w, http.StatusBadRequest, "invalid_target_weight", err.Error())
		case errors.Is(err, ErrInvalidUnits):
			h.sendError(w, http.StatusBadRequest, "invalid_units", err.Error())
		case errors.Is(err, storage.ErrStaleChain):
			h.sendError(w, http.StatusConflict, "stale_chain", err.Error())
		case errors.Is(err, recalc.ErrOutOfSequence):
			h.sendError(w, http.StatusUnprocessableEntity, "out_of_sequence", err.Error())
		default:
			h.sendError(w, http.StatusInternalServerError, "internal_error", "Failed to update profile")
		}
		return
	}

	h.sendJSON(w, http.StatusOK, resp)
}

// sendJSON отправляет JSON ответ
func (h *Handler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// sendError отправляет ошибку в формате ErrorResponse
func (h *Handler) sendError(w http.ResponseWriter, status int, code, message string) {
	h.sendJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
