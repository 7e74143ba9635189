package recalc

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fdg312/adaptive-tdee/internal/calendar"
	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/fdg312/adaptive-tdee/internal/trend"
	"github.com/google/uuid"
)

// Handler serves the data-entry and chain endpoints under /v1/users/{user_id}.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleLogWeight handles POST /v1/users/{user_id}/weights
func (h *Handler) HandleLogWeight(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "user_id")
	if !ok {
		return
	}
	var req LogWeightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	resp, err := h.service.LogWeight(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// HandleEditWeight handles PATCH /v1/users/{user_id}/weights/{id}
func (h *Handler) HandleEditWeight(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "user_id")
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req LogWeightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	resp, err := h.service.EditWeight(r.Context(), userID, id, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleDeleteWeight handles DELETE /v1/users/{user_id}/weights/{id}
func (h *Handler) HandleDeleteWeight(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "user_id")
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	resp, err := h.service.DeleteWeight(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleLogMeal handles POST /v1/users/{user_id}/meals
func (h *Handler) HandleLogMeal(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "user_id")
	if !ok {
		return
	}
	var req LogMealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	resp, err := h.service.LogMeal(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// HandleDeleteMeal handles DELETE /v1/users/{user_id}/meals/{id}
func (h *Handler) HandleDeleteMeal(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "user_id")
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	resp, err := h.service.DeleteMeal(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleSetDayStatus handles PUT /v1/users/{user_id}/days/{date}/status
func (h *Handler) HandleSetDayStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "user_id")
	if !ok {
		return
	}
	var req DayStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	resp, err := h.service.SetDayStatus(r.Context(), userID, r.PathValue("date"), req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleClearDayStatus handles DELETE /v1/users/{user_id}/days/{date}/status
func (h *Handler) HandleClearDayStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "user_id")
	if !ok {
		return
	}
	resp, err := h.service.ClearDayStatus(r.Context(), userID, r.PathValue("date"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleSetSteps handles PUT /v1/users/{user_id}/days/{date}/steps
func (h *Handler) HandleSetSteps(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "user_id")
	if !ok {
		return
	}
	var req StepsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	resp, err := h.service.SetStepCount(r.Context(), userID, r.PathValue("date"), req.StepCount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleListStates handles GET /v1/users/{user_id}/states?from=&to=
func (h *Handler) HandleListStates(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "user_id")
	if !ok {
		return
	}
	from, to, ok := h.rangeParams(w, r)
	if !ok {
		return
	}
	states, err := h.service.ListStates(r.Context(), userID, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatesResponse{States: states})
}

// HandleTrend handles GET /v1/users/{user_id}/trend?from=&to=
func (h *Handler) HandleTrend(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "user_id")
	if !ok {
		return
	}
	from, to, ok := h.rangeParams(w, r)
	if !ok {
		return
	}
	resp, err := h.service.TrendSeries(r.Context(), userID, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleRecompute handles POST /v1/users/{user_id}/recompute
func (h *Handler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "user_id")
	if !ok {
		return
	}
	var req RecomputeRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
			return
		}
	}

	var (
		res *RecomputeResult
		err error
	)
	if req.From == "" {
		res, err = h.service.RecomputeAll(r.Context(), userID, TriggerManual)
	} else {
		res, err = h.service.RecomputeFrom(r.Context(), userID, req.From, TriggerManual)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleBackfill handles POST /v1/users/{user_id}/backfill
func (h *Handler) HandleBackfill(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "user_id")
	if !ok {
		return
	}
	var req BackfillRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
			return
		}
	}
	res, err := h.service.Backfill(r.Context(), userID, req.LookbackDays)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// rangeParams reads from/to, defaulting to the trailing 30 days.
func (h *Handler) rangeParams(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	to := r.URL.Query().Get("to")
	if to == "" {
		to = h.service.Today()
	}
	from := r.URL.Query().Get("from")
	if from == "" {
		from = calendar.AddDays(to, -29)
	}
	if calendar.Validate(from) != nil || calendar.Validate(to) != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "from and to must be YYYY-MM-DD")
		return "", "", false
	}
	return from, to, true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+name, "invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrWeightOutOfRange):
		writeError(w, http.StatusBadRequest, "weight_out_of_range", err.Error())
	case errors.Is(err, ErrInvalidCalories):
		writeError(w, http.StatusBadRequest, "invalid_calories", err.Error())
	case errors.Is(err, ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, ErrInvalidSteps):
		writeError(w, http.StatusBadRequest, "invalid_steps", err.Error())
	case errors.Is(err, ErrInvalidLookback):
		writeError(w, http.StatusBadRequest, "invalid_lookback", err.Error())
	case errors.Is(err, ErrFutureDate):
		writeError(w, http.StatusBadRequest, "future_date", err.Error())
	case errors.Is(err, ErrRangeTooLarge):
		writeError(w, http.StatusBadRequest, "range_too_large", err.Error())
	case errors.Is(err, calendar.ErrInvalidDate), errors.Is(err, trend.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
	case errors.Is(err, ErrWeightNotFound):
		writeError(w, http.StatusNotFound, "weight_not_found", err.Error())
	case errors.Is(err, ErrMealNotFound):
		writeError(w, http.StatusNotFound, "meal_not_found", err.Error())
	case errors.Is(err, ErrProfileIncomplete):
		writeError(w, http.StatusUnprocessableEntity, "profile_incomplete", err.Error())
	case errors.Is(err, ErrOutOfSequence):
		writeError(w, http.StatusUnprocessableEntity, "out_of_sequence", err.Error())
	case errors.Is(err, storage.ErrStaleChain):
		writeError(w, http.StatusConflict, "stale_chain", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}
