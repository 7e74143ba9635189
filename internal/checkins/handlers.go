package checkins

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fdg312/adaptive-tdee/internal/calendar"
	"github.com/google/uuid"
)

// HandleList handles GET /v1/users/{user_id}/checkins?from=&to=
// Without a range it returns the last twelve weeks.
func HandleList(service *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.PathValue("user_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user_id", "invalid user_id format")
			return
		}

		to := r.URL.Query().Get("to")
		if to == "" {
			to = calendar.DayOf(service.now(), service.loc)
		}
		from := r.URL.Query().Get("from")
		if from == "" {
			from = calendar.AddDays(to, -7*12)
		}

		list, err := service.ListCheckIns(r.Context(), userID, from, to)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(CheckInsResponse{CheckIns: list})
	}
}

// HandleGet handles GET /v1/users/{user_id}/checkins/{week}
func HandleGet(service *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.PathValue("user_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user_id", "invalid user_id format")
			return
		}

		c, err := service.GetCheckIn(r.Context(), userID, r.PathValue("week"))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(c)
	}
}

// HandleBuild handles POST /v1/users/{user_id}/checkins
func HandleBuild(service *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.PathValue("user_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user_id", "invalid user_id format")
			return
		}

		var req BuildCheckInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
			return
		}
		if req.WeekOf == "" {
			req.WeekOf = calendar.DayOf(service.now(), service.loc)
		}

		c, err := service.BuildCheckIn(r.Context(), userID, req.WeekOf)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(c)
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, calendar.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
	case errors.Is(err, ErrRangeTooLarge):
		writeError(w, http.StatusBadRequest, "range_too_large", err.Error())
	case errors.Is(err, ErrFutureWeek):
		writeError(w, http.StatusBadRequest, "future_week", err.Error())
	case errors.Is(err, ErrProfileNotFound):
		writeError(w, http.StatusNotFound, "profile_not_found", err.Error())
	case errors.Is(err, ErrCheckInNotFound):
		writeError(w, http.StatusNotFound, "checkin_not_found", err.Error())
	case errors.Is(err, ErrInsufficientData):
		writeError(w, http.StatusUnprocessableEntity, "insufficient_data", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
