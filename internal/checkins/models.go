package checkins

import (
	"time"

	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/google/uuid"
)

// CheckInDTO is the response representation of a weekly check-in
type CheckInDTO struct {
	ID                 uuid.UUID `json:"id"`
	WeekStart          string    `json:"week_start"`
	WeekEnd            string    `json:"week_end"`
	AverageTdee        int       `json:"average_tdee"`
	SuggestedCalories  int       `json:"suggested_calories"`
	AdherenceScore     float64   `json:"adherence_score"`
	ConfidenceLevel    string    `json:"confidence_level"`
	TrendWeightStart   float64   `json:"trend_weight_start"`
	TrendWeightEnd     float64   `json:"trend_weight_end"`
	WeeklyWeightChange float64   `json:"weekly_weight_change"`
	Eligible           bool      `json:"eligible"`
	Notes              string    `json:"notes,omitempty"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// CheckInsResponse is the list response
type CheckInsResponse struct {
	CheckIns []CheckInDTO `json:"checkins"`
}

// BuildCheckInRequest asks for the check-in of the week containing WeekOf.
type BuildCheckInRequest struct {
	WeekOf string `json:"week_of"` // YYYY-MM-DD, any day of the week
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toDTO(c storage.WeeklyCheckIn) CheckInDTO {
	return CheckInDTO{
		ID:                 c.ID,
		WeekStart:          c.WeekStart,
		WeekEnd:            c.WeekEnd,
		AverageTdee:        c.AverageTdee,
		SuggestedCalories:  c.SuggestedCalories,
		AdherenceScore:     c.AdherenceScore,
		ConfidenceLevel:    string(c.ConfidenceLevel),
		TrendWeightStart:   c.TrendWeightStart,
		TrendWeightEnd:     c.TrendWeightEnd,
		WeeklyWeightChange: c.WeeklyWeightChange,
		Eligible:           c.Eligible,
		Notes:              c.Notes,
		UpdatedAt:          c.UpdatedAt,
	}
}
