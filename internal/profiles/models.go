package profiles

import (
	"time"

	"github.com/fdg312/adaptive-tdee/internal/recalc"
	"github.com/google/uuid"
)

// ProfileDTO - DTO для API
type ProfileDTO struct {
	UserID              uuid.UUID `json:"user_id"`
	HeightCm            *float64  `json:"height_cm,omitempty"`
	BirthDate           *string   `json:"birth_date,omitempty"`
	Sex                 *string   `json:"sex,omitempty"`
	Athlete             bool      `json:"athlete"`
	GoalType            string    `json:"goal_type"`
	GoalRateKgPerWeek   float64   `json:"goal_rate_kg_per_week"`
	TargetWeightKg      *float64  `json:"target_weight_kg,omitempty"`
	Units               string    `json:"units"`
	DailyAdjustmentKcal int       `json:"daily_adjustment_kcal"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ProfileResponse - ответ для PUT, с результатом пересчёта цепочки (если был)
type ProfileResponse struct {
	Profile   ProfileDTO              `json:"profile"`
	Recompute *recalc.RecomputeResult `json:"recompute,omitempty"`
}

// UpsertProfileRequest - запрос для PUT /v1/users/{user_id}/profile.
// Отсутствующие поля сохраняют текущее значение.
type UpsertProfileRequest struct {
	HeightCm          *float64 `json:"height_cm"`
	BirthDate         *string  `json:"birth_date"`
	Sex               *string  `json:"sex"`
	Athlete           *bool    `json:"athlete"`
	GoalType          *string  `json:"goal_type"`
	GoalRateKgPerWeek *float64 `json:"goal_rate_kg_per_week"`
	TargetWeightKg    *float64 `json:"target_weight_kg"`
	Units             *string  `json:"units"`
}

// ErrorResponse - формат ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
