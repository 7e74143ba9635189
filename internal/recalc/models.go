package recalc

import (
	"time"

	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/fdg312/adaptive-tdee/internal/trend"
	"github.com/google/uuid"
)

// Recompute triggers, used for logging, metrics and events.
const (
	TriggerWeight   = "weight"
	TriggerStatus   = "day_status"
	TriggerSteps    = "steps"
	TriggerGoal     = "goal"
	TriggerProfile  = "profile"
	TriggerBackfill = "backfill"
	TriggerManual   = "manual"
)

// LogWeightRequest is the body of POST /weights and PATCH /weights/{id}.
type LogWeightRequest struct {
	WeightKg   float64   `json:"weight_kg"`
	ObservedAt time.Time `json:"observed_at"`
	Note       string    `json:"note,omitempty"`
}

// LogMealRequest is the body of POST /meals.
type LogMealRequest struct {
	Date     string   `json:"date"`
	Name     string   `json:"name"`
	Calories int      `json:"calories"`
	ProteinG *float64 `json:"protein_g,omitempty"`
	CarbsG   *float64 `json:"carbs_g,omitempty"`
	FatG     *float64 `json:"fat_g,omitempty"`
}

// DayStatusRequest is the body of PUT /days/{date}/status.
type DayStatusRequest struct {
	Status storage.DayStatus `json:"status"`
}

// StepsRequest is the body of PUT /days/{date}/steps.
type StepsRequest struct {
	StepCount int `json:"step_count"`
}

// RecomputeRequest is the body of POST /recompute.
type RecomputeRequest struct {
	From string `json:"from"`
}

// BackfillRequest is the body of POST /backfill.
type BackfillRequest struct {
	LookbackDays int `json:"lookback_days"`
}

// RecomputeResult describes one chain pass.
type RecomputeResult struct {
	From         string                  `json:"from"`
	To           string                  `json:"to"`
	Days         int                     `json:"days"`
	ChainVersion int64                   `json:"chain_version"`
	Latest       *StateDTO               `json:"latest,omitempty"`
	Confidence   storage.ConfidenceLevel `json:"confidence,omitempty"`
}

// BackfillResult describes a backfill run.
type BackfillResult struct {
	From       string           `json:"from"`
	To         string           `json:"to"`
	Aggregated int              `json:"aggregated"`
	Recompute  *RecomputeResult `json:"recompute"`
}

// WeightDTO is the API form of a weight observation.
type WeightDTO struct {
	ID         uuid.UUID `json:"id"`
	WeightKg   float64   `json:"weight_kg"`
	ObservedAt time.Time `json:"observed_at"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// MealDTO is the API form of a meal entry.
type MealDTO struct {
	ID        uuid.UUID `json:"id"`
	Date      string    `json:"date"`
	Name      string    `json:"name"`
	Calories  int       `json:"calories"`
	ProteinG  *float64  `json:"protein_g,omitempty"`
	CarbsG    *float64  `json:"carbs_g,omitempty"`
	FatG      *float64  `json:"fat_g,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DayDTO is the API form of a daily record.
type DayDTO struct {
	Date           string            `json:"date"`
	ScaleWeightKg  *float64          `json:"scale_weight_kg"`
	IntakeCalories *int              `json:"intake_calories"`
	IntakeProteinG *float64          `json:"intake_protein_g,omitempty"`
	IntakeCarbsG   *float64          `json:"intake_carbs_g,omitempty"`
	IntakeFatG     *float64          `json:"intake_fat_g,omitempty"`
	StepCount      *int              `json:"step_count,omitempty"`
	Status         storage.DayStatus `json:"status"`
	StatusLocked   bool              `json:"status_locked"`
}

// StateDTO is the API form of a computed state.
type StateDTO struct {
	Date                string              `json:"date"`
	TrendWeightKg       float64             `json:"trend_weight_kg"`
	EstimatedTdeeKcal   int                 `json:"estimated_tdee_kcal"`
	RawTdeeKcal         int                 `json:"raw_tdee_kcal"`
	FluxConfidenceRange int                 `json:"flux_confidence_range"`
	EnergyDensityUsed   int                 `json:"energy_density_used"`
	WeightDeltaKg       float64             `json:"weight_delta_kg"`
	DaysTracked         int                 `json:"days_tracked"`
	Source              storage.StateSource `json:"source"`
	WhooshSeverity      string              `json:"whoosh_severity,omitempty"`
}

// WeightResponse is returned by weight writes.
type WeightResponse struct {
	Weight    *WeightDTO       `json:"weight,omitempty"`
	Day       *DayDTO          `json:"day,omitempty"`
	Recompute *RecomputeResult `json:"recompute"`
}

// MealResponse is returned by meal writes.
type MealResponse struct {
	Meal *MealDTO `json:"meal,omitempty"`
	Day  *DayDTO  `json:"day"`
}

// DayResponse is returned by day status and step writes.
type DayResponse struct {
	Day       *DayDTO          `json:"day"`
	Recompute *RecomputeResult `json:"recompute"`
}

// TrendResponse is the response of GET /trend.
type TrendResponse struct {
	Points         []trend.Point `json:"points"`
	WeeklyChangeKg *float64      `json:"weekly_change_kg"`
}

// StatesResponse is the response of GET /states.
type StatesResponse struct {
	States []StateDTO `json:"states"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toWeightDTO(o *storage.WeightObservation) *WeightDTO {
	if o == nil {
		return nil
	}
	return &WeightDTO{ID: o.ID, WeightKg: o.WeightKg, ObservedAt: o.ObservedAt, Note: o.Note, CreatedAt: o.CreatedAt}
}

func toMealDTO(m *storage.MealEntry) *MealDTO {
	if m == nil {
		return nil
	}
	return &MealDTO{
		ID:        m.ID,
		Date:      m.Date,
		Name:      m.Name,
		Calories:  m.Calories,
		ProteinG:  m.ProteinG,
		CarbsG:    m.CarbsG,
		FatG:      m.FatG,
		CreatedAt: m.CreatedAt,
	}
}

func toDayDTO(r *storage.DailyRecord) *DayDTO {
	if r == nil {
		return nil
	}
	return &DayDTO{
		Date:           r.Date,
		ScaleWeightKg:  r.ScaleWeightKg,
		IntakeCalories: r.IntakeCalories,
		IntakeProteinG: r.IntakeProteinG,
		IntakeCarbsG:   r.IntakeCarbsG,
		IntakeFatG:     r.IntakeFatG,
		StepCount:      r.StepCount,
		Status:         r.Status,
		StatusLocked:   r.StatusLocked,
	}
}

// ToStateDTO converts a computed state.
func ToStateDTO(s storage.ComputedState) StateDTO {
	return StateDTO{
		Date:                s.Date,
		TrendWeightKg:       s.TrendWeightKg,
		EstimatedTdeeKcal:   s.EstimatedTdeeKcal,
		RawTdeeKcal:         s.RawTdeeKcal,
		FluxConfidenceRange: s.FluxConfidenceRange,
		EnergyDensityUsed:   s.EnergyDensityUsed,
		WeightDeltaKg:       s.WeightDeltaKg,
		DaysTracked:         s.DaysTracked,
		Source:              s.Source,
		WhooshSeverity:      s.WhooshSeverity,
	}
}
