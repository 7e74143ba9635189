// Package coaching turns a week of computed states into a calorie target,
// an adherence score and maintenance-drift corrections.
package coaching

import (
	"fmt"
	"math"

	"github.com/fdg312/adaptive-tdee/internal/storage"
)

const (
	kcalPerKg     = 7700
	daysPerWeek   = 7
	MinCalories   = 1200
	MaxCalories   = 6000
	driftBandKg   = 1.5
	driftStepKcal = 150
)

// DailyAdjustment is the daily surplus or deficit needed for a goal rate.
func DailyAdjustment(g storage.Goal) int {
	adj := int(math.Round(math.Abs(g.RateKgPerWeek) * kcalPerKg / daysPerWeek))
	switch g.Type {
	case storage.GoalLose:
		return -adj
	case storage.GoalGain:
		return adj
	default:
		return 0
	}
}

// CalorieTarget applies the goal adjustment to tdee and clamps the result
// to a safe intake range.
func CalorieTarget(tdee int, g storage.Goal) int {
	return clamp(tdee+DailyAdjustment(g), MinCalories, MaxCalories)
}

// MaintenanceTarget holds calories at tdee while the trend is within the
// tolerance band around the target weight, and nudges by a fixed amount
// otherwise.
func MaintenanceTarget(tdee int, trendKg, targetKg float64) int {
	drift := trendKg - targetKg
	switch {
	case drift > driftBandKg:
		return tdee - driftStepKcal
	case drift < -driftBandKg:
		return tdee + driftStepKcal
	default:
		return tdee
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Eligibility says whether a week has enough complete days to move the target.
type Eligibility struct {
	Eligible      bool
	LowConfidence bool
	MissingDays   int
	Warning       string
}

// CheckEligibility grades a week by its number of complete days.
func CheckEligibility(completeDays int) Eligibility {
	completeDays = clamp(completeDays, 0, daysPerWeek)
	missing := daysPerWeek - completeDays
	e := Eligibility{Eligible: true, MissingDays: missing}
	switch {
	case missing > 3:
		e.Eligible = false
		e.Warning = fmt.Sprintf("%d days missing this week; calorie target held at last week's value", missing)
	case missing > 1:
		e.LowConfidence = true
		e.Warning = fmt.Sprintf("%d days missing this week; recommendation is low confidence", missing)
	}
	return e
}
