package edgecase

import (
	"math"

	"github.com/fdg312/adaptive-tdee/internal/storage"
)

const (
	// goalShiftPerStep is the TDEE shift per rateStepKg of effective rate change.
	goalShiftPerStep = 0.04
	rateStepKg       = 0.25
)

// EffectiveRate signs the goal rate: losing is negative, maintaining is zero.
func EffectiveRate(g storage.Goal) float64 {
	switch g.Type {
	case storage.GoalLose:
		return -math.Abs(g.RateKgPerWeek)
	case storage.GoalGain:
		return math.Abs(g.RateKgPerWeek)
	default:
		return 0
	}
}

// GoalTransitionAdjustment shifts a TDEE estimate immediately when the goal
// changes. Returns the shifted TDEE and the fractional shift applied.
func GoalTransitionAdjustment(tdee int, from, to storage.Goal) (int, float64) {
	rateChange := EffectiveRate(to) - EffectiveRate(from)
	pct := rateChange / rateStepKg * goalShiftPerStep
	return int(math.Round(float64(tdee) * (1 + pct))), pct
}
