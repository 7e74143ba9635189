// Package edgecase classifies and dampens anomalous inputs before they reach
// the expenditure chain, and scores the quality of a user's logging.
package edgecase

import (
	"fmt"
	"math"
)

// partialFloorKcal catches near-empty logs even for users with a low TDEE.
const (
	partialFloorKcal = 500
	partialRatio     = 0.5
)

// PartialThreshold is the intake below which a logged day counts as partial.
func PartialThreshold(estimatedTdee int) int {
	return int(math.Max(partialFloorKcal, partialRatio*float64(estimatedTdee)))
}

// IsPartialLog reports whether a day's intake looks incompletely logged.
// A nil intake (untracked) and a zero intake (fast) are never partial.
func IsPartialLog(intakeCalories *int, estimatedTdee int) bool {
	if intakeCalories == nil || *intakeCalories == 0 {
		return false
	}
	return *intakeCalories < PartialThreshold(estimatedTdee)
}

// ExplainPartial returns a human-readable reason for the partial flag, or an
// empty string when the day is not partial.
func ExplainPartial(intakeCalories *int, estimatedTdee int) string {
	if !IsPartialLog(intakeCalories, estimatedTdee) {
		return ""
	}
	threshold := PartialThreshold(estimatedTdee)
	if threshold == partialFloorKcal {
		return fmt.Sprintf("logged %d kcal, below the %d kcal minimum for a complete day", *intakeCalories, partialFloorKcal)
	}
	return fmt.Sprintf("logged %d kcal, less than half of the estimated %d kcal expenditure", *intakeCalories, estimatedTdee)
}
