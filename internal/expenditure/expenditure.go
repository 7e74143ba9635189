// Package expenditure back-solves daily energy expenditure from intake and
// trend-weight change and smooths it into a TDEE estimate.
package expenditure

import (
	"math"

	"github.com/fdg312/adaptive-tdee/internal/storage"
)

// Energy densities in kcal per kg of body-weight change. Loss releases fat
// tissue; gain stores tissue at the cheaper anabolic rate.
const (
	LossEnergyDensity = 7700
	GainEnergyDensity = 5500
)

// Smoothing factors for the TDEE EMA.
const (
	NormalAlpha           = 0.05
	ResponsiveAlpha       = 0.10
	StepResponseThreshold = 0.20
)

// Flux range parameters.
const (
	baseFlux       = 500
	fluxPerDay     = 20
	minFlux        = 100
	MissingDayFlux = 400
)

// EnergyDensity selects kcal/kg from the sign of the weight delta.
func EnergyDensity(weightDeltaKg float64) int {
	if weightDeltaKg < 0 {
		return LossEnergyDensity
	}
	return GainEnergyDensity
}

// RawTDEE is the expenditure that explains the day's weight change given
// its intake.
func RawTDEE(intakeCalories int, weightDeltaKg float64) int {
	density := float64(EnergyDensity(weightDeltaKg))
	return int(math.Round(float64(intakeCalories) - weightDeltaKg*density))
}

// SmoothingAlpha switches to responsive mode when the relative step-count
// change exceeds the threshold.
func SmoothingAlpha(stepDelta *float64) float64 {
	if stepDelta != nil && math.Abs(*stepDelta) > StepResponseThreshold {
		return ResponsiveAlpha
	}
	return NormalAlpha
}

// RelativeStepDelta compares today's steps with the mean of recent days.
// Nil when either side is unknown or the baseline is zero.
func RelativeStepDelta(today *int, recent []int) *float64 {
	if today == nil || len(recent) == 0 {
		return nil
	}
	var sum float64
	for _, s := range recent {
		sum += float64(s)
	}
	mean := sum / float64(len(recent))
	if mean <= 0 {
		return nil
	}
	d := (float64(*today) - mean) / mean
	return &d
}

// SmoothTDEE blends today's raw value into the previous estimate.
func SmoothTDEE(rawTdee, prevEstimatedTdee int, alpha float64) int {
	return int(math.Round(alpha*float64(rawTdee) + (1-alpha)*float64(prevEstimatedTdee)))
}

// FluxRange is the ± kcal band: wide while history is short, widened again
// by noisy recent raw values.
func FluxRange(daysTracked int, recentRaw []int) int {
	base := baseFlux - fluxPerDay*daysTracked
	if base < minFlux {
		base = minFlux
	}
	return int(math.Round(float64(base) + 0.5*math.Sqrt(Variance(recentRaw))))
}

// Variance is the population variance of values; zero for fewer than two.
func Variance(values []int) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		d := float64(v) - mean
		sq += d * d
	}
	return sq / float64(len(values))
}

// Confidence grades an estimate from tracked history and recent gaps.
func Confidence(daysTracked, missingInLast7, coldStartDays int) storage.ConfidenceLevel {
	switch {
	case daysTracked < coldStartDays:
		return storage.ConfidenceLearning
	case missingInLast7 > 3:
		return storage.ConfidenceLow
	case missingInLast7 > 1:
		return storage.ConfidenceMedium
	default:
		return storage.ConfidenceHigh
	}
}
