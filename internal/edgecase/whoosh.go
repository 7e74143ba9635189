package edgecase

import "math"

// Severity classifies a water-weight swing.
type Severity string

const (
	SeverityNone     Severity = ""
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeverityExtreme  Severity = "extreme"
)

const (
	whooshDivergenceKg = 0.3
	moderateScaleKg    = 0.5
	extremeScaleKg     = 1.5
)

// Whoosh is the outcome of comparing the scale change with the trend change.
type Whoosh struct {
	Severity      Severity
	ScaleChangeKg float64
	DivergenceKg  float64
}

// Detected reports whether a swing was classified.
func (w Whoosh) Detected() bool {
	return w.Severity != SeverityNone
}

// DetectWhoosh compares today's scale change against the trend-weight change.
// Without two consecutive scale readings there is nothing to compare.
func DetectWhoosh(scaleToday, scaleYesterday *float64, trendDeltaKg float64) Whoosh {
	if scaleToday == nil || scaleYesterday == nil {
		return Whoosh{}
	}
	scaleChange := *scaleToday - *scaleYesterday
	divergence := math.Abs(math.Abs(scaleChange) - math.Abs(trendDeltaKg))
	w := Whoosh{ScaleChangeKg: scaleChange, DivergenceKg: divergence}
	if divergence < whooshDivergenceKg {
		return w
	}

	magnitude := math.Abs(scaleChange)
	switch {
	case magnitude >= extremeScaleKg:
		w.Severity = SeverityExtreme
	case magnitude >= moderateScaleKg:
		w.Severity = SeverityModerate
	default:
		w.Severity = SeverityMild
	}
	return w
}

// DampeningFactor is the share of the weight delta allowed through for a severity.
func DampeningFactor(s Severity) float64 {
	switch s {
	case SeverityExtreme:
		return 0.3
	case SeverityModerate:
		return 0.5
	case SeverityMild:
		return 0.7
	default:
		return 1
	}
}

// Dampen scales the weight delta used for back-solving.
func Dampen(weightDeltaKg float64, s Severity) float64 {
	return weightDeltaKg * DampeningFactor(s)
}
