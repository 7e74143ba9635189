package coaching

import (
	"math"

	"github.com/fdg312/adaptive-tdee/internal/calendar"
	"github.com/fdg312/adaptive-tdee/internal/expenditure"
	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/google/uuid"
)

// WeekInput is everything needed to assemble one weekly check-in.
type WeekInput struct {
	UserID    uuid.UUID
	WeekStart string // Monday, YYYY-MM-DD
	Records   []storage.DailyRecord
	States    []storage.ComputedState
	Profile   storage.Profile
	// PreviousTarget is last week's suggestion, held when this week is ineligible.
	PreviousTarget *int
	ColdStartDays  int
}

// BuildWeeklyCheckIn assembles a check-in from the week's states and records.
// Returns ok=false when the week has no daily record or no valid state.
// Carried states mark days without usable data and do not count as valid.
func BuildWeeklyCheckIn(in WeekInput) (*storage.WeeklyCheckIn, bool) {
	weekEnd := calendar.AddDays(in.WeekStart, daysPerWeek-1)
	inWeek := func(d string) bool { return d >= in.WeekStart && d <= weekEnd }

	recorded := false
	for _, r := range in.Records {
		if inWeek(r.Date) {
			recorded = true
			break
		}
	}
	if !recorded {
		return nil, false
	}

	var states []storage.ComputedState
	var tdeeSum float64
	valid := 0
	for _, s := range in.States {
		if !inWeek(s.Date) {
			continue
		}
		states = append(states, s)
		if s.Source != storage.SourceCarried {
			tdeeSum += float64(s.EstimatedTdeeKcal)
			valid++
		}
	}
	if valid == 0 {
		return nil, false
	}
	avg := int(math.Round(tdeeSum / float64(valid)))

	complete := 0
	for _, r := range in.Records {
		if inWeek(r.Date) && r.Status == storage.StatusComplete && r.IntakeCalories != nil {
			complete++
		}
	}
	adherence := math.Max(0, math.Min(1, float64(complete)/daysPerWeek))

	first, last := states[0], states[len(states)-1]
	elig := CheckEligibility(complete)

	coldStart := in.ColdStartDays
	if coldStart <= 0 {
		coldStart = expenditure.DefaultColdStartDays
	}

	target := suggestedTarget(avg, last.TrendWeightKg, in.Profile)
	if !elig.Eligible && in.PreviousTarget != nil {
		target = *in.PreviousTarget
	}

	return &storage.WeeklyCheckIn{
		UserID:             in.UserID,
		WeekStart:          in.WeekStart,
		WeekEnd:            weekEnd,
		AverageTdee:        avg,
		SuggestedCalories:  target,
		AdherenceScore:     adherence,
		ConfidenceLevel:    expenditure.Confidence(last.DaysTracked, elig.MissingDays, coldStart),
		TrendWeightStart:   first.TrendWeightKg,
		TrendWeightEnd:     last.TrendWeightKg,
		WeeklyWeightChange: last.TrendWeightKg - first.TrendWeightKg,
		Eligible:           elig.Eligible,
		Notes:              elig.Warning,
	}, true
}

func suggestedTarget(tdee int, trendKg float64, p storage.Profile) int {
	if p.GoalType == storage.GoalMaintain && p.TargetWeightKg != nil {
		return clamp(MaintenanceTarget(tdee, trendKg, *p.TargetWeightKg), MinCalories, MaxCalories)
	}
	return CalorieTarget(tdee, p.Goal())
}
