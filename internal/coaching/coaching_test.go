package coaching

import (
	"testing"

	"github.com/fdg312/adaptive-tdee/internal/storage"
)

func iptr(v int) *int         { return &v }
func fptr(v float64) *float64 { return &v }

func TestDailyAdjustment(t *testing.T) {
	tests := []struct {
		goal storage.Goal
		want int
	}{
		{storage.Goal{Type: storage.GoalLose, RateKgPerWeek: 0.5}, -550},
		{storage.Goal{Type: storage.GoalGain, RateKgPerWeek: 0.25}, 275},
		{storage.Goal{Type: storage.GoalLose, RateKgPerWeek: 1}, -1100},
		{storage.Goal{Type: storage.GoalMaintain, RateKgPerWeek: 0.5}, 0},
	}
	for _, tc := range tests {
		if got := DailyAdjustment(tc.goal); got != tc.want {
			t.Errorf("DailyAdjustment(%+v) = %d, want %d", tc.goal, got, tc.want)
		}
	}
}

func TestCalorieTarget_Clamped(t *testing.T) {
	if got := CalorieTarget(1500, storage.Goal{Type: storage.GoalLose, RateKgPerWeek: 1}); got != MinCalories {
		t.Errorf("expected floor %d, got %d", MinCalories, got)
	}
	if got := CalorieTarget(5800, storage.Goal{Type: storage.GoalGain, RateKgPerWeek: 0.5}); got != MaxCalories {
		t.Errorf("expected ceiling %d, got %d", MaxCalories, got)
	}
	if got := CalorieTarget(2500, storage.Goal{Type: storage.GoalLose, RateKgPerWeek: 0.5}); got != 1950 {
		t.Errorf("expected 1950, got %d", got)
	}
}

func TestMaintenanceTarget(t *testing.T) {
	if got := MaintenanceTarget(2500, 72, 70); got != 2350 {
		t.Errorf("above band: got %d, want 2350", got)
	}
	if got := MaintenanceTarget(2500, 68, 70); got != 2650 {
		t.Errorf("below band: got %d, want 2650", got)
	}
	if got := MaintenanceTarget(2500, 71.4, 70); got != 2500 {
		t.Errorf("inside band: got %d, want 2500", got)
	}
}

func TestCheckEligibility(t *testing.T) {
	tests := []struct {
		complete      int
		eligible, low bool
	}{
		{7, true, false},
		{6, true, false},
		{5, true, true},
		{4, true, true},
		{3, false, false},
		{0, false, false},
	}
	for _, tc := range tests {
		e := CheckEligibility(tc.complete)
		if e.Eligible != tc.eligible || e.LowConfidence != tc.low {
			t.Errorf("complete=%d: got eligible=%v low=%v", tc.complete, e.Eligible, e.LowConfidence)
		}
		if (e.Warning != "") != (!tc.eligible || tc.low) {
			t.Errorf("complete=%d: unexpected warning %q", tc.complete, e.Warning)
		}
	}
}

func weekOf(start string, n int, tdee int, trendStart float64, status storage.DayStatus) ([]storage.DailyRecord, []storage.ComputedState) {
	days := []string{start, "2026-03-03", "2026-03-04", "2026-03-05", "2026-03-06", "2026-03-07", "2026-03-08"}
	var recs []storage.DailyRecord
	var states []storage.ComputedState
	for i := 0; i < n; i++ {
		recs = append(recs, storage.DailyRecord{Date: days[i], Status: status, IntakeCalories: iptr(2000)})
		states = append(states, storage.ComputedState{
			Date:              days[i],
			EstimatedTdeeKcal: tdee,
			TrendWeightKg:     trendStart - 0.1*float64(i),
			DaysTracked:       20 + i,
		})
	}
	return recs, states
}

func TestBuildWeeklyCheckIn_NoStates(t *testing.T) {
	c, ok := BuildWeeklyCheckIn(WeekInput{WeekStart: "2026-03-02"})
	if ok || c != nil {
		t.Fatalf("expected (nil, false), got (%v, %v)", c, ok)
	}

	// states outside the week do not count
	_, states := weekOf("2026-03-02", 3, 2400, 80, storage.StatusComplete)
	c, ok = BuildWeeklyCheckIn(WeekInput{WeekStart: "2026-03-09", States: states})
	if ok || c != nil {
		t.Fatalf("expected (nil, false) for out-of-week states")
	}
}

func TestBuildWeeklyCheckIn_NoValidData(t *testing.T) {
	recs, states := weekOf("2026-03-02", 7, 2500, 80, storage.StatusComplete)
	carried := make([]storage.ComputedState, len(states))
	for i, s := range states {
		s.Source = storage.SourceCarried
		carried[i] = s
	}

	tests := []struct {
		name string
		in   WeekInput
	}{
		{"states without records", WeekInput{WeekStart: "2026-03-02", States: states}},
		{"carried states without records", WeekInput{WeekStart: "2026-03-02", States: carried}},
		{"records outside the week", WeekInput{WeekStart: "2026-03-09", Records: recs, States: states}},
		{"only carried states", WeekInput{WeekStart: "2026-03-02", Records: recs, States: carried}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if c, ok := BuildWeeklyCheckIn(tc.in); ok || c != nil {
				t.Errorf("expected (nil, false), got %+v", c)
			}
		})
	}
}

func TestBuildWeeklyCheckIn_AveragesValidStatesOnly(t *testing.T) {
	recs, states := weekOf("2026-03-02", 7, 2500, 80, storage.StatusComplete)
	for i := 4; i < 7; i++ {
		states[i].Source = storage.SourceCarried
		states[i].EstimatedTdeeKcal = 3000
	}
	c, ok := BuildWeeklyCheckIn(WeekInput{WeekStart: "2026-03-02", Records: recs, States: states})
	if !ok {
		t.Fatal("expected a check-in")
	}
	if c.AverageTdee != 2500 {
		t.Errorf("average = %d, want 2500 from the valid days", c.AverageTdee)
	}
	// trend still spans the whole week
	if c.TrendWeightEnd != states[6].TrendWeightKg {
		t.Errorf("trend end = %v, want %v", c.TrendWeightEnd, states[6].TrendWeightKg)
	}
}

func TestBuildWeeklyCheckIn_FullWeek(t *testing.T) {
	recs, states := weekOf("2026-03-02", 7, 2500, 80, storage.StatusComplete)
	profile := storage.Profile{GoalType: storage.GoalLose, GoalRateKgPerWeek: 0.5}

	c, ok := BuildWeeklyCheckIn(WeekInput{WeekStart: "2026-03-02", Records: recs, States: states, Profile: profile})
	if !ok {
		t.Fatal("expected a check-in")
	}
	if c.WeekEnd != "2026-03-08" {
		t.Errorf("week end = %s", c.WeekEnd)
	}
	if c.AverageTdee != 2500 || c.SuggestedCalories != 1950 {
		t.Errorf("avg=%d target=%d", c.AverageTdee, c.SuggestedCalories)
	}
	if c.AdherenceScore != 1 {
		t.Errorf("adherence = %v, want 1", c.AdherenceScore)
	}
	if c.ConfidenceLevel != storage.ConfidenceHigh || !c.Eligible || c.Notes != "" {
		t.Errorf("unexpected grading: %+v", c)
	}
	if c.TrendWeightStart != 80 || c.WeeklyWeightChange >= 0 {
		t.Errorf("trend start=%v change=%v", c.TrendWeightStart, c.WeeklyWeightChange)
	}
}

func TestBuildWeeklyCheckIn_IneligibleHoldsPreviousTarget(t *testing.T) {
	recs, states := weekOf("2026-03-02", 7, 2500, 80, storage.StatusPartial)
	recs[0].Status = storage.StatusComplete
	prev := 2100

	c, ok := BuildWeeklyCheckIn(WeekInput{
		WeekStart:      "2026-03-02",
		Records:        recs,
		States:         states,
		Profile:        storage.Profile{GoalType: storage.GoalLose, GoalRateKgPerWeek: 0.5},
		PreviousTarget: &prev,
	})
	if !ok {
		t.Fatal("expected a check-in")
	}
	if c.Eligible {
		t.Error("expected ineligible week")
	}
	if c.SuggestedCalories != prev {
		t.Errorf("target = %d, want held %d", c.SuggestedCalories, prev)
	}
	if c.Notes == "" {
		t.Error("expected a warning in notes")
	}
	if c.AdherenceScore < 0 || c.AdherenceScore > 1 {
		t.Errorf("adherence out of bounds: %v", c.AdherenceScore)
	}
	if c.ConfidenceLevel != storage.ConfidenceLow {
		t.Errorf("confidence = %s, want low", c.ConfidenceLevel)
	}
}

func TestBuildWeeklyCheckIn_MaintenanceDrift(t *testing.T) {
	recs, states := weekOf("2026-03-02", 7, 2500, 72.3, storage.StatusComplete)
	profile := storage.Profile{GoalType: storage.GoalMaintain, TargetWeightKg: fptr(70)}

	c, _ := BuildWeeklyCheckIn(WeekInput{WeekStart: "2026-03-02", Records: recs, States: states, Profile: profile})
	// last trend is 71.7, above the band
	if c.SuggestedCalories != 2350 {
		t.Errorf("target = %d, want 2350", c.SuggestedCalories)
	}
}
