package recalc

import (
	"errors"
	"reflect"
	"testing"

	"github.com/fdg312/adaptive-tdee/internal/calendar"
	"github.com/fdg312/adaptive-tdee/internal/edgecase"
	"github.com/fdg312/adaptive-tdee/internal/expenditure"
	"github.com/fdg312/adaptive-tdee/internal/storage"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func testProfile() storage.Profile {
	sex, height, birth := storage.SexMale, 180.0, "1990-01-01"
	return storage.Profile{Sex: &sex, HeightCm: &height, BirthDate: &birth, GoalType: storage.GoalLose, GoalRateKgPerWeek: 0.5}
}

func testParams() Params {
	return Params{Profile: testProfile(), ColdStartDays: expenditure.DefaultColdStartDays, ActivityFactor: expenditure.DefaultActivityFactor}
}

func completeDay(date string, weight *float64, intake int) DayInput {
	return DayInput{Date: date, ScaleWeightKg: weight, IntakeCalories: iptr(intake), Status: storage.StatusComplete}
}

// steadyDays builds n days of constant weight and intake from start.
func steadyDays(start string, n int, weight float64, intake int) []DayInput {
	days := make([]DayInput, n)
	for i := range days {
		days[i] = completeDay(calendar.AddDays(start, i), fptr(weight), intake)
	}
	return days
}

// warmSeed is an accumulator well past cold start.
func warmSeed(date string, trendKg float64, tdee int) Accumulator {
	return Accumulator{Date: date, TrendWeightKg: trendKg, EstimatedTdee: tdee, DayIndex: 20, DaysTracked: 20}
}

func TestFold_ColdStartThenBackSolve(t *testing.T) {
	// intake far below the bootstrap and a 2 kg daily swing, so a
	// back-solved cold start would look nothing like the formula
	days := []DayInput{
		{Date: "2026-02-27", IntakeCalories: iptr(2500), Status: storage.StatusComplete},
		{Date: "2026-02-28"},
	}
	for i := 0; i < 9; i++ {
		w := 81.0
		if i < 7 && i%2 == 1 {
			w = 83
		}
		days = append(days, completeDay(calendar.AddDays("2026-03-01", i), fptr(w), 1500))
	}

	states, acc, err := Fold(Accumulator{}, days, testParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(states) != 9 {
		t.Fatalf("expected states from the first weigh-in only, got %d", len(states))
	}
	if states[0].Date != "2026-03-01" {
		t.Errorf("history should start at the first weigh-in, got %s", states[0].Date)
	}
	if states[0].EstimatedTdeeKcal != 2728 {
		t.Errorf("day 1: bootstrap = %d, want 2728", states[0].EstimatedTdeeKcal)
	}
	for i := 0; i < 7; i++ {
		st := states[i]
		if st.Source != storage.SourceColdStart {
			t.Errorf("day %d: source = %s, want cold_start", i+1, st.Source)
		}
		want, _ := expenditure.BootstrapTDEE(testProfile(), st.TrendWeightKg, st.Date, expenditure.DefaultActivityFactor)
		if st.EstimatedTdeeKcal != want || st.RawTdeeKcal != want {
			t.Errorf("day %d: raw/estimate = %d/%d, want bootstrap %d", i+1, st.RawTdeeKcal, st.EstimatedTdeeKcal, want)
		}
		if st.EstimatedTdeeKcal < 2700 {
			t.Errorf("day %d: estimate %d follows intake instead of the formula", i+1, st.EstimatedTdeeKcal)
		}
	}
	if states[7].Source != storage.SourceBackSolved {
		t.Errorf("day 8: source = %s, want back_solved", states[7].Source)
	}
	if states[7].EstimatedTdeeKcal >= states[6].EstimatedTdeeKcal {
		t.Errorf("day 8: low intake should pull the estimate down from %d, got %d", states[6].EstimatedTdeeKcal, states[7].EstimatedTdeeKcal)
	}
	if acc.DayIndex != 9 || acc.DaysTracked != 9 {
		t.Errorf("DayIndex=%d DaysTracked=%d, want 9 and 9", acc.DayIndex, acc.DaysTracked)
	}
}

func TestFold_ColdStartNeedsProfile(t *testing.T) {
	p := testParams()
	p.Profile.HeightCm = nil
	_, _, err := Fold(Accumulator{}, steadyDays("2026-03-01", 3, 80, 2400), p)
	if !errors.Is(err, ErrProfileIncomplete) {
		t.Errorf("expected ErrProfileIncomplete, got %v", err)
	}
}

func TestFold_SmoothsBackSolvedDay(t *testing.T) {
	seed := warmSeed("2026-03-08", 80, 2200)
	states, _, err := Fold(seed, []DayInput{completeDay("2026-03-09", fptr(79), 2000)}, testParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st := states[0]
	if st.RawTdeeKcal != 2770 {
		t.Errorf("raw = %d, want 2770", st.RawTdeeKcal)
	}
	if st.EstimatedTdeeKcal != 2229 {
		t.Errorf("estimate = %d, want 2229", st.EstimatedTdeeKcal)
	}
	if st.EnergyDensityUsed != expenditure.LossEnergyDensity {
		t.Errorf("density = %d, want %d", st.EnergyDensityUsed, expenditure.LossEnergyDensity)
	}
}

func TestFold_HeldDaysCarryForward(t *testing.T) {
	tests := []struct {
		name string
		day  DayInput
	}{
		{"skipped", DayInput{Date: "2026-03-09", ScaleWeightKg: fptr(79), IntakeCalories: iptr(3000), Status: storage.StatusSkipped}},
		{"marked partial", DayInput{Date: "2026-03-09", IntakeCalories: iptr(2000), Status: storage.StatusPartial, StatusLocked: true}},
		{"untracked", DayInput{Date: "2026-03-09", ScaleWeightKg: fptr(79)}},
		{"looks partial", completeDay("2026-03-09", nil, 600)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seed := warmSeed("2026-03-08", 80, 2400)
			outcomes, acc, err := FoldDetailed(seed, []DayInput{tc.day}, testParams())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			st := outcomes[0].State
			if !outcomes[0].Held || st.Source != storage.SourceCarried {
				t.Fatalf("expected a carried day, got %s", st.Source)
			}
			if st.EstimatedTdeeKcal != 2400 || st.RawTdeeKcal != 2400 {
				t.Errorf("carried estimate = %d/%d, want 2400", st.RawTdeeKcal, st.EstimatedTdeeKcal)
			}
			if st.FluxConfidenceRange < expenditure.MissingDayFlux {
				t.Errorf("flux = %d, want at least %d", st.FluxConfidenceRange, expenditure.MissingDayFlux)
			}
			if acc.DaysTracked != 20 {
				t.Errorf("held day must not count as tracked, got %d", acc.DaysTracked)
			}
			if acc.DayIndex != 21 {
				t.Errorf("held day still advances the index, got %d", acc.DayIndex)
			}
		})
	}
}

func TestFold_LockedStatusOverridesPartialDetector(t *testing.T) {
	seed := warmSeed("2026-03-08", 80, 2400)
	day := completeDay("2026-03-09", nil, 600)
	day.StatusLocked = true
	states, _, err := Fold(seed, []DayInput{day}, testParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if states[0].Source != storage.SourceBackSolved {
		t.Errorf("locked complete day should be back-solved, got %s", states[0].Source)
	}
}

func TestFold_UnlockedPartialIsReclassified(t *testing.T) {
	tests := []struct {
		name       string
		intake     int
		wantSource storage.StateSource
		wantStatus storage.DayStatus
	}{
		{"no longer partial", 2000, storage.SourceBackSolved, storage.StatusComplete},
		{"still partial", 600, storage.SourceCarried, storage.StatusPartial},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// classified partial against an older, higher estimate
			day := DayInput{Date: "2026-03-09", IntakeCalories: iptr(tc.intake), Status: storage.StatusPartial, Recorded: true}
			outcomes, _, err := FoldDetailed(warmSeed("2026-03-08", 80, 2400), []DayInput{day}, testParams())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if outcomes[0].State.Source != tc.wantSource {
				t.Errorf("source = %s, want %s", outcomes[0].State.Source, tc.wantSource)
			}
			if outcomes[0].Status != tc.wantStatus {
				t.Errorf("status = %s, want %s", outcomes[0].Status, tc.wantStatus)
			}
		})
	}
}

func TestFold_LockedStatusIsKept(t *testing.T) {
	day := completeDay("2026-03-09", nil, 600)
	day.StatusLocked = true
	outcomes, _, _ := FoldDetailed(warmSeed("2026-03-08", 80, 2400), []DayInput{day}, testParams())
	if outcomes[0].Status != storage.StatusComplete {
		t.Errorf("locked status = %s, want complete", outcomes[0].Status)
	}
}

func TestFold_FastingPolicy(t *testing.T) {
	fast := completeDay("2026-03-09", nil, 0)

	p := testParams()
	states, _, _ := Fold(warmSeed("2026-03-08", 80, 2400), []DayInput{fast}, p)
	if states[0].Source != storage.SourceBackSolved {
		t.Errorf("default policy should back-solve a fast, got %s", states[0].Source)
	}

	p.FastingPolicy = FastingHold
	states, _, _ = Fold(warmSeed("2026-03-08", 80, 2400), []DayInput{fast}, p)
	if states[0].Source != storage.SourceCarried {
		t.Errorf("hold policy should carry a fast, got %s", states[0].Source)
	}
}

func TestFold_ExtremeWhooshIsDampened(t *testing.T) {
	seed := warmSeed("2026-03-08", 80, 2400)
	seed.PrevScaleKg = fptr(80)
	outcomes, acc, err := FoldDetailed(seed, []DayInput{completeDay("2026-03-09", fptr(82), 2400)}, testParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	o := outcomes[0]
	if o.Whoosh.Severity != edgecase.SeverityExtreme {
		t.Fatalf("severity = %q, want extreme", o.Whoosh.Severity)
	}
	if o.State.WhooshSeverity != string(edgecase.SeverityExtreme) {
		t.Errorf("state severity = %q", o.State.WhooshSeverity)
	}
	// 30% of the 0.2 kg trend delta: 2400 - 0.06*5500
	if o.State.RawTdeeKcal != 2070 {
		t.Errorf("raw = %d, want 2070", o.State.RawTdeeKcal)
	}
	// the trend itself is not dampened
	if acc.TrendWeightKg < 80.19 || acc.TrendWeightKg > 80.21 {
		t.Errorf("trend = %v, want 80.2", acc.TrendWeightKg)
	}
}

func TestFold_GoalTransitionShiftsEstimate(t *testing.T) {
	day := completeDay("2026-03-09", nil, 2688)
	day.Transition = &storage.GoalTransition{
		EffectiveDate: "2026-03-09",
		From:          storage.Goal{Type: storage.GoalLose, RateKgPerWeek: 0.5},
		To:            storage.Goal{Type: storage.GoalGain, RateKgPerWeek: 0.25},
	}
	states, _, err := Fold(warmSeed("2026-03-08", 80, 2400), []DayInput{day}, testParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if states[0].EstimatedTdeeKcal != 2688 {
		t.Errorf("estimate = %d, want 2688", states[0].EstimatedTdeeKcal)
	}
}

func TestFold_ColdStartTransitionAppliesAfterColdStart(t *testing.T) {
	shift := &storage.GoalTransition{
		EffectiveDate: "2026-03-03",
		From:          storage.Goal{Type: storage.GoalLose, RateKgPerWeek: 0.5},
		To:            storage.Goal{Type: storage.GoalMaintain},
	}
	days := steadyDays("2026-03-01", 9, 81, 2728)
	days[2].Transition = shift

	states, acc, err := Fold(Accumulator{}, days, testParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 7; i++ {
		if states[i].EstimatedTdeeKcal != 2728 {
			t.Errorf("day %d: cold-start estimate = %d, want 2728", i+1, states[i].EstimatedTdeeKcal)
		}
	}
	adjusted, _ := edgecase.GoalTransitionAdjustment(2728, shift.From, shift.To)
	want := expenditure.SmoothTDEE(2728, adjusted, expenditure.NormalAlpha)
	if states[7].EstimatedTdeeKcal != want {
		t.Errorf("day 8: estimate = %d, want shifted %d", states[7].EstimatedTdeeKcal, want)
	}
	if acc.PendingTransition != nil {
		t.Error("pending transition should be consumed on the first back-solved day")
	}

	// the shift is applied once
	plain := steadyDays("2026-03-01", 9, 81, 2728)
	base, _, _ := Fold(Accumulator{}, plain, testParams())
	delta8 := states[7].EstimatedTdeeKcal - base[7].EstimatedTdeeKcal
	delta9 := states[8].EstimatedTdeeKcal - base[8].EstimatedTdeeKcal
	if delta9 >= delta8 {
		t.Errorf("shift should decay after day 8, got %d then %d", delta8, delta9)
	}
}

func TestFold_OutOfSequence(t *testing.T) {
	days := []DayInput{completeDay("2026-03-01", fptr(80), 2400), completeDay("2026-03-03", fptr(80), 2400)}
	if _, _, err := Fold(Accumulator{}, days, testParams()); !errors.Is(err, ErrOutOfSequence) {
		t.Errorf("expected ErrOutOfSequence for a gap, got %v", err)
	}

	seed := warmSeed("2026-03-05", 80, 2400)
	if _, _, err := Fold(seed, []DayInput{completeDay("2026-03-05", fptr(80), 2400)}, testParams()); !errors.Is(err, ErrOutOfSequence) {
		t.Errorf("expected ErrOutOfSequence for a repeated day, got %v", err)
	}

	if _, _, err := Fold(Accumulator{}, []DayInput{{Date: "03/01/2026"}}, testParams()); err == nil {
		t.Error("expected error for a malformed date")
	}
}

// noisyHistory is 20 days with varying weight, intake, steps and gaps.
func noisyHistory() []DayInput {
	weights := []float64{82, 81.6, 0, 81.9, 81.2, 0, 0, 81, 80.7, 81.1, 80.4, 0, 80.2, 80.6, 79.9, 80.1, 0, 79.6, 79.8, 79.5}
	days := make([]DayInput, len(weights))
	for i, w := range weights {
		d := completeDay(calendar.AddDays("2026-02-01", i), nil, 2100+(i%4)*150)
		if w > 0 {
			d.ScaleWeightKg = fptr(w)
		}
		if i%3 == 0 {
			d.StepCount = iptr(6000 + i*400)
		}
		if i == 11 {
			d.Status = storage.StatusSkipped
		}
		days[i] = d
	}
	return days
}

func TestFold_Deterministic(t *testing.T) {
	days := noisyHistory()
	a, _, err := Fold(Accumulator{}, days, testParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _, _ := Fold(Accumulator{}, days, testParams())
	if !reflect.DeepEqual(a, b) {
		t.Error("two folds of the same input differ")
	}
}

func recordsFrom(days []DayInput) []storage.DailyRecord {
	out := make([]storage.DailyRecord, len(days))
	for i, d := range days {
		out[i] = storage.DailyRecord{
			Date: d.Date, ScaleWeightKg: d.ScaleWeightKg, IntakeCalories: d.IntakeCalories,
			StepCount: d.StepCount, Status: d.Status, StatusLocked: d.StatusLocked,
		}
	}
	return out
}

func TestRestoreAccumulator_MatchesFullReplay(t *testing.T) {
	days := noisyHistory()
	full, _, err := Fold(Accumulator{}, days, testParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, split := range []int{1, 5, 7, 12, 19} {
		predecessor := days[split-1].Date
		seed, ok := RestoreAccumulator(days[0].Date, predecessor, full[:split], recordsFrom(days[:split]))
		if !ok {
			t.Fatalf("split %d: expected restore to succeed", split)
		}
		tail, _, err := Fold(seed, days[split:], testParams())
		if err != nil {
			t.Fatalf("split %d: unexpected error: %v", split, err)
		}
		if !reflect.DeepEqual(tail, full[split:]) {
			t.Errorf("split %d: partial replay differs from full replay", split)
		}
	}
}

func TestRestoreAccumulator_MissingWindow(t *testing.T) {
	days := noisyHistory()
	full, _, _ := Fold(Accumulator{}, days, testParams())

	gapped := append(append([]storage.ComputedState{}, full[:8]...), full[9:12]...)
	if _, ok := RestoreAccumulator(days[0].Date, days[11].Date, gapped, recordsFrom(days[:12])); ok {
		t.Error("expected restore to fail with a hole in the window")
	}
	if _, ok := RestoreAccumulator(days[5].Date, days[2].Date, full, nil); ok {
		t.Error("expected restore to fail before history start")
	}
}

func TestAccumulatorConfidence(t *testing.T) {
	acc := Accumulator{DaysTracked: 20, RecentHeld: []bool{true, true, false, false, false, false, false}}
	if got := acc.Confidence(7); got != storage.ConfidenceMedium {
		t.Errorf("confidence = %s, want medium", got)
	}
	acc.DaysTracked = 3
	if got := acc.Confidence(7); got != storage.ConfidenceLearning {
		t.Errorf("confidence = %s, want learning", got)
	}
}
