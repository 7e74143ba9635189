package recalc

import (
	"errors"
	"fmt"

	"github.com/fdg312/adaptive-tdee/internal/calendar"
	"github.com/fdg312/adaptive-tdee/internal/edgecase"
	"github.com/fdg312/adaptive-tdee/internal/expenditure"
	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/fdg312/adaptive-tdee/internal/trend"
)

var (
	ErrOutOfSequence     = errors.New("days must be contiguous and ascending")
	ErrProfileIncomplete = errors.New("profile needs height, birth date and sex for the cold-start estimate")
)

// windowDays is the trailing window used for flux variance, missing-day
// counts and the step baseline.
const windowDays = 7

// FastingPolicy decides how a logged 0 kcal day enters the chain.
type FastingPolicy string

const (
	// FastingBackSolve feeds a fast into back-solving like any other day.
	FastingBackSolve FastingPolicy = "backsolve"
	// FastingHold treats a fast like a skipped day.
	FastingHold FastingPolicy = "hold"
)

// Params are the per-user constants of one fold.
type Params struct {
	Profile        storage.Profile
	ColdStartDays  int
	ActivityFactor float64
	FastingPolicy  FastingPolicy
}

// DayInput is one day of the chain's input.
type DayInput struct {
	Date           string
	ScaleWeightKg  *float64
	IntakeCalories *int
	StepCount      *int
	Status         storage.DayStatus
	StatusLocked   bool
	// Recorded is set when the day has a stored DailyRecord.
	Recorded bool
	// Transition is a goal switch effective on this day.
	Transition *storage.GoalTransition
}

// DayInputFromRecord converts a stored record.
func DayInputFromRecord(r storage.DailyRecord) DayInput {
	return DayInput{
		Date:           r.Date,
		ScaleWeightKg:  r.ScaleWeightKg,
		IntakeCalories: r.IntakeCalories,
		StepCount:      r.StepCount,
		Status:         r.Status,
		StatusLocked:   r.StatusLocked,
		Recorded:       true,
	}
}

// Accumulator is the state carried from one day of the chain to the next.
// The zero value is the state before the first weigh-in.
type Accumulator struct {
	Date          string // last folded day, empty before the first
	TrendWeightKg float64
	EstimatedTdee int
	DayIndex      int // 1-based position of Date in the history
	DaysTracked   int // days that were back-solved or bootstrapped
	PrevScaleKg   *float64
	RecentRaw     []int
	RecentHeld    []bool
	RecentSteps   []*int
	// PendingTransition is a goal switch that fell inside cold start and
	// applies on the first back-solved day.
	PendingTransition *storage.GoalTransition
}

// Started reports whether at least one day has been folded.
func (a Accumulator) Started() bool {
	return a.Date != ""
}

// MissingInWindow counts held days in the trailing window.
func (a Accumulator) MissingInWindow() int {
	n := 0
	for _, held := range a.RecentHeld {
		if held {
			n++
		}
	}
	return n
}

// Confidence grades the latest estimate.
func (a Accumulator) Confidence(coldStartDays int) storage.ConfidenceLevel {
	return expenditure.Confidence(a.DaysTracked, a.MissingInWindow(), coldStartDays)
}

func (a Accumulator) stepBaseline() []int {
	out := make([]int, 0, len(a.RecentSteps))
	for _, s := range a.RecentSteps {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out
}

func pushInt(w []int, v int) []int {
	w = append(append([]int(nil), w...), v)
	if len(w) > windowDays {
		w = w[len(w)-windowDays:]
	}
	return w
}

func pushBool(w []bool, v bool) []bool {
	w = append(append([]bool(nil), w...), v)
	if len(w) > windowDays {
		w = w[len(w)-windowDays:]
	}
	return w
}

func pushStep(w []*int, v *int) []*int {
	w = append(append([]*int(nil), w...), v)
	if len(w) > windowDays {
		w = w[len(w)-windowDays:]
	}
	return w
}

// Outcome pairs a computed state with the diagnostics of its day.
type Outcome struct {
	State  storage.ComputedState
	Whoosh edgecase.Whoosh
	Held   bool
	// Status is the day's classification against the estimate the chain
	// held before it. Locked days keep their stored status.
	Status storage.DayStatus
}

// Fold walks days in order starting from seed and returns one state per day
// from the first weigh-in on. Days must continue seed without gaps.
func Fold(seed Accumulator, days []DayInput, p Params) ([]storage.ComputedState, Accumulator, error) {
	outcomes, acc, err := FoldDetailed(seed, days, p)
	if err != nil {
		return nil, seed, err
	}
	states := make([]storage.ComputedState, len(outcomes))
	for i, o := range outcomes {
		states[i] = o.State
	}
	return states, acc, nil
}

// FoldDetailed is Fold with per-day diagnostics.
func FoldDetailed(seed Accumulator, days []DayInput, p Params) ([]Outcome, Accumulator, error) {
	if p.ColdStartDays <= 0 {
		p.ColdStartDays = expenditure.DefaultColdStartDays
	}
	if p.FastingPolicy == "" {
		p.FastingPolicy = FastingBackSolve
	}

	acc := seed
	out := make([]Outcome, 0, len(days))
	prevDate := seed.Date
	for _, day := range days {
		if err := calendar.Validate(day.Date); err != nil {
			return nil, seed, fmt.Errorf("%s: %w", day.Date, err)
		}
		if prevDate != "" && day.Date != calendar.AddDays(prevDate, 1) {
			return nil, seed, fmt.Errorf("%s after %s: %w", day.Date, prevDate, ErrOutOfSequence)
		}
		prevDate = day.Date

		if !acc.Started() && day.ScaleWeightKg == nil {
			// history starts at the first weigh-in
			continue
		}
		o, next, err := step(acc, day, p)
		if err != nil {
			return nil, seed, err
		}
		out = append(out, o)
		acc = next
	}
	return out, acc, nil
}

func step(acc Accumulator, day DayInput, p Params) (Outcome, Accumulator, error) {
	var trendKg, delta float64
	if !acc.Started() {
		trendKg = *day.ScaleWeightKg
	} else {
		trendKg = trend.UpdateTrend(acc.TrendWeightKg, day.ScaleWeightKg)
		delta = trend.CalculateWeightDelta(trendKg, acc.TrendWeightKg)
	}
	dayIndex := acc.DayIndex + 1

	state := storage.ComputedState{
		Date:              day.Date,
		TrendWeightKg:     trendKg,
		WeightDeltaKg:     delta,
		EnergyDensityUsed: expenditure.EnergyDensity(delta),
	}
	o := Outcome{Status: day.Status}
	held := false
	pending := acc.PendingTransition

	if expenditure.InColdStart(dayIndex, p.ColdStartDays) {
		tdee, ok := expenditure.BootstrapTDEE(p.Profile, trendKg, day.Date, p.ActivityFactor)
		if !ok {
			return Outcome{}, acc, ErrProfileIncomplete
		}
		if !day.StatusLocked {
			o.Status = ClassifyIntake(day.IntakeCalories, acc.EstimatedTdee)
		}
		pending = joinTransitions(pending, day.Transition)
		state.RawTdeeKcal = tdee
		state.EstimatedTdeeKcal = tdee
		state.Source = storage.SourceColdStart
	} else {
		prev := acc.EstimatedTdee
		if gt := joinTransitions(pending, day.Transition); gt != nil {
			prev, _ = edgecase.GoalTransitionAdjustment(prev, gt.From, gt.To)
		}
		pending = nil
		if !day.StatusLocked {
			o.Status = ClassifyIntake(day.IntakeCalories, prev)
		}

		if holdDay(day, prev, p.FastingPolicy) {
			held = true
			state.RawTdeeKcal = prev
			state.EstimatedTdeeKcal = prev
			state.Source = storage.SourceCarried
		} else {
			w := edgecase.DetectWhoosh(day.ScaleWeightKg, acc.PrevScaleKg, delta)
			solveDelta := edgecase.Dampen(delta, w.Severity)
			o.Whoosh = w
			state.WhooshSeverity = string(w.Severity)
			state.EnergyDensityUsed = expenditure.EnergyDensity(solveDelta)

			raw := expenditure.RawTDEE(*day.IntakeCalories, solveDelta)
			alpha := expenditure.SmoothingAlpha(expenditure.RelativeStepDelta(day.StepCount, acc.stepBaseline()))
			state.RawTdeeKcal = raw
			state.EstimatedTdeeKcal = expenditure.SmoothTDEE(raw, prev, alpha)
			state.Source = storage.SourceBackSolved
		}
	}

	next := acc
	next.Date = day.Date
	next.TrendWeightKg = trendKg
	next.EstimatedTdee = state.EstimatedTdeeKcal
	next.DayIndex = dayIndex
	if !held {
		next.DaysTracked++
	}
	next.PrevScaleKg = day.ScaleWeightKg
	next.RecentRaw = pushInt(acc.RecentRaw, state.RawTdeeKcal)
	next.RecentHeld = pushBool(acc.RecentHeld, held)
	next.RecentSteps = pushStep(acc.RecentSteps, day.StepCount)
	next.PendingTransition = pending

	state.DaysTracked = next.DaysTracked
	state.FluxConfidenceRange = expenditure.FluxRange(next.DaysTracked, next.RecentRaw)
	if held && state.FluxConfidenceRange < expenditure.MissingDayFlux {
		state.FluxConfidenceRange = expenditure.MissingDayFlux
	}

	o.State = state
	o.Held = held
	return o, next, nil
}

// joinTransitions merges two switches into one from the first origin to the
// last destination. Either may be nil.
func joinTransitions(first, second *storage.GoalTransition) *storage.GoalTransition {
	switch {
	case first == nil:
		return second
	case second == nil:
		return first
	}
	joined := *first
	joined.To = second.To
	return &joined
}

// ClassifyIntake is the automatic status of a day with the given intake,
// judged against the estimate before it.
func ClassifyIntake(intake *int, prevTdee int) storage.DayStatus {
	if intake == nil || edgecase.IsPartialLog(intake, prevTdee) {
		return storage.StatusPartial
	}
	return storage.StatusComplete
}

// holdDay reports whether the day carries the previous estimate instead of
// back-solving. Only a locked status is honoured as stored; unlocked days go
// through the partial-log detector against prevTdee.
func holdDay(day DayInput, prevTdee int, fasting FastingPolicy) bool {
	if day.IntakeCalories == nil {
		return true
	}
	if day.Status == storage.StatusSkipped {
		return true
	}
	if day.StatusLocked && day.Status == storage.StatusPartial {
		return true
	}
	if *day.IntakeCalories == 0 {
		return fasting == FastingHold
	}
	if !day.StatusLocked && edgecase.IsPartialLog(day.IntakeCalories, prevTdee) {
		return true
	}
	return false
}

// RestoreAccumulator rebuilds the accumulator that Fold held after
// predecessor from the stored states and records of the trailing window.
// ok is false when the stored chain does not cover the window, in which case
// the caller replays from historyStart.
func RestoreAccumulator(historyStart, predecessor string, states []storage.ComputedState, records []storage.DailyRecord) (Accumulator, bool) {
	if predecessor < historyStart {
		return Accumulator{}, false
	}
	index, err := calendar.DaysBetween(historyStart, predecessor)
	if err != nil {
		return Accumulator{}, false
	}
	windowStart := calendar.AddDays(predecessor, -(windowDays - 1))
	if windowStart < historyStart {
		windowStart = historyStart
	}
	days, err := calendar.Range(windowStart, predecessor)
	if err != nil || len(days) == 0 {
		return Accumulator{}, false
	}

	byDate := make(map[string]storage.ComputedState, len(states))
	for _, s := range states {
		byDate[s.Date] = s
	}
	recs := make(map[string]storage.DailyRecord, len(records))
	for _, r := range records {
		recs[r.Date] = r
	}

	var acc Accumulator
	for _, d := range days {
		s, ok := byDate[d]
		if !ok {
			return Accumulator{}, false
		}
		acc.RecentRaw = append(acc.RecentRaw, s.RawTdeeKcal)
		acc.RecentHeld = append(acc.RecentHeld, s.Source == storage.SourceCarried)
		acc.RecentSteps = append(acc.RecentSteps, recs[d].StepCount)
	}

	last := byDate[predecessor]
	acc.Date = predecessor
	acc.TrendWeightKg = last.TrendWeightKg
	acc.EstimatedTdee = last.EstimatedTdeeKcal
	acc.DaysTracked = last.DaysTracked
	acc.DayIndex = index + 1
	acc.PrevScaleKg = recs[predecessor].ScaleWeightKg
	return acc, true
}
