// Package recalc aggregates raw meal and weight entries into daily records
// and drives the day-by-day expenditure chain, replaying it forward whenever
// a historical input changes.
package recalc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/fdg312/adaptive-tdee/internal/calendar"
	"github.com/fdg312/adaptive-tdee/internal/events"
	"github.com/fdg312/adaptive-tdee/internal/expenditure"
	"github.com/fdg312/adaptive-tdee/internal/observability"
	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrWeightOutOfRange = errors.New("weight must be between 30 and 300 kg")
	ErrInvalidCalories  = errors.New("calories must not be negative")
	ErrInvalidStatus    = errors.New("status must be complete, partial or skipped")
	ErrInvalidSteps     = errors.New("step count must not be negative")
	ErrInvalidLookback  = errors.New("lookback_days must be between 1 and 730")
	ErrFutureDate       = errors.New("date is in the future")
	ErrWeightNotFound   = errors.New("weight observation not found")
	ErrMealNotFound     = errors.New("meal not found")
	ErrRangeTooLarge    = errors.New("date range exceeds 366 days")
)

const (
	maxLookbackDays = 730
	// partialLookbackDays bounds the search for the estimate used to classify
	// a day as partial.
	partialLookbackDays = 30
)

// Store is the persistence the orchestrator needs.
type Store interface {
	storage.WeightStorage
	storage.MealStorage
	storage.DailyRecordStorage
	storage.ComputedStateStorage
	GetProfile(ctx context.Context, userID uuid.UUID) (*storage.Profile, error)
	ListGoalTransitions(ctx context.Context, userID uuid.UUID, from, to string) ([]storage.GoalTransition, error)
}

// CheckInRegenerator rebuilds the weekly check-ins of weeks touched by a
// recompute. It runs under the user's chain lock.
type CheckInRegenerator interface {
	RegenerateWeeks(ctx context.Context, userID uuid.UUID, from, to string) error
}

// Config holds the engine constants.
type Config struct {
	ColdStartDays        int
	ActivityFactor       float64
	FastingPolicy        FastingPolicy
	BackfillDays         int
	AggregateConcurrency int
	Location             *time.Location
}

// Service orchestrates aggregation and recomputation.
type Service struct {
	store     Store
	cfg       Config
	locks     *UserLock
	checkins  CheckInRegenerator
	publisher events.Publisher
	metrics   *observability.Metrics
	log       *slog.Logger
	now       func() time.Time
}

// NewService creates the orchestrator.
func NewService(store Store, cfg Config) *Service {
	if cfg.ColdStartDays <= 0 {
		cfg.ColdStartDays = expenditure.DefaultColdStartDays
	}
	if cfg.ActivityFactor <= 0 {
		cfg.ActivityFactor = expenditure.DefaultActivityFactor
	}
	if cfg.FastingPolicy == "" {
		cfg.FastingPolicy = FastingBackSolve
	}
	if cfg.BackfillDays <= 0 {
		cfg.BackfillDays = 90
	}
	if cfg.AggregateConcurrency <= 0 {
		cfg.AggregateConcurrency = 8
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Service{
		store:     store,
		cfg:       cfg,
		locks:     NewUserLock(),
		publisher: events.Noop{},
		log:       slog.Default().With(slog.String("component", "recalc")),
		now:       time.Now,
	}
}

// WithCheckIns sets the check-in regenerator.
func (s *Service) WithCheckIns(r CheckInRegenerator) *Service {
	s.checkins = r
	return s
}

// WithPublisher sets the event publisher.
func (s *Service) WithPublisher(p events.Publisher) *Service {
	if p != nil {
		s.publisher = p
	}
	return s
}

// WithMetrics sets the metrics sink.
func (s *Service) WithMetrics(m *observability.Metrics) *Service {
	s.metrics = m
	return s
}

// WithLogger sets the logger.
func (s *Service) WithLogger(l *slog.Logger) *Service {
	if l != nil {
		s.log = l.With(slog.String("component", "recalc"))
	}
	return s
}

// WithClock overrides the clock used to decide "today".
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// UserLock exposes the per-user single-writer lock. Callers that mutate a
// user's chain outside this service must hold it.
func (s *Service) UserLock() *UserLock {
	return s.locks
}

// Config returns the engine constants in effect.
func (s *Service) Config() Config {
	return s.cfg
}

// Today is the current calendar day in the engine's location.
func (s *Service) Today() string {
	return calendar.DayOf(s.now(), s.cfg.Location)
}

// LogWeight stores a scale reading, re-aggregates its day and recomputes
// the chain from it.
func (s *Service) LogWeight(ctx context.Context, userID uuid.UUID, req LogWeightRequest) (*WeightResponse, error) {
	obs, err := s.newObservation(userID, req)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateWeightObservation(ctx, obs); err != nil {
		return nil, fmt.Errorf("create weight observation: %w", err)
	}

	date := calendar.DayOf(obs.ObservedAt, s.cfg.Location)
	rec, err := s.Aggregate(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	res, err := s.RecomputeFrom(ctx, userID, date, TriggerWeight)
	if err != nil {
		return nil, err
	}
	return &WeightResponse{Weight: toWeightDTO(obs), Day: toDayDTO(rec), Recompute: res}, nil
}

// EditWeight replaces an observation. Observations are immutable, so the
// old one is deleted and a new one created.
func (s *Service) EditWeight(ctx context.Context, userID, id uuid.UUID, req LogWeightRequest) (*WeightResponse, error) {
	old, err := s.store.GetWeightObservation(ctx, userID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrWeightNotFound
		}
		return nil, fmt.Errorf("get weight observation: %w", err)
	}
	if req.ObservedAt.IsZero() {
		req.ObservedAt = old.ObservedAt
	}
	obs, err := s.newObservation(userID, req)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteWeightObservation(ctx, userID, id); err != nil {
		return nil, fmt.Errorf("delete weight observation: %w", err)
	}
	if err := s.store.CreateWeightObservation(ctx, obs); err != nil {
		return nil, fmt.Errorf("create weight observation: %w", err)
	}

	oldDate := calendar.DayOf(old.ObservedAt, s.cfg.Location)
	newDate := calendar.DayOf(obs.ObservedAt, s.cfg.Location)
	if oldDate != newDate {
		if _, err := s.Aggregate(ctx, userID, oldDate); err != nil {
			return nil, err
		}
	}
	rec, err := s.Aggregate(ctx, userID, newDate)
	if err != nil {
		return nil, err
	}

	from := newDate
	if oldDate < from {
		from = oldDate
	}
	res, err := s.RecomputeFrom(ctx, userID, from, TriggerWeight)
	if err != nil {
		return nil, err
	}
	return &WeightResponse{Weight: toWeightDTO(obs), Day: toDayDTO(rec), Recompute: res}, nil
}

// DeleteWeight removes an observation and recomputes from its day.
func (s *Service) DeleteWeight(ctx context.Context, userID, id uuid.UUID) (*WeightResponse, error) {
	old, err := s.store.GetWeightObservation(ctx, userID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrWeightNotFound
		}
		return nil, fmt.Errorf("get weight observation: %w", err)
	}
	if err := s.store.DeleteWeightObservation(ctx, userID, id); err != nil {
		return nil, fmt.Errorf("delete weight observation: %w", err)
	}

	date := calendar.DayOf(old.ObservedAt, s.cfg.Location)
	rec, err := s.Aggregate(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	res, err := s.RecomputeFrom(ctx, userID, date, TriggerWeight)
	if err != nil {
		return nil, err
	}
	return &WeightResponse{Day: toDayDTO(rec), Recompute: res}, nil
}

func (s *Service) newObservation(userID uuid.UUID, req LogWeightRequest) (*storage.WeightObservation, error) {
	if math.IsNaN(req.WeightKg) || req.WeightKg < storage.MinWeightKg || req.WeightKg > storage.MaxWeightKg {
		return nil, ErrWeightOutOfRange
	}
	now := s.now().UTC()
	observedAt := req.ObservedAt
	if observedAt.IsZero() {
		observedAt = now
	}
	if calendar.DayOf(observedAt, s.cfg.Location) > s.Today() {
		return nil, ErrFutureDate
	}
	return &storage.WeightObservation{
		ID:         uuid.New(),
		UserID:     userID,
		WeightKg:   req.WeightKg,
		ObservedAt: observedAt.UTC(),
		Note:       strings.TrimSpace(req.Note),
		CreatedAt:  now,
	}, nil
}

// LogMeal stores a meal and re-aggregates its day. The chain is not
// recomputed, so the estimate does not move with every logged meal.
func (s *Service) LogMeal(ctx context.Context, userID uuid.UUID, req LogMealRequest) (*MealResponse, error) {
	if err := calendar.Validate(req.Date); err != nil {
		return nil, err
	}
	if req.Date > s.Today() {
		return nil, ErrFutureDate
	}
	if req.Calories < 0 {
		return nil, ErrInvalidCalories
	}
	meal := &storage.MealEntry{
		ID:        uuid.New(),
		UserID:    userID,
		Date:      req.Date,
		Name:      strings.TrimSpace(req.Name),
		Calories:  req.Calories,
		ProteinG:  req.ProteinG,
		CarbsG:    req.CarbsG,
		FatG:      req.FatG,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateMeal(ctx, meal); err != nil {
		return nil, fmt.Errorf("create meal: %w", err)
	}
	rec, err := s.Aggregate(ctx, userID, req.Date)
	if err != nil {
		return nil, err
	}
	return &MealResponse{Meal: toMealDTO(meal), Day: toDayDTO(rec)}, nil
}

// DeleteMeal removes a meal and re-aggregates its day.
func (s *Service) DeleteMeal(ctx context.Context, userID, id uuid.UUID) (*MealResponse, error) {
	meal, err := s.store.GetMeal(ctx, userID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrMealNotFound
		}
		return nil, fmt.Errorf("get meal: %w", err)
	}
	if err := s.store.DeleteMeal(ctx, userID, id); err != nil {
		return nil, fmt.Errorf("delete meal: %w", err)
	}
	rec, err := s.Aggregate(ctx, userID, meal.Date)
	if err != nil {
		return nil, err
	}
	return &MealResponse{Day: toDayDTO(rec)}, nil
}

// SetDayStatus pins a day's status as an explicit override and recomputes
// from that day.
func (s *Service) SetDayStatus(ctx context.Context, userID uuid.UUID, date string, status storage.DayStatus) (*DayResponse, error) {
	if err := calendar.Validate(date); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.updateDay(ctx, userID, date, TriggerStatus, func(rec *storage.DailyRecord) {
		rec.Status = status
		rec.StatusLocked = true
	})
}

// ClearDayStatus drops the override and lets aggregation classify the day again.
func (s *Service) ClearDayStatus(ctx context.Context, userID uuid.UUID, date string) (*DayResponse, error) {
	if err := calendar.Validate(date); err != nil {
		return nil, err
	}
	rec, err := s.loadRecord(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	rec.StatusLocked = false
	rec.UpdatedAt = s.now().UTC()
	if err := s.store.UpsertDailyRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("upsert daily record: %w", err)
	}
	rec, err = s.Aggregate(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	res, err := s.RecomputeFrom(ctx, userID, date, TriggerStatus)
	if err != nil {
		return nil, err
	}
	return &DayResponse{Day: toDayDTO(rec), Recompute: res}, nil
}

// SetStepCount records the day's steps, which drive responsive smoothing.
func (s *Service) SetStepCount(ctx context.Context, userID uuid.UUID, date string, steps int) (*DayResponse, error) {
	if err := calendar.Validate(date); err != nil {
		return nil, err
	}
	if steps < 0 {
		return nil, ErrInvalidSteps
	}
	return s.updateDay(ctx, userID, date, TriggerSteps, func(rec *storage.DailyRecord) {
		rec.StepCount = &steps
	})
}

func (s *Service) updateDay(ctx context.Context, userID uuid.UUID, date, trigger string, mutate func(*storage.DailyRecord)) (*DayResponse, error) {
	if date > s.Today() {
		return nil, ErrFutureDate
	}
	rec, err := s.loadRecord(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	mutate(rec)
	rec.UpdatedAt = s.now().UTC()
	if err := s.store.UpsertDailyRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("upsert daily record: %w", err)
	}
	res, err := s.RecomputeFrom(ctx, userID, date, trigger)
	if err != nil {
		return nil, err
	}
	return &DayResponse{Day: toDayDTO(rec), Recompute: res}, nil
}

func (s *Service) loadRecord(ctx context.Context, userID uuid.UUID, date string) (*storage.DailyRecord, error) {
	rec, err := s.store.GetDailyRecord(ctx, userID, date)
	if errors.Is(err, storage.ErrNotFound) {
		return &storage.DailyRecord{UserID: userID, Date: date, Status: storage.StatusPartial}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get daily record: %w", err)
	}
	return rec, nil
}

// Backfill aggregates every day of the lookback window concurrently, then
// runs one chain pass over it.
func (s *Service) Backfill(ctx context.Context, userID uuid.UUID, lookbackDays int) (*BackfillResult, error) {
	if lookbackDays == 0 {
		lookbackDays = s.cfg.BackfillDays
	}
	if lookbackDays < 1 || lookbackDays > maxLookbackDays {
		return nil, ErrInvalidLookback
	}
	today := s.Today()
	from := calendar.AddDays(today, -(lookbackDays - 1))
	days, err := calendar.Range(from, today)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.AggregateConcurrency)
	for _, d := range days {
		g.Go(func() error {
			_, err := s.Aggregate(gctx, userID, d)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("backfill aggregation: %w", err)
	}

	res, err := s.RecomputeFrom(ctx, userID, from, TriggerBackfill)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TypeBackfillDone, userID, events.ChainRecomputed{
		From: from, To: today, Days: res.Days, Trigger: TriggerBackfill, ChainVersion: res.ChainVersion,
	})
	s.log.Info("backfill_done",
		slog.String("user_id", userID.String()),
		slog.String("from", from),
		slog.Int("aggregated", len(days)),
		slog.Int("folded", res.Days))
	return &BackfillResult{From: from, To: today, Aggregated: len(days), Recompute: res}, nil
}

// RecomputeAll replays the chain from the first weigh-in.
func (s *Service) RecomputeAll(ctx context.Context, userID uuid.UUID, trigger string) (*RecomputeResult, error) {
	first, ok, err := s.store.FirstWeighedDate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("first weighed date: %w", err)
	}
	if !ok {
		return &RecomputeResult{To: s.Today()}, nil
	}
	return s.RecomputeFrom(ctx, userID, first, trigger)
}

// RecomputeFrom replays the chain from `from` to today under the user's
// lock and persists it in one atomic write. Check-ins of the affected weeks
// are rebuilt afterwards. The chain_recomputed event goes out once the lock
// is released.
func (s *Service) RecomputeFrom(ctx context.Context, userID uuid.UUID, from, trigger string) (*RecomputeResult, error) {
	if err := calendar.Validate(from); err != nil {
		return nil, err
	}
	started := time.Now()
	res, err := func() (*RecomputeResult, error) {
		unlock := s.locks.Lock(userID)
		defer unlock()
		return s.recompute(ctx, userID, from)
	}()

	days := 0
	if res != nil {
		days = res.Days
	}
	s.metrics.Recompute(trigger, days, time.Since(started), err)
	if err != nil {
		s.log.Error("recompute_failed",
			slog.String("user_id", userID.String()),
			slog.String("from", from),
			slog.String("trigger", trigger),
			slog.Any("err", err))
		return nil, err
	}
	s.log.Info("chain_recomputed",
		slog.String("user_id", userID.String()),
		slog.String("from", res.From),
		slog.String("to", res.To),
		slog.Int("days", res.Days),
		slog.Int64("chain_version", res.ChainVersion),
		slog.String("trigger", trigger))

	if res.ChainVersion == 0 {
		// nothing was written
		return res, nil
	}
	latest := 0
	if res.Latest != nil {
		latest = res.Latest.EstimatedTdeeKcal
	}
	s.publish(ctx, events.TypeChainRecomputed, userID, events.ChainRecomputed{
		From:         res.From,
		To:           res.To,
		Days:         res.Days,
		Trigger:      trigger,
		ChainVersion: res.ChainVersion,
		LatestTdee:   latest,
	})
	return res, nil
}

func (s *Service) recompute(ctx context.Context, userID uuid.UUID, from string) (*RecomputeResult, error) {
	today := s.Today()
	if from > today {
		return &RecomputeResult{From: from, To: today}, nil
	}

	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrProfileIncomplete
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	version, err := s.store.ChainVersion(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("chain version: %w", err)
	}
	historyStart, ok, err := s.store.FirstWeighedDate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("first weighed date: %w", err)
	}

	deleteFrom := from
	if !ok || historyStart > today {
		// no weigh-in left: clear whatever was derived from `from` on
		newVersion, err := s.store.ReplaceComputedStates(ctx, userID, deleteFrom, nil, version)
		if err != nil {
			return nil, fmt.Errorf("replace computed states: %w", err)
		}
		if err := s.regenerateCheckIns(ctx, userID, deleteFrom, today); err != nil {
			return nil, err
		}
		return &RecomputeResult{From: deleteFrom, To: today, ChainVersion: newVersion}, nil
	}

	start := from
	if start < historyStart {
		start = historyStart
	}
	seed, start, err := s.seed(ctx, userID, start, historyStart)
	if err != nil {
		return nil, err
	}
	if start < deleteFrom {
		deleteFrom = start
	}

	inputs, err := s.dayInputs(ctx, userID, start, today)
	if err != nil {
		return nil, err
	}
	params := Params{
		Profile:        *profile,
		ColdStartDays:  s.cfg.ColdStartDays,
		ActivityFactor: s.cfg.ActivityFactor,
		FastingPolicy:  s.cfg.FastingPolicy,
	}
	outcomes, acc, err := FoldDetailed(seed, inputs, params)
	if err != nil {
		return nil, err
	}

	states := make([]storage.ComputedState, len(outcomes))
	for i, o := range outcomes {
		st := o.State
		st.UserID = userID
		st.ChainVersion = version + 1
		states[i] = st
		if o.Whoosh.Detected() {
			s.metrics.Whoosh(string(o.Whoosh.Severity))
		}
	}

	newVersion, err := s.store.ReplaceComputedStates(ctx, userID, deleteFrom, states, version)
	if err != nil {
		return nil, fmt.Errorf("replace computed states: %w", err)
	}
	if err := s.syncStatuses(ctx, userID, inputs, outcomes); err != nil {
		return nil, err
	}
	if err := s.regenerateCheckIns(ctx, userID, deleteFrom, today); err != nil {
		return nil, err
	}

	res := &RecomputeResult{
		From:         deleteFrom,
		To:           today,
		Days:         len(states),
		ChainVersion: newVersion,
	}
	if len(states) > 0 {
		last := ToStateDTO(states[len(states)-1])
		res.Latest = &last
		res.Confidence = acc.Confidence(s.cfg.ColdStartDays)
	}
	return res, nil
}

// seed restores the accumulator preceding start, or falls back to a replay
// from historyStart when the stored chain cannot provide it.
func (s *Service) seed(ctx context.Context, userID uuid.UUID, start, historyStart string) (Accumulator, string, error) {
	if start == historyStart {
		return Accumulator{}, start, nil
	}
	predecessor := calendar.AddDays(start, -1)
	windowFrom := calendar.AddDays(predecessor, -(windowDays - 1))
	if windowFrom < historyStart {
		windowFrom = historyStart
	}
	states, err := s.store.ListComputedStates(ctx, userID, windowFrom, predecessor)
	if err != nil {
		return Accumulator{}, "", fmt.Errorf("list computed states: %w", err)
	}
	records, err := s.store.ListDailyRecords(ctx, userID, windowFrom, predecessor)
	if err != nil {
		return Accumulator{}, "", fmt.Errorf("list daily records: %w", err)
	}
	acc, ok := RestoreAccumulator(historyStart, predecessor, states, records)
	if !ok || acc.DayIndex <= s.cfg.ColdStartDays {
		// goal switches pending from cold start are not stored, replay them
		s.log.Debug("chain_seed_replay", slog.String("user_id", userID.String()), slog.String("from", historyStart))
		return Accumulator{}, historyStart, nil
	}
	return acc, start, nil
}

func (s *Service) dayInputs(ctx context.Context, userID uuid.UUID, from, to string) ([]DayInput, error) {
	days, err := calendar.Range(from, to)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListDailyRecords(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list daily records: %w", err)
	}
	transitions, err := s.store.ListGoalTransitions(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list goal transitions: %w", err)
	}

	byDate := make(map[string]storage.DailyRecord, len(records))
	for _, r := range records {
		byDate[r.Date] = r
	}
	shifts := mergeTransitions(transitions)

	inputs := make([]DayInput, 0, len(days))
	for _, d := range days {
		in := DayInput{Date: d}
		if r, ok := byDate[d]; ok {
			in = DayInputFromRecord(r)
		}
		if gt, ok := shifts[d]; ok {
			in.Transition = &gt
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// syncStatuses rewrites the automatic status of every unlocked record the
// fold classified differently, so stored statuses follow the replayed chain.
func (s *Service) syncStatuses(ctx context.Context, userID uuid.UUID, inputs []DayInput, outcomes []Outcome) error {
	byDate := make(map[string]DayInput, len(inputs))
	for _, in := range inputs {
		byDate[in.Date] = in
	}
	for _, o := range outcomes {
		in, ok := byDate[o.State.Date]
		if !ok || !in.Recorded || in.StatusLocked || in.Status == o.Status {
			continue
		}
		rec, err := s.store.GetDailyRecord(ctx, userID, in.Date)
		if err != nil {
			return fmt.Errorf("get daily record: %w", err)
		}
		if rec.StatusLocked {
			continue
		}
		rec.Status = o.Status
		rec.UpdatedAt = s.now().UTC()
		if err := s.store.UpsertDailyRecord(ctx, rec); err != nil {
			return fmt.Errorf("upsert daily record: %w", err)
		}
		s.log.Debug("day_status_reclassified",
			slog.String("user_id", userID.String()),
			slog.String("date", in.Date),
			slog.String("status", string(o.Status)))
	}
	return nil
}

// mergeTransitions collapses several switches on one day into a single
// transition from the first origin to the last destination.
func mergeTransitions(transitions []storage.GoalTransition) map[string]storage.GoalTransition {
	out := make(map[string]storage.GoalTransition, len(transitions))
	for _, gt := range transitions {
		if prev, ok := out[gt.EffectiveDate]; ok {
			prev.To = gt.To
			out[gt.EffectiveDate] = prev
			continue
		}
		out[gt.EffectiveDate] = gt
	}
	return out
}

func (s *Service) regenerateCheckIns(ctx context.Context, userID uuid.UUID, from, to string) error {
	if s.checkins == nil {
		return nil
	}
	if err := s.checkins.RegenerateWeeks(ctx, userID, from, to); err != nil {
		return fmt.Errorf("regenerate check-ins: %w", err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, eventType string, userID uuid.UUID, data any) {
	e, err := events.New(eventType, userID, data)
	if err == nil {
		err = s.publisher.Publish(ctx, e)
	}
	if err != nil {
		s.log.Warn("event_publish_failed", slog.String("type", eventType), slog.Any("err", err))
	}
}
