package recalc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fdg312/adaptive-tdee/internal/calendar"
	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/google/uuid"
)

// Aggregate rebuilds the DailyRecord of date from its meals and its first
// weigh-in. Re-running it overwrites, so it is idempotent. Steps and a
// user-locked status survive; otherwise the status is classified against
// the latest estimate before the date.
func (s *Service) Aggregate(ctx context.Context, userID uuid.UUID, date string) (*storage.DailyRecord, error) {
	start, err := calendar.Parse(date)
	if err != nil {
		return nil, err
	}
	dayStart := startOfDay(date, s.cfg.Location)
	dayEnd := startOfDay(calendar.Format(start.AddDate(0, 0, 1)), s.cfg.Location)

	meals, err := s.store.ListMealsForDate(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	weights, err := s.store.ListWeightObservations(ctx, userID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("list weights: %w", err)
	}

	rec := &storage.DailyRecord{UserID: userID, Date: date}
	existing, err := s.store.GetDailyRecord(ctx, userID, date)
	switch {
	case err == nil:
		rec.StepCount = existing.StepCount
		rec.StatusLocked = existing.StatusLocked
		rec.Status = existing.Status
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("get daily record: %w", err)
	}

	if len(weights) > 0 {
		first := weights[0]
		for _, w := range weights[1:] {
			if w.ObservedAt.Before(first.ObservedAt) {
				first = w
			}
		}
		kg := first.WeightKg
		rec.ScaleWeightKg = &kg
	}
	sumMeals(rec, meals)

	if !rec.StatusLocked {
		status, err := s.classify(ctx, userID, date, rec.IntakeCalories)
		if err != nil {
			return nil, err
		}
		rec.Status = status
	}
	rec.UpdatedAt = s.now().UTC()

	if err := s.store.UpsertDailyRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("upsert daily record: %w", err)
	}
	s.metrics.Aggregated(string(rec.Status))
	return rec, nil
}

func startOfDay(date string, loc *time.Location) time.Time {
	t, _ := time.ParseInLocation(calendar.Layout, date, loc)
	return t
}

// sumMeals fills the intake fields. No meals leaves intake untracked; a
// macro stays nil unless some meal reported it.
func sumMeals(rec *storage.DailyRecord, meals []storage.MealEntry) {
	rec.IntakeCalories = nil
	rec.IntakeProteinG, rec.IntakeCarbsG, rec.IntakeFatG = nil, nil, nil
	if len(meals) == 0 {
		return
	}
	var kcal int
	for _, m := range meals {
		kcal += m.Calories
		rec.IntakeProteinG = addMacro(rec.IntakeProteinG, m.ProteinG)
		rec.IntakeCarbsG = addMacro(rec.IntakeCarbsG, m.CarbsG)
		rec.IntakeFatG = addMacro(rec.IntakeFatG, m.FatG)
	}
	rec.IntakeCalories = &kcal
}

func addMacro(total, v *float64) *float64 {
	if v == nil {
		return total
	}
	sum := *v
	if total != nil {
		sum += *total
	}
	return &sum
}

func (s *Service) classify(ctx context.Context, userID uuid.UUID, date string, intake *int) (storage.DayStatus, error) {
	if intake == nil || *intake == 0 {
		return ClassifyIntake(intake, 0), nil
	}
	states, err := s.store.ListComputedStates(ctx, userID, calendar.AddDays(date, -partialLookbackDays), calendar.AddDays(date, -1))
	if err != nil {
		return "", fmt.Errorf("list computed states: %w", err)
	}
	tdee := 0
	if len(states) > 0 {
		tdee = states[len(states)-1].EstimatedTdeeKcal
	}
	return ClassifyIntake(intake, tdee), nil
}
