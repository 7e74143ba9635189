package recalc

import (
	"context"
	"fmt"

	"github.com/fdg312/adaptive-tdee/internal/calendar"
	"github.com/fdg312/adaptive-tdee/internal/trend"
	"github.com/google/uuid"
)

// maxQueryDays bounds the range of read queries.
const maxQueryDays = 366

// ListStates returns the computed chain in [from, to].
func (s *Service) ListStates(ctx context.Context, userID uuid.UUID, from, to string) ([]StateDTO, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	states, err := s.store.ListComputedStates(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list computed states: %w", err)
	}
	out := make([]StateDTO, len(states))
	for i, st := range states {
		out[i] = ToStateDTO(st)
	}
	return out, nil
}

// TrendSeries rebuilds the gap-free trend-weight series directly from the
// raw observations in [from, to].
func (s *Service) TrendSeries(ctx context.Context, userID uuid.UUID, from, to string) (*TrendResponse, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	end, _ := calendar.Parse(to)
	obs, err := s.store.ListWeightObservations(ctx, userID,
		startOfDay(from, s.cfg.Location),
		startOfDay(calendar.Format(end.AddDate(0, 0, 1)), s.cfg.Location))
	if err != nil {
		return nil, fmt.Errorf("list weights: %w", err)
	}
	points, err := trend.CalculateTrendWeights(obs, from, to, s.cfg.Location)
	if err != nil {
		return nil, err
	}
	return &TrendResponse{Points: points, WeeklyChangeKg: trend.GetWeeklyWeightChange(points)}, nil
}

func validateRange(from, to string) error {
	n, err := calendar.DaysBetween(from, to)
	if err != nil {
		return err
	}
	if n < 0 {
		return trend.ErrInvalidRange
	}
	if n >= maxQueryDays {
		return ErrRangeTooLarge
	}
	return nil
}
