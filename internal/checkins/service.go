// Package checkins builds and serves the weekly coaching check-ins.
package checkins

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fdg312/adaptive-tdee/internal/calendar"
	"github.com/fdg312/adaptive-tdee/internal/coaching"
	"github.com/fdg312/adaptive-tdee/internal/events"
	"github.com/fdg312/adaptive-tdee/internal/observability"
	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/google/uuid"
)

var (
	ErrInsufficientData = errors.New("no computed states for this week")
	ErrCheckInNotFound  = errors.New("check-in not found")
	ErrProfileNotFound  = errors.New("profile not found")
	ErrFutureWeek       = errors.New("week starts in the future")
	ErrRangeTooLarge    = errors.New("date range exceeds 53 weeks")
)

const maxListWeeks = 53

// Storage defines the persistence the check-in service needs
type Storage interface {
	ListComputedStates(ctx context.Context, userID uuid.UUID, from, to string) ([]storage.ComputedState, error)
	ListDailyRecords(ctx context.Context, userID uuid.UUID, from, to string) ([]storage.DailyRecord, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*storage.Profile, error)
	storage.CheckInStorage
}

// Locker serializes writers of a user's derived data.
type Locker interface {
	Lock(userID uuid.UUID) func()
}

// Service handles check-in business logic
type Service struct {
	storage       Storage
	coldStartDays int
	locker        Locker
	publisher     events.Publisher
	metrics       *observability.Metrics
	log           *slog.Logger
	now           func() time.Time
	loc           *time.Location
}

// NewService creates a new check-in service
func NewService(storage Storage, coldStartDays int) *Service {
	return &Service{
		storage:       storage,
		coldStartDays: coldStartDays,
		publisher:     events.Noop{},
		log:           slog.Default().With(slog.String("component", "checkins")),
		now:           time.Now,
		loc:           time.UTC,
	}
}

// WithLocker makes on-demand builds take the user's chain lock.
func (s *Service) WithLocker(l Locker) *Service {
	s.locker = l
	return s
}

func (s *Service) WithPublisher(p events.Publisher) *Service {
	if p != nil {
		s.publisher = p
	}
	return s
}

func (s *Service) WithMetrics(m *observability.Metrics) *Service {
	s.metrics = m
	return s
}

func (s *Service) WithLogger(l *slog.Logger) *Service {
	if l != nil {
		s.log = l.With(slog.String("component", "checkins"))
	}
	return s
}

// WithClock sets the clock and the location that decides "today".
func (s *Service) WithClock(now func() time.Time, loc *time.Location) *Service {
	if now != nil {
		s.now = now
	}
	if loc != nil {
		s.loc = loc
	}
	return s
}

// RegenerateWeeks rebuilds every check-in whose week overlaps [from, to].
// Weeks without daily records or valid states drop their check-in. The caller holds
// the user's chain lock.
func (s *Service) RegenerateWeeks(ctx context.Context, userID uuid.UUID, from, to string) error {
	first, err := calendar.WeekStart(from)
	if err != nil {
		return err
	}
	last, err := calendar.WeekStart(to)
	if err != nil {
		return err
	}
	profile, err := s.profile(ctx, userID)
	if err != nil {
		return err
	}

	previous, err := s.previousTarget(ctx, userID, first)
	if err != nil {
		return err
	}
	for week := first; week <= last; week = calendar.AddDays(week, 7) {
		c, err := s.build(ctx, userID, week, *profile, previous)
		if errors.Is(err, ErrInsufficientData) {
			if err := s.storage.DeleteCheckIn(ctx, userID, week); err != nil {
				return fmt.Errorf("delete check-in: %w", err)
			}
			previous = nil
			continue
		}
		if err != nil {
			return err
		}
		target := c.SuggestedCalories
		previous = &target
	}
	return nil
}

// BuildCheckIn builds and stores the check-in of the week containing weekOf.
func (s *Service) BuildCheckIn(ctx context.Context, userID uuid.UUID, weekOf string) (*CheckInDTO, error) {
	week, err := calendar.WeekStart(weekOf)
	if err != nil {
		return nil, err
	}
	if week > calendar.DayOf(s.now(), s.loc) {
		return nil, ErrFutureWeek
	}
	if s.locker != nil {
		unlock := s.locker.Lock(userID)
		defer unlock()
	}

	profile, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	previous, err := s.previousTarget(ctx, userID, week)
	if err != nil {
		return nil, err
	}
	c, err := s.build(ctx, userID, week, *profile, previous)
	if err != nil {
		return nil, err
	}
	dto := toDTO(*c)
	return &dto, nil
}

// GetCheckIn returns the stored check-in of the week containing weekOf.
func (s *Service) GetCheckIn(ctx context.Context, userID uuid.UUID, weekOf string) (*CheckInDTO, error) {
	week, err := calendar.WeekStart(weekOf)
	if err != nil {
		return nil, err
	}
	c, err := s.storage.GetCheckIn(ctx, userID, week)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrCheckInNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get check-in: %w", err)
	}
	dto := toDTO(*c)
	return &dto, nil
}

// ListCheckIns returns check-ins of weeks starting in [from, to].
func (s *Service) ListCheckIns(ctx context.Context, userID uuid.UUID, from, to string) ([]CheckInDTO, error) {
	n, err := calendar.DaysBetween(from, to)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, calendar.ErrInvalidDate
	}
	if n > maxListWeeks*7 {
		return nil, ErrRangeTooLarge
	}
	list, err := s.storage.ListCheckIns(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	out := make([]CheckInDTO, len(list))
	for i, c := range list {
		out[i] = toDTO(c)
	}
	return out, nil
}

func (s *Service) build(ctx context.Context, userID uuid.UUID, week string, profile storage.Profile, previous *int) (*storage.WeeklyCheckIn, error) {
	end := calendar.AddDays(week, 6)
	states, err := s.storage.ListComputedStates(ctx, userID, week, end)
	if err != nil {
		return nil, fmt.Errorf("list computed states: %w", err)
	}
	records, err := s.storage.ListDailyRecords(ctx, userID, week, end)
	if err != nil {
		return nil, fmt.Errorf("list daily records: %w", err)
	}

	c, ok := coaching.BuildWeeklyCheckIn(coaching.WeekInput{
		UserID:         userID,
		WeekStart:      week,
		Records:        records,
		States:         states,
		Profile:        profile,
		PreviousTarget: previous,
		ColdStartDays:  s.coldStartDays,
	})
	if !ok {
		return nil, ErrInsufficientData
	}

	now := s.now().UTC()
	c.ID = uuid.New()
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := s.storage.UpsertCheckIn(ctx, c); err != nil {
		return nil, fmt.Errorf("upsert check-in: %w", err)
	}

	s.metrics.CheckInBuilt(c.Eligible)
	s.publish(ctx, userID, events.CheckInBuilt{
		WeekStart:         c.WeekStart,
		SuggestedCalories: c.SuggestedCalories,
		Eligible:          c.Eligible,
	})
	s.log.Debug("checkin_built",
		slog.String("user_id", userID.String()),
		slog.String("week_start", week),
		slog.Int("suggested_calories", c.SuggestedCalories),
		slog.Bool("eligible", c.Eligible))
	return c, nil
}

// previousTarget is the stored suggestion of the week before week, if any.
func (s *Service) previousTarget(ctx context.Context, userID uuid.UUID, week string) (*int, error) {
	prev, err := s.storage.GetCheckIn(ctx, userID, calendar.AddDays(week, -7))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get check-in: %w", err)
	}
	target := prev.SuggestedCalories
	return &target, nil
}

func (s *Service) profile(ctx context.Context, userID uuid.UUID) (*storage.Profile, error) {
	p, err := s.storage.GetProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *Service) publish(ctx context.Context, userID uuid.UUID, data events.CheckInBuilt) {
	e, err := events.New(events.TypeCheckInBuilt, userID, data)
	if err == nil {
		err = s.publisher.Publish(ctx, e)
	}
	if err != nil {
		s.log.Warn("event_publish_failed", slog.String("type", events.TypeCheckInBuilt), slog.Any("err", err))
	}
}
