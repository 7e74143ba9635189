// Package profiles manages the body and goal settings that parameterize the
// expenditure chain.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/fdg312/adaptive-tdee/internal/calendar"
	"github.com/fdg312/adaptive-tdee/internal/coaching"
	"github.com/fdg312/adaptive-tdee/internal/recalc"
	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("profile not found")
	ErrInvalidSex       = errors.New("sex must be male or female")
	ErrInvalidHeight    = errors.New("height must be between 100 and 250 cm")
	ErrInvalidBirthDate = errors.New("birth date must be a past YYYY-MM-DD date within 120 years")
	ErrInvalidGoalType  = errors.New("goal_type must be lose, gain or maintain")
	ErrInvalidGoalRate  = errors.New("goal rate must be between 0 and 1 kg per week")
	ErrInvalidTarget    = errors.New("target weight must be between 30 and 300 kg")
	ErrInvalidUnits     = errors.New("units must be kg or lb")
)

const (
	minHeightCm   = 100.0
	maxHeightCm   = 250.0
	maxAgeYears   = 120
	maxGoalRateKg = 1.0

	UnitsKg = "kg"
	UnitsLb = "lb"
)

// Storage - хранилище профилей и истории целей
type Storage interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*storage.Profile, error)
	UpsertProfile(ctx context.Context, p *storage.Profile) error
	CreateGoalTransition(ctx context.Context, gt *storage.GoalTransition) error
}

// Recomputer - пересчёт цепочки после изменения профиля
type Recomputer interface {
	RecomputeFrom(ctx context.Context, userID uuid.UUID, from, trigger string) (*recalc.RecomputeResult, error)
	RecomputeAll(ctx context.Context, userID uuid.UUID, trigger string) (*recalc.RecomputeResult, error)
	Today() string
}

// Service содержит бизнес-логику профилей
type Service struct {
	storage    Storage
	recomputer Recomputer
	log        *slog.Logger
}

// NewService создаёт новый сервис
func NewService(st Storage, recomputer Recomputer) *Service {
	return &Service{
		storage:    st,
		recomputer: recomputer,
		log:        slog.Default().With(slog.String("component", "profiles")),
	}
}

func (s *Service) WithLogger(l *slog.Logger) *Service {
	if l != nil {
		s.log = l.With(slog.String("component", "profiles"))
	}
	return s
}

// GetProfile возвращает профиль пользователя
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	p, err := s.storage.GetProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	dto := toDTO(*p)
	return &dto, nil
}

// UpsertProfile создаёт или обновляет профиль.
// Смена цели записывает GoalTransition с сегодняшней даты и пересчитывает
// цепочку с неё; изменение тела (рост, дата рождения, пол, athlete)
// пересчитывает всю историю, т.к. меняется cold-start оценка.
func (s *Service) UpsertProfile(ctx context.Context, userID uuid.UUID, req UpsertProfileRequest) (*ProfileResponse, error) {
	current, err := s.storage.GetProfile(ctx, userID)
	isNew := errors.Is(err, storage.ErrNotFound)
	if err != nil && !isNew {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	var before storage.Profile
	if isNew {
		before = storage.Profile{UserID: userID, GoalType: storage.GoalMaintain, Units: UnitsKg}
	} else {
		before = *current
	}

	next, err := s.apply(before, req)
	if err != nil {
		return nil, err
	}
	if err := s.storage.UpsertProfile(ctx, &next); err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	bodyChanged := isNew || bodyDiffers(before, next)
	goalChanged := !isNew && before.Goal() != next.Goal()

	var res *recalc.RecomputeResult
	switch {
	case bodyChanged:
		if goalChanged {
			if err := s.recordTransition(ctx, userID, before.Goal(), next.Goal()); err != nil {
				return nil, err
			}
		}
		res, err = s.recomputer.RecomputeAll(ctx, userID, recalc.TriggerProfile)
	case goalChanged:
		if err := s.recordTransition(ctx, userID, before.Goal(), next.Goal()); err != nil {
			return nil, err
		}
		res, err = s.recomputer.RecomputeFrom(ctx, userID, s.recomputer.Today(), recalc.TriggerGoal)
	}
	if errors.Is(err, recalc.ErrProfileIncomplete) {
		// профиль сохранён, цепочка дождётся недостающих полей
		s.log.Info("profile_incomplete", slog.String("user_id", userID.String()))
		res, err = nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &ProfileResponse{Profile: toDTO(next), Recompute: res}, nil
}

func (s *Service) recordTransition(ctx context.Context, userID uuid.UUID, from, to storage.Goal) error {
	gt := &storage.GoalTransition{
		ID:            uuid.New(),
		UserID:        userID,
		EffectiveDate: s.recomputer.Today(),
		From:          from,
		To:            to,
	}
	if err := s.storage.CreateGoalTransition(ctx, gt); err != nil {
		return fmt.Errorf("create goal transition: %w", err)
	}
	s.log.Info("goal_transition",
		slog.String("user_id", userID.String()),
		slog.String("from", string(from.Type)),
		slog.String("to", string(to.Type)),
		slog.String("effective_date", gt.EffectiveDate))
	return nil
}

// apply - валидация и слияние запроса с текущим профилем
func (s *Service) apply(p storage.Profile, req UpsertProfileRequest) (storage.Profile, error) {
	if req.Sex != nil {
		sex := strings.ToLower(strings.TrimSpace(*req.Sex))
		if sex != storage.SexMale && sex != storage.SexFemale {
			return p, ErrInvalidSex
		}
		p.Sex = &sex
	}
	if req.HeightCm != nil {
		h := *req.HeightCm
		if math.IsNaN(h) || h < minHeightCm || h > maxHeightCm {
			return p, ErrInvalidHeight
		}
		p.HeightCm = &h
	}
	if req.BirthDate != nil {
		bd := strings.TrimSpace(*req.BirthDate)
		age, err := calendar.Age(bd, s.recomputer.Today())
		if err != nil || age < 0 || age > maxAgeYears || bd > s.recomputer.Today() {
			return p, ErrInvalidBirthDate
		}
		p.BirthDate = &bd
	}
	if req.Athlete != nil {
		p.Athlete = *req.Athlete
	}
	if req.GoalType != nil {
		g := storage.GoalType(strings.ToLower(strings.TrimSpace(*req.GoalType)))
		if !g.Valid() {
			return p, ErrInvalidGoalType
		}
		p.GoalType = g
	}
	if req.GoalRateKgPerWeek != nil {
		r := *req.GoalRateKgPerWeek
		if math.IsNaN(r) || r < 0 || r > maxGoalRateKg {
			return p, ErrInvalidGoalRate
		}
		p.GoalRateKgPerWeek = r
	}
	if p.GoalType == storage.GoalMaintain {
		p.GoalRateKgPerWeek = 0
	}
	if req.TargetWeightKg != nil {
		t := *req.TargetWeightKg
		if math.IsNaN(t) || t < storage.MinWeightKg || t > storage.MaxWeightKg {
			return p, ErrInvalidTarget
		}
		p.TargetWeightKg = &t
	}
	if req.Units != nil {
		u := strings.ToLower(strings.TrimSpace(*req.Units))
		if u != UnitsKg && u != UnitsLb {
			return p, ErrInvalidUnits
		}
		p.Units = u
	}
	if p.Units == "" {
		p.Units = UnitsKg
	}
	return p, nil
}

func bodyDiffers(a, b storage.Profile) bool {
	return !eqFloat(a.HeightCm, b.HeightCm) || !eqString(a.BirthDate, b.BirthDate) ||
		!eqString(a.Sex, b.Sex) || a.Athlete != b.Athlete
}

func eqFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// toDTO конвертирует storage.Profile в ProfileDTO
func toDTO(p storage.Profile) ProfileDTO {
	return ProfileDTO{
		UserID:              p.UserID,
		HeightCm:            p.HeightCm,
		BirthDate:           p.BirthDate,
		Sex:                 p.Sex,
		Athlete:             p.Athlete,
		GoalType:            string(p.GoalType),
		GoalRateKgPerWeek:   p.GoalRateKgPerWeek,
		TargetWeightKg:      p.TargetWeightKg,
		Units:               p.Units,
		DailyAdjustmentKcal: coaching.DailyAdjustment(p.Goal()),
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}
