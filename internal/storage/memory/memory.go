package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/google/uuid"
)

// MemoryStorage - in-memory реализация storage.Storage
type MemoryStorage struct {
	mu          sync.RWMutex
	profiles    map[uuid.UUID]storage.Profile
	transitions map[uuid.UUID][]storage.GoalTransition
	weights     *WeightsMemoryStorage
	meals       *MealsMemoryStorage
	days        *DailyRecordsMemoryStorage
	states      *ComputedStatesMemoryStorage
	checkins    *CheckInsMemoryStorage
	reports     *ReportsMemoryStorage
}

// New создаёт пустой MemoryStorage
func New() *MemoryStorage {
	return &MemoryStorage{
		profiles:    make(map[uuid.UUID]storage.Profile),
		transitions: make(map[uuid.UUID][]storage.GoalTransition),
		weights:     NewWeightsMemoryStorage(),
		meals:       NewMealsMemoryStorage(),
		days:        NewDailyRecordsMemoryStorage(),
		states:      NewComputedStatesMemoryStorage(),
		checkins:    NewCheckInsMemoryStorage(),
		reports:     NewReportsMemoryStorage(),
	}
}

func (m *MemoryStorage) GetProfile(ctx context.Context, userID uuid.UUID) (*storage.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStorage) UpsertProfile(ctx context.Context, p *storage.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := m.profiles[p.UserID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	m.profiles[p.UserID] = *p
	return nil
}

func (m *MemoryStorage) CreateGoalTransition(ctx context.Context, gt *storage.GoalTransition) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gt.ID == uuid.Nil {
		gt.ID = uuid.New()
	}
	if gt.CreatedAt.IsZero() {
		gt.CreatedAt = time.Now().UTC()
	}
	list := append(m.transitions[gt.UserID], *gt)
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].EffectiveDate != list[j].EffectiveDate {
			return list[i].EffectiveDate < list[j].EffectiveDate
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	m.transitions[gt.UserID] = list
	return nil
}

func (m *MemoryStorage) ListGoalTransitions(ctx context.Context, userID uuid.UUID, from, to string) ([]storage.GoalTransition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []storage.GoalTransition
	for _, gt := range m.transitions[userID] {
		if gt.EffectiveDate >= from && gt.EffectiveDate <= to {
			result = append(result, gt)
		}
	}
	return result, nil
}

// Weights

func (m *MemoryStorage) CreateWeightObservation(ctx context.Context, obs *storage.WeightObservation) error {
	return m.weights.Create(obs)
}

func (m *MemoryStorage) GetWeightObservation(ctx context.Context, userID, id uuid.UUID) (*storage.WeightObservation, error) {
	return m.weights.Get(userID, id)
}

func (m *MemoryStorage) DeleteWeightObservation(ctx context.Context, userID, id uuid.UUID) error {
	return m.weights.Delete(userID, id)
}

func (m *MemoryStorage) ListWeightObservations(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]storage.WeightObservation, error) {
	return m.weights.List(userID, from, to)
}

// Meals

func (m *MemoryStorage) CreateMeal(ctx context.Context, meal *storage.MealEntry) error {
	return m.meals.Create(meal)
}

func (m *MemoryStorage) GetMeal(ctx context.Context, userID, id uuid.UUID) (*storage.MealEntry, error) {
	return m.meals.Get(userID, id)
}

func (m *MemoryStorage) DeleteMeal(ctx context.Context, userID, id uuid.UUID) error {
	return m.meals.Delete(userID, id)
}

func (m *MemoryStorage) ListMealsForDate(ctx context.Context, userID uuid.UUID, date string) ([]storage.MealEntry, error) {
	return m.meals.ListForDate(userID, date)
}

// Daily records

func (m *MemoryStorage) UpsertDailyRecord(ctx context.Context, rec *storage.DailyRecord) error {
	return m.days.Upsert(rec)
}

func (m *MemoryStorage) GetDailyRecord(ctx context.Context, userID uuid.UUID, date string) (*storage.DailyRecord, error) {
	return m.days.Get(userID, date)
}

func (m *MemoryStorage) ListDailyRecords(ctx context.Context, userID uuid.UUID, from, to string) ([]storage.DailyRecord, error) {
	return m.days.List(userID, from, to)
}

func (m *MemoryStorage) FirstWeighedDate(ctx context.Context, userID uuid.UUID) (string, bool, error) {
	return m.days.FirstWeighed(userID)
}

// Computed states

func (m *MemoryStorage) ListComputedStates(ctx context.Context, userID uuid.UUID, from, to string) ([]storage.ComputedState, error) {
	return m.states.List(userID, from, to)
}

func (m *MemoryStorage) ChainVersion(ctx context.Context, userID uuid.UUID) (int64, error) {
	return m.states.Version(userID), nil
}

func (m *MemoryStorage) ReplaceComputedStates(ctx context.Context, userID uuid.UUID, from string, states []storage.ComputedState, expectedVersion int64) (int64, error) {
	return m.states.Replace(userID, from, states, expectedVersion)
}

// Check-ins

func (m *MemoryStorage) UpsertCheckIn(ctx context.Context, c *storage.WeeklyCheckIn) error {
	return m.checkins.Upsert(c)
}

func (m *MemoryStorage) GetCheckIn(ctx context.Context, userID uuid.UUID, weekStart string) (*storage.WeeklyCheckIn, error) {
	return m.checkins.Get(userID, weekStart)
}

func (m *MemoryStorage) ListCheckIns(ctx context.Context, userID uuid.UUID, from, to string) ([]storage.WeeklyCheckIn, error) {
	return m.checkins.List(userID, from, to)
}

func (m *MemoryStorage) DeleteCheckIn(ctx context.Context, userID uuid.UUID, weekStart string) error {
	return m.checkins.Delete(userID, weekStart)
}

// Отчёты

func (m *MemoryStorage) CreateReport(ctx context.Context, r *storage.ReportMeta) error {
	return m.reports.CreateReport(ctx, r)
}

func (m *MemoryStorage) GetReport(ctx context.Context, userID, id uuid.UUID) (*storage.ReportMeta, error) {
	return m.reports.GetReport(ctx, userID, id)
}

func (m *MemoryStorage) ListReports(ctx context.Context, userID uuid.UUID, limit, offset int) ([]storage.ReportMeta, error) {
	return m.reports.ListReports(ctx, userID, limit, offset)
}

func (m *MemoryStorage) DeleteReport(ctx context.Context, userID, id uuid.UUID) error {
	return m.reports.DeleteReport(ctx, userID, id)
}

// Close - no-op для in-memory
func (m *MemoryStorage) Close() error {
	return nil
}
