// Package postgres implements storage.Storage on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dayFormat renders a DATE column as YYYY-MM-DD independent of DateStyle.
const dayFormat = "'YYYY-MM-DD'"

// PostgresStorage - Postgres реализация storage.Storage
type PostgresStorage struct {
	pool     *pgxpool.Pool
	weights  *PostgresWeightsStorage
	meals    *PostgresMealsStorage
	days     *PostgresDailyRecordsStorage
	states   *PostgresStatesStorage
	checkins *PostgresCheckinsStorage
	reports  *PostgresReportsStorage
}

// New открывает пул соединений и проверяет доступность базы
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStorage{
		pool:     pool,
		weights:  NewPostgresWeightsStorage(pool),
		meals:    NewPostgresMealsStorage(pool),
		days:     NewPostgresDailyRecordsStorage(pool),
		states:   NewPostgresStatesStorage(pool),
		checkins: NewPostgresCheckinsStorage(pool),
		reports:  NewPostgresReportsStorage(pool),
	}, nil
}

// Close закрывает пул
func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// Ping проверяет соединение, для readiness
func (p *PostgresStorage) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}

// Профили

func (p *PostgresStorage) GetProfile(ctx context.Context, userID uuid.UUID) (*storage.Profile, error) {
	query := `
		SELECT user_id, height_cm, to_char(birth_date, ` + dayFormat + `), sex, athlete,
		       goal_type, goal_rate_kg_per_week, target_weight_kg, units, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`

	var prof storage.Profile
	err := p.pool.QueryRow(ctx, query, userID).Scan(
		&prof.UserID,
		&prof.HeightCm,
		&prof.BirthDate,
		&prof.Sex,
		&prof.Athlete,
		&prof.GoalType,
		&prof.GoalRateKgPerWeek,
		&prof.TargetWeightKg,
		&prof.Units,
		&prof.CreatedAt,
		&prof.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &prof, nil
}

func (p *PostgresStorage) UpsertProfile(ctx context.Context, prof *storage.Profile) error {
	query := `
		INSERT INTO profiles (user_id, height_cm, birth_date, sex, athlete, goal_type,
		                      goal_rate_kg_per_week, target_weight_kg, units, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (user_id) DO UPDATE SET
			height_cm = EXCLUDED.height_cm,
			birth_date = EXCLUDED.birth_date,
			sex = EXCLUDED.sex,
			athlete = EXCLUDED.athlete,
			goal_type = EXCLUDED.goal_type,
			goal_rate_kg_per_week = EXCLUDED.goal_rate_kg_per_week,
			target_weight_kg = EXCLUDED.target_weight_kg,
			units = EXCLUDED.units,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`

	return p.pool.QueryRow(ctx, query,
		prof.UserID,
		prof.HeightCm,
		prof.BirthDate,
		prof.Sex,
		prof.Athlete,
		prof.GoalType,
		prof.GoalRateKgPerWeek,
		prof.TargetWeightKg,
		prof.Units,
		time.Now().UTC(),
	).Scan(&prof.CreatedAt, &prof.UpdatedAt)
}

func (p *PostgresStorage) CreateGoalTransition(ctx context.Context, gt *storage.GoalTransition) error {
	if gt.ID == uuid.Nil {
		gt.ID = uuid.New()
	}
	query := `
		INSERT INTO goal_transitions (id, user_id, effective_date, from_type, from_rate, to_type, to_rate, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at
	`
	return p.pool.QueryRow(ctx, query,
		gt.ID,
		gt.UserID,
		gt.EffectiveDate,
		gt.From.Type,
		gt.From.RateKgPerWeek,
		gt.To.Type,
		gt.To.RateKgPerWeek,
	).Scan(&gt.CreatedAt)
}

func (p *PostgresStorage) ListGoalTransitions(ctx context.Context, userID uuid.UUID, from, to string) ([]storage.GoalTransition, error) {
	query := `
		SELECT id, user_id, to_char(effective_date, ` + dayFormat + `), from_type, from_rate, to_type, to_rate, created_at
		FROM goal_transitions
		WHERE user_id = $1 AND effective_date >= $2 AND effective_date <= $3
		ORDER BY effective_date ASC, created_at ASC
	`

	rows, err := p.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []storage.GoalTransition
	for rows.Next() {
		var gt storage.GoalTransition
		if err := rows.Scan(
			&gt.ID,
			&gt.UserID,
			&gt.EffectiveDate,
			&gt.From.Type,
			&gt.From.RateKgPerWeek,
			&gt.To.Type,
			&gt.To.RateKgPerWeek,
			&gt.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, gt)
	}
	return result, rows.Err()
}

// Взвешивания

func (p *PostgresStorage) CreateWeightObservation(ctx context.Context, obs *storage.WeightObservation) error {
	return p.weights.Create(ctx, obs)
}

func (p *PostgresStorage) GetWeightObservation(ctx context.Context, userID, id uuid.UUID) (*storage.WeightObservation, error) {
	return p.weights.Get(ctx, userID, id)
}

func (p *PostgresStorage) DeleteWeightObservation(ctx context.Context, userID, id uuid.UUID) error {
	return p.weights.Delete(ctx, userID, id)
}

func (p *PostgresStorage) ListWeightObservations(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]storage.WeightObservation, error) {
	return p.weights.List(ctx, userID, from, to)
}

// Приёмы пищи

func (p *PostgresStorage) CreateMeal(ctx context.Context, meal *storage.MealEntry) error {
	return p.meals.Create(ctx, meal)
}

func (p *PostgresStorage) GetMeal(ctx context.Context, userID, id uuid.UUID) (*storage.MealEntry, error) {
	return p.meals.Get(ctx, userID, id)
}

func (p *PostgresStorage) DeleteMeal(ctx context.Context, userID, id uuid.UUID) error {
	return p.meals.Delete(ctx, userID, id)
}

func (p *PostgresStorage) ListMealsForDate(ctx context.Context, userID uuid.UUID, date string) ([]storage.MealEntry, error) {
	return p.meals.ListForDate(ctx, userID, date)
}

// Дневные записи

func (p *PostgresStorage) UpsertDailyRecord(ctx context.Context, rec *storage.DailyRecord) error {
	return p.days.Upsert(ctx, rec)
}

func (p *PostgresStorage) GetDailyRecord(ctx context.Context, userID uuid.UUID, date string) (*storage.DailyRecord, error) {
	return p.days.Get(ctx, userID, date)
}

func (p *PostgresStorage) ListDailyRecords(ctx context.Context, userID uuid.UUID, from, to string) ([]storage.DailyRecord, error) {
	return p.days.List(ctx, userID, from, to)
}

func (p *PostgresStorage) FirstWeighedDate(ctx context.Context, userID uuid.UUID) (string, bool, error) {
	return p.days.FirstWeighed(ctx, userID)
}

// Цепочка состояний

func (p *PostgresStorage) ListComputedStates(ctx context.Context, userID uuid.UUID, from, to string) ([]storage.ComputedState, error) {
	return p.states.List(ctx, userID, from, to)
}

func (p *PostgresStorage) ChainVersion(ctx context.Context, userID uuid.UUID) (int64, error) {
	return p.states.Version(ctx, userID)
}

func (p *PostgresStorage) ReplaceComputedStates(ctx context.Context, userID uuid.UUID, from string, states []storage.ComputedState, expectedVersion int64) (int64, error) {
	return p.states.Replace(ctx, userID, from, states, expectedVersion)
}

// Чек-ины

func (p *PostgresStorage) UpsertCheckIn(ctx context.Context, c *storage.WeeklyCheckIn) error {
	return p.checkins.Upsert(ctx, c)
}

func (p *PostgresStorage) GetCheckIn(ctx context.Context, userID uuid.UUID, weekStart string) (*storage.WeeklyCheckIn, error) {
	return p.checkins.Get(ctx, userID, weekStart)
}

func (p *PostgresStorage) ListCheckIns(ctx context.Context, userID uuid.UUID, from, to string) ([]storage.WeeklyCheckIn, error) {
	return p.checkins.List(ctx, userID, from, to)
}

func (p *PostgresStorage) DeleteCheckIn(ctx context.Context, userID uuid.UUID, weekStart string) error {
	return p.checkins.Delete(ctx, userID, weekStart)
}

// Отчёты

func (p *PostgresStorage) CreateReport(ctx context.Context, r *storage.ReportMeta) error {
	return p.reports.CreateReport(ctx, r)
}

func (p *PostgresStorage) GetReport(ctx context.Context, userID, id uuid.UUID) (*storage.ReportMeta, error) {
	return p.reports.GetReport(ctx, userID, id)
}

func (p *PostgresStorage) ListReports(ctx context.Context, userID uuid.UUID, limit, offset int) ([]storage.ReportMeta, error) {
	return p.reports.ListReports(ctx, userID, limit, offset)
}

func (p *PostgresStorage) DeleteReport(ctx context.Context, userID, id uuid.UUID) error {
	return p.reports.DeleteReport(ctx, userID, id)
}

var _ storage.Storage = (*PostgresStorage)(nil)
