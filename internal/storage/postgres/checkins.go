package postgres

import (
	"context"
	"fmt"

	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresCheckinsStorage - Postgres storage для недельных чек-инов
type PostgresCheckinsStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresCheckinsStorage(pool *pgxpool.Pool) *PostgresCheckinsStorage {
	return &PostgresCheckinsStorage{pool: pool}
}

const checkinColumns = `id, user_id, to_char(week_start, ` + dayFormat + `), to_char(week_end, ` + dayFormat + `),
	average_tdee, suggested_calories, adherence_score, confidence_level, trend_weight_start,
	trend_weight_end, weekly_weight_change, eligible, notes, created_at, updated_at`

func scanCheckIn(row interface{ Scan(...any) error }, c *storage.WeeklyCheckIn) error {
	return row.Scan(
		&c.ID,
		&c.UserID,
		&c.WeekStart,
		&c.WeekEnd,
		&c.AverageTdee,
		&c.SuggestedCalories,
		&c.AdherenceScore,
		&c.ConfidenceLevel,
		&c.TrendWeightStart,
		&c.TrendWeightEnd,
		&c.WeeklyWeightChange,
		&c.Eligible,
		&c.Notes,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

// Upsert сохраняет чек-ин; при повторе недели id и created_at остаются прежними
func (s *PostgresCheckinsStorage) Upsert(ctx context.Context, c *storage.WeeklyCheckIn) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	query := `
		INSERT INTO weekly_checkins (id, user_id, week_start, week_end, average_tdee, suggested_calories,
		                             adherence_score, confidence_level, trend_weight_start, trend_weight_end,
		                             weekly_weight_change, eligible, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		ON CONFLICT (user_id, week_start) DO UPDATE SET
			week_end = EXCLUDED.week_end,
			average_tdee = EXCLUDED.average_tdee,
			suggested_calories = EXCLUDED.suggested_calories,
			adherence_score = EXCLUDED.adherence_score,
			confidence_level = EXCLUDED.confidence_level,
			trend_weight_start = EXCLUDED.trend_weight_start,
			trend_weight_end = EXCLUDED.trend_weight_end,
			weekly_weight_change = EXCLUDED.weekly_weight_change,
			eligible = EXCLUDED.eligible,
			notes = EXCLUDED.notes,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	if err := s.pool.QueryRow(ctx, query,
		c.ID,
		c.UserID,
		c.WeekStart,
		c.WeekEnd,
		c.AverageTdee,
		c.SuggestedCalories,
		c.AdherenceScore,
		c.ConfidenceLevel,
		c.TrendWeightStart,
		c.TrendWeightEnd,
		c.WeeklyWeightChange,
		c.Eligible,
		c.Notes,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert check-in: %w", err)
	}
	return nil
}

func (s *PostgresCheckinsStorage) Get(ctx context.Context, userID uuid.UUID, weekStart string) (*storage.WeeklyCheckIn, error) {
	query := `SELECT ` + checkinColumns + ` FROM weekly_checkins WHERE user_id = $1 AND week_start = $2`
	var c storage.WeeklyCheckIn
	if err := scanCheckIn(s.pool.QueryRow(ctx, query, userID, weekStart), &c); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *PostgresCheckinsStorage) List(ctx context.Context, userID uuid.UUID, from, to string) ([]storage.WeeklyCheckIn, error) {
	query := `SELECT ` + checkinColumns + `
		FROM weekly_checkins
		WHERE user_id = $1 AND week_start >= $2 AND week_start <= $3
		ORDER BY week_start ASC`
	rows, err := s.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	defer rows.Close()

	var result []storage.WeeklyCheckIn
	for rows.Next() {
		var c storage.WeeklyCheckIn
		if err := scanCheckIn(rows, &c); err != nil {
			return nil, fmt.Errorf("failed to scan check-in: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// Delete удаляет чек-ин недели; отсутствие строки не ошибка
func (s *PostgresCheckinsStorage) Delete(ctx context.Context, userID uuid.UUID, weekStart string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM weekly_checkins WHERE user_id = $1 AND week_start = $2`, userID, weekStart); err != nil {
		return fmt.Errorf("failed to delete check-in: %w", err)
	}
	return nil
}
