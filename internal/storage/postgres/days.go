package postgres

import (
	"context"
	"fmt"

	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDailyRecordsStorage - Postgres storage для дневных агрегатов
type PostgresDailyRecordsStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresDailyRecordsStorage(pool *pgxpool.Pool) *PostgresDailyRecordsStorage {
	return &PostgresDailyRecordsStorage{pool: pool}
}

const dailyRecordColumns = `user_id, to_char(date, ` + dayFormat + `), scale_weight_kg, intake_calories,
	intake_protein_g, intake_carbs_g, intake_fat_g, step_count, status, status_locked, updated_at`

func scanDailyRecord(row interface{ Scan(...any) error }, r *storage.DailyRecord) error {
	return row.Scan(
		&r.UserID,
		&r.Date,
		&r.ScaleWeightKg,
		&r.IntakeCalories,
		&r.IntakeProteinG,
		&r.IntakeCarbsG,
		&r.IntakeFatG,
		&r.StepCount,
		&r.Status,
		&r.StatusLocked,
		&r.UpdatedAt,
	)
}

func (s *PostgresDailyRecordsStorage) Upsert(ctx context.Context, rec *storage.DailyRecord) error {
	query := `
		INSERT INTO daily_records (user_id, date, scale_weight_kg, intake_calories, intake_protein_g,
		                           intake_carbs_g, intake_fat_g, step_count, status, status_locked, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (user_id, date) DO UPDATE SET
			scale_weight_kg = EXCLUDED.scale_weight_kg,
			intake_calories = EXCLUDED.intake_calories,
			intake_protein_g = EXCLUDED.intake_protein_g,
			intake_carbs_g = EXCLUDED.intake_carbs_g,
			intake_fat_g = EXCLUDED.intake_fat_g,
			step_count = EXCLUDED.step_count,
			status = EXCLUDED.status,
			status_locked = EXCLUDED.status_locked,
			updated_at = EXCLUDED.updated_at
		RETURNING updated_at
	`
	if err := s.pool.QueryRow(ctx, query,
		rec.UserID,
		rec.Date,
		rec.ScaleWeightKg,
		rec.IntakeCalories,
		rec.IntakeProteinG,
		rec.IntakeCarbsG,
		rec.IntakeFatG,
		rec.StepCount,
		rec.Status,
		rec.StatusLocked,
	).Scan(&rec.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert daily record: %w", err)
	}
	return nil
}

func (s *PostgresDailyRecordsStorage) Get(ctx context.Context, userID uuid.UUID, date string) (*storage.DailyRecord, error) {
	query := `SELECT ` + dailyRecordColumns + ` FROM daily_records WHERE user_id = $1 AND date = $2`
	var r storage.DailyRecord
	if err := scanDailyRecord(s.pool.QueryRow(ctx, query, userID, date), &r); err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func (s *PostgresDailyRecordsStorage) List(ctx context.Context, userID uuid.UUID, from, to string) ([]storage.DailyRecord, error) {
	query := `SELECT ` + dailyRecordColumns + `
		FROM daily_records
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC`
	rows, err := s.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily records: %w", err)
	}
	defer rows.Close()

	var result []storage.DailyRecord
	for rows.Next() {
		var r storage.DailyRecord
		if err := scanDailyRecord(rows, &r); err != nil {
			return nil, fmt.Errorf("failed to scan daily record: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// FirstWeighed возвращает самую раннюю дату со взвешиванием
func (s *PostgresDailyRecordsStorage) FirstWeighed(ctx context.Context, userID uuid.UUID) (string, bool, error) {
	query := `
		SELECT to_char(MIN(date), ` + dayFormat + `)
		FROM daily_records
		WHERE user_id = $1 AND scale_weight_kg IS NOT NULL
	`
	var first *string
	if err := s.pool.QueryRow(ctx, query, userID).Scan(&first); err != nil {
		return "", false, fmt.Errorf("failed to query first weighed date: %w", err)
	}
	if first == nil {
		return "", false, nil
	}
	return *first, true, nil
}
