package postgres

import (
	"context"
	"fmt"

	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresReportsStorage - Postgres storage для отчётов
type PostgresReportsStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresReportsStorage создаёт новое Postgres хранилище
func NewPostgresReportsStorage(pool *pgxpool.Pool) *PostgresReportsStorage {
	return &PostgresReportsStorage{pool: pool}
}

const reportColumns = `id, user_id, format, to_char(from_date, ` + dayFormat + `), to_char(to_date, ` + dayFormat + `),
	object_key, size_bytes, status, error, created_at, updated_at`

func scanReport(row interface{ Scan(...any) error }, r *storage.ReportMeta, extra ...any) error {
	dest := []any{
		&r.ID,
		&r.UserID,
		&r.Format,
		&r.FromDate,
		&r.ToDate,
		&r.ObjectKey,
		&r.SizeBytes,
		&r.Status,
		&r.Error,
		&r.CreatedAt,
		&r.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

// CreateReport создаёт новый отчёт
func (s *PostgresReportsStorage) CreateReport(ctx context.Context, report *storage.ReportMeta) error {
	query := `
		INSERT INTO reports (id, user_id, format, from_date, to_date, object_key, size_bytes, status, error, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}

	err := s.pool.QueryRow(ctx, query,
		report.ID,
		report.UserID,
		report.Format,
		report.FromDate,
		report.ToDate,
		report.ObjectKey,
		report.SizeBytes,
		report.Status,
		report.Error,
		report.Data,
	).Scan(&report.CreatedAt, &report.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	return nil
}

// GetReport возвращает отчёт пользователя вместе с содержимым (local режим)
func (s *PostgresReportsStorage) GetReport(ctx context.Context, userID, id uuid.UUID) (*storage.ReportMeta, error) {
	query := `SELECT ` + reportColumns + `, data FROM reports WHERE id = $1 AND user_id = $2`

	var report storage.ReportMeta
	if err := scanReport(s.pool.QueryRow(ctx, query, id, userID), &report, &report.Data); err != nil {
		return nil, notFound(err)
	}

	return &report, nil
}

// ListReports возвращает список отчётов с пагинацией, без содержимого
func (s *PostgresReportsStorage) ListReports(ctx context.Context, userID uuid.UUID, limit, offset int) ([]storage.ReportMeta, error) {
	query := `SELECT ` + reportColumns + `
		FROM reports
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := s.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := []storage.ReportMeta{}
	for rows.Next() {
		var r storage.ReportMeta
		if err := scanReport(rows, &r); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, r)
	}

	return reports, rows.Err()
}

// DeleteReport удаляет отчёт
func (s *PostgresReportsStorage) DeleteReport(ctx context.Context, userID, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM reports WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}
