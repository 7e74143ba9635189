package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresWeightsStorage - Postgres storage для взвешиваний
type PostgresWeightsStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresWeightsStorage(pool *pgxpool.Pool) *PostgresWeightsStorage {
	return &PostgresWeightsStorage{pool: pool}
}

func (s *PostgresWeightsStorage) Create(ctx context.Context, obs *storage.WeightObservation) error {
	if obs.ID == uuid.Nil {
		obs.ID = uuid.New()
	}
	query := `
		INSERT INTO weight_observations (id, user_id, weight_kg, observed_at, note, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`
	if err := s.pool.QueryRow(ctx, query,
		obs.ID,
		obs.UserID,
		obs.WeightKg,
		obs.ObservedAt.UTC(),
		obs.Note,
	).Scan(&obs.CreatedAt); err != nil {
		return fmt.Errorf("failed to create weight observation: %w", err)
	}
	return nil
}

func (s *PostgresWeightsStorage) Get(ctx context.Context, userID, id uuid.UUID) (*storage.WeightObservation, error) {
	query := `
		SELECT id, user_id, weight_kg, observed_at, note, created_at
		FROM weight_observations
		WHERE id = $1 AND user_id = $2
	`
	var obs storage.WeightObservation
	err := s.pool.QueryRow(ctx, query, id, userID).Scan(
		&obs.ID, &obs.UserID, &obs.WeightKg, &obs.ObservedAt, &obs.Note, &obs.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &obs, nil
}

func (s *PostgresWeightsStorage) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM weight_observations WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete weight observation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *PostgresWeightsStorage) List(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]storage.WeightObservation, error) {
	query := `
		SELECT id, user_id, weight_kg, observed_at, note, created_at
		FROM weight_observations
		WHERE user_id = $1 AND observed_at >= $2 AND observed_at < $3
		ORDER BY observed_at ASC, created_at ASC
	`
	rows, err := s.pool.Query(ctx, query, userID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list weight observations: %w", err)
	}
	defer rows.Close()

	var result []storage.WeightObservation
	for rows.Next() {
		var obs storage.WeightObservation
		if err := rows.Scan(&obs.ID, &obs.UserID, &obs.WeightKg, &obs.ObservedAt, &obs.Note, &obs.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan weight observation: %w", err)
		}
		result = append(result, obs)
	}
	return result, rows.Err()
}
