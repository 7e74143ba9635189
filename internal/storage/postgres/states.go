package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStatesStorage хранит цепочку вычисленных состояний и её версию
type PostgresStatesStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresStatesStorage(pool *pgxpool.Pool) *PostgresStatesStorage {
	return &PostgresStatesStorage{pool: pool}
}

func (s *PostgresStatesStorage) List(ctx context.Context, userID uuid.UUID, from, to string) ([]storage.ComputedState, error) {
	query := `
		SELECT user_id, to_char(date, ` + dayFormat + `), trend_weight_kg, estimated_tdee_kcal, raw_tdee_kcal,
		       flux_confidence_range, energy_density_used, weight_delta_kg, days_tracked,
		       source, whoosh_severity, chain_version
		FROM computed_states
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`
	rows, err := s.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list computed states: %w", err)
	}
	defer rows.Close()

	var result []storage.ComputedState
	for rows.Next() {
		var st storage.ComputedState
		if err := rows.Scan(
			&st.UserID,
			&st.Date,
			&st.TrendWeightKg,
			&st.EstimatedTdeeKcal,
			&st.RawTdeeKcal,
			&st.FluxConfidenceRange,
			&st.EnergyDensityUsed,
			&st.WeightDeltaKg,
			&st.DaysTracked,
			&st.Source,
			&st.WhooshSeverity,
			&st.ChainVersion,
		); err != nil {
			return nil, fmt.Errorf("failed to scan computed state: %w", err)
		}
		result = append(result, st)
	}
	return result, rows.Err()
}

func (s *PostgresStatesStorage) Version(ctx context.Context, userID uuid.UUID) (int64, error) {
	var version int64
	err := s.pool.QueryRow(ctx, `SELECT version FROM chain_versions WHERE user_id = $1`, userID).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read chain version: %w", err)
	}
	return version, nil
}

// Replace заменяет хвост цепочки начиная с from в одной транзакции.
// Строка chain_versions блокируется FOR UPDATE до коммита.
func (s *PostgresStatesStorage) Replace(ctx context.Context, userID uuid.UUID, from string, states []storage.ComputedState, expectedVersion int64) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO chain_versions (user_id, version) VALUES ($1, 0) ON CONFLICT (user_id) DO NOTHING`,
		userID,
	); err != nil {
		return 0, fmt.Errorf("failed to init chain version: %w", err)
	}

	var current int64
	if err := tx.QueryRow(ctx,
		`SELECT version FROM chain_versions WHERE user_id = $1 FOR UPDATE`,
		userID,
	).Scan(&current); err != nil {
		return 0, fmt.Errorf("failed to lock chain version: %w", err)
	}
	if current != expectedVersion {
		return current, storage.ErrStaleChain
	}

	if _, err := tx.Exec(ctx, `DELETE FROM computed_states WHERE user_id = $1 AND date >= $2`, userID, from); err != nil {
		return 0, fmt.Errorf("failed to delete computed states: %w", err)
	}

	next := expectedVersion + 1
	if len(states) > 0 {
		batch := &pgx.Batch{}
		for _, st := range states {
			batch.Queue(`
				INSERT INTO computed_states (user_id, date, trend_weight_kg, estimated_tdee_kcal, raw_tdee_kcal,
				                             flux_confidence_range, energy_density_used, weight_delta_kg,
				                             days_tracked, source, whoosh_severity, chain_version)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
				userID,
				st.Date,
				st.TrendWeightKg,
				st.EstimatedTdeeKcal,
				st.RawTdeeKcal,
				st.FluxConfidenceRange,
				st.EnergyDensityUsed,
				st.WeightDeltaKg,
				st.DaysTracked,
				st.Source,
				st.WhooshSeverity,
				next,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return 0, fmt.Errorf("failed to insert computed states: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE chain_versions SET version = $2 WHERE user_id = $1`, userID, next); err != nil {
		return 0, fmt.Errorf("failed to bump chain version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit chain: %w", err)
	}
	return next, nil
}
