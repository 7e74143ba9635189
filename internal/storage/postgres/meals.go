package postgres

import (
	"context"
	"fmt"

	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresMealsStorage - Postgres storage для приёмов пищи
type PostgresMealsStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresMealsStorage(pool *pgxpool.Pool) *PostgresMealsStorage {
	return &PostgresMealsStorage{pool: pool}
}

const mealColumns = `id, user_id, to_char(date, ` + dayFormat + `), name, calories, protein_g, carbs_g, fat_g, created_at`

func (s *PostgresMealsStorage) Create(ctx context.Context, meal *storage.MealEntry) error {
	if meal.ID == uuid.Nil {
		meal.ID = uuid.New()
	}
	query := `
		INSERT INTO meal_entries (id, user_id, date, name, calories, protein_g, carbs_g, fat_g, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING created_at
	`
	if err := s.pool.QueryRow(ctx, query,
		meal.ID,
		meal.UserID,
		meal.Date,
		meal.Name,
		meal.Calories,
		meal.ProteinG,
		meal.CarbsG,
		meal.FatG,
	).Scan(&meal.CreatedAt); err != nil {
		return fmt.Errorf("failed to create meal: %w", err)
	}
	return nil
}

func scanMeal(row interface{ Scan(...any) error }, m *storage.MealEntry) error {
	return row.Scan(&m.ID, &m.UserID, &m.Date, &m.Name, &m.Calories, &m.ProteinG, &m.CarbsG, &m.FatG, &m.CreatedAt)
}

func (s *PostgresMealsStorage) Get(ctx context.Context, userID, id uuid.UUID) (*storage.MealEntry, error) {
	query := `SELECT ` + mealColumns + ` FROM meal_entries WHERE id = $1 AND user_id = $2`
	var m storage.MealEntry
	if err := scanMeal(s.pool.QueryRow(ctx, query, id, userID), &m); err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (s *PostgresMealsStorage) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM meal_entries WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete meal: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *PostgresMealsStorage) ListForDate(ctx context.Context, userID uuid.UUID, date string) ([]storage.MealEntry, error) {
	query := `SELECT ` + mealColumns + ` FROM meal_entries WHERE user_id = $1 AND date = $2 ORDER BY created_at ASC`
	rows, err := s.pool.Query(ctx, query, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	defer rows.Close()

	var result []storage.MealEntry
	for rows.Next() {
		var m storage.MealEntry
		if err := scanMeal(rows, &m); err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}
