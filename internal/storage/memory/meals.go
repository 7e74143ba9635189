package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/google/uuid"
)

// MealsMemoryStorage keeps meal entries.
type MealsMemoryStorage struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]storage.MealEntry
}

func NewMealsMemoryStorage() *MealsMemoryStorage {
	return &MealsMemoryStorage{byID: make(map[uuid.UUID]storage.MealEntry)}
}

func (s *MealsMemoryStorage) Create(meal *storage.MealEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if meal.ID == uuid.Nil {
		meal.ID = uuid.New()
	}
	if meal.CreatedAt.IsZero() {
		meal.CreatedAt = time.Now().UTC()
	}
	s.byID[meal.ID] = *meal
	return nil
}

func (s *MealsMemoryStorage) Get(userID, id uuid.UUID) (*storage.MealEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meal, ok := s.byID[id]
	if !ok || meal.UserID != userID {
		return nil, storage.ErrNotFound
	}
	return &meal, nil
}

func (s *MealsMemoryStorage) Delete(userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meal, ok := s.byID[id]
	if !ok || meal.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *MealsMemoryStorage) ListForDate(userID uuid.UUID, date string) ([]storage.MealEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []storage.MealEntry
	for _, meal := range s.byID {
		if meal.UserID == userID && meal.Date == date {
			result = append(result, meal)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}
