package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/google/uuid"
)

// WeightsMemoryStorage keeps weight observations per user.
type WeightsMemoryStorage struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]storage.WeightObservation
}

func NewWeightsMemoryStorage() *WeightsMemoryStorage {
	return &WeightsMemoryStorage{byID: make(map[uuid.UUID]storage.WeightObservation)}
}

func (s *WeightsMemoryStorage) Create(obs *storage.WeightObservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if obs.ID == uuid.Nil {
		obs.ID = uuid.New()
	}
	if obs.CreatedAt.IsZero() {
		obs.CreatedAt = time.Now().UTC()
	}
	s.byID[obs.ID] = *obs
	return nil
}

func (s *WeightsMemoryStorage) Get(userID, id uuid.UUID) (*storage.WeightObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obs, ok := s.byID[id]
	if !ok || obs.UserID != userID {
		return nil, storage.ErrNotFound
	}
	return &obs, nil
}

func (s *WeightsMemoryStorage) Delete(userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	obs, ok := s.byID[id]
	if !ok || obs.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

// List returns observations with from <= ObservedAt < to, ascending.
func (s *WeightsMemoryStorage) List(userID uuid.UUID, from, to time.Time) ([]storage.WeightObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []storage.WeightObservation
	for _, obs := range s.byID {
		if obs.UserID != userID || obs.ObservedAt.Before(from) || !obs.ObservedAt.Before(to) {
			continue
		}
		result = append(result, obs)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].ObservedAt.Equal(result[j].ObservedAt) {
			return result[i].ObservedAt.Before(result[j].ObservedAt)
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}
