package memory

import (
	"sort"
	"sync"

	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/google/uuid"
)

// CheckInsMemoryStorage keeps one weekly check-in per (user, week).
type CheckInsMemoryStorage struct {
	mu     sync.RWMutex
	byUser map[uuid.UUID]map[string]storage.WeeklyCheckIn // week start -> check-in
}

func NewCheckInsMemoryStorage() *CheckInsMemoryStorage {
	return &CheckInsMemoryStorage{byUser: make(map[uuid.UUID]map[string]storage.WeeklyCheckIn)}
}

// Upsert creates or replaces the check-in of a week, keeping its ID and CreatedAt.
func (s *CheckInsMemoryStorage) Upsert(c *storage.WeeklyCheckIn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	weeks, ok := s.byUser[c.UserID]
	if !ok {
		weeks = make(map[string]storage.WeeklyCheckIn)
		s.byUser[c.UserID] = weeks
	}
	if existing, exists := weeks[c.WeekStart]; exists {
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
	} else if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	weeks[c.WeekStart] = *c
	return nil
}

func (s *CheckInsMemoryStorage) Get(userID uuid.UUID, weekStart string) (*storage.WeeklyCheckIn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byUser[userID][weekStart]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &c, nil
}

func (s *CheckInsMemoryStorage) List(userID uuid.UUID, from, to string) ([]storage.WeeklyCheckIn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []storage.WeeklyCheckIn
	for week, c := range s.byUser[userID] {
		if week >= from && week <= to {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].WeekStart < result[j].WeekStart })
	return result, nil
}

func (s *CheckInsMemoryStorage) Delete(userID uuid.UUID, weekStart string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.byUser[userID], weekStart)
	return nil
}
