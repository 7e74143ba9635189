package memory

import (
	"sort"
	"sync"

	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/google/uuid"
)

// DailyRecordsMemoryStorage keeps one record per (user, date).
type DailyRecordsMemoryStorage struct {
	mu     sync.RWMutex
	byUser map[uuid.UUID]map[string]storage.DailyRecord
}

func NewDailyRecordsMemoryStorage() *DailyRecordsMemoryStorage {
	return &DailyRecordsMemoryStorage{byUser: make(map[uuid.UUID]map[string]storage.DailyRecord)}
}

func (s *DailyRecordsMemoryStorage) Upsert(rec *storage.DailyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	days, ok := s.byUser[rec.UserID]
	if !ok {
		days = make(map[string]storage.DailyRecord)
		s.byUser[rec.UserID] = days
	}
	days[rec.Date] = *rec
	return nil
}

func (s *DailyRecordsMemoryStorage) Get(userID uuid.UUID, date string) (*storage.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byUser[userID][date]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &rec, nil
}

func (s *DailyRecordsMemoryStorage) List(userID uuid.UUID, from, to string) ([]storage.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []storage.DailyRecord
	for date, rec := range s.byUser[userID] {
		if date >= from && date <= to {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date < result[j].Date })
	return result, nil
}

func (s *DailyRecordsMemoryStorage) FirstWeighed(userID uuid.UUID) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	first := ""
	for date, rec := range s.byUser[userID] {
		if rec.ScaleWeightKg == nil {
			continue
		}
		if first == "" || date < first {
			first = date
		}
	}
	return first, first != "", nil
}
