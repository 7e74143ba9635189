package memory

import (
	"sort"
	"sync"

	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/google/uuid"
)

// ComputedStatesMemoryStorage keeps each user's chain with its version.
type ComputedStatesMemoryStorage struct {
	mu       sync.RWMutex
	byUser   map[uuid.UUID]map[string]storage.ComputedState
	versions map[uuid.UUID]int64
}

func NewComputedStatesMemoryStorage() *ComputedStatesMemoryStorage {
	return &ComputedStatesMemoryStorage{
		byUser:   make(map[uuid.UUID]map[string]storage.ComputedState),
		versions: make(map[uuid.UUID]int64),
	}
}

func (s *ComputedStatesMemoryStorage) List(userID uuid.UUID, from, to string) ([]storage.ComputedState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []storage.ComputedState
	for date, st := range s.byUser[userID] {
		if date >= from && date <= to {
			result = append(result, st)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date < result[j].Date })
	return result, nil
}

func (s *ComputedStatesMemoryStorage) Version(userID uuid.UUID) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versions[userID]
}

// Replace swaps the tail of the chain in one critical section.
func (s *ComputedStatesMemoryStorage) Replace(userID uuid.UUID, from string, states []storage.ComputedState, expectedVersion int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.versions[userID] != expectedVersion {
		return s.versions[userID], storage.ErrStaleChain
	}

	chain, ok := s.byUser[userID]
	if !ok {
		chain = make(map[string]storage.ComputedState)
		s.byUser[userID] = chain
	}
	for date := range chain {
		if date >= from {
			delete(chain, date)
		}
	}
	next := expectedVersion + 1
	for _, st := range states {
		st.UserID = userID
		st.ChainVersion = next
		chain[st.Date] = st
	}
	s.versions[userID] = next
	return next, nil
}
