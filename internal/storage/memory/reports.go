package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/google/uuid"
)

// ReportsMemoryStorage - in-memory storage для отчётов
type ReportsMemoryStorage struct {
	mu      sync.RWMutex
	reports map[uuid.UUID]*storage.ReportMeta
}

// NewReportsMemoryStorage создаёт новое in-memory хранилище
func NewReportsMemoryStorage() *ReportsMemoryStorage {
	return &ReportsMemoryStorage{
		reports: make(map[uuid.UUID]*storage.ReportMeta),
	}
}

// CreateReport создаёт новый отчёт
func (s *ReportsMemoryStorage) CreateReport(ctx context.Context, report *storage.ReportMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}

	now := time.Now().UTC()
	report.CreatedAt = now
	report.UpdatedAt = now

	stored := *report
	s.reports[report.ID] = &stored
	return nil
}

// GetReport возвращает отчёт пользователя по ID
func (s *ReportsMemoryStorage) GetReport(ctx context.Context, userID, id uuid.UUID) (*storage.ReportMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, exists := s.reports[id]
	if !exists || report.UserID != userID {
		return nil, storage.ErrNotFound
	}
	out := *report
	return &out, nil
}

// ListReports возвращает список отчётов с пагинацией
func (s *ReportsMemoryStorage) ListReports(ctx context.Context, userID uuid.UUID, limit, offset int) ([]storage.ReportMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filtered := []storage.ReportMeta{}
	for _, r := range s.reports {
		if r.UserID == userID {
			filtered = append(filtered, *r)
		}
	}

	// created_at DESC
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	if offset < 0 {
		offset = 0
	}
	if offset > len(filtered) {
		return []storage.ReportMeta{}, nil
	}
	end := len(filtered)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return filtered[offset:end], nil
}

// DeleteReport удаляет отчёт
func (s *ReportsMemoryStorage) DeleteReport(ctx context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, exists := s.reports[id]
	if !exists || report.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.reports, id)
	return nil
}
