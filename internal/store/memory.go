// internal/store/memory.go
package store

import (
	"context"
	"sort"
	"sync"

	apperrors "notification-service/internal/common/errors"
	"notification-service/internal/models"
)

// MemoryStore keeps notification records in process memory. Used by tests
// and local development; the production store is PostgreSQL.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]models.Notification)}
}

// Save stores a copy of the record so callers cannot mutate persisted
// state through a retained pointer.
func (s *MemoryStore) Save(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[n.ID] = *n
	return nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.records[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("Notification")
	}
	return &n, nil
}

func (s *MemoryStore) FindByStatus(ctx context.Context, status models.Status, limit int) ([]*models.Notification, error) {
	return s.filter(limit, func(n models.Notification) bool { return n.Status == status }), nil
}

func (s *MemoryStore) FindByRecipient(ctx context.Context, recipient string, limit int) ([]*models.Notification, error) {
	return s.filter(limit, func(n models.Notification) bool { return n.Recipient == recipient }), nil
}

func (s *MemoryStore) FindAll(ctx context.Context, limit int) ([]*models.Notification, error) {
	return s.filter(limit, func(models.Notification) bool { return true }), nil
}

func (s *MemoryStore) CountByStatus(ctx context.Context) (StatusCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var counts StatusCounts
	for _, n := range s.records {
		switch n.Status {
		case models.StatusQueued:
			counts.Queued++
		case models.StatusSent:
			counts.Sent++
		case models.StatusFailed:
			counts.Failed++
		}
	}
	return counts, nil
}

func (s *MemoryStore) filter(limit int, keep func(models.Notification) bool) []*models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Notification
	for _, n := range s.records {
		if keep(n) {
			matched = append(matched, n)
		}
	}
	// Most recent first, matching the SQL store's ordering.
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]*models.Notification, 0, len(matched))
	for i := range matched {
		n := matched[i]
		out = append(out, &n)
	}
	return out
}
