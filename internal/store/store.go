// Package store provides durable keyed storage of notification records with
// lookup by id, recipient, and status.
package store

import (
	"context"

	"notification-service/internal/models"
)

// StatusCounts is a point-in-time breakdown of stored notifications.
type StatusCounts struct {
	Queued int
	Sent   int
	Failed int
}

// Total returns the number of stored notifications across all statuses.
func (c StatusCounts) Total() int {
	return c.Queued + c.Sent + c.Failed
}

// Store is the persistence port for notification records. Save is an upsert
// keyed by id. The list operations return records most recent first, bounded
// by limit. All operations fail with a PERSISTENCE_ERROR when the backing
// store is unavailable; FindByID fails with NOT_FOUND for unknown ids.
type Store interface {
	Save(ctx context.Context, n *models.Notification) error
	FindByID(ctx context.Context, id string) (*models.Notification, error)
	FindByStatus(ctx context.Context, status models.Status, limit int) ([]*models.Notification, error)
	FindByRecipient(ctx context.Context, recipient string, limit int) ([]*models.Notification, error)
	FindAll(ctx context.Context, limit int) ([]*models.Notification, error)
	CountByStatus(ctx context.Context) (StatusCounts, error)
}
