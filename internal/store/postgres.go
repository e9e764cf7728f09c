// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"errors"

	apperrors "notification-service/internal/common/errors"
	"notification-service/internal/models"
)

const notificationColumns = `id, recipient, channel, subject, message, status, created_at`

// PostgresStore persists notification records in the notifications table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Store backed by PostgreSQL.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Save upserts the record. Only status ever changes after the initial
// insert; the remaining fields are immutable.
func (s *PostgresStore) Save(ctx context.Context, n *models.Notification) error {
	const query = `
		INSERT INTO notifications (id, recipient, channel, subject, message, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status`

	_, err := s.db.ExecContext(ctx, query,
		n.ID, n.Recipient, string(n.Channel), n.Subject, n.Message, string(n.Status), n.CreatedAt,
	)
	if err != nil {
		return apperrors.NewPersistenceError(err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	const query = `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`

	n, err := scanNotification(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("Notification")
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return n, nil
}

func (s *PostgresStore) FindByStatus(ctx context.Context, status models.Status, limit int) ([]*models.Notification, error) {
	const query = `SELECT ` + notificationColumns + `
		FROM notifications WHERE status = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, string(status), limit)
	if err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return collectNotifications(rows)
}

func (s *PostgresStore) FindByRecipient(ctx context.Context, recipient string, limit int) ([]*models.Notification, error) {
	const query = `SELECT ` + notificationColumns + `
		FROM notifications WHERE recipient = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, recipient, limit)
	if err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return collectNotifications(rows)
}

func (s *PostgresStore) FindAll(ctx context.Context, limit int) ([]*models.Notification, error) {
	const query = `SELECT ` + notificationColumns + `
		FROM notifications ORDER BY created_at DESC LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return collectNotifications(rows)
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (StatusCounts, error) {
	const query = `SELECT status, COUNT(*) FROM notifications GROUP BY status`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return StatusCounts{}, apperrors.NewPersistenceError(err)
	}
	defer rows.Close()

	var counts StatusCounts
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return StatusCounts{}, apperrors.NewPersistenceError(err)
		}
		switch models.Status(status) {
		case models.StatusQueued:
			counts.Queued = count
		case models.StatusSent:
			counts.Sent = count
		case models.StatusFailed:
			counts.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return StatusCounts{}, apperrors.NewPersistenceError(err)
	}
	return counts, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNotification(row rowScanner) (*models.Notification, error) {
	var n models.Notification
	var channel, status string
	var subject sql.NullString

	if err := row.Scan(&n.ID, &n.Recipient, &channel, &subject, &n.Message, &status, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.Channel = models.Channel(channel)
	n.Status = models.Status(status)
	n.Subject = subject.String
	return &n, nil
}

func collectNotifications(rows *sql.Rows) ([]*models.Notification, error) {
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, apperrors.NewPersistenceError(err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return out, nil
}
