// internal/store/postgres_test.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	apperrors "notification-service/internal/common/errors"
	"notification-service/internal/models"
)

func notificationRows(ns ...*models.Notification) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "recipient", "channel", "subject", "message", "status", "created_at"})
	for _, n := range ns {
		rows.AddRow(n.ID, n.Recipient, string(n.Channel), n.Subject, n.Message, string(n.Status), n.CreatedAt)
	}
	return rows
}

func TestPostgresStore_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	n := testNotification("n-1", models.StatusQueued, time.Now().UTC())

	mock.ExpectExec(`INSERT INTO notifications`).
		WithArgs(n.ID, n.Recipient, string(n.Channel), n.Subject, n.Message, string(n.Status), n.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewPostgresStore(db)
	assert.NoError(t, s.Save(context.Background(), n))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Save_PersistenceError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	n := testNotification("n-1", models.StatusQueued, time.Now().UTC())

	mock.ExpectExec(`INSERT INTO notifications`).
		WillReturnError(errors.New("connection refused"))

	s := NewPostgresStore(db)
	err = s.Save(context.Background(), n)
	assert.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodePersistence))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	n := testNotification("n-1", models.StatusSent, time.Now().UTC())

	mock.ExpectQuery(`SELECT id, recipient, channel, subject, message, status, created_at FROM notifications WHERE id = \$1`).
		WithArgs("n-1").
		WillReturnRows(notificationRows(n))

	s := NewPostgresStore(db)
	got, err := s.FindByID(context.Background(), "n-1")
	assert.NoError(t, err)
	assert.Equal(t, "n-1", got.ID)
	assert.Equal(t, models.StatusSent, got.Status)
	assert.Equal(t, models.ChannelEmail, got.Channel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, recipient, channel, subject, message, status, created_at FROM notifications WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	s := NewPostgresStore(db)
	_, err = s.FindByID(context.Background(), "missing")
	assert.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindByID_NullSubject(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "recipient", "channel", "subject", "message", "status", "created_at"}).
		AddRow("n-1", "rider-001", "sms", nil, "hi", "queued", time.Now().UTC())

	mock.ExpectQuery(`SELECT .+ FROM notifications WHERE id = \$1`).
		WithArgs("n-1").
		WillReturnRows(rows)

	s := NewPostgresStore(db)
	got, err := s.FindByID(context.Background(), "n-1")
	assert.NoError(t, err)
	assert.Empty(t, got.Subject)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	base := time.Now().UTC()
	n1 := testNotification("n-2", models.StatusQueued, base.Add(time.Second))
	n2 := testNotification("n-1", models.StatusQueued, base)

	mock.ExpectQuery(`SELECT .+ FROM notifications WHERE status = \$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs("queued", 10).
		WillReturnRows(notificationRows(n1, n2))

	s := NewPostgresStore(db)
	batch, err := s.FindByStatus(context.Background(), models.StatusQueued, 10)
	assert.NoError(t, err)
	assert.Len(t, batch, 2)
	assert.Equal(t, "n-2", batch[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindByRecipient(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	n := testNotification("n-1", models.StatusSent, time.Now().UTC())

	mock.ExpectQuery(`SELECT .+ FROM notifications WHERE recipient = \$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs("rider-001", 50).
		WillReturnRows(notificationRows(n))

	s := NewPostgresStore(db)
	list, err := s.FindByRecipient(context.Background(), "rider-001", 50)
	assert.NoError(t, err)
	assert.Len(t, list, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CountByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow("queued", 3).
		AddRow("sent", 7).
		AddRow("failed", 2)

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM notifications GROUP BY status`).
		WillReturnRows(rows)

	s := NewPostgresStore(db)
	counts, err := s.CountByStatus(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 3, counts.Queued)
	assert.Equal(t, 7, counts.Sent)
	assert.Equal(t, 2, counts.Failed)
	assert.Equal(t, 12, counts.Total())
	assert.NoError(t, mock.ExpectationsWereMet())
}
