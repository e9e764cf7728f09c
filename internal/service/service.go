// Package service implements the submission entry point and the query
// operations exposed to event translators and the HTTP surface.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "notification-service/internal/common/errors"
	"notification-service/internal/common/logger"
	"notification-service/internal/common/metrics"
	"notification-service/internal/models"
	"notification-service/internal/store"
)

const (
	defaultListLimit      = 100
	defaultRecipientLimit = 50
	maxListLimit          = 1000
)

// SubmitInput is a request to queue one notification.
type SubmitInput struct {
	Recipient string         `json:"recipient"`
	Channel   models.Channel `json:"channel"`
	Subject   string         `json:"subject,omitempty"`
	Message   string         `json:"message"`
}

// Service creates notification records in queued state and serves queries.
// It never blocks on channel delivery: the dispatcher picks queued records
// up on its own schedule.
type Service struct {
	store store.Store
	log   logger.Logger
}

func New(st store.Store, log logger.Logger) *Service {
	return &Service{
		store: st,
		log:   log.WithFields(map[string]interface{}{"component": "submission"}),
	}
}

// Submit validates the input, persists a fresh record with status queued,
// and returns it. On persistence failure no record is considered created.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*models.Notification, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	n := &models.Notification{
		ID:        uuid.NewString(),
		Recipient: input.Recipient,
		Channel:   input.Channel,
		Subject:   input.Subject,
		Message:   input.Message,
		Status:    models.StatusQueued,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.Save(ctx, n); err != nil {
		return nil, err
	}

	metrics.NotificationsQueued.WithLabelValues(string(n.Channel)).Inc()
	s.log.Info("notification queued", map[string]interface{}{
		"notificationId": n.ID,
		"channel":        n.Channel,
		"recipient":      n.Recipient,
	})
	return n, nil
}

// Get returns the record by id, or NOT_FOUND.
func (s *Service) Get(ctx context.Context, id string) (*models.Notification, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("id must not be empty")
	}
	return s.store.FindByID(ctx, id)
}

// ListByRecipient returns the recipient's notifications, most recent first.
func (s *Service) ListByRecipient(ctx context.Context, recipient string, limit int) ([]*models.Notification, error) {
	if recipient == "" {
		return nil, apperrors.NewValidationError("recipient must not be empty")
	}
	return s.store.FindByRecipient(ctx, recipient, clampLimit(limit, defaultRecipientLimit))
}

// List returns the most recent notifications across all recipients.
func (s *Service) List(ctx context.Context, limit int) ([]*models.Notification, error) {
	return s.store.FindAll(ctx, clampLimit(limit, defaultListLimit))
}

func validate(input SubmitInput) error {
	if !input.Channel.Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("unsupported channel: %q", input.Channel))
	}
	if input.Recipient == "" {
		return apperrors.NewValidationError("recipient must not be empty")
	}
	if input.Message == "" {
		return apperrors.NewValidationError("message must not be empty")
	}
	return nil
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
