// Package channel holds the delivery senders and the registry that maps a
// channel tag to the single sender instance serving it for the process
// lifetime.
package channel

import (
	"context"

	apperrors "notification-service/internal/common/errors"
	"notification-service/internal/models"
)

// Sender attempts delivery of one notification over a specific channel.
// It returns false (without error) when the provider rejected the message,
// and a DELIVERY_ERROR when the attempt itself failed (transport error,
// timeout). The dispatcher treats both as a terminal failed transition.
type Sender interface {
	Attempt(ctx context.Context, n *models.Notification) (bool, error)
}

// Registry maps channel tags to senders. It is built once at process start
// and passed into the dispatcher; there is no global instance so tests can
// substitute stub senders freely.
type Registry struct {
	senders map[models.Channel]Sender
}

func NewRegistry() *Registry {
	return &Registry{senders: make(map[models.Channel]Sender)}
}

// Register binds a sender to a channel tag, replacing any previous binding.
func (r *Registry) Register(ch models.Channel, s Sender) {
	r.senders[ch] = s
}

// Sender resolves the sender for a channel tag. An unregistered tag is a
// configuration error, not a runtime condition to retry.
func (r *Registry) Sender(ch models.Channel) (Sender, error) {
	s, ok := r.senders[ch]
	if !ok {
		return nil, apperrors.NewUnsupportedChannelError(string(ch))
	}
	return s, nil
}

// Channels returns the registered channel tags.
func (r *Registry) Channels() []models.Channel {
	out := make([]models.Channel, 0, len(r.senders))
	for ch := range r.senders {
		out = append(out, ch)
	}
	return out
}
