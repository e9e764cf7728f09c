// internal/models/notification.go
package models

import "time"

// Channel is the delivery medium for a notification. The set is closed:
// senders are registered per channel at process start.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
)

// Valid reports whether c is one of the supported channels.
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelPush:
		return true
	}
	return false
}

// Status is the delivery state of a notification. "sent" and "failed" are
// terminal; a record is never re-queued automatically.
type Status string

const (
	StatusQueued Status = "queued"
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// Notification is the persistent unit of work: one message to one recipient
// over one channel. Only Status mutates after creation.
type Notification struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Channel   Channel   `json:"channel"`
	Subject   string    `json:"subject,omitempty"`
	Message   string    `json:"message"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
