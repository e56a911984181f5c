package delivery

import (
	"time"

	"github.com/google/uuid"
)

// Status is the delivery lifecycle state of an email.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

// Email is the unit of delivery: a persisted send request owned by the host
// CMS. The engine mutates status, attempts, error, sentAt and lastAttemptAt;
// everything else is written by the host when the record is created.
type Email struct {
	Variables     map[string]any
	From          string
	FromName      string
	ReplyTo       string
	Subject       string
	HTML          string
	Text          string
	TemplateSlug  string
	Error         string
	Status        Status
	To            []string
	CC            []string
	BCC           []string
	ScheduledAt   *time.Time
	SentAt        *time.Time
	LastAttemptAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Attempts      int
	Priority      int
	ID            uuid.UUID
}

// Due reports whether the email is eligible for immediate dispatch: no
// schedule, or a scheduled time that has elapsed. A scheduledAt in the past
// means due now.
func (e *Email) Due(now time.Time) bool {
	return e.ScheduledAt == nil || !e.ScheduledAt.After(now)
}
