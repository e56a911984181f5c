package delivery

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the boundary to the host's email record storage. The store is
// expected to provide atomic single-record writes but no cross-record
// transactions; the engine's status transitions are designed around that.
type Store interface {
	// CreateEmail persists a new email record. The store assigns CreatedAt
	// and UpdatedAt; ID must be set by the caller.
	CreateEmail(ctx context.Context, email *Email) error

	// GetEmail returns the record with the given id, or an error wrapping
	// ErrEmailNotFound.
	GetEmail(ctx context.Context, id uuid.UUID) (*Email, error)

	// UpdateEmail persists the engine-owned fields of the record: status,
	// attempts, error, sentAt, lastAttemptAt and the rendered body.
	UpdateEmail(ctx context.Context, email *Email) error

	// ListDue returns pending emails whose scheduled time is absent or
	// elapsed, ordered by priority ascending (lower is more urgent) then
	// createdAt ascending, capped at limit.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*Email, error)

	// ListRetryable returns failed emails with attempts below maxAttempts
	// whose last attempt is absent or at least retryDelay old, capped at
	// limit.
	ListRetryable(ctx context.Context, now time.Time, maxAttempts int, retryDelay time.Duration, limit int) ([]*Email, error)
}
