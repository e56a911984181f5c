package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DeliverBatch delivers the given emails, isolating per-item failures: a
// failed delivery is logged and accounted by the engine but never aborts the
// rest of the batch. Sequential by default; with DispatchConcurrency > 1
// distinct emails are processed in parallel, each email still exactly once.
func (e *Engine) DeliverBatch(ctx context.Context, ids []uuid.UUID) error {
	if e.cfg.DispatchConcurrency <= 1 {
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := e.Deliver(ctx, id); err != nil {
				e.logBatchFailure(ctx, id, err)
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.DispatchConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			if err := e.Deliver(gctx, id); err != nil {
				e.logBatchFailure(gctx, id, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (e *Engine) logBatchFailure(ctx context.Context, id uuid.UUID, err error) {
	e.log.ErrorContext(ctx, "batch delivery item failed",
		slog.String("email_id", id.String()),
		slog.Any("error", err),
	)
}

// DispatchDue selects due pending emails (schedule absent or elapsed),
// ordered by priority ascending then age, and delivers them in one bounded
// batch.
func (e *Engine) DispatchDue(ctx context.Context) error {
	emails, err := e.store.ListDue(ctx, time.Now(), e.cfg.DispatchBatchSize)
	if err != nil {
		return fmt.Errorf("delivery: list due emails: %w", err)
	}
	if len(emails) == 0 {
		return nil
	}

	e.log.InfoContext(ctx, "dispatching due emails", slog.Int("count", len(emails)))
	return e.DeliverBatch(ctx, emailIDs(emails))
}

// DispatchRetries selects failed emails that still have retry budget and
// whose last attempt is old enough, and delivers them in one bounded batch.
func (e *Engine) DispatchRetries(ctx context.Context) error {
	emails, err := e.store.ListRetryable(ctx, time.Now(), e.cfg.RetryAttempts, e.cfg.RetryDelay, e.cfg.RetryBatchSize)
	if err != nil {
		return fmt.Errorf("delivery: list retryable emails: %w", err)
	}
	if len(emails) == 0 {
		return nil
	}

	e.log.InfoContext(ctx, "dispatching retries", slog.Int("count", len(emails)))
	return e.DeliverBatch(ctx, emailIDs(emails))
}

// ProcessQueue runs a full dispatch pass: due emails first, then retries, so
// fresh work is never starved by backlog.
func (e *Engine) ProcessQueue(ctx context.Context) error {
	if err := e.DispatchDue(ctx); err != nil {
		return err
	}
	return e.DispatchRetries(ctx)
}

func emailIDs(emails []*Email) []uuid.UUID {
	ids := make([]uuid.UUID, len(emails))
	for i, email := range emails {
		ids[i] = email.ID
	}
	return ids
}
