package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailroom/pkg/mailer"
	"github.com/dmitrymomot/mailroom/pkg/render"
)

// Renderer is the template rendering capability the engine needs. Satisfied
// by *render.Renderer.
type Renderer interface {
	Render(ctx context.Context, slug string, vars map[string]any) (*render.Result, error)
}

// Engine drives emails through the delivery state machine.
type Engine struct {
	store    Store
	sender   mailer.Sender
	renderer Renderer
	preSend  PreSendHook
	wrapper  MessageWrapper
	log      *slog.Logger
	cfg      Config
}

// Option configures the engine.
type Option func(*Engine)

// WithRenderer sets the template renderer used for emails that reference a
// template slug and carry no body of their own.
func WithRenderer(r Renderer) Option {
	return func(e *Engine) {
		if r != nil {
			e.renderer = r
		}
	}
}

// WithPreSendHook sets the host's pre-send hook.
func WithPreSendHook(h PreSendHook) Option {
	return func(e *Engine) {
		e.preSend = h
	}
}

// WithMessageWrapper sets the host's post-render message wrapper.
func WithMessageWrapper(w MessageWrapper) Option {
	return func(e *Engine) {
		e.wrapper = w
	}
}

// WithConfig sets engine configuration.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg.withDefaults()
	}
}

// WithLogger sets the logger. Defaults to a discard logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// NewEngine creates a delivery engine over the given store and transport.
func NewEngine(store Store, sender mailer.Sender, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		sender: sender,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		cfg:    Config{}.withDefaults(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Deliver runs the state machine for a single email: pending → processing →
// sent, or back to pending on a transient failure, or failed once the retry
// budget is exhausted. The record never stays in processing on the error
// path.
func (e *Engine) Deliver(ctx context.Context, id uuid.UUID) error {
	email, err := e.store.GetEmail(ctx, id)
	if err != nil {
		return err
	}

	switch email.Status {
	case StatusSent:
		// Duplicate trigger after a successful send; nothing to do.
		return nil
	case StatusProcessing:
		e.log.WarnContext(ctx, "email already processing, skipping; a stuck processing record needs operator attention",
			slog.String("email_id", id.String()),
		)
		return fmt.Errorf("%w: %s", ErrAlreadyProcessing, id)
	case StatusFailed:
		if email.Attempts >= e.cfg.RetryAttempts {
			return fmt.Errorf("%w: %s", ErrRetriesExhausted, id)
		}
	}

	// Persist the attempt before any network action so a crash mid-send
	// leaves an auditable record rather than silent loss.
	now := time.Now()
	email.Status = StatusProcessing
	email.LastAttemptAt = &now
	if err := e.store.UpdateEmail(ctx, email); err != nil {
		return fmt.Errorf("delivery: mark processing: %w", err)
	}

	msg, composeErr := e.compose(ctx, email)
	if composeErr != nil {
		if errors.Is(composeErr, render.ErrTemplateNotFound) || errors.Is(composeErr, render.ErrInvalidTemplate) {
			return e.recordFatal(ctx, email, composeErr)
		}
		return e.recordFailure(ctx, email, composeErr)
	}

	if err := e.sender.Send(ctx, msg); err != nil {
		return e.recordFailure(ctx, email, errors.Join(mailer.ErrSendFailed, err))
	}

	sentAt := time.Now()
	email.Status = StatusSent
	email.SentAt = &sentAt
	email.Error = ""
	if err := e.store.UpdateEmail(ctx, email); err != nil {
		return fmt.Errorf("delivery: mark sent: %w", err)
	}

	e.log.InfoContext(ctx, "email sent",
		slog.String("email_id", id.String()),
		slog.Int("attempts", email.Attempts),
	)
	return nil
}

// compose builds the outbound message from the stored record: renders the
// referenced template when no body is stored, applies the default sender,
// runs the wrapper and pre-send hooks, and re-checks the message invariants.
func (e *Engine) compose(ctx context.Context, email *Email) (*mailer.Message, error) {
	subject, htmlBody, textBody := email.Subject, email.HTML, email.Text

	if email.TemplateSlug != "" && htmlBody == "" && textBody == "" {
		if e.renderer == nil {
			return nil, fmt.Errorf("%w: email references template %q but no renderer is configured",
				render.ErrTemplateNotFound, email.TemplateSlug)
		}
		result, err := e.renderer.Render(ctx, email.TemplateSlug, email.Variables)
		if err != nil {
			return nil, err
		}
		htmlBody, textBody = result.HTML, result.Text
		if subject == "" {
			subject = result.Subject
		}
	}

	fromEmail := email.From
	fromName := email.FromName
	if fromEmail == "" {
		fromEmail = e.cfg.DefaultFromEmail
		if fromName == "" {
			fromName = e.cfg.DefaultFromName
		}
	}
	var from string
	if fromEmail != "" {
		from = mailer.FormatAddress(fromName, fromEmail)
	}

	msg := &mailer.Message{
		From:    from,
		ReplyTo: email.ReplyTo,
		Subject: subject,
		HTML:    htmlBody,
		Text:    textBody,
		To:      append([]string(nil), email.To...),
		CC:      append([]string(nil), email.CC...),
		BCC:     append([]string(nil), email.BCC...),
	}

	if e.wrapper != nil {
		wrapped, err := e.wrapper(ctx, msg.Clone())
		if err != nil {
			return nil, fmt.Errorf("delivery: message wrapper: %w", err)
		}
		if wrapped != nil {
			msg = wrapped
		}
	}

	if e.preSend != nil {
		rewritten, err := e.preSend(ctx, msg.Clone(), email)
		if err != nil {
			return nil, errors.Join(ErrHookRejected, err)
		}
		if rewritten != nil {
			msg = rewritten
		}
	}

	// Re-check invariants after the hooks ran. A hook rewrite that dropped
	// a required field is rejected with the specific violated invariant,
	// never silently repaired.
	if err := msg.Validate(); err != nil {
		if e.preSend != nil || e.wrapper != nil {
			return nil, errors.Join(ErrHookRejected, err)
		}
		return nil, err
	}

	return msg, nil
}

// recordFailure applies retry accounting for a transient failure. The stored
// counter is read-increment-write: duplicate increments under concurrent
// triggers are acceptable, lost increments are not. An email whose counter
// already reached the cap becomes failed without a further increment, so an
// email survives exactly RetryAttempts pending cycles before landing in
// failed with attempts == RetryAttempts.
func (e *Engine) recordFailure(ctx context.Context, email *Email, cause error) error {
	email.Error = cause.Error()

	if email.Attempts >= e.cfg.RetryAttempts {
		email.Status = StatusFailed
		e.log.ErrorContext(ctx, "email failed terminally",
			slog.String("email_id", email.ID.String()),
			slog.Int("attempts", email.Attempts),
			slog.Any("error", cause),
		)
	} else {
		email.Attempts++
		email.Status = StatusPending
		e.log.WarnContext(ctx, "email delivery failed, will retry",
			slog.String("email_id", email.ID.String()),
			slog.Int("attempts", email.Attempts),
			slog.Any("error", cause),
		)
	}

	if err := e.store.UpdateEmail(ctx, email); err != nil {
		return errors.Join(cause, fmt.Errorf("delivery: record failure: %w", err))
	}
	return cause
}

// recordFatal marks the email failed without consuming a retry attempt.
// Configuration and data faults (missing template, broken content) are not
// transient; the record stays recoverable by the retry pass once the fault
// is fixed.
func (e *Engine) recordFatal(ctx context.Context, email *Email, cause error) error {
	email.Error = cause.Error()
	email.Status = StatusFailed

	e.log.ErrorContext(ctx, "email delivery hit a configuration fault",
		slog.String("email_id", email.ID.String()),
		slog.Any("error", cause),
	)

	if err := e.store.UpdateEmail(ctx, email); err != nil {
		return errors.Join(cause, fmt.Errorf("delivery: record fatal failure: %w", err))
	}
	return cause
}
