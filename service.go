package mailroom

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/riverqueue/river/rivertype"

	"github.com/dmitrymomot/mailroom/pkg/delivery"
	"github.com/dmitrymomot/mailroom/pkg/mailer"
	"github.com/dmitrymomot/mailroom/pkg/queue"
	"github.com/dmitrymomot/mailroom/pkg/render"
)

// Scheduler is the job scheduling capability the service needs. Satisfied
// by *queue.Scheduler and *queue.Manager. Optional: without one, emails are
// picked up by dispatch passes instead of per-email jobs.
type Scheduler interface {
	EnsureDeliveryJob(ctx context.Context, emailID uuid.UUID, scheduledAt *time.Time) (queue.ScheduleResult, error)
	FindDeliveryJobs(ctx context.Context, emailID uuid.UUID) ([]*rivertype.JobRow, error)
}

// Service is the host-facing facade over the delivery pipeline: it owns the
// engine, the renderer and the scheduler, and exposes the operations a CMS
// embeds.
type Service struct {
	store     delivery.Store
	engine    *delivery.Engine
	renderer  *render.Renderer
	scheduler Scheduler
	log       *slog.Logger
}

// serviceConfig collects options before the engine is built.
type serviceConfig struct {
	templates render.TemplateStore
	renderer  *render.Renderer
	scheduler Scheduler
	preSend   delivery.PreSendHook
	wrapper   delivery.MessageWrapper
	log       *slog.Logger
	cfg       Config
}

// Option configures the service.
type Option func(*serviceConfig)

// WithConfig applies subsystem configuration.
func WithConfig(cfg Config) Option {
	return func(c *serviceConfig) {
		c.cfg = cfg
	}
}

// WithTemplates sets the template store; a renderer is built on top of it
// using the configured substitution engine.
func WithTemplates(store render.TemplateStore) Option {
	return func(c *serviceConfig) {
		c.templates = store
	}
}

// WithRenderer sets a fully configured renderer, overriding WithTemplates.
func WithRenderer(r *render.Renderer) Option {
	return func(c *serviceConfig) {
		c.renderer = r
	}
}

// WithScheduler sets the delivery job scheduler.
func WithScheduler(s Scheduler) Option {
	return func(c *serviceConfig) {
		c.scheduler = s
	}
}

// WithPreSendHook sets the host's pre-send hook.
func WithPreSendHook(h delivery.PreSendHook) Option {
	return func(c *serviceConfig) {
		c.preSend = h
	}
}

// WithMessageWrapper sets the host's post-render message wrapper.
func WithMessageWrapper(w delivery.MessageWrapper) Option {
	return func(c *serviceConfig) {
		c.wrapper = w
	}
}

// WithLogger sets the logger. Defaults to a discard logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *serviceConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// New builds the service over the given store and transport.
func New(store delivery.Store, sender mailer.Sender, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if sender == nil {
		return nil, ErrSenderRequired
	}

	cfg := serviceConfig{
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	renderer := cfg.renderer
	if renderer == nil && cfg.templates != nil {
		renderer = render.NewRenderer(cfg.templates,
			render.WithConfig(cfg.cfg.Render),
			render.WithLogger(cfg.log),
		)
	}

	engineOpts := []delivery.Option{
		delivery.WithConfig(cfg.cfg.Delivery),
		delivery.WithLogger(cfg.log),
	}
	if renderer != nil {
		engineOpts = append(engineOpts, delivery.WithRenderer(renderer))
	}
	if cfg.preSend != nil {
		engineOpts = append(engineOpts, delivery.WithPreSendHook(cfg.preSend))
	}
	if cfg.wrapper != nil {
		engineOpts = append(engineOpts, delivery.WithMessageWrapper(cfg.wrapper))
	}

	return &Service{
		store:     store,
		engine:    delivery.NewEngine(store, sender, engineOpts...),
		renderer:  renderer,
		scheduler: cfg.scheduler,
		log:       cfg.log,
	}, nil
}

// Engine exposes the delivery engine, e.g. to wire it into queue.NewManager.
func (s *Service) Engine() *delivery.Engine {
	return s.engine
}

// Enqueue persists a new pending email and schedules its delivery job. A
// missing ID is assigned. When scheduling fails the record still exists and
// a later dispatch pass picks it up, so the returned error reports a
// degraded enqueue, not a lost email.
func (s *Service) Enqueue(ctx context.Context, email *delivery.Email) error {
	if email.ID == uuid.Nil {
		email.ID = uuid.New()
	}
	if email.Status == "" {
		email.Status = delivery.StatusPending
	}

	if err := s.store.CreateEmail(ctx, email); err != nil {
		return fmt.Errorf("mailroom: enqueue email: %w", err)
	}

	if s.scheduler == nil {
		return nil
	}
	if _, err := s.scheduler.EnsureDeliveryJob(ctx, email.ID, email.ScheduledAt); err != nil {
		s.log.WarnContext(ctx, "email enqueued but job scheduling failed, dispatch pass will pick it up",
			slog.String("email_id", email.ID.String()),
			slog.Any("error", err),
		)
		return fmt.Errorf("mailroom: schedule delivery for %s: %w", email.ID, err)
	}
	return nil
}

// ScheduleDelivery guarantees a delivery job exists for an already persisted
// email, honoring its scheduled time. Safe to call repeatedly and from
// concurrent triggers.
func (s *Service) ScheduleDelivery(ctx context.Context, id uuid.UUID) (queue.ScheduleResult, error) {
	if s.scheduler == nil {
		return queue.ScheduleResult{}, queue.ErrSchedulingFailed
	}

	email, err := s.store.GetEmail(ctx, id)
	if err != nil {
		return queue.ScheduleResult{}, err
	}
	return s.scheduler.EnsureDeliveryJob(ctx, email.ID, email.ScheduledAt)
}

// Deliver runs the delivery state machine for a single email.
func (s *Service) Deliver(ctx context.Context, id uuid.UUID) error {
	return s.engine.Deliver(ctx, id)
}

// DispatchDue delivers all pending emails whose scheduled time has elapsed.
func (s *Service) DispatchDue(ctx context.Context) error {
	return s.engine.DispatchDue(ctx)
}

// DispatchRetries re-attempts failed emails with retry budget remaining.
func (s *Service) DispatchRetries(ctx context.Context) error {
	return s.engine.DispatchRetries(ctx)
}

// ProcessQueue runs a full pass: due emails first, then retries.
func (s *Service) ProcessQueue(ctx context.Context) error {
	return s.engine.ProcessQueue(ctx)
}

// Render renders a stored template with the given variables without sending
// anything, e.g. for CMS previews.
func (s *Service) Render(ctx context.Context, slug string, vars map[string]any) (*render.Result, error) {
	if s.renderer == nil {
		return nil, ErrRendererRequired
	}
	return s.renderer.Render(ctx, slug, vars)
}

// errJobNotVisible drives the visibility polling loop.
var errJobNotVisible = errors.New("mailroom: delivery job not visible yet")

// ProcessImmediately enqueues the email and delivers it in the calling
// goroutine instead of waiting for a worker. The job is still scheduled
// first so the at-most-one-active-job invariant holds against concurrent
// triggers; once it is visible the delivery runs synchronously. A worker
// that grabs the email first is treated as success.
func (s *Service) ProcessImmediately(ctx context.Context, email *delivery.Email) error {
	if err := s.Enqueue(ctx, email); err != nil {
		return err
	}

	if s.scheduler != nil {
		if err := s.awaitJobVisibility(ctx, email.ID); err != nil {
			return err
		}
	}

	err := s.engine.Deliver(ctx, email.ID)
	if errors.Is(err, delivery.ErrAlreadyProcessing) {
		// A queue worker beat us to it; the email is being delivered,
		// which is exactly what the caller asked for.
		s.log.DebugContext(ctx, "immediate delivery already running in a worker",
			slog.String("email_id", email.ID.String()),
		)
		return nil
	}
	return err
}

// awaitJobVisibility polls until the delivery job shows up in the queue.
func (s *Service) awaitJobVisibility(ctx context.Context, id uuid.UUID) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 25 * time.Millisecond
	b.Multiplier = 2
	b.MaxInterval = 400 * time.Millisecond
	b.MaxElapsedTime = 3 * time.Second

	err := backoff.Retry(func() error {
		jobs, err := s.scheduler.FindDeliveryJobs(ctx, id)
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			return errJobNotVisible
		}
		return nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return errors.Join(ErrSchedulePollTimeout, err)
	}
	return nil
}
