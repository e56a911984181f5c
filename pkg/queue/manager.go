package queue

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/robfig/cron/v3"
)

const defaultWorkers = 5

// Deliverer executes a single delivery. Satisfied by *delivery.Engine.
type Deliverer interface {
	Deliver(ctx context.Context, id uuid.UUID) error
}

// QueueProcessor runs a full dispatch pass. Satisfied by *delivery.Engine.
type QueueProcessor interface {
	ProcessQueue(ctx context.Context) error
}

// Manager owns the River client that executes delivery jobs and the optional
// periodic dispatch pass. It embeds the Scheduler so hosts that run workers
// in-process get enqueueing from the same client.
type Manager struct {
	*Scheduler
	client *river.Client[pgx.Tx]
	log    *slog.Logger

	mu      sync.Mutex
	started bool
}

// managerConfig collects manager options before the client is built.
type managerConfig struct {
	processor QueueProcessor
	log       *slog.Logger
	queue     string
	schedule  string
	workers   int
}

// ManagerOption configures the manager.
type ManagerOption func(*managerConfig)

// WithManagerConfig applies queue name, worker count and dispatch schedule
// from config.
func WithManagerConfig(cfg Config) ManagerOption {
	return func(c *managerConfig) {
		if cfg.QueueName != "" {
			c.queue = cfg.QueueName
		}
		if cfg.Workers > 0 {
			c.workers = cfg.Workers
		}
		c.schedule = cfg.DispatchSchedule
	}
}

// WithPeriodicDispatch registers a cron-scheduled full queue pass. The
// processor is typically the delivery engine; the schedule is a 5-field cron
// expression.
func WithPeriodicDispatch(schedule string, processor QueueProcessor) ManagerOption {
	return func(c *managerConfig) {
		c.schedule = schedule
		c.processor = processor
	}
}

// WithManagerLogger sets the logger. Defaults to a discard logger.
func WithManagerLogger(log *slog.Logger) ManagerOption {
	return func(c *managerConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// NewManager creates a manager that processes delivery jobs with the given
// engine. The River client is created immediately so jobs can be enqueued
// before Start is called.
func NewManager(pool *pgxpool.Pool, engine Deliverer, opts ...ManagerOption) (*Manager, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}

	cfg := &managerConfig{
		queue:   "email",
		workers: defaultWorkers,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.log == nil {
		cfg.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &deliveryWorker{engine: engine, log: cfg.log})

	var periodicJobs []*river.PeriodicJob
	if cfg.schedule != "" && cfg.processor != nil {
		schedule, err := parseCronSchedule(cfg.schedule)
		if err != nil {
			return nil, fmt.Errorf("queue: invalid dispatch schedule %q: %w", cfg.schedule, err)
		}
		river.AddWorker(workers, &dispatchWorker{processor: cfg.processor, log: cfg.log})
		periodicJobs = append(periodicJobs, river.NewPeriodicJob(
			schedule,
			func() (river.JobArgs, *river.InsertOpts) {
				return dispatchArgs{}, &river.InsertOpts{Queue: cfg.queue}
			},
			&river.PeriodicJobOpts{RunOnStart: false},
		))
	}

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			cfg.queue: {MaxWorkers: cfg.workers},
		},
		Workers:      workers,
		PeriodicJobs: periodicJobs,
		Logger:       cfg.log,
	})
	if err != nil {
		return nil, fmt.Errorf("queue: create client: %w", err)
	}

	return &Manager{
		Scheduler: NewScheduler(client,
			WithQueueName(cfg.queue),
			WithSchedulerLogger(cfg.log),
		),
		client: client,
		log:    cfg.log,
	}, nil
}

// Start begins processing delivery jobs.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return ErrAlreadyStarted
	}
	if err := m.client.Start(ctx); err != nil {
		return fmt.Errorf("queue: start client: %w", err)
	}
	m.started = true
	m.log.Info("delivery queue started")
	return nil
}

// Stop gracefully shuts down job processing, waiting for in-flight
// deliveries to complete.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return ErrNotStarted
	}
	if err := m.client.Stop(ctx); err != nil {
		return fmt.Errorf("queue: stop client: %w", err)
	}
	m.started = false
	m.log.Info("delivery queue stopped")
	return nil
}

// deliveryWorker executes delivery jobs through the engine.
type deliveryWorker struct {
	river.WorkerDefaults[DeliveryArgs]
	engine Deliverer
	log    *slog.Logger
}

func (w *deliveryWorker) Work(ctx context.Context, job *river.Job[DeliveryArgs]) error {
	w.log.DebugContext(ctx, "executing delivery job",
		slog.String("email_id", job.Args.EmailID.String()),
		slog.Int64("job_id", job.ID),
	)

	if err := w.engine.Deliver(ctx, job.Args.EmailID); err != nil {
		// Retry accounting lives on the email record, so the job itself
		// completes either way; the dispatcher picks up whatever the
		// engine returned to pending.
		w.log.WarnContext(ctx, "delivery job finished with error",
			slog.String("email_id", job.Args.EmailID.String()),
			slog.Int64("job_id", job.ID),
			slog.Any("error", err),
		)
	}
	return nil
}

// dispatchArgs is the job kind for the periodic queue pass.
type dispatchArgs struct{}

func (dispatchArgs) Kind() string { return "email:dispatch" }

// dispatchWorker runs the periodic full queue pass.
type dispatchWorker struct {
	river.WorkerDefaults[dispatchArgs]
	processor QueueProcessor
	log       *slog.Logger
}

func (w *dispatchWorker) Work(ctx context.Context, _ *river.Job[dispatchArgs]) error {
	if err := w.processor.ProcessQueue(ctx); err != nil {
		w.log.ErrorContext(ctx, "periodic dispatch pass failed", slog.Any("error", err))
		return err
	}
	return nil
}

// cronScheduleAdapter bridges robfig/cron schedules to River's periodic
// schedule interface.
type cronScheduleAdapter struct {
	schedule cron.Schedule
}

func (a *cronScheduleAdapter) Next(current time.Time) time.Time {
	return a.schedule.Next(current)
}

func parseCronSchedule(expr string) (river.PeriodicSchedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, err
	}
	return &cronScheduleAdapter{schedule: schedule}, nil
}
