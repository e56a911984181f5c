package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// TaskDeliverEmail is the job kind for "attempt to send this one email".
const TaskDeliverEmail = "email:deliver"

// DeliveryArgs are the arguments of a delivery job.
type DeliveryArgs struct {
	EmailID uuid.UUID `json:"email_id"`
}

// Kind implements river.JobArgs.
func (DeliveryArgs) Kind() string { return TaskDeliverEmail }

// activeJobStates are the job states that count as "an effective delivery
// job exists". Finished jobs (completed, cancelled, discarded) do not block
// scheduling a fresh delivery.
var activeJobStates = []rivertype.JobState{
	rivertype.JobStateAvailable,
	rivertype.JobStatePending,
	rivertype.JobStateScheduled,
	rivertype.JobStateRunning,
	rivertype.JobStateRetryable,
}

// jobClient is the subset of the River client the scheduler needs.
// Satisfied by *river.Client[pgx.Tx].
type jobClient interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
	JobList(ctx context.Context, params *river.JobListParams) (*river.JobListResult, error)
}

// ScheduleResult reports the delivery jobs attached to an email after an
// EnsureDeliveryJob call. Created is false when an already-existing job was
// reused.
type ScheduleResult struct {
	JobIDs  []int64
	Created bool
}

// Scheduler ensures at most one active delivery job exists per email.
type Scheduler struct {
	client jobClient
	log    *slog.Logger
	queue  string
}

// SchedulerOption configures the scheduler.
type SchedulerOption func(*Scheduler)

// WithQueueName sets the River queue for delivery jobs.
func WithQueueName(name string) SchedulerOption {
	return func(s *Scheduler) {
		if name != "" {
			s.queue = name
		}
	}
}

// WithSchedulerLogger sets the logger. Defaults to a discard logger.
func WithSchedulerLogger(log *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}

// NewScheduler creates a scheduler over a River client.
func NewScheduler(client jobClient, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		client: client,
		queue:  "email",
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureDeliveryJob guarantees a delivery job exists for the email. Safe to
// call concurrently from multiple triggers: the insert is attempted first
// (optimistic creation), and a failed insert is reconciled against existing
// jobs, so concurrent callers converge on the same job reference without
// ever dropping delivery. A scheduledAt in the past means due now.
func (s *Scheduler) EnsureDeliveryJob(ctx context.Context, emailID uuid.UUID, scheduledAt *time.Time) (ScheduleResult, error) {
	insertOpts := &river.InsertOpts{
		Queue: s.queue,
		// Retry policy belongs to the delivery engine's attempt counter,
		// not the job runner.
		MaxAttempts: 1,
		UniqueOpts: river.UniqueOpts{
			ByArgs:  true,
			ByState: activeJobStates,
		},
	}
	if scheduledAt != nil && scheduledAt.After(time.Now()) {
		insertOpts.ScheduledAt = *scheduledAt
	}

	result, err := s.client.Insert(ctx, DeliveryArgs{EmailID: emailID}, insertOpts)
	if err == nil {
		if result.UniqueSkippedAsDuplicate {
			return ScheduleResult{JobIDs: []int64{result.Job.ID}, Created: false}, nil
		}
		return ScheduleResult{JobIDs: []int64{result.Job.ID}, Created: true}, nil
	}

	// Reconcile: a concurrent trigger may have won the race, in which case
	// the insert failure is benign and the existing job is the answer.
	existing, listErr := s.FindDeliveryJobs(ctx, emailID)
	if listErr == nil && len(existing) > 0 {
		s.log.DebugContext(ctx, "delivery job insert raced an existing job, reusing it",
			slog.String("email_id", emailID.String()),
			slog.Int("jobs", len(existing)),
		)
		ids := make([]int64, len(existing))
		for i, job := range existing {
			ids[i] = job.ID
		}
		return ScheduleResult{JobIDs: ids, Created: false}, nil
	}

	if isUniqueViolation(err) {
		// The store claims a duplicate exists but the reconciliation query
		// found nothing: queue data is inconsistent, not merely slow.
		return ScheduleResult{}, errors.Join(ErrJobConsistency, err)
	}

	return ScheduleResult{}, errors.Join(ErrSchedulingFailed, err)
}

// jobListPageSize bounds a single JobList page during reconciliation.
const jobListPageSize = 100

// FindDeliveryJobs returns the active delivery jobs for an email. The active
// set is paged through to exhaustion: a busy queue must not be able to hide
// a job from reconciliation, or a benign insert race would be misreported as
// a consistency fault.
func (s *Scheduler) FindDeliveryJobs(ctx context.Context, emailID uuid.UUID) ([]*rivertype.JobRow, error) {
	params := river.NewJobListParams().
		Kinds(TaskDeliverEmail).
		States(activeJobStates...).
		First(jobListPageSize)

	var jobs []*rivertype.JobRow
	for {
		result, err := s.client.JobList(ctx, params)
		if err != nil {
			return nil, err
		}

		for _, job := range result.Jobs {
			var args DeliveryArgs
			if err := json.Unmarshal(job.EncodedArgs, &args); err != nil {
				continue
			}
			if args.EmailID == emailID {
				jobs = append(jobs, job)
			}
		}

		if len(result.Jobs) < jobListPageSize || result.LastCursor == nil {
			return jobs, nil
		}
		params = params.After(result.LastCursor)
	}
}

// isUniqueViolation reports whether err carries a Postgres unique-violation
// signature.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	// Fall back to the message for drivers that do not surface PgError.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
