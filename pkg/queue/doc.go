// Package queue schedules delivery jobs on a River (Postgres) job queue.
//
// The scheduler guarantees at most one active delivery job per email. It is
// optimistic: it always attempts to create the job first, because the insert
// is the serialization point the store provides, and a check-then-create
// order would reopen the duplicate-job race. When the insert fails it
// reconciles by querying existing jobs for the same email; finding one means
// the failure was a benign race and the existing job reference is returned.
// A uniqueness-violation signature with no reconciled row is reported as a
// data-consistency fault, distinct from a plain infrastructure failure.
//
// The manager registers the River worker that executes delivery jobs and,
// optionally, a cron-scheduled periodic pass over the pending/retry queues
// to catch emails whose jobs never fired.
package queue
