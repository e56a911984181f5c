package queue

import "errors"

var (
	// ErrSchedulingFailed indicates the delivery job could not be created
	// and no existing job was found to fall back on.
	ErrSchedulingFailed = errors.New("queue: failed to schedule delivery job")

	// ErrJobConsistency indicates the store reported a duplicate job on
	// insert but no matching job row could be found. The queue data needs
	// operator attention; retrying cannot fix it.
	ErrJobConsistency = errors.New("queue: duplicate reported but no delivery job found")

	// ErrPoolRequired is returned when constructing a manager without a
	// database pool.
	ErrPoolRequired = errors.New("queue: pool is required")

	// ErrAlreadyStarted is returned when starting a running manager.
	ErrAlreadyStarted = errors.New("queue: already started")

	// ErrNotStarted is returned when stopping a manager that is not
	// running.
	ErrNotStarted = errors.New("queue: not started")
)
