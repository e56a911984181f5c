package delivery

import "errors"

var (
	// ErrEmailNotFound indicates no email record exists for the given id.
	ErrEmailNotFound = errors.New("delivery: email not found")

	// ErrAlreadyProcessing indicates the email is mid-delivery elsewhere.
	// The processing status is a soft lock; a stuck processing record is an
	// operational anomaly to investigate, never something to auto-reset.
	ErrAlreadyProcessing = errors.New("delivery: email is already processing")

	// ErrRetriesExhausted indicates the email failed terminally and will
	// not be retried until attempts are externally reset.
	ErrRetriesExhausted = errors.New("delivery: retry attempts exhausted")

	// ErrHookRejected wraps a pre-send hook failure or a message invariant
	// the hook's rewrite violated. It counts toward the retry budget like a
	// transport failure.
	ErrHookRejected = errors.New("delivery: pre-send hook rejected message")
)
