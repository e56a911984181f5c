package mailroom

import "errors"

var (
	// ErrStoreRequired is returned when constructing a service without an
	// email store.
	ErrStoreRequired = errors.New("mailroom: store is required")

	// ErrSenderRequired is returned when constructing a service without a
	// transport.
	ErrSenderRequired = errors.New("mailroom: sender is required")

	// ErrRendererRequired is returned from Render when no template store or
	// renderer was configured.
	ErrRendererRequired = errors.New("mailroom: renderer is required")

	// ErrSchedulePollTimeout indicates a scheduled delivery job did not
	// become visible within the polling budget. Distinct from a scheduling
	// failure: the job may still exist and run later.
	ErrSchedulePollTimeout = errors.New("mailroom: timed out waiting for delivery job visibility")
)
