// Package delivery implements the email delivery state machine and the queue
// dispatcher.
//
// An Email moves through pending → processing → sent, or back to pending on a
// transient failure until its retry budget is exhausted, at which point it
// lands in failed. The processing status doubles as a soft lock: a dispatcher
// that finds an email already processing skips it and surfaces the anomaly
// instead of resetting it.
//
// The Engine owns all status transitions. It marks an email processing before
// any network action so a crash mid-send leaves an auditable record, composes
// the outbound message (rendering the referenced template when the record
// carries no body), runs the host's hooks, re-checks the message invariants
// after the pre-send hook, and records the outcome. The Dispatcher selects
// due pending emails and retry-eligible failed emails in bounded batches and
// hands them to the Engine, isolating per-item failures so one bad email
// cannot abort a batch.
package delivery
