package delivery

import (
	"context"

	"github.com/dmitrymomot/mailroom/pkg/mailer"
)

// PreSendHook is a host-supplied function invoked with the composed message
// and the source email record immediately before transport. It may return a
// modified message (or nil to keep the original). After the hook runs the
// engine re-checks the message invariants; a hook that strips a required
// field produces a delivery error, not a crash, so one bad hook cannot
// corrupt unrelated emails.
type PreSendHook func(ctx context.Context, msg *mailer.Message, email *Email) (*mailer.Message, error)

// MessageWrapper is a host-supplied post-render hook that may rewrite the
// message before the pre-send hook runs, typically to wrap the HTML body in
// a branded layout.
type MessageWrapper func(ctx context.Context, msg *mailer.Message) (*mailer.Message, error)
