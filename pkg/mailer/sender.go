package mailer

import "context"

// Sender is the minimal interface mail providers implement.
type Sender interface {
	// Send delivers a message. The Message must have From, To and Subject
	// set, and at least one of HTML or Text. Returns an error if delivery
	// fails.
	Send(ctx context.Context, msg *Message) error
}
