package mailer

import "errors"

var (
	// ErrNoSender indicates the message has no From address.
	ErrNoSender = errors.New("mailer: message has no sender address")

	// ErrNoRecipient indicates the message has no To recipients.
	ErrNoRecipient = errors.New("mailer: message has no recipients")

	// ErrNoSubject indicates the message has no subject.
	ErrNoSubject = errors.New("mailer: message has no subject")

	// ErrNoContent indicates the message has neither HTML nor text body.
	ErrNoContent = errors.New("mailer: message has no html or text content")

	// ErrSendFailed indicates the provider rejected or failed the send.
	ErrSendFailed = errors.New("mailer: failed to send message")
)

// Validate checks the four invariants every outbound message must satisfy:
// a sender, at least one recipient, a subject, and at least one body part.
// It returns the sentinel for the first violated invariant so callers can
// report exactly what is missing.
func (m *Message) Validate() error {
	if m.From == "" {
		return ErrNoSender
	}
	if len(m.To) == 0 {
		return ErrNoRecipient
	}
	if m.Subject == "" {
		return ErrNoSubject
	}
	if m.HTML == "" && m.Text == "" {
		return ErrNoContent
	}
	return nil
}
