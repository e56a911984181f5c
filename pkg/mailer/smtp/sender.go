// Package smtp adapts a plain SMTP relay to the mailer.Sender interface.
// Useful for self-hosted installs that run their own relay instead of an
// API provider.
package smtp

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"

	"github.com/dmitrymomot/mailroom/pkg/mailer"
)

// Sender implements mailer.Sender over SMTP using gomail.
type Sender struct {
	dialer *gomail.Dialer
	config Config
}

// New creates a new SMTP sender.
func New(cfg Config) *Sender {
	return &Sender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		config: cfg,
	}
}

// Send implements mailer.Sender. gomail has no context support, so
// cancellation is checked before dialing; an in-flight send runs to
// completion.
func (s *Sender) Send(ctx context.Context, msg *mailer.Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("smtp: send canceled: %w", err)
	}

	from := msg.From
	if from == "" {
		from = mailer.FormatAddress(s.config.SenderName, s.config.SenderEmail)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To...)
	if len(msg.CC) > 0 {
		m.SetHeader("Cc", msg.CC...)
	}
	if len(msg.BCC) > 0 {
		m.SetHeader("Bcc", msg.BCC...)
	}
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	m.SetHeader("Subject", msg.Subject)
	for name, value := range msg.Headers {
		m.SetHeader(name, value)
	}

	switch {
	case msg.HTML != "" && msg.Text != "":
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	case msg.HTML != "":
		m.SetBody("text/html", msg.HTML)
	default:
		m.SetBody("text/plain", msg.Text)
	}

	for _, a := range msg.Attachments {
		m.Attach(a.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(a.Content)
			return err
		}))
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp: failed to send message: %w", err)
	}

	return nil
}
