package mailer

// Message is a fully-composed email ready for sending.
type Message struct {
	Headers     map[string]string // Custom headers
	From        string            // Sender in RFC 5322 display-address form
	ReplyTo     string            // Reply-to address
	Subject     string            // Email subject
	HTML        string            // HTML body
	Text        string            // Plain text alternative
	To          []string          // Recipients (at least one required)
	CC          []string          // Carbon copy recipients
	BCC         []string          // Blind carbon copy recipients
	Attachments []Attachment      // File attachments
}

// Attachment is a file attached to a message.
type Attachment struct {
	Filename    string // Display name for the attachment
	ContentType string // MIME type (e.g., "application/pdf")
	Content     []byte // Raw file content
}

// Clone returns a deep copy of the message. Hooks receive a clone so a hook
// that mutates its argument and then fails cannot leave a half-rewritten
// message behind.
func (m *Message) Clone() *Message {
	clone := *m
	clone.To = append([]string(nil), m.To...)
	clone.CC = append([]string(nil), m.CC...)
	clone.BCC = append([]string(nil), m.BCC...)
	if m.Headers != nil {
		clone.Headers = make(map[string]string, len(m.Headers))
		for k, v := range m.Headers {
			clone.Headers[k] = v
		}
	}
	if m.Attachments != nil {
		clone.Attachments = append([]Attachment(nil), m.Attachments...)
	}
	return &clone
}
