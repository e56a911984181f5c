package mailer

import (
	"fmt"
	"strings"
)

// SanitizeDisplayName strips CR, LF and other control characters from a
// display name and escapes embedded double quotes. This blocks header
// injection through names stored in the CMS.
func SanitizeDisplayName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			continue
		}
		if r == '"' {
			b.WriteString(`\"`)
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// FormatAddress combines a display name and an email address into RFC 5322
// display-address form. Returns the bare address when the name is empty after
// sanitization.
func FormatAddress(name, email string) string {
	sanitized := SanitizeDisplayName(name)
	if sanitized == "" {
		return email
	}
	return fmt.Sprintf("\"%s\" <%s>", sanitized, email)
}
