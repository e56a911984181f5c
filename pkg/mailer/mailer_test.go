package mailer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailroom/pkg/mailer"
)

func TestFormatAddress_WithName(t *testing.T) {
	t.Parallel()

	result := mailer.FormatAddress("Ana Lima", "ana@example.com")

	require.Equal(t, `"Ana Lima" <ana@example.com>`, result)
}

func TestFormatAddress_WithoutName(t *testing.T) {
	t.Parallel()

	result := mailer.FormatAddress("", "ana@example.com")

	require.Equal(t, "ana@example.com", result)
}

func TestFormatAddress_StripsHeaderInjection(t *testing.T) {
	t.Parallel()

	result := mailer.FormatAddress("Ana\r\nBcc: attacker@evil.com", "ana@example.com")

	require.NotContains(t, result, "\r")
	require.NotContains(t, result, "\n")
	require.Equal(t, `"AnaBcc: attacker@evil.com" <ana@example.com>`, result)
}

func TestFormatAddress_EscapesQuotes(t *testing.T) {
	t.Parallel()

	result := mailer.FormatAddress(`Ana "The Boss" Lima`, "ana@example.com")

	require.Equal(t, `"Ana \"The Boss\" Lima" <ana@example.com>`, result)
}

func TestSanitizeDisplayName_ControlCharacters(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Ana", mailer.SanitizeDisplayName("A\x00n\x1ba\x7f"))
	require.Equal(t, "", mailer.SanitizeDisplayName("\r\n\t"))
}

func TestMessage_Validate(t *testing.T) {
	t.Parallel()

	valid := func() *mailer.Message {
		return &mailer.Message{
			From:    "noreply@example.com",
			To:      []string{"ana@example.com"},
			Subject: "Hello",
			HTML:    "<p>Hi</p>",
		}
	}

	require.NoError(t, valid().Validate())

	noFrom := valid()
	noFrom.From = ""
	require.ErrorIs(t, noFrom.Validate(), mailer.ErrNoSender)

	noTo := valid()
	noTo.To = nil
	require.ErrorIs(t, noTo.Validate(), mailer.ErrNoRecipient)

	noSubject := valid()
	noSubject.Subject = ""
	require.ErrorIs(t, noSubject.Validate(), mailer.ErrNoSubject)

	noBody := valid()
	noBody.HTML = ""
	require.ErrorIs(t, noBody.Validate(), mailer.ErrNoContent)

	textOnly := valid()
	textOnly.HTML = ""
	textOnly.Text = "Hi"
	require.NoError(t, textOnly.Validate())
}

func TestMessage_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	original := &mailer.Message{
		From:    "noreply@example.com",
		To:      []string{"ana@example.com"},
		Subject: "Hello",
		Text:    "Hi",
		Headers: map[string]string{"X-Campaign": "welcome"},
	}

	clone := original.Clone()
	clone.To[0] = "other@example.com"
	clone.Headers["X-Campaign"] = "changed"
	clone.Subject = "Changed"

	require.Equal(t, "ana@example.com", original.To[0])
	require.Equal(t, "welcome", original.Headers["X-Campaign"])
	require.Equal(t, "Hello", original.Subject)
}
