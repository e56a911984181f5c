package delivery_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailroom/pkg/delivery"
	"github.com/dmitrymomot/mailroom/pkg/mailer"
	"github.com/dmitrymomot/mailroom/pkg/render"
)

func TestDeliver_Success(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	sender := &memSender{}
	engine := delivery.NewEngine(store, sender)
	email := newEmail(store, nil)

	err := engine.Deliver(context.Background(), email.ID)

	require.NoError(t, err)
	require.Equal(t,
		[]delivery.Status{delivery.StatusPending, delivery.StatusProcessing, delivery.StatusSent},
		store.history(email.ID))

	stored := store.get(email.ID)
	require.Equal(t, delivery.StatusSent, stored.Status)
	require.NotNil(t, stored.SentAt)
	require.NotNil(t, stored.LastAttemptAt)
	require.Empty(t, stored.Error)
	require.Equal(t, 1, sender.sentCount())
}

func TestDeliver_EmailNotFound(t *testing.T) {
	t.Parallel()

	engine := delivery.NewEngine(newMemStore(), &memSender{})

	err := engine.Deliver(context.Background(), uuid.New())

	require.ErrorIs(t, err, delivery.ErrEmailNotFound)
}

func TestDeliver_SentIsNoOp(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	sender := &memSender{}
	engine := delivery.NewEngine(store, sender)
	email := newEmail(store, func(e *delivery.Email) { e.Status = delivery.StatusSent })

	err := engine.Deliver(context.Background(), email.ID)

	require.NoError(t, err)
	require.Zero(t, sender.sentCount())
}

func TestDeliver_ProcessingIsSkipped(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	sender := &memSender{}
	engine := delivery.NewEngine(store, sender)
	email := newEmail(store, func(e *delivery.Email) { e.Status = delivery.StatusProcessing })

	err := engine.Deliver(context.Background(), email.ID)

	require.ErrorIs(t, err, delivery.ErrAlreadyProcessing)
	require.Zero(t, sender.sentCount())
	// Soft lock is never auto-reset.
	require.Equal(t, delivery.StatusProcessing, store.get(email.ID).Status)
}

func TestDeliver_ExhaustedFailedIsRejected(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	sender := &memSender{}
	engine := delivery.NewEngine(store, sender, delivery.WithConfig(delivery.Config{RetryAttempts: 3}))
	email := newEmail(store, func(e *delivery.Email) {
		e.Status = delivery.StatusFailed
		e.Attempts = 3
	})

	err := engine.Deliver(context.Background(), email.ID)

	require.ErrorIs(t, err, delivery.ErrRetriesExhausted)
	require.Zero(t, sender.sentCount())
	require.Equal(t, delivery.StatusFailed, store.get(email.ID).Status)
}

func TestDeliver_TransientFailureReturnsToPending(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	sender := &memSender{err: errors.New("connection reset")}
	engine := delivery.NewEngine(store, sender, delivery.WithConfig(delivery.Config{RetryAttempts: 3}))
	email := newEmail(store, nil)

	err := engine.Deliver(context.Background(), email.ID)

	require.ErrorIs(t, err, mailer.ErrSendFailed)

	stored := store.get(email.ID)
	require.Equal(t, delivery.StatusPending, stored.Status)
	require.Equal(t, 1, stored.Attempts)
	require.Contains(t, stored.Error, "connection reset")
	require.Nil(t, stored.SentAt)
}

func TestDeliver_RetryCycleExhaustsToFailed(t *testing.T) {
	t.Parallel()

	const retryAttempts = 3

	store := newMemStore()
	sender := &memSender{err: errors.New("smtp down")}
	engine := delivery.NewEngine(store, sender,
		delivery.WithConfig(delivery.Config{RetryAttempts: retryAttempts}))
	email := newEmail(store, nil)

	// Exactly retryAttempts cycles return to pending.
	for i := 1; i <= retryAttempts; i++ {
		err := engine.Deliver(context.Background(), email.ID)
		require.Error(t, err)

		stored := store.get(email.ID)
		require.Equal(t, delivery.StatusPending, stored.Status, "cycle %d", i)
		require.Equal(t, i, stored.Attempts, "cycle %d", i)
	}

	// One final cycle lands in failed without a further increment.
	err := engine.Deliver(context.Background(), email.ID)
	require.Error(t, err)

	stored := store.get(email.ID)
	require.Equal(t, delivery.StatusFailed, stored.Status)
	require.Equal(t, retryAttempts, stored.Attempts)

	// Terminal: a further delivery attempt is rejected outright.
	err = engine.Deliver(context.Background(), email.ID)
	require.ErrorIs(t, err, delivery.ErrRetriesExhausted)
	require.Equal(t, delivery.StatusFailed, store.get(email.ID).Status)

	require.Equal(t,
		[]delivery.Status{
			delivery.StatusPending,
			delivery.StatusProcessing, delivery.StatusPending,
			delivery.StatusProcessing, delivery.StatusPending,
			delivery.StatusProcessing, delivery.StatusPending,
			delivery.StatusProcessing, delivery.StatusFailed,
		},
		store.history(email.ID))
}

func TestDeliver_FailedWithBudgetLeftIsRetried(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	sender := &memSender{}
	engine := delivery.NewEngine(store, sender, delivery.WithConfig(delivery.Config{RetryAttempts: 3}))
	email := newEmail(store, func(e *delivery.Email) {
		e.Status = delivery.StatusFailed
		e.Attempts = 1 // externally reset below the cap
	})

	err := engine.Deliver(context.Background(), email.ID)

	require.NoError(t, err)
	require.Equal(t, delivery.StatusSent, store.get(email.ID).Status)
}

func TestDeliver_DefaultSenderApplied(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	sender := &memSender{}
	engine := delivery.NewEngine(store, sender, delivery.WithConfig(delivery.Config{
		DefaultFromEmail: "noreply@host.example",
		DefaultFromName:  "Host CMS",
	}))
	email := newEmail(store, func(e *delivery.Email) { e.From = "" })

	err := engine.Deliver(context.Background(), email.ID)

	require.NoError(t, err)
	require.Equal(t, `"Host CMS" <noreply@host.example>`, sender.lastSent().From)
}

func TestDeliver_FromNameSanitized(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	sender := &memSender{}
	engine := delivery.NewEngine(store, sender)
	email := newEmail(store, func(e *delivery.Email) {
		e.FromName = "Evil\r\nBcc: attacker@evil.com"
	})

	err := engine.Deliver(context.Background(), email.ID)

	require.NoError(t, err)
	require.NotContains(t, sender.lastSent().From, "\r")
	require.NotContains(t, sender.lastSent().From, "\n")
}

func TestDeliver_RendersReferencedTemplate(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	sender := &memSender{}
	renderer := &fakeRenderer{results: map[string]*render.Result{
		"welcome": {Subject: "Hi Ana", HTML: "<p>Hi Ana</p>", Text: "Hi Ana"},
	}}
	engine := delivery.NewEngine(store, sender, delivery.WithRenderer(renderer))
	email := newEmail(store, func(e *delivery.Email) {
		e.Subject = ""
		e.Text = ""
		e.TemplateSlug = "welcome"
		e.Variables = map[string]any{"firstName": "Ana"}
	})

	err := engine.Deliver(context.Background(), email.ID)

	require.NoError(t, err)
	msg := sender.lastSent()
	require.Equal(t, "Hi Ana", msg.Subject)
	require.Equal(t, "<p>Hi Ana</p>", msg.HTML)
	require.Equal(t, "Hi Ana", msg.Text)
	require.Equal(t,
		[]delivery.Status{delivery.StatusPending, delivery.StatusProcessing, delivery.StatusSent},
		store.history(email.ID))
}

func TestDeliver_StoredBodySkipsRendering(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	sender := &memSender{}
	renderer := &fakeRenderer{results: map[string]*render.Result{}}
	engine := delivery.NewEngine(store, sender, delivery.WithRenderer(renderer))
	email := newEmail(store, func(e *delivery.Email) {
		e.TemplateSlug = "welcome" // would be a miss, but the body is stored
		e.HTML = "<p>already rendered</p>"
	})

	err := engine.Deliver(context.Background(), email.ID)

	require.NoError(t, err)
	require.Equal(t, "<p>already rendered</p>", sender.lastSent().HTML)
}

func TestDeliver_MissingTemplateIsFatal(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	sender := &memSender{}
	renderer := &fakeRenderer{results: map[string]*render.Result{}}
	engine := delivery.NewEngine(store, sender, delivery.WithRenderer(renderer))
	email := newEmail(store, func(e *delivery.Email) {
		e.Subject = ""
		e.Text = ""
		e.TemplateSlug = "missing"
	})

	err := engine.Deliver(context.Background(), email.ID)

	require.ErrorIs(t, err, render.ErrTemplateNotFound)

	stored := store.get(email.ID)
	require.Equal(t, delivery.StatusFailed, stored.Status)
	// A configuration fault does not consume the retry budget.
	require.Zero(t, stored.Attempts)
	require.Zero(t, sender.sentCount())
}

func TestDeliver_HookCanRewriteMessage(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	sender := &memSender{}
	hook := func(_ context.Context, msg *mailer.Message, _ *delivery.Email) (*mailer.Message, error) {
		msg.Subject = "[staging] " + msg.Subject
		return msg, nil
	}
	engine := delivery.NewEngine(store, sender, delivery.WithPreSendHook(hook))
	email := newEmail(store, nil)

	err := engine.Deliver(context.Background(), email.ID)

	require.NoError(t, err)
	require.Equal(t, "[staging] Test subject", sender.lastSent().Subject)
}

func TestDeliver_HookInvariantViolations(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		rewrite func(*mailer.Message)
		wantErr error
	}{
		{"dropped from", func(m *mailer.Message) { m.From = "" }, mailer.ErrNoSender},
		{"emptied to", func(m *mailer.Message) { m.To = nil }, mailer.ErrNoRecipient},
		{"dropped subject", func(m *mailer.Message) { m.Subject = "" }, mailer.ErrNoSubject},
		{"dropped both bodies", func(m *mailer.Message) { m.HTML = ""; m.Text = "" }, mailer.ErrNoContent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := newMemStore()
			sender := &memSender{}
			hook := func(_ context.Context, msg *mailer.Message, _ *delivery.Email) (*mailer.Message, error) {
				tc.rewrite(msg)
				return msg, nil
			}
			engine := delivery.NewEngine(store, sender, delivery.WithPreSendHook(hook))
			email := newEmail(store, nil)

			err := engine.Deliver(context.Background(), email.ID)

			require.ErrorIs(t, err, delivery.ErrHookRejected)
			require.ErrorIs(t, err, tc.wantErr)
			require.Zero(t, sender.sentCount())

			stored := store.get(email.ID)
			require.NotEqual(t, delivery.StatusSent, stored.Status)
			// Hook violations count toward the retry budget like any
			// transient failure.
			require.Equal(t, delivery.StatusPending, stored.Status)
			require.Equal(t, 1, stored.Attempts)
		})
	}
}

func TestDeliver_HookErrorIsTransient(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	sender := &memSender{}
	hook := func(_ context.Context, _ *mailer.Message, _ *delivery.Email) (*mailer.Message, error) {
		return nil, errors.New("hook exploded")
	}
	engine := delivery.NewEngine(store, sender, delivery.WithPreSendHook(hook))
	email := newEmail(store, nil)

	err := engine.Deliver(context.Background(), email.ID)

	require.ErrorIs(t, err, delivery.ErrHookRejected)
	require.Equal(t, delivery.StatusPending, store.get(email.ID).Status)
	require.Equal(t, 1, store.get(email.ID).Attempts)
}

func TestDeliver_WrapperRunsBeforePreSendHook(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	sender := &memSender{}
	wrapper := func(_ context.Context, msg *mailer.Message) (*mailer.Message, error) {
		msg.HTML = "<html><body>" + msg.HTML + "</body></html>"
		return msg, nil
	}
	var hookSawHTML string
	hook := func(_ context.Context, msg *mailer.Message, _ *delivery.Email) (*mailer.Message, error) {
		hookSawHTML = msg.HTML
		return msg, nil
	}
	engine := delivery.NewEngine(store, sender,
		delivery.WithMessageWrapper(wrapper),
		delivery.WithPreSendHook(hook))
	email := newEmail(store, func(e *delivery.Email) {
		e.Text = ""
		e.HTML = "<p>Hi</p>"
	})

	err := engine.Deliver(context.Background(), email.ID)

	require.NoError(t, err)
	require.Equal(t, "<html><body><p>Hi</p></body></html>", hookSawHTML)
	require.Equal(t, "<html><body><p>Hi</p></body></html>", sender.lastSent().HTML)
}

func TestDeliver_NeverStuckInProcessingOnError(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	sender := &memSender{err: errors.New("boom")}
	engine := delivery.NewEngine(store, sender)
	email := newEmail(store, nil)

	_ = engine.Deliver(context.Background(), email.ID)

	require.NotEqual(t, delivery.StatusProcessing, store.get(email.ID).Status)
}

func TestEmail_Due(t *testing.T) {
	t.Parallel()

	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	require.True(t, (&delivery.Email{}).Due(now))
	require.True(t, (&delivery.Email{ScheduledAt: &past}).Due(now))
	require.False(t, (&delivery.Email{ScheduledAt: &future}).Due(now))
}
