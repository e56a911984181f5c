package delivery_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailroom/pkg/delivery"
	"github.com/dmitrymomot/mailroom/pkg/mailer"
	"github.com/dmitrymomot/mailroom/pkg/render"
)

// memStore is an in-memory delivery.Store that records every status
// transition for assertions.
type memStore struct {
	mu          sync.Mutex
	emails      map[uuid.UUID]*delivery.Email
	transitions map[uuid.UUID][]delivery.Status
	updateErr   error
}

func newMemStore() *memStore {
	return &memStore{
		emails:      make(map[uuid.UUID]*delivery.Email),
		transitions: make(map[uuid.UUID][]delivery.Status),
	}
}

func (s *memStore) CreateEmail(_ context.Context, email *delivery.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	email.CreatedAt = now
	email.UpdatedAt = now
	clone := *email
	s.emails[email.ID] = &clone
	s.transitions[email.ID] = []delivery.Status{email.Status}
	return nil
}

func (s *memStore) GetEmail(_ context.Context, id uuid.UUID) (*delivery.Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.emails[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", delivery.ErrEmailNotFound, id)
	}
	clone := *email
	return &clone, nil
}

func (s *memStore) UpdateEmail(_ context.Context, email *delivery.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	stored, ok := s.emails[email.ID]
	if !ok {
		return fmt.Errorf("%w: %s", delivery.ErrEmailNotFound, email.ID)
	}
	if stored.Status != email.Status {
		s.transitions[email.ID] = append(s.transitions[email.ID], email.Status)
	}
	email.UpdatedAt = time.Now()
	clone := *email
	s.emails[email.ID] = &clone
	return nil
}

func (s *memStore) ListDue(_ context.Context, now time.Time, limit int) ([]*delivery.Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []*delivery.Email
	for _, email := range s.emails {
		if email.Status == delivery.StatusPending && email.Due(now) {
			clone := *email
			due = append(due, &clone)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		if due[i].Priority != due[j].Priority {
			return due[i].Priority < due[j].Priority
		}
		return due[i].CreatedAt.Before(due[j].CreatedAt)
	})
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *memStore) ListRetryable(_ context.Context, now time.Time, maxAttempts int, retryDelay time.Duration, limit int) ([]*delivery.Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var eligible []*delivery.Email
	for _, email := range s.emails {
		if email.Status != delivery.StatusFailed || email.Attempts >= maxAttempts {
			continue
		}
		if email.LastAttemptAt != nil && now.Sub(*email.LastAttemptAt) < retryDelay {
			continue
		}
		clone := *email
		eligible = append(eligible, &clone)
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].Priority != eligible[j].Priority {
			return eligible[i].Priority < eligible[j].Priority
		}
		return eligible[i].CreatedAt.Before(eligible[j].CreatedAt)
	})
	if len(eligible) > limit {
		eligible = eligible[:limit]
	}
	return eligible, nil
}

// get returns the stored record, bypassing the Store interface.
func (s *memStore) get(id uuid.UUID) *delivery.Email {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *s.emails[id]
	return &clone
}

func (s *memStore) history(id uuid.UUID) []delivery.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]delivery.Status(nil), s.transitions[id]...)
}

// memSender is a mailer.Sender that records sent messages and can be
// programmed to fail.
type memSender struct {
	mu   sync.Mutex
	sent []*mailer.Message
	err  error
}

func (s *memSender) Send(_ context.Context, msg *mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg.Clone())
	return nil
}

func (s *memSender) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func (s *memSender) lastSent() *mailer.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return nil
	}
	return s.sent[len(s.sent)-1]
}

// fakeRenderer satisfies delivery.Renderer without a template store.
type fakeRenderer struct {
	results map[string]*render.Result
	err     error
}

func (r *fakeRenderer) Render(_ context.Context, slug string, vars map[string]any) (*render.Result, error) {
	if r.err != nil {
		return nil, r.err
	}
	result, ok := r.results[slug]
	if !ok {
		return nil, fmt.Errorf("%w: %s", render.ErrTemplateNotFound, slug)
	}
	return result, nil
}

// newEmail creates a minimal pending email and stores it.
func newEmail(s *memStore, mutate func(*delivery.Email)) *delivery.Email {
	email := &delivery.Email{
		ID:      uuid.New(),
		To:      []string{"a@b.com"},
		From:    "noreply@example.com",
		Subject: "Test subject",
		Text:    "Test body",
		Status:  delivery.StatusPending,
	}
	if mutate != nil {
		mutate(email)
	}
	_ = s.CreateEmail(context.Background(), email)
	return email
}
