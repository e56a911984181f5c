package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/mailroom/pkg/delivery"
	"github.com/dmitrymomot/mailroom/pkg/render"
)

// Store is the PostgreSQL-backed email and template storage. It satisfies
// both delivery.Store and render.TemplateStore, so a single instance wires
// the whole pipeline.
type Store struct {
	pool *pgxpool.Pool
}

// New returns a store on top of the given connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const emailColumns = `id, from_email, from_name, reply_to, to_emails, cc_emails, bcc_emails,
	subject, html, text_body, template_slug, variables, status, attempts, priority, error,
	scheduled_at, sent_at, last_attempt_at, created_at, updated_at`

// CreateEmail persists a new email record. The caller assigns the ID;
// CreatedAt and UpdatedAt come back from the database clock.
func (s *Store) CreateEmail(ctx context.Context, email *delivery.Email) error {
	status := email.Status
	if status == "" {
		status = delivery.StatusPending
	}
	variables := email.Variables
	if variables == nil {
		variables = map[string]any{}
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO emails (id, from_email, from_name, reply_to, to_emails, cc_emails, bcc_emails,
			subject, html, text_body, template_slug, variables, status, attempts, priority, error, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING status, created_at, updated_at`,
		email.ID, email.From, email.FromName, email.ReplyTo,
		textArray(email.To), textArray(email.CC), textArray(email.BCC),
		email.Subject, email.HTML, email.Text, email.TemplateSlug, variables,
		status, email.Attempts, email.Priority, email.Error, email.ScheduledAt,
	).Scan(&email.Status, &email.CreatedAt, &email.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgstore: create email %s: %w", email.ID, err)
	}
	return nil
}

// GetEmail returns the record with the given id.
func (s *Store) GetEmail(ctx context.Context, id uuid.UUID) (*delivery.Email, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+emailColumns+` FROM emails WHERE id = $1`, id)
	email, err := scanEmail(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", delivery.ErrEmailNotFound, id)
		}
		return nil, fmt.Errorf("pgstore: get email %s: %w", id, err)
	}
	return email, nil
}

// UpdateEmail persists the engine-owned fields: status, attempts, error,
// sentAt, lastAttemptAt and the rendered subject and body. The transition
// INTO processing is conditional: a row that is already processing is never
// claimed again, so two dispatchers racing between read and write cannot
// both deliver the same email.
func (s *Store) UpdateEmail(ctx context.Context, email *delivery.Email) error {
	err := s.pool.QueryRow(ctx, `
		UPDATE emails
		SET status = $2, attempts = $3, error = $4, sent_at = $5, last_attempt_at = $6,
			subject = $7, html = $8, text_body = $9, updated_at = now()
		WHERE id = $1 AND NOT (status = 'processing' AND $2 = 'processing')
		RETURNING updated_at`,
		email.ID, email.Status, email.Attempts, email.Error, email.SentAt, email.LastAttemptAt,
		email.Subject, email.HTML, email.Text,
	).Scan(&email.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.classifyUpdateConflict(ctx, email.ID)
		}
		return fmt.Errorf("pgstore: update email %s: %w", email.ID, err)
	}
	return nil
}

// classifyUpdateConflict distinguishes the two reasons an update matched no
// row: the record does not exist, or another dispatcher holds the
// processing claim.
func (s *Store) classifyUpdateConflict(ctx context.Context, id uuid.UUID) error {
	var status delivery.Status
	err := s.pool.QueryRow(ctx, `SELECT status FROM emails WHERE id = $1`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", delivery.ErrEmailNotFound, id)
		}
		return fmt.Errorf("pgstore: update email %s: %w", id, err)
	}
	return fmt.Errorf("%w: %s", delivery.ErrAlreadyProcessing, id)
}

// ListDue returns pending emails eligible for dispatch, most urgent and
// oldest first.
func (s *Store) ListDue(ctx context.Context, now time.Time, limit int) ([]*delivery.Email, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+emailColumns+` FROM emails
		WHERE status = $1 AND (scheduled_at IS NULL OR scheduled_at <= $2)
		ORDER BY priority ASC, created_at ASC
		LIMIT $3`,
		delivery.StatusPending, now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list due emails: %w", err)
	}
	return collectEmails(rows)
}

// ListRetryable returns failed emails with retry budget remaining whose
// last attempt is absent or older than retryDelay.
func (s *Store) ListRetryable(ctx context.Context, now time.Time, maxAttempts int, retryDelay time.Duration, limit int) ([]*delivery.Email, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+emailColumns+` FROM emails
		WHERE status = $1 AND attempts < $2
			AND (last_attempt_at IS NULL OR last_attempt_at <= $3)
		ORDER BY priority ASC, created_at ASC
		LIMIT $4`,
		delivery.StatusFailed, maxAttempts, now.Add(-retryDelay), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list retryable emails: %w", err)
	}
	return collectEmails(rows)
}

// GetTemplate returns the template with the given slug.
func (s *Store) GetTemplate(ctx context.Context, slug string) (*render.Template, error) {
	var (
		tmpl    render.Template
		content string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, slug, subject, content, variables, preview_data, created_at, updated_at
		FROM email_templates WHERE slug = $1`, slug,
	).Scan(&tmpl.ID, &tmpl.Slug, &tmpl.Subject, &content, &tmpl.Variables,
		&tmpl.PreviewData, &tmpl.CreatedAt, &tmpl.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", render.ErrTemplateNotFound, slug)
		}
		return nil, fmt.Errorf("pgstore: get template %q: %w", slug, err)
	}
	tmpl.Content = []byte(content)
	return &tmpl, nil
}

// CreateTemplate persists a new template. Hosts that manage templates
// elsewhere can ignore this and implement render.TemplateStore themselves.
func (s *Store) CreateTemplate(ctx context.Context, tmpl *render.Template) error {
	previewData := tmpl.PreviewData
	if previewData == nil {
		previewData = map[string]any{}
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO email_templates (id, slug, subject, content, variables, preview_data)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		tmpl.ID, tmpl.Slug, tmpl.Subject, string(tmpl.Content),
		textArray(tmpl.Variables), previewData,
	).Scan(&tmpl.CreatedAt, &tmpl.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgstore: create template %q: %w", tmpl.Slug, err)
	}
	return nil
}

func scanEmail(row pgx.Row) (*delivery.Email, error) {
	var email delivery.Email
	err := row.Scan(
		&email.ID, &email.From, &email.FromName, &email.ReplyTo,
		&email.To, &email.CC, &email.BCC,
		&email.Subject, &email.HTML, &email.Text, &email.TemplateSlug, &email.Variables,
		&email.Status, &email.Attempts, &email.Priority, &email.Error,
		&email.ScheduledAt, &email.SentAt, &email.LastAttemptAt,
		&email.CreatedAt, &email.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &email, nil
}

func collectEmails(rows pgx.Rows) ([]*delivery.Email, error) {
	defer rows.Close()

	var emails []*delivery.Email
	for rows.Next() {
		email, err := scanEmail(rows)
		if err != nil {
			return nil, fmt.Errorf("pgstore: scan email: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgstore: iterate emails: %w", err)
	}
	return emails, nil
}

// textArray keeps NOT NULL text[] columns happy when the slice is nil.
func textArray(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
