// Package mailroom is an embeddable email delivery subsystem for Go
// applications: a persistent delivery queue with retry accounting, an
// idempotent per-email job scheduler on top of River, and a two-stage
// template renderer for rich-text and markdown templates.
//
// The packages compose bottom-up and every boundary is an interface, so a
// host CMS can adopt the whole pipeline or any slice of it:
//
//   - pkg/mailer: message model and transports (Resend, SMTP)
//   - pkg/richtext: rich-text document JSON to HTML and plain text
//   - pkg/substitute: variable substitution engines (handlebars, mustache, literal)
//   - pkg/render: template lookup, serialization and substitution
//   - pkg/delivery: the delivery state machine and dispatch passes
//   - pkg/queue: River-backed job scheduling and workers
//   - pkg/pgstore: PostgreSQL email and template storage
//
// [Service] wires them together:
//
//	pool, err := pgstore.Connect(ctx, cfg.Database)
//	if err != nil {
//		return err
//	}
//	store := pgstore.New(pool)
//
//	svc, err := mailroom.New(store, resend.New(resendCfg),
//		mailroom.WithTemplates(store),
//		mailroom.WithConfig(cfg),
//		mailroom.WithLogger(logger),
//	)
//	if err != nil {
//		return err
//	}
//
//	err = svc.Enqueue(ctx, &delivery.Email{
//		To:           []string{"user@example.com"},
//		TemplateSlug: "welcome",
//		Variables:    map[string]any{"name": "Ada"},
//	})
//
// Enqueue persists the email as pending and schedules its delivery job.
// Run a queue.Manager to execute jobs in-process, or rely on the periodic
// dispatch pass alone; either way an email is delivered at most once, and
// transient failures return it to pending until the retry budget is spent.
package mailroom
