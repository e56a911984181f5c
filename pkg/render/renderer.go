package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/yuin/goldmark"

	"github.com/dmitrymomot/mailroom/pkg/richtext"
	"github.com/dmitrymomot/mailroom/pkg/substitute"
)

// Result is the rendered output of a template.
type Result struct {
	Subject string
	HTML    string
	Text    string
}

// Renderer renders stored templates into sendable subject/HTML/text.
type Renderer struct {
	store    TemplateStore
	engine   substitute.Engine
	custom   substitute.Engine
	md       goldmark.Markdown
	log      *slog.Logger
	sanitize bool
}

// Option configures the renderer.
type Option func(*Renderer)

// WithEngine sets the substitution engine. Defaults to handlebars.
func WithEngine(e substitute.Engine) Option {
	return func(r *Renderer) {
		if e != nil {
			r.engine = e
		}
	}
}

// WithCustomRenderer sets a caller-supplied substitution function that takes
// precedence over the configured engine.
func WithCustomRenderer(f substitute.Func) Option {
	return func(r *Renderer) {
		if f != nil {
			r.custom = f
		}
	}
}

// WithSanitizer enables HTML sanitization of rendered output.
func WithSanitizer() Option {
	return func(r *Renderer) {
		r.sanitize = true
	}
}

// WithLogger sets the logger. Defaults to a discard logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Renderer) {
		if log != nil {
			r.log = log
		}
	}
}

// WithConfig applies engine selection and sanitization from config.
func WithConfig(cfg Config) Option {
	return func(r *Renderer) {
		r.engine = substitute.New(cfg.Engine)
		r.sanitize = cfg.SanitizeHTML
	}
}

// NewRenderer creates a renderer backed by the given template store.
func NewRenderer(store TemplateStore, opts ...Option) *Renderer {
	r := &Renderer{
		store:  store,
		engine: substitute.Handlebars{},
		md:     goldmark.New(),
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render looks up a template by slug and renders it with the given variables.
// A missing template is a hard error; substitution failures degrade to the
// unsubstituted text.
func (r *Renderer) Render(ctx context.Context, slug string, vars map[string]any) (*Result, error) {
	tmpl, err := r.store.GetTemplate(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("render: lookup template %q: %w", slug, err)
	}

	subject, html, text, err := r.serialize(tmpl)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Subject: r.substitute(ctx, subject, vars),
		HTML:    r.substitute(ctx, html, vars),
		Text:    r.substitute(ctx, text, vars),
	}

	if r.sanitize {
		result.HTML = emailHTMLPolicy().Sanitize(result.HTML)
	}

	return result, nil
}

// serialize performs stage one: structural serialization of template content
// into HTML and a parallel plain-text projection.
func (r *Renderer) serialize(tmpl *Template) (subject, html, text string, err error) {
	subject = tmpl.Subject

	if richTextContent(tmpl.Content) {
		doc, parseErr := richtext.Parse(tmpl.Content)
		if parseErr != nil {
			return "", "", "", fmt.Errorf("%w: %q: %v", ErrInvalidTemplate, tmpl.Slug, parseErr)
		}
		return subject, doc.HTML(), doc.PlainText(), nil
	}

	meta, body, fmErr := splitFrontmatter(tmpl.Content)
	if fmErr != nil {
		return "", "", "", fmt.Errorf("%w: %q", fmErr, tmpl.Slug)
	}
	if subject == "" {
		subject = meta.Subject
	}

	var buf bytes.Buffer
	if convErr := r.md.Convert(body, &buf); convErr != nil {
		return "", "", "", fmt.Errorf("%w: %q: %v", ErrInvalidTemplate, tmpl.Slug, convErr)
	}

	// Plain text alternative is the markdown source itself.
	return subject, buf.String(), string(body), nil
}

// substitute performs stage two on a single string. The custom renderer wins
// over the configured engine; any failure keeps the unsubstituted input.
func (r *Renderer) substitute(ctx context.Context, s string, vars map[string]any) string {
	if s == "" {
		return s
	}

	engine := r.engine
	if r.custom != nil {
		engine = r.custom
	}
	if engine == nil {
		engine = substitute.Literal{}
	}

	out, err := engine.Render(s, vars)
	if err != nil {
		// Degrade instead of failing: a partially-personalized email is
		// preferable to no email. The literal engine gets a second chance
		// before giving up on substitution entirely.
		r.log.WarnContext(ctx, "variable substitution failed, delivering unsubstituted content",
			slog.Any("error", err),
		)
		if _, isLiteral := engine.(substitute.Literal); !isLiteral {
			if fallback, fbErr := (substitute.Literal{}).Render(s, vars); fbErr == nil {
				return fallback
			}
		}
		return s
	}
	return out
}
