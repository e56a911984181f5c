package render

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Template is a stored email template, looked up by unique slug. Content is
// either a JSON rich-text document or markdown text; ContentKind detects
// which. Templates are owned by the host CMS and treated as immutable here.
type Template struct {
	PreviewData map[string]any
	Slug        string
	Subject     string
	Variables   []string // declared variable names, informational
	Content     []byte
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ID          uuid.UUID
}

// TemplateStore is the boundary to the host's template storage.
type TemplateStore interface {
	// GetTemplate returns the template with the given slug, or an error
	// wrapping ErrTemplateNotFound when no such template exists.
	GetTemplate(ctx context.Context, slug string) (*Template, error)
}

// richTextContent reports whether content looks like a JSON rich-text
// document rather than markdown.
func richTextContent(content []byte) bool {
	trimmed := bytes.TrimSpace(content)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// frontmatter is the YAML metadata block markdown templates may start with.
type frontmatter struct {
	Subject string `yaml:"subject"`
}

var frontmatterDelim = []byte("---")

// splitFrontmatter extracts an optional leading YAML frontmatter block from
// markdown content. Returns the parsed metadata and the remaining body.
func splitFrontmatter(content []byte) (frontmatter, []byte, error) {
	var meta frontmatter
	if !bytes.HasPrefix(content, frontmatterDelim) {
		return meta, content, nil
	}

	rest := bytes.TrimPrefix(content, frontmatterDelim)
	rest = bytes.TrimLeft(rest, "\r\n")

	end := bytes.Index(rest, frontmatterDelim)
	if end == -1 {
		return meta, nil, fmt.Errorf("%w: closing frontmatter delimiter not found", ErrInvalidTemplate)
	}

	block := rest[:end]
	body := rest[end+len(frontmatterDelim):]
	body = bytes.TrimLeft(body, "\r\n")

	if len(bytes.TrimSpace(block)) > 0 {
		if err := yaml.Unmarshal(block, &meta); err != nil {
			return meta, nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
		}
	}

	return meta, body, nil
}
