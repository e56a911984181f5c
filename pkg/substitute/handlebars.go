package substitute

import (
	"fmt"

	"github.com/aymerick/raymond"
)

// Handlebars renders templates with the full handlebars language: nested
// paths, {{#if}}, {{#each}} and helpers.
type Handlebars struct{}

// Render implements Engine.
func (Handlebars) Render(tmpl string, vars map[string]any) (string, error) {
	out, err := raymond.Render(tmpl, vars)
	if err != nil {
		return "", fmt.Errorf("substitute: handlebars render: %w", err)
	}
	return out, nil
}
