package substitute

import (
	"fmt"

	"github.com/cbroglie/mustache"
)

// Mustache renders logic-less {{key}} templates, including sections and
// inverted sections.
type Mustache struct{}

// Render implements Engine.
func (Mustache) Render(tmpl string, vars map[string]any) (string, error) {
	out, err := mustache.Render(tmpl, vars)
	if err != nil {
		return "", fmt.Errorf("substitute: mustache render: %w", err)
	}
	return out, nil
}
