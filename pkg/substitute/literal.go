package substitute

import (
	"fmt"
	"regexp"
	"strings"
)

// placeholderRe matches {{key}} with optional inner whitespace. Keys are
// dotted identifier paths; anything else is not a placeholder.
var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)\s*\}\}`)

// Literal performs plain {{key}} substitution with no template language.
// Unresolved placeholders are left verbatim rather than removed, so a missing
// variable is visible in the delivered email instead of silently blank.
type Literal struct{}

// Render implements Engine. It never returns an error.
func (Literal) Render(tmpl string, vars map[string]any) (string, error) {
	if len(vars) == 0 || !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}

	out := placeholderRe.ReplaceAllStringFunc(tmpl, func(match string) string {
		key := placeholderRe.FindStringSubmatch(match)[1]
		if val, ok := lookup(vars, key); ok {
			return fmt.Sprint(val)
		}
		return match
	})
	return out, nil
}

// lookup resolves a dotted path through nested maps.
func lookup(vars map[string]any, key string) (any, bool) {
	parts := strings.Split(key, ".")
	current := any(vars)
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
