package substitute

// Engine renders a template string against a variable map.
type Engine interface {
	// Render substitutes variables into tmpl. Implementations return the
	// rendered string, or an error when the template cannot be processed.
	Render(tmpl string, vars map[string]any) (string, error)
}

// Func adapts a plain function to the Engine interface. Used for
// caller-supplied custom renderers.
type Func func(tmpl string, vars map[string]any) (string, error)

// Render implements Engine.
func (f Func) Render(tmpl string, vars map[string]any) (string, error) {
	return f(tmpl, vars)
}

// Engine names accepted by New.
const (
	EngineHandlebars = "handlebars"
	EngineMustache   = "mustache"
	EngineLiteral    = "literal"
)

// New returns the engine registered under name. Unknown names fall back to
// the literal engine so substitution is always available.
func New(name string) Engine {
	switch name {
	case EngineHandlebars:
		return Handlebars{}
	case EngineMustache:
		return Mustache{}
	default:
		return Literal{}
	}
}
