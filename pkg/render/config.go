package render

// Config holds renderer configuration.
// Embed this in your app config for env parsing with caarlos0/env.
type Config struct {
	// Engine selects the variable substitution engine: "handlebars",
	// "mustache" or "literal". Unknown values fall back to literal.
	Engine string `env:"MAILROOM_TEMPLATE_ENGINE" envDefault:"handlebars"`

	// SanitizeHTML runs rendered HTML through a bluemonday policy limited
	// to the elements the serializer itself emits. Off by default because
	// template content is authored by trusted CMS editors; enable it when
	// substituted variables carry user-controlled values.
	SanitizeHTML bool `env:"MAILROOM_SANITIZE_HTML" envDefault:"false"`
}
