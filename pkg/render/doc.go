// Package render turns stored email templates into ready-to-send subject,
// HTML and plain-text strings.
//
// Rendering is two-staged. Stage one serializes the template content: JSON
// rich-text documents go through pkg/richtext, markdown content (with
// optional YAML frontmatter) goes through goldmark. Stage two substitutes
// variables into the serialized subject, HTML and text using a pluggable
// engine from pkg/substitute; a caller-supplied custom renderer takes
// precedence over the configured engine.
//
// A missing template is the only hard error: delivering an empty email is
// worse than failing loudly. Stage-two errors degrade to the unsubstituted
// text, since a partially-personalized email is preferable to no email.
package render
