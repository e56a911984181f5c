// Package substitute provides pluggable variable substitution for rendered
// email subjects and bodies.
//
// Three engines are available, selected by name:
//
//   - "handlebars": full templating language (conditionals, iteration,
//     helpers) via aymerick/raymond
//   - "mustache": logic-less mustache templates via cbroglie/mustache
//   - "literal": minimal {{key}} replacement with no template language at all
//
// The literal engine never fails and leaves unresolved placeholders verbatim,
// which makes it the last-resort path when a richer engine is misconfigured.
package substitute
