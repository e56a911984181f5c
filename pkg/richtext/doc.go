// Package richtext serializes structured rich-document trees into HTML and
// plain text for email bodies.
//
// Documents are JSON trees produced by the host CMS's rich-text editor. Each
// node carries a type discriminator and optional children; text nodes combine
// independent formatting capabilities (bold, italic, strikethrough, underline,
// code) as bit flags, so multiple formats can apply to the same run.
//
// Serialization is deterministic: the same document always produces
// byte-identical HTML and plain-text output. Unknown node types are not
// dropped; the serializer recurses into their children so content authored
// with newer editor plugins still reaches the recipient.
//
// Usage:
//
//	doc, err := richtext.Parse(raw)
//	if err != nil {
//		return err
//	}
//	html := doc.HTML()
//	text := doc.PlainText()
package richtext
