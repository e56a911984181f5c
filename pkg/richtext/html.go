package richtext

import (
	"fmt"
	"html"
	"strings"
)

// headingTags limits heading output to valid levels; anything else falls back
// to h2 so malformed documents still render a visible heading.
var headingTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// HTML serializes the document into an HTML fragment.
func (d *Document) HTML() string {
	var b strings.Builder
	writeChildrenHTML(&b, d.Root.Children)
	return b.String()
}

func writeChildrenHTML(b *strings.Builder, children []Node) {
	for i := range children {
		writeNodeHTML(b, &children[i])
	}
}

func writeNodeHTML(b *strings.Builder, n *Node) {
	switch n.Type {
	case TypeParagraph:
		b.WriteString("<p>")
		writeChildrenHTML(b, n.Children)
		b.WriteString("</p>")

	case TypeHeading:
		tag := n.Tag
		if !headingTags[tag] {
			tag = "h2"
		}
		fmt.Fprintf(b, "<%s>", tag)
		writeChildrenHTML(b, n.Children)
		fmt.Fprintf(b, "</%s>", tag)

	case TypeText:
		writeFormattedText(b, n.Text, n.Format)

	case TypeLineBreak:
		b.WriteString("<br />")

	case TypeList:
		tag := "ul"
		if n.ordered() {
			tag = "ol"
		}
		fmt.Fprintf(b, "<%s>", tag)
		writeChildrenHTML(b, n.Children)
		fmt.Fprintf(b, "</%s>", tag)

	case TypeListItem:
		b.WriteString("<li>")
		writeChildrenHTML(b, n.Children)
		b.WriteString("</li>")

	case TypeQuote:
		b.WriteString("<blockquote>")
		writeChildrenHTML(b, n.Children)
		b.WriteString("</blockquote>")

	case TypeLink:
		url := html.EscapeString(n.linkURL())
		if n.linkNewTab() {
			b.WriteString(`<a href="` + url + `" target="_blank" rel="noopener noreferrer">`)
		} else {
			b.WriteString(`<a href="` + url + `">`)
		}
		writeChildrenHTML(b, n.Children)
		b.WriteString("</a>")

	case TypeHorizontalRule:
		b.WriteString("<hr />")

	default:
		// Unknown node type: recurse so nested content is never dropped.
		writeChildrenHTML(b, n.Children)
	}
}

// writeFormattedText wraps a text run in formatting elements, outermost to
// innermost: strong, em, s, u, code.
func writeFormattedText(b *strings.Builder, text string, format int) {
	var open, close strings.Builder

	if format&FormatBold != 0 {
		open.WriteString("<strong>")
	}
	if format&FormatItalic != 0 {
		open.WriteString("<em>")
	}
	if format&FormatStrikethrough != 0 {
		open.WriteString("<s>")
	}
	if format&FormatUnderline != 0 {
		open.WriteString("<u>")
	}
	if format&FormatCode != 0 {
		open.WriteString("<code>")
	}

	if format&FormatCode != 0 {
		close.WriteString("</code>")
	}
	if format&FormatUnderline != 0 {
		close.WriteString("</u>")
	}
	if format&FormatStrikethrough != 0 {
		close.WriteString("</s>")
	}
	if format&FormatItalic != 0 {
		close.WriteString("</em>")
	}
	if format&FormatBold != 0 {
		close.WriteString("</strong>")
	}

	b.WriteString(open.String())
	b.WriteString(html.EscapeString(text))
	b.WriteString(close.String())
}
