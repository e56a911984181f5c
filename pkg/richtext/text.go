package richtext

import (
	"fmt"
	"strings"
)

// PlainText serializes the document into a plain-text projection suitable for
// the text/plain alternative part of an email.
func (d *Document) PlainText() string {
	var b strings.Builder
	writeChildrenText(&b, d.Root.Children, "")
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeChildrenText(b *strings.Builder, children []Node, listMarker string) {
	itemIndex := 0
	for i := range children {
		n := &children[i]
		if n.Type == TypeListItem {
			itemIndex++
		}
		writeNodeText(b, n, listMarker, itemIndex)
	}
}

func writeNodeText(b *strings.Builder, n *Node, listMarker string, itemIndex int) {
	switch n.Type {
	case TypeParagraph, TypeHeading:
		writeInlineText(b, n.Children)
		b.WriteString("\n\n")

	case TypeText:
		b.WriteString(n.Text)

	case TypeLineBreak:
		b.WriteString("\n")

	case TypeList:
		marker := "- "
		if n.ordered() {
			marker = "#. " // placeholder, numbered per item below
		}
		writeChildrenText(b, n.Children, marker)
		b.WriteString("\n")

	case TypeListItem:
		if listMarker == "#. " {
			fmt.Fprintf(b, "%d. ", itemIndex)
		} else if listMarker != "" {
			b.WriteString(listMarker)
		}
		writeInlineText(b, n.Children)
		b.WriteString("\n")

	case TypeQuote:
		var quoted strings.Builder
		writeInlineText(&quoted, n.Children)
		for line := range strings.SplitSeq(strings.TrimRight(quoted.String(), "\n"), "\n") {
			b.WriteString("> ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")

	case TypeLink:
		writeInlineText(b, n.Children)
		if url := n.linkURL(); url != "" {
			fmt.Fprintf(b, " (%s)", url)
		}

	case TypeHorizontalRule:
		b.WriteString("---\n\n")

	default:
		writeChildrenText(b, n.Children, listMarker)
	}
}

// writeInlineText renders children without block spacing, for use inside a
// block element that manages its own separators.
func writeInlineText(b *strings.Builder, children []Node) {
	for i := range children {
		n := &children[i]
		switch n.Type {
		case TypeText:
			b.WriteString(n.Text)
		case TypeLineBreak:
			b.WriteString("\n")
		case TypeLink:
			writeInlineText(b, n.Children)
			if url := n.linkURL(); url != "" {
				fmt.Fprintf(b, " (%s)", url)
			}
		default:
			writeInlineText(b, n.Children)
		}
	}
}
