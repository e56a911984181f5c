package richtext

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Text formatting flags. Independent capabilities combined by bitwise OR,
// rendered as nested wrapping elements.
const (
	FormatBold          = 1 << 0
	FormatItalic        = 1 << 1
	FormatStrikethrough = 1 << 2
	FormatUnderline     = 1 << 3
	FormatCode          = 1 << 4
)

// Node type discriminators emitted by the editor.
const (
	TypeRoot           = "root"
	TypeParagraph      = "paragraph"
	TypeHeading        = "heading"
	TypeText           = "text"
	TypeLineBreak      = "linebreak"
	TypeList           = "list"
	TypeListItem       = "listitem"
	TypeQuote          = "quote"
	TypeLink           = "link"
	TypeHorizontalRule = "horizontalrule"
)

// ErrInvalidDocument indicates the raw content could not be parsed as a
// rich-text document tree.
var ErrInvalidDocument = errors.New("richtext: invalid document")

// LinkFields holds link attributes nested under a "fields" key, the shape the
// CMS stores for link nodes.
type LinkFields struct {
	URL    string `json:"url"`
	NewTab bool   `json:"newTab"`
}

// Node is a single element of a rich-text document tree.
type Node struct {
	Type     string      `json:"type"`
	Children []Node      `json:"children,omitempty"`
	Text     string      `json:"text,omitempty"`
	Format   int         `json:"-"`
	Tag      string      `json:"tag,omitempty"`
	ListType string      `json:"listType,omitempty"`
	Start    int         `json:"start,omitempty"`
	URL      string      `json:"url,omitempty"`
	NewTab   bool        `json:"newTab,omitempty"`
	Fields   *LinkFields `json:"fields,omitempty"`
}

// nodeAlias avoids recursive UnmarshalJSON calls.
type nodeAlias Node

// UnmarshalJSON decodes a node, tolerating the editor's dual use of "format":
// a numeric bit field on text nodes and an alignment string on block nodes.
// Non-numeric formats carry no meaning for email output and are ignored.
func (n *Node) UnmarshalJSON(data []byte) error {
	var alias nodeAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var probe struct {
		Format json.RawMessage `json:"format"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if len(probe.Format) > 0 {
		var format int
		if err := json.Unmarshal(probe.Format, &format); err == nil {
			alias.Format = format
		}
	}

	*n = Node(alias)
	return nil
}

// linkURL returns the link target regardless of which shape the editor used.
func (n *Node) linkURL() string {
	if n.Fields != nil && n.Fields.URL != "" {
		return n.Fields.URL
	}
	return n.URL
}

// linkNewTab reports whether the link should open in a new tab.
func (n *Node) linkNewTab() bool {
	if n.Fields != nil {
		return n.Fields.NewTab
	}
	return n.NewTab
}

// ordered reports whether a list node renders as a numbered list.
func (n *Node) ordered() bool {
	return n.ListType == "number" || n.ListType == "ordered"
}

// Document is a parsed rich-text document.
type Document struct {
	Root Node `json:"root"`
}

// Parse decodes raw JSON into a Document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Root.Type == "" && len(doc.Root.Children) == 0 {
		return nil, fmt.Errorf("%w: missing root node", ErrInvalidDocument)
	}
	return &doc, nil
}
