package render

import "errors"

var (
	// ErrTemplateNotFound indicates no template exists for the requested
	// slug. This is a hard error: downstream delivery would otherwise send
	// an empty email.
	ErrTemplateNotFound = errors.New("render: template not found")

	// ErrInvalidTemplate indicates stored template content could not be
	// parsed (broken rich-text JSON or malformed frontmatter). Retrying
	// cannot fix stored content, so this is not a transient failure.
	ErrInvalidTemplate = errors.New("render: invalid template content")
)
