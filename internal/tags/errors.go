package tags

import "errors"

var (
	// ErrDuplicateDefinition indicates an attempt to register a tag name twice.
	ErrDuplicateDefinition = errors.New("tags: duplicate definition")
	// ErrInvalidDefinition occurs when a definition fails schema validation.
	ErrInvalidDefinition = errors.New("tags: invalid definition")
	// ErrUnknownTag is returned when a tag has no registered definition.
	ErrUnknownTag = errors.New("tags: unknown tag")

	ErrUnknownAttribute = errors.New("tags: unknown attribute")
	ErrMissingAttribute = errors.New("tags: missing required attribute")
	ErrAttributeType    = errors.New("tags: attribute type mismatch")
	ErrInnerNotAllowed  = errors.New("tags: tag does not accept inner content")

	// Syntax errors reported by the parser.
	ErrUnterminatedTag = errors.New("tags: unterminated tag")
	ErrMismatchedTag   = errors.New("tags: mismatched closing tag")
	ErrUnexpectedClose = errors.New("tags: unexpected closing tag")
	ErrMalformedTag    = errors.New("tags: malformed tag")
)
