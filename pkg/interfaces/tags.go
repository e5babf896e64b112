package interfaces

import (
	"context"
	"html/template"
	"time"
)

// TagRegistry describes the lifecycle contract for registering and resolving
// authoring tag definitions. Implementations must be safe for concurrent use.
type TagRegistry interface {
	// Register stores a definition and returns an error when a tag with the
	// same name already exists or the definition fails validation.
	Register(definition TagDefinition) error
	Get(name string) (TagDefinition, bool)
	// List exposes the current catalogue sorted by name.
	List() []TagDefinition
	// Remove deletes the tag. Removing an unknown tag is a no-op.
	Remove(name string)
}

// TagRenderer executes a tag definition and returns HTML output.
type TagRenderer interface {
	Render(ctx TagContext, tag string, attrs map[string]any, inner string) (template.HTML, error)
}

// TagParser extracts tag invocations from Markdown source.
type TagParser interface {
	Parse(content string) ([]ParsedTag, error)
	Extract(content string) (placeholders string, tags []ParsedTag, err error)
}

// TagSanitizer encapsulates sanitisation helpers applied after rendering.
type TagSanitizer interface {
	Sanitize(html string) (string, error)
	ValidateURL(raw string) error
	ValidateAttributes(attrs map[string]any) error
}

// TagMetrics records tag rendering telemetry.
type TagMetrics interface {
	ObserveRenderDuration(tag string, duration time.Duration)
	IncrementRenderError(tag string)
	IncrementCacheHit(tag string)
}

// TagService renders every tag found in a Markdown source.
type TagService interface {
	Process(ctx context.Context, content string, opts TagProcessOptions) (string, error)
	Render(ctx TagContext, tag string, attrs map[string]any, inner string) (template.HTML, error)
}

// TagProcessOptions carries per-call overrides for TagService.Process.
// When Convert is set, the tag-free source is converted (Markdown to HTML)
// before rendered tags are substituted back in.
type TagProcessOptions struct {
	Path      string
	Cache     CacheService
	Sanitizer TagSanitizer
	Convert   func(source []byte) ([]byte, error)
}

// TagDefinition captures the metadata, attribute schema and rendering
// strategy of an authoring tag. Either Handler or Template must be set.
type TagDefinition struct {
	Name        string
	Description string
	SelfClosing bool
	AllowInner  bool
	// CacheTTL enables caching of the rendered output when positive. Entries
	// live for the TTL of the cache service.
	CacheTTL time.Duration
	Schema   TagSchema
	Template string
	Handler  TagHandler
}

// TagSchema defines the attributes accepted by a tag.
type TagSchema struct {
	Attributes []TagAttribute
}

// TagAttribute describes a single attribute with optional custom validation.
type TagAttribute struct {
	Name     string
	Type     TagAttributeType
	Required bool
	Default  any
	Validate TagValidator
}

// TagAttributeType enumerates the supported attribute coercions.
type TagAttributeType string

const (
	TagAttributeString TagAttributeType = "string"
	TagAttributeInt    TagAttributeType = "int"
	TagAttributeBool   TagAttributeType = "bool"
	TagAttributeURL    TagAttributeType = "url"
)

// TagValidator allows definitions to perform custom validation.
type TagValidator func(value any) error

// TagHandler executes the tag with resolved attributes.
type TagHandler func(ctx TagContext, attrs map[string]any, inner string) (template.HTML, error)

// TagContext provides runtime metadata surfaced during rendering. Convert,
// when set, turns inner Markdown into HTML.
type TagContext struct {
	Context   context.Context
	Path      string
	Cache     CacheService
	Sanitizer TagSanitizer
	Convert   func(source []byte) ([]byte, error)
}

// ParsedTag represents an invocation discovered by the parser.
type ParsedTag struct {
	Name        string
	Attrs       map[string]any
	Inner       string
	SelfClosing bool
}
