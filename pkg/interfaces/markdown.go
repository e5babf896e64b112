package interfaces

import (
	"context"
	"time"
)

// MarkdownParser defines how raw Markdown bytes are converted into HTML.
type MarkdownParser interface {
	// Parse converts Markdown into HTML using the parser's default settings.
	Parse(markdown []byte) ([]byte, error)
	// ParseWithOptions converts Markdown into HTML using the supplied overrides.
	ParseWithOptions(markdown []byte, opts ParseOptions) ([]byte, error)
}

// ParseOptions customises Markdown parsing behaviour, keeping option names
// readable for configuration unmarshalling and CLI flags.
type ParseOptions struct {
	Extensions []string `yaml:"extensions" json:"extensions"`
	Sanitize   bool     `yaml:"sanitize" json:"sanitize"`
	HardWraps  bool     `yaml:"hard_wraps" json:"hard_wraps"`
	SafeMode   bool     `yaml:"safe_mode" json:"safe_mode"`
}

// MarkdownService exposes the page workflows: discovering Markdown pages,
// expanding authoring tags and converting the result into HTML.
type MarkdownService interface {
	Load(ctx context.Context, path string, opts LoadOptions) (*Document, error)
	LoadDirectory(ctx context.Context, dir string, opts LoadOptions) ([]*Document, error)
	// Page loads the document served at route.
	Page(ctx context.Context, route string) (*Document, error)
	Render(ctx context.Context, markdown []byte, opts ParseOptions) ([]byte, error)
	RenderDocument(ctx context.Context, doc *Document, opts ParseOptions) ([]byte, error)
}

// Document represents a Markdown page with parsed metadata and content.
type Document struct {
	FilePath     string
	Route        string
	FrontMatter  FrontMatter
	Body         []byte
	BodyHTML     []byte
	Headings     []Heading
	LastModified time.Time
	// Checksum stores a SHA-256 digest of the original file content so
	// incremental builds can skip unchanged pages.
	Checksum []byte
}

// FrontMatter models metadata extracted from Markdown files. Custom keeps
// any key the known fields do not cover.
type FrontMatter struct {
	Title       string         `yaml:"title" json:"title"`
	Description string         `yaml:"description" json:"description"`
	Slug        string         `yaml:"slug" json:"slug"`
	Template    string         `yaml:"template" json:"template"`
	Tags        []string       `yaml:"tags" json:"tags"`
	Draft       bool           `yaml:"draft" json:"draft"`
	Custom      map[string]any `yaml:",inline" json:"custom"`
	Raw         map[string]any `yaml:"-" json:"raw"`
}

// Heading is a single table-of-contents entry collected from a page.
type Heading struct {
	ID    string `json:"id"`
	Level int    `json:"level"`
	Title string `json:"title"`
}

// LoadOptions fine-tunes how documents are discovered and parsed from disk.
type LoadOptions struct {
	Recursive *bool
	Pattern   string
	Parser    ParseOptions
}
