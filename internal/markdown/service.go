package markdown

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-ike/internal/logging"
	"github.com/goliatone/go-ike/pkg/interfaces"
)

// Config controls how the service discovers and renders pages.
type Config struct {
	BasePath  string
	Pattern   string
	Recursive bool
	Exclude   []string
	Parser    interfaces.ParseOptions
}

// Service implements interfaces.MarkdownService for pages on disk.
type Service struct {
	cfg    Config
	parser *GoldmarkParser
	loader *Loader
	tags   interfaces.TagService
	logger interfaces.Logger
}

// ServiceOption customises the service.
type ServiceOption func(*Service)

// WithTagService expands authoring tags while rendering.
func WithTagService(tags interfaces.TagService) ServiceOption {
	return func(s *Service) {
		s.tags = tags
	}
}

func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFS reads pages from filesystem instead of os.DirFS(cfg.BasePath).
func WithFS(filesystem fs.FS) ServiceOption {
	return func(s *Service) {
		s.loader = NewLoader(filesystem, s.loaderConfig())
	}
}

func NewService(cfg Config, opts ...ServiceOption) (*Service, error) {
	svc := &Service{
		cfg:    cfg,
		parser: NewGoldmarkParser(cfg.Parser),
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(svc)
	}

	if svc.loader == nil {
		filesystem, err := prepareFilesystem(cfg.BasePath)
		if err != nil {
			return nil, err
		}
		svc.loader = NewLoader(filesystem, svc.loaderConfig())
	}
	return svc, nil
}

// Load reads and renders a single page relative to the pages directory.
func (s *Service) Load(ctx context.Context, path string, opts interfaces.LoadOptions) (*interfaces.Document, error) {
	result, err := s.loader.LoadFile(ctx, s.normalisePath(path))
	if err != nil {
		return nil, err
	}
	if err := s.renderDocument(ctx, result.Document, opts.Parser); err != nil {
		return nil, err
	}
	return result.Document, nil
}

// Page reads and renders the page served at route. Missing pages return an
// error wrapping ErrPageNotFound.
func (s *Service) Page(ctx context.Context, route string) (*interfaces.Document, error) {
	result, err := s.loader.LoadRoute(ctx, route)
	if err != nil {
		return nil, err
	}
	if err := s.renderDocument(ctx, result.Document, interfaces.ParseOptions{}); err != nil {
		return nil, err
	}
	return result.Document, nil
}

// LoadDirectory reads and renders every page within dir.
func (s *Service) LoadDirectory(ctx context.Context, dir string, opts interfaces.LoadOptions) ([]*interfaces.Document, error) {
	results, err := s.loader.LoadDirectory(ctx, s.normalisePath(dir), LoadParams{
		Pattern:   opts.Pattern,
		Recursive: opts.Recursive,
	})
	if err != nil {
		return nil, err
	}

	docs := make([]*interfaces.Document, 0, len(results))
	for _, result := range results {
		if err := s.renderDocument(ctx, result.Document, opts.Parser); err != nil {
			return nil, err
		}
		docs = append(docs, result.Document)
	}
	return docs, nil
}

// Render expands tags in markdown and converts the rest to HTML.
func (s *Service) Render(ctx context.Context, markdown []byte, opts interfaces.ParseOptions) ([]byte, error) {
	return s.render(ctx, "", markdown, opts)
}

// RenderDocument renders doc.Body into doc.BodyHTML and refreshes
// doc.Headings.
func (s *Service) RenderDocument(ctx context.Context, doc *interfaces.Document, opts interfaces.ParseOptions) ([]byte, error) {
	if doc == nil {
		return nil, errors.New("markdown service: document is nil")
	}
	if err := s.renderDocument(ctx, doc, opts); err != nil {
		return nil, err
	}
	return doc.BodyHTML, nil
}

func (s *Service) render(ctx context.Context, path string, markdown []byte, opts interfaces.ParseOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	merged := mergeParseOptions(s.cfg.Parser, opts)
	convert := func(source []byte) ([]byte, error) {
		return s.parser.ParseWithOptions(source, merged)
	}
	if s.tags == nil {
		return convert(markdown)
	}

	out, err := s.tags.Process(ctx, string(markdown), interfaces.TagProcessOptions{
		Path:    path,
		Convert: convert,
	})
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func (s *Service) renderDocument(ctx context.Context, doc *interfaces.Document, overrides interfaces.ParseOptions) error {
	if doc == nil {
		return nil
	}
	logger := logging.WithPageContext(s.logger, doc.FilePath, doc.Route, "render")

	html, err := s.render(ctx, doc.FilePath, doc.Body, overrides)
	if err != nil {
		logging.WithFields(logger, map[string]any{"error": err}).Error("markdown.render.failed")
		return fmt.Errorf("markdown render document %s: %w", doc.FilePath, err)
	}
	doc.BodyHTML = html
	doc.Headings = s.parser.Headings(doc.Body, mergeParseOptions(s.cfg.Parser, overrides))

	logging.WithFields(logger, map[string]any{"headings": len(doc.Headings)}).Debug("markdown.render.completed")
	return nil
}

func (s *Service) loaderConfig() LoaderConfig {
	return LoaderConfig{
		BasePath:  s.cfg.BasePath,
		Pattern:   s.cfg.Pattern,
		Recursive: s.cfg.Recursive,
		Exclude:   s.cfg.Exclude,
	}
}

func (s *Service) normalisePath(p string) string {
	if strings.TrimSpace(p) == "" {
		return "."
	}
	clean := filepath.Clean(p)
	if filepath.IsAbs(clean) && strings.TrimSpace(s.cfg.BasePath) != "" {
		if rel, err := filepath.Rel(s.cfg.BasePath, clean); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(clean)
}

func prepareFilesystem(basePath string) (fs.FS, error) {
	if strings.TrimSpace(basePath) == "" {
		basePath = "."
	}
	if _, err := os.Stat(basePath); err != nil {
		return nil, fmt.Errorf("markdown service: stat base path %s: %w", basePath, err)
	}
	return os.DirFS(basePath), nil
}

var _ interfaces.MarkdownService = (*Service)(nil)
