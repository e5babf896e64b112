package tags

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/goliatone/go-ike/internal/logging"
	"github.com/goliatone/go-ike/pkg/interfaces"
)

// Service expands authoring tags found in page sources.
type Service struct {
	registry         interfaces.TagRegistry
	renderer         interfaces.TagRenderer
	parser           interfaces.TagParser
	defaultSanitizer interfaces.TagSanitizer
	defaultCache     interfaces.CacheService
	logger           interfaces.Logger
	metrics          interfaces.TagMetrics
}

// ServiceOption customises service behaviour.
type ServiceOption func(*Service)

// WithDefaultSanitizer overrides the sanitizer used when none is supplied at call time.
func WithDefaultSanitizer(sanitizer interfaces.TagSanitizer) ServiceOption {
	return func(s *Service) {
		if sanitizer != nil {
			s.defaultSanitizer = sanitizer
		}
	}
}

// WithDefaultCache overrides the cache used when none is supplied at call time.
func WithDefaultCache(cache interfaces.CacheService) ServiceOption {
	return func(s *Service) {
		if cache != nil {
			s.defaultCache = cache
		}
	}
}

func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(metrics interfaces.TagMetrics) ServiceOption {
	return func(s *Service) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// WithParser overrides the Markdoc parser.
func WithParser(parser interfaces.TagParser) ServiceOption {
	return func(s *Service) {
		if parser != nil {
			s.parser = parser
		}
	}
}

func NewService(registry interfaces.TagRegistry, renderer interfaces.TagRenderer, opts ...ServiceOption) *Service {
	service := &Service{
		registry:         registry,
		renderer:         renderer,
		parser:           NewMarkdocParser(),
		defaultSanitizer: NewSanitizer(),
		logger:           logging.NoOp(),
		metrics:          NoOpMetrics(),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Process replaces every tag in content with its rendered HTML. When
// opts.Convert is set the tag-free content is converted first, so rendered
// tags are never fed through the Markdown engine.
func (s *Service) Process(ctx context.Context, content string, opts interfaces.TagProcessOptions) (string, error) {
	if s.renderer == nil || s.parser == nil {
		return "", fmt.Errorf("tags: service not initialised")
	}

	logger := logging.WithFields(s.baseLogger(ctx), map[string]any{
		"operation": "tags.process",
		"path":      opts.Path,
	})

	transformed, parsed, err := s.parser.Extract(content)
	if err != nil {
		logging.WithFields(logger, map[string]any{"error": err}).Error("tags.service.parse_failed")
		return "", err
	}

	output := transformed
	if opts.Convert != nil {
		converted, err := opts.Convert([]byte(transformed))
		if err != nil {
			return "", err
		}
		output = string(converted)
	}
	if len(parsed) == 0 {
		return output, nil
	}

	tagCtx := s.tagContext(interfaces.TagContext{
		Context:   ctx,
		Path:      opts.Path,
		Cache:     opts.Cache,
		Sanitizer: opts.Sanitizer,
		Convert:   opts.Convert,
	})

	// Enclosing tags carry higher indexes; substitute them first so the
	// placeholders of nested tags in their output are still replaced.
	for idx := len(parsed) - 1; idx >= 0; idx-- {
		tag := parsed[idx]
		rendered, err := s.renderTimed(tagCtx, tag.Name, tag.Attrs, tag.Inner, logger.WithFields(map[string]any{"index": idx}))
		if err != nil {
			return "", err
		}
		output = substitute(output, Placeholder(idx), string(rendered))
	}

	logging.WithFields(logger, map[string]any{"tags": len(parsed)}).Debug("tags.service.process_completed")
	return output, nil
}

// Render executes a single tag definition.
func (s *Service) Render(ctx interfaces.TagContext, tag string, attrs map[string]any, inner string) (template.HTML, error) {
	if s.renderer == nil {
		return "", fmt.Errorf("tags: service not initialised")
	}
	ctx = s.tagContext(ctx)
	logger := logging.WithFields(s.baseLogger(ctx.Context), map[string]any{
		"operation": "tags.render",
	})
	return s.renderTimed(ctx, tag, attrs, inner, logger)
}

// Registry exposes the underlying tag registry.
func (s *Service) Registry() interfaces.TagRegistry {
	return s.registry
}

func (s *Service) renderTimed(ctx interfaces.TagContext, tag string, attrs map[string]any, inner string, logger interfaces.Logger) (template.HTML, error) {
	start := time.Now()
	rendered, err := s.renderer.Render(ctx, tag, attrs, inner)
	elapsed := time.Since(start)
	s.metrics.ObserveRenderDuration(tag, elapsed)

	fields := map[string]any{
		"tag":         tag,
		"duration_ms": elapsed.Milliseconds(),
	}
	if err != nil {
		s.metrics.IncrementRenderError(tag)
		fields["error"] = err
		logging.WithFields(logger, fields).Error("tags.service.render_failed")
		return "", err
	}
	logging.WithFields(logger, fields).Debug("tags.service.render_succeeded")
	return rendered, nil
}

func (s *Service) tagContext(ctx interfaces.TagContext) interfaces.TagContext {
	if ctx.Context == nil {
		ctx.Context = context.Background()
	}
	if ctx.Sanitizer == nil {
		ctx.Sanitizer = s.defaultSanitizer
	}
	if ctx.Cache == nil {
		ctx.Cache = s.defaultCache
	}
	return ctx
}

// substitute swaps a placeholder for rendered HTML, dropping the paragraph
// wrapper Markdown adds around a placeholder that stood on its own line.
func substitute(content, placeholder, html string) string {
	content = strings.ReplaceAll(content, "<p>"+placeholder+"</p>", html)
	return strings.ReplaceAll(content, placeholder, html)
}

func (s *Service) baseLogger(ctx context.Context) interfaces.Logger {
	logger := s.logger
	if logger == nil {
		logger = logging.NoOp()
	}
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	return logger
}

var _ interfaces.TagService = (*Service)(nil)

type noOpService struct{}

// NewNoOpService returns a tag service that leaves content untouched apart
// from the optional conversion.
func NewNoOpService() interfaces.TagService {
	return noOpService{}
}

func (noOpService) Process(_ context.Context, content string, opts interfaces.TagProcessOptions) (string, error) {
	if opts.Convert == nil {
		return content, nil
	}
	out, err := opts.Convert([]byte(content))
	return string(out), err
}

func (noOpService) Render(interfaces.TagContext, string, map[string]any, string) (template.HTML, error) {
	return "", nil
}
