package tags

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html/template"
	"sort"
	"strings"

	repocache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-ike/pkg/interfaces"
)

const cacheKeyPrefix = "tags:"

// Renderer executes tag definitions and produces sanitised HTML.
type Renderer struct {
	registry  interfaces.TagRegistry
	validator *Validator
	sanitizer interfaces.TagSanitizer
	cache     interfaces.CacheService
	metrics   interfaces.TagMetrics
}

// RendererOption configures the renderer instance.
type RendererOption func(*Renderer)

// WithRendererSanitizer overrides the default sanitizer.
func WithRendererSanitizer(s interfaces.TagSanitizer) RendererOption {
	return func(r *Renderer) {
		r.sanitizer = s
	}
}

// WithRendererCache supplies the cache used by definitions with a CacheTTL.
func WithRendererCache(cache interfaces.CacheService) RendererOption {
	return func(r *Renderer) {
		r.cache = cache
	}
}

// WithRendererMetrics records cache hits.
func WithRendererMetrics(metrics interfaces.TagMetrics) RendererOption {
	return func(r *Renderer) {
		if metrics != nil {
			r.metrics = metrics
		}
	}
}

func NewRenderer(registry interfaces.TagRegistry, validator *Validator, opts ...RendererOption) *Renderer {
	r := &Renderer{
		registry:  registry,
		validator: validator,
		sanitizer: NewSanitizer(),
		metrics:   NoOpMetrics(),
	}
	if r.validator == nil {
		r.validator = NewValidator()
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render resolves the definition, coerces attributes, runs the handler or
// template and sanitises the result.
func (r *Renderer) Render(ctx interfaces.TagContext, tag string, attrs map[string]any, inner string) (template.HTML, error) {
	def, ok := r.registry.Get(tag)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTag, tag)
	}
	if strings.TrimSpace(inner) != "" && !def.AllowInner {
		return "", fmt.Errorf("%w: %s", ErrInnerNotAllowed, tag)
	}

	coerced, err := r.validator.CoerceAttributes(def, attrs)
	if err != nil {
		return "", err
	}

	sanitizer := r.sanitizer
	if ctx.Sanitizer != nil {
		sanitizer = ctx.Sanitizer
	}
	if sanitizer != nil {
		if err := sanitizer.ValidateAttributes(coerced); err != nil {
			return "", err
		}
	}

	cache := r.cache
	if ctx.Cache != nil {
		cache = ctx.Cache
	}
	if cache == nil || def.CacheTTL <= 0 {
		output, err := execute(ctx, def, coerced, inner, sanitizer)
		return template.HTML(output), err
	}

	executed := false
	key := cacheKeyPrefix + buildCacheKey(ctx.Path, def.Name, coerced, inner)
	output, err := repocache.GetOrFetch(background(ctx.Context), cache, key, repocache.FetchFn[string](func(context.Context) (string, error) {
		executed = true
		return execute(ctx, def, coerced, inner, sanitizer)
	}))
	if err != nil {
		return "", err
	}
	if !executed {
		r.metrics.IncrementCacheHit(def.Name)
	}
	return template.HTML(output), nil
}

func execute(ctx interfaces.TagContext, def interfaces.TagDefinition, attrs map[string]any, inner string, sanitizer interfaces.TagSanitizer) (string, error) {
	var output string
	switch {
	case def.Handler != nil:
		result, err := def.Handler(ctx, attrs, inner)
		if err != nil {
			return "", err
		}
		output = string(result)
	case def.Template != "":
		rendered, err := renderTemplate(def, attrs, inner)
		if err != nil {
			return "", err
		}
		output = rendered
	default:
		return "", fmt.Errorf("tags: definition %s has no handler or template", def.Name)
	}

	if sanitizer != nil {
		sanitized, err := sanitizer.Sanitize(output)
		if err != nil {
			return "", err
		}
		output = sanitized
	}
	return output, nil
}

func renderTemplate(def interfaces.TagDefinition, attrs map[string]any, inner string) (string, error) {
	data := make(map[string]any, len(attrs)+1)
	for key, value := range attrs {
		data[key] = value
	}
	data["Inner"] = inner

	tmpl, err := template.New(def.Name).Parse(def.Template)
	if err != nil {
		return "", fmt.Errorf("tags: parse template %s: %w", def.Name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("tags: execute template %s: %w", def.Name, err)
	}
	return buf.String(), nil
}

func buildCacheKey(path, tag string, attrs map[string]any, inner string) string {
	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(path)
	b.WriteString("|")
	b.WriteString(strings.ToLower(tag))
	for _, key := range keys {
		fmt.Fprintf(&b, "|%s=%v", key, attrs[key])
	}
	b.WriteString("|inner=")
	b.WriteString(inner)

	sum := sha256.Sum256([]byte(b.String()))
	return "tag:" + hex.EncodeToString(sum[:16])
}

func background(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

var _ interfaces.TagRenderer = (*Renderer)(nil)
