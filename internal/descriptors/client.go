package descriptors

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-ike/internal/logging"
	"github.com/goliatone/go-ike/pkg/interfaces"
)

const cacheKeyPrefix = "descriptors:"

// Client loads descriptors, the site configuration and raw JSON documents
// from a Source. Decoding is lenient: absent fields stay nil so views fall
// back to their placeholders.
type Client struct {
	source Source
	cache  interfaces.CacheService
	logger interfaces.Logger
	lint   bool
}

// ClientOption customises the client.
type ClientOption func(*Client)

// WithCache reads documents through cache, keyed by path. Entries live for
// the TTL the cache service was built with.
func WithCache(cache interfaces.CacheService) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

func WithLogger(logger interfaces.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLint logs schema issues of every fetched function descriptor at debug
// level.
func WithLint(enabled bool) ClientOption {
	return func(c *Client) {
		c.lint = enabled
	}
}

func NewClient(source Source, opts ...ClientOption) *Client {
	c := &Client{
		source: source,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Function loads and decodes a function descriptor.
func (c *Client) Function(ctx context.Context, path string) (*interfaces.FunctionDescriptor, error) {
	data, err := c.open(ctx, path)
	if err != nil {
		return nil, err
	}
	var descriptor interfaces.FunctionDescriptor
	if err := json.Unmarshal(data, &descriptor); err != nil {
		return nil, fmt.Errorf("descriptors: decode %s: %w", path, err)
	}

	if c.lint {
		if issues, err := Lint(data); err == nil && len(issues) > 0 {
			messages := make([]string, len(issues))
			for i, issue := range issues {
				messages[i] = issue.String()
			}
			logging.WithFields(c.logger, map[string]any{
				"path":   path,
				"issues": messages,
			}).Debug("descriptors.lint.issues")
		}
	}
	return &descriptor, nil
}

// SiteConfig loads the sidebar configuration.
func (c *Client) SiteConfig(ctx context.Context) (*interfaces.SiteConfig, error) {
	data, err := c.open(ctx, SiteConfigPath)
	if err != nil {
		return nil, err
	}
	return ParseSiteConfig(data)
}

// Raw loads an arbitrary JSON document.
func (c *Client) Raw(ctx context.Context, path string) (any, error) {
	data, err := c.open(ctx, path)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("descriptors: decode %s: %w", path, err)
	}
	return doc, nil
}

// Invalidate drops a cached document.
func (c *Client) Invalidate(ctx context.Context, path string) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Delete(ctx, cacheKeyPrefix+path)
}

// Clear drops every cached document.
func (c *Client) Clear(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.DeleteByPrefix(ctx, cacheKeyPrefix)
}

func (c *Client) open(ctx context.Context, path string) ([]byte, error) {
	if c.source == nil {
		return nil, fmt.Errorf("descriptors: source not configured")
	}
	if c.cache == nil {
		return c.fetch(ctx, path)
	}
	return repocache.GetOrFetch(ctx, c.cache, cacheKeyPrefix+path, repocache.FetchFn[[]byte](func(ctx context.Context) ([]byte, error) {
		return c.fetch(ctx, path)
	}))
}

func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	start := time.Now()
	data, err := c.source.Open(ctx, path)
	fields := map[string]any{
		"path":        path,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		fields["error"] = err
		logging.WithFields(c.logger, fields).Debug("descriptors.fetch.failed")
		return nil, err
	}
	logging.WithFields(c.logger, fields).Trace("descriptors.fetch.completed")
	return data, nil
}

// ParseSiteConfig decodes ike.yaml. Unknown keys, such as the runtime
// settings block, are ignored.
func ParseSiteConfig(data []byte) (*interfaces.SiteConfig, error) {
	var cfg interfaces.SiteConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("descriptors: parse %s: %w", SiteConfigPath, err)
	}
	return &cfg, nil
}
