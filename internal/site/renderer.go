package site

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"
	"sync"

	"github.com/goliatone/go-ike/internal/components"
	"github.com/goliatone/go-ike/internal/descriptors"
	"github.com/goliatone/go-ike/internal/logging"
	"github.com/goliatone/go-ike/pkg/interfaces"
)

// PageSource resolves a route to a rendered Markdown document.
type PageSource interface {
	Page(ctx context.Context, route string) (*interfaces.Document, error)
}

// DescriptorSource loads reference descriptors and the sidebar.
type DescriptorSource interface {
	Function(ctx context.Context, path string) (*interfaces.FunctionDescriptor, error)
	SiteConfig(ctx context.Context) (*interfaces.SiteConfig, error)
}

// Views renders the display components.
type Views interface {
	FunctionReference(descriptor *interfaces.FunctionDescriptor) (template.HTML, error)
	Page(w io.Writer, page components.PageView) error
	Loading() template.HTML
}

// Renderer composes full HTML documents for pages and reference pages. The
// server and the static generator share it.
type Renderer struct {
	pages       PageSource
	descriptors DescriptorSource
	views       Views
	logger      interfaces.Logger

	mu   sync.RWMutex
	site interfaces.SiteConfig
}

func NewRenderer(pages PageSource, descriptors DescriptorSource, views Views, logger interfaces.Logger) *Renderer {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Renderer{
		pages:       pages,
		descriptors: descriptors,
		views:       views,
		logger:      logger,
	}
}

// LoadSiteConfig fetches ike.yaml once. On failure the sidebar stays as it
// was (empty on first load) and the error is logged and returned.
func (r *Renderer) LoadSiteConfig(ctx context.Context) error {
	if r.descriptors == nil {
		return nil
	}
	cfg, err := r.descriptors.SiteConfig(ctx)
	if err != nil {
		logging.WithFields(r.logger, map[string]any{"error": err}).Warn("site.config.fetch_failed")
		return err
	}

	r.mu.Lock()
	r.site = *cfg
	r.mu.Unlock()

	logging.WithFields(r.logger, map[string]any{
		"sections": len(cfg.Sidebar),
		"package":  cfg.Package,
	}).Debug("site.config.loaded")
	return nil
}

// SiteConfig returns the sidebar configuration currently in use.
func (r *Renderer) SiteConfig() interfaces.SiteConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.site
}

// RenderPage writes the page served at route. Missing pages return an error
// wrapping markdown.ErrPageNotFound from the page source.
func (r *Renderer) RenderPage(ctx context.Context, w io.Writer, route string) (*interfaces.Document, error) {
	doc, err := r.pages.Page(ctx, route)
	if err != nil {
		return nil, err
	}
	if err := r.RenderDocument(w, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// RenderDocument writes an already rendered document inside the layout.
func (r *Renderer) RenderDocument(w io.Writer, doc *interfaces.Document) error {
	if doc == nil {
		return fmt.Errorf("site: document is nil")
	}
	return r.views.Page(w, components.PageView{
		Title:       doc.FrontMatter.Title,
		Description: doc.FrontMatter.Description,
		CurrentPath: doc.Route,
		Sidebar:     r.SiteConfig().Sidebar,
		Headings:    doc.Headings,
		Content:     template.HTML(doc.BodyHTML),
	})
}

// RenderReference writes the reference page of name. An empty name renders
// "Loading...". A descriptor that fails to load renders the component's
// loading state; the failure is logged and swallowed.
func (r *Renderer) RenderReference(ctx context.Context, w io.Writer, name string) error {
	name = strings.TrimSpace(name)
	currentPath := "/reference/" + name

	content := r.views.Loading()
	if name != "" {
		descriptor := r.reference(ctx, name)
		html, err := r.views.FunctionReference(descriptor)
		if err != nil {
			return fmt.Errorf("site: render reference %s: %w", name, err)
		}
		content = html
	}

	return r.views.Page(w, components.PageView{
		CurrentPath: currentPath,
		Sidebar:     r.SiteConfig().Sidebar,
		Content:     content,
	})
}

func (r *Renderer) reference(ctx context.Context, name string) *interfaces.FunctionDescriptor {
	if r.descriptors == nil {
		return nil
	}
	descriptor, err := r.descriptors.Function(ctx, descriptors.CachePath(name))
	if errors.Is(err, descriptors.ErrNotFound) {
		descriptor, err = r.descriptors.Function(ctx, descriptors.FunctionPath(name))
	}
	if err != nil {
		logging.WithFields(r.logger, map[string]any{
			"name":  name,
			"error": err,
		}).Warn("site.reference.fetch_failed")
		return nil
	}
	return descriptor
}
