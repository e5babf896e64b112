// Package generator exposes the static site generator for hosts that render
// ike pages outside the CLI. Wire it with a page lister, a renderer and the
// public directory.
package generator

import internal "github.com/goliatone/go-ike/internal/generator"

type (
	Service         = internal.Service
	Config          = internal.Config
	BuildOptions    = internal.BuildOptions
	BuildResult     = internal.BuildResult
	RenderedPage    = internal.RenderedPage
	FileDiff        = internal.FileDiff
	Dependencies    = internal.Dependencies
	PageLister      = internal.PageLister
	PageRenderer    = internal.PageRenderer
	DescriptorCache = internal.DescriptorCache
)

var (
	ErrOutputDirRequired = internal.ErrOutputDirRequired
	ErrUnsafeOutputDir   = internal.ErrUnsafeOutputDir
)

// NewService wires a static site generator with the supplied configuration and dependencies.
func NewService(cfg Config, deps Dependencies) Service {
	return internal.NewService(cfg, deps)
}
