// Package ike turns a directory of Markdown pages and Go reference
// descriptors into a documentation site, served locally or built to static
// files.
package ike

import (
	"io"
	"os"

	projectcmd "github.com/goliatone/go-ike/internal/commands/project"
	"github.com/goliatone/go-ike/internal/di"
	"github.com/goliatone/go-ike/internal/generator"
	"github.com/goliatone/go-ike/internal/markdown"
	"github.com/goliatone/go-ike/internal/site"
	"github.com/goliatone/go-ike/internal/tags"
	"github.com/goliatone/go-ike/pkg/interfaces"
)

// GeneratorService exports the static site generator contract.
type GeneratorService = generator.Service

// BuildOptions exports the per-build options of the generator.
type BuildOptions = generator.BuildOptions

// BuildResult exports the generator's build report.
type BuildResult = generator.BuildResult

// Command messages accepted by the handlers returned from Commands.
type (
	InitCommand    = projectcmd.InitCommand
	ExtractCommand = projectcmd.ExtractCommand
	DevCommand     = projectcmd.DevCommand
	BuildCommand   = projectcmd.BuildCommand
	DeployCommand  = projectcmd.DeployCommand
)

// SiteServer exports the development server.
type SiteServer = *site.Server

// Module is the top level ike runtime.
type Module struct {
	container *di.Container
}

// New constructs a module from cfg and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Config returns the configuration the module was built with.
func (m *Module) Config() Config {
	return m.container.Config
}

// Logger returns the command logger.
func (m *Module) Logger() interfaces.Logger {
	return m.container.Logger()
}

// Markdown returns the page service.
func (m *Module) Markdown() interfaces.MarkdownService {
	return m.container.MarkdownService()
}

// Pages returns the concrete page service.
func (m *Module) Pages() *markdown.Service {
	return m.container.MarkdownService()
}

// Tags returns the tag service.
func (m *Module) Tags() interfaces.TagService {
	return m.container.TagService()
}

// TagService returns the concrete tag service, whose registry accepts
// custom tags.
func (m *Module) TagService() *tags.Service {
	return m.container.TagService()
}

// Server returns the development server.
func (m *Module) Server() SiteServer {
	return m.container.Server()
}

// Generator returns the static site generator.
func (m *Module) Generator() GeneratorService {
	return m.container.Generator()
}

// Commands groups the project command handlers.
type Commands = projectcmd.HandlerSet

// CommandRegistry receives each handler built by RegisterCommands, for
// example a go-command dispatcher adapter.
type CommandRegistry = projectcmd.CommandRegistry

// DispatcherRegistry subscribes the project handlers on the go-command
// dispatcher. Close it to drop the subscriptions.
type DispatcherRegistry = projectcmd.DispatcherRegistry

// NewDispatcherRegistry returns a registry for RegisterCommands.
var NewDispatcherRegistry = projectcmd.NewDispatcherRegistry

// Commands builds the command handlers. User facing output such as build
// diffs and the deploy URL goes to out, or stdout when nil.
func (m *Module) Commands(out io.Writer) (*Commands, error) {
	return m.RegisterCommands(nil, out)
}

// RegisterCommands builds the command handlers and registers them with reg.
func (m *Module) RegisterCommands(reg CommandRegistry, out io.Writer) (*Commands, error) {
	if out == nil {
		out = os.Stdout
	}
	c := m.container
	return projectcmd.RegisterProjectCommands(reg, projectcmd.Dependencies{
		Scaffolder: c.Scaffolder(),
		Prompter:   c.Prompter(),
		Extractor:  c.Extractor(),
		Builder:    c.Generator(),
		Deployer:   c.Deployer(),
		Server:     c.Server(),
		Watcher:    c.Watcher(),
		Cache:      c.Descriptors(),
		Out:        out,
	}, c.LoggerProvider())
}
