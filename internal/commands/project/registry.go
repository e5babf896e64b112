package projectcmd

import (
	"errors"
	"io"

	"github.com/goliatone/go-ike/internal/commands"
	"github.com/goliatone/go-ike/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// Dependencies lists the services behind the project commands.
type Dependencies struct {
	Scaffolder Scaffolder
	Prompter   InputPrompter
	Extractor  Extractor
	Builder    Builder
	Deployer   Deployer
	Server     DevServer
	Watcher    Watcher
	Cache      CacheInvalidator
	// Sync defaults to scaffold.SyncSiteConfig.
	Sync SyncFunc
	// Out receives build diffs and the deploy URL.
	Out io.Writer
}

// HandlerSet groups the handlers produced by RegisterProjectCommands.
type HandlerSet struct {
	Init    *InitHandler
	Extract *ExtractHandler
	Dev     *DevHandler
	Build   *BuildHandler
	Deploy  *DeployHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	initOpts    []commands.HandlerOption[InitCommand]
	extractOpts []commands.HandlerOption[ExtractCommand]
	devOpts     []commands.HandlerOption[DevCommand]
	buildOpts   []commands.HandlerOption[BuildCommand]
	deployOpts  []commands.HandlerOption[DeployCommand]
}

func WithInitHandlerOptions(opts ...commands.HandlerOption[InitCommand]) Option {
	return func(cfg *options) { cfg.initOpts = append(cfg.initOpts, opts...) }
}

func WithExtractHandlerOptions(opts ...commands.HandlerOption[ExtractCommand]) Option {
	return func(cfg *options) { cfg.extractOpts = append(cfg.extractOpts, opts...) }
}

func WithDevHandlerOptions(opts ...commands.HandlerOption[DevCommand]) Option {
	return func(cfg *options) { cfg.devOpts = append(cfg.devOpts, opts...) }
}

func WithBuildHandlerOptions(opts ...commands.HandlerOption[BuildCommand]) Option {
	return func(cfg *options) { cfg.buildOpts = append(cfg.buildOpts, opts...) }
}

func WithDeployHandlerOptions(opts ...commands.HandlerOption[DeployCommand]) Option {
	return func(cfg *options) { cfg.deployOpts = append(cfg.deployOpts, opts...) }
}

// RegisterProjectCommands builds the project handlers and registers them
// with reg when it is not nil. The handler set is returned either way.
func RegisterProjectCommands(reg CommandRegistry, deps Dependencies, provider interfaces.LoggerProvider, opts ...Option) (*HandlerSet, error) {
	switch {
	case deps.Scaffolder == nil:
		return nil, errors.New("project command registration: scaffolder is nil")
	case deps.Extractor == nil:
		return nil, errors.New("project command registration: extractor is nil")
	case deps.Builder == nil:
		return nil, errors.New("project command registration: builder is nil")
	case deps.Deployer == nil:
		return nil, errors.New("project command registration: deployer is nil")
	case deps.Server == nil:
		return nil, errors.New("project command registration: dev server is nil")
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := commands.CommandLogger(provider, "project")
	set := &HandlerSet{
		Init:    NewInitHandler(deps.Scaffolder, deps.Prompter, deps.Sync, logger, cfg.initOpts...),
		Extract: NewExtractHandler(deps.Extractor, logger, cfg.extractOpts...),
		Dev: NewDevHandler(DevDependencies{
			Server:    deps.Server,
			Watcher:   deps.Watcher,
			Cache:     deps.Cache,
			Extractor: deps.Extractor,
			Sync:      deps.Sync,
			Logger:    logger,
		}, cfg.devOpts...),
		Build:  NewBuildHandler(deps.Builder, deps.Sync, deps.Out, logger, cfg.buildOpts...),
		Deploy: NewDeployHandler(deps.Deployer, deps.Out, logger, cfg.deployOpts...),
	}

	if reg != nil {
		for _, handler := range []any{set.Init, set.Extract, set.Dev, set.Build, set.Deploy} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}
