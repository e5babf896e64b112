package projectcmd

import (
	"context"

	command "github.com/goliatone/go-command"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-ike/internal/commands"
	"github.com/goliatone/go-ike/internal/descriptors"
	"github.com/goliatone/go-ike/internal/logging"
	"github.com/goliatone/go-ike/internal/scaffold"
	"github.com/goliatone/go-ike/internal/watch"
	"github.com/goliatone/go-ike/pkg/interfaces"
)

const devOperation = "project.dev"

var _ command.Commander[DevCommand] = (*DevHandler)(nil)

// DevServer serves the site until its context ends.
type DevServer interface {
	Start(ctx context.Context) error
	Reload(ctx context.Context) error
}

// Watcher reports project changes until its context ends.
type Watcher interface {
	Run(ctx context.Context, handle watch.Handler) error
}

// CacheInvalidator drops cached descriptors by public relative path.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, path string) error
}

// DevDependencies lists the collaborators of the dev command. Extractor
// may be nil when extraction is skipped and Watcher when watching is off.
type DevDependencies struct {
	Server    DevServer
	Watcher   Watcher
	Cache     CacheInvalidator
	Extractor Extractor
	Sync      SyncFunc
	Logger    interfaces.Logger
}

// DevHandler runs the local development loop.
type DevHandler struct {
	inner *commands.Handler[DevCommand]
}

// NewDevHandler builds a handler without a timeout; it returns once the
// context is cancelled or the server fails.
func NewDevHandler(deps DevDependencies, opts ...commands.HandlerOption[DevCommand]) *DevHandler {
	baseLogger := commands.EnsureLogger(deps.Logger)
	sync := deps.Sync
	if sync == nil {
		sync = scaffold.SyncSiteConfig
	}
	loop := &devLoop{deps: deps, sync: sync, logger: baseLogger}

	handlerOpts := []commands.HandlerOption[DevCommand]{
		commands.WithLogger[DevCommand](baseLogger),
		commands.WithOperation[DevCommand](devOperation),
		commands.WithTimeout[DevCommand](0),
		commands.WithMessageFields(func(msg DevCommand) map[string]any {
			return map[string]any{
				"project": msg.ProjectDir,
				"watch":   msg.Watch,
			}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[DevCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &DevHandler{inner: commands.NewHandler(loop.run, handlerOpts...)}
}

// Execute satisfies command.Commander[DevCommand].
func (h *DevHandler) Execute(ctx context.Context, msg DevCommand) error {
	return h.inner.Execute(ctx, msg)
}

type devLoop struct {
	deps   DevDependencies
	sync   SyncFunc
	logger interfaces.Logger
}

func (l *devLoop) run(ctx context.Context, msg DevCommand) error {
	if err := requireProject(msg.ProjectDir); err != nil {
		return err
	}
	if !msg.SkipExtract && l.deps.Extractor != nil {
		written, err := l.deps.Extractor.ExtractTo(ctx, msg.SourceDir, msg.APIDir)
		if err != nil {
			return err
		}
		logging.WithFields(l.logger, map[string]any{"functions": len(written)}).Info("project.dev.extracted")
	}
	publicDir := resolvePublicDir(msg.ProjectDir, msg.PublicDir)
	if err := l.sync(msg.ProjectDir, publicDir, l.logger); err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return l.deps.Server.Start(groupCtx)
	})
	if msg.Watch && l.deps.Watcher != nil {
		group.Go(func() error {
			return l.deps.Watcher.Run(groupCtx, func(ctx context.Context, changes []watch.Change) {
				l.apply(ctx, msg.ProjectDir, publicDir, changes)
			})
		})
	}
	return group.Wait()
}

// apply refreshes whatever the changed files feed. Failures are logged so
// the loop keeps running.
func (l *devLoop) apply(ctx context.Context, projectDir, publicDir string, changes []watch.Change) {
	reload := false
	for _, change := range changes {
		logger := logging.WithFields(l.logger, map[string]any{
			"path":    change.Path,
			"kind":    string(change.Kind),
			"removed": change.Removed,
		})
		switch change.Kind {
		case watch.KindDescriptor:
			l.invalidate(ctx, logger, change.Public)
		case watch.KindSiteConfig:
			reload = true
		case watch.KindPage:
			logger.Info("project.dev.page.changed")
		}
	}
	if !reload {
		return
	}

	if err := l.sync(projectDir, publicDir, l.logger); err != nil {
		logging.WithFields(l.logger, map[string]any{"error": err}).Warn("project.dev.sync.failed")
	}
	l.invalidate(ctx, l.logger, descriptors.SiteConfigPath)
	if err := l.deps.Server.Reload(ctx); err != nil {
		logging.WithFields(l.logger, map[string]any{"error": err}).Warn("project.dev.reload.failed")
		return
	}
	l.logger.Info("project.dev.site_config.reloaded")
}

func (l *devLoop) invalidate(ctx context.Context, logger interfaces.Logger, path string) {
	if l.deps.Cache == nil || path == "" {
		return
	}
	if err := l.deps.Cache.Invalidate(ctx, path); err != nil {
		logging.WithFields(logger, map[string]any{"error": err}).Warn("project.dev.invalidate.failed")
		return
	}
	logging.WithFields(logger, map[string]any{"descriptor": path}).Debug("project.dev.invalidated")
}
