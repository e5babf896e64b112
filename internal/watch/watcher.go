// Package watch reports changes to the pages, descriptors and site
// configuration of a project while the dev server runs.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/goliatone/go-ike/internal/descriptors"
	"github.com/goliatone/go-ike/internal/logging"
	"github.com/goliatone/go-ike/pkg/interfaces"
)

// Kind classifies a changed file.
type Kind string

const (
	KindPage       Kind = "page"
	KindDescriptor Kind = "descriptor"
	KindSiteConfig Kind = "site_config"
)

const (
	defaultDebounce  = 150 * time.Millisecond
	defaultPublicDir = "public"
)

// Change is one file that was created, written, renamed or removed.
type Change struct {
	// Path is slash separated and relative to the watched root.
	Path string
	// Public is the path relative to the public directory, set for
	// descriptors.
	Public  string
	Kind    Kind
	Removed bool
}

// Handler receives the changes gathered during one debounce window.
type Handler func(ctx context.Context, changes []Change)

// Option configures a Watcher.
type Option func(*Watcher)

func WithLogger(logger interfaces.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebounce sets how long the watcher waits for more events before
// calling the handler.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithIgnore skips directories whose root relative path matches one of
// dirs, for example the build output.
func WithIgnore(dirs ...string) Option {
	return func(w *Watcher) {
		for _, dir := range dirs {
			dir = strings.Trim(filepath.ToSlash(filepath.Clean(strings.TrimSpace(dir))), "/")
			if dir != "" && dir != "." {
				w.ignore[dir] = struct{}{}
			}
		}
	}
}

// WithPublicDir sets the root relative directory holding descriptors.
func WithPublicDir(dir string) Option {
	return func(w *Watcher) {
		dir = strings.Trim(filepath.ToSlash(filepath.Clean(strings.TrimSpace(dir))), "/")
		if dir != "" && dir != "." {
			w.public = dir
		}
	}
}

// Watcher follows a project tree with fsnotify, adding directories as they
// appear.
type Watcher struct {
	root     string
	public   string
	logger   interfaces.Logger
	debounce time.Duration
	ignore   map[string]struct{}
}

func New(root string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(strings.TrimSpace(root))
	if err != nil {
		return nil, fmt.Errorf("watch: resolve %s: %w", root, err)
	}
	w := &Watcher{
		root:     abs,
		public:   defaultPublicDir,
		logger:   logging.NoOp(),
		debounce: defaultDebounce,
		ignore:   map[string]struct{}{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Run blocks until ctx is done, calling handle with each batch of relevant
// changes.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	if handle == nil {
		return errors.New("watch: handler is required")
	}
	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer notifier.Close()

	if err := w.addTree(notifier, w.root); err != nil {
		return err
	}
	logging.WithFields(w.logger, map[string]any{"root": w.root}).Info("watch.started")

	pending := map[string]Change{}
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-notifier.Errors:
			if !ok {
				return nil
			}
			logging.WithFields(w.logger, map[string]any{"error": err}).Warn("watch.error")
		case event, ok := <-notifier.Events:
			if !ok {
				return nil
			}
			change, relevant := w.handleEvent(notifier, event)
			if !relevant {
				continue
			}
			pending[change.Path] = change
			timer.Reset(w.debounce)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]Change, 0, len(pending))
			for _, change := range pending {
				batch = append(batch, change)
			}
			sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
			pending = map[string]Change{}
			logging.WithFields(w.logger, map[string]any{"changes": len(batch)}).Debug("watch.changes")
			handle(ctx, batch)
		}
	}
}

func (w *Watcher) handleEvent(notifier *fsnotify.Watcher, event fsnotify.Event) (Change, bool) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(notifier, event.Name); err != nil {
				logging.WithFields(w.logger, map[string]any{"error": err}).Warn("watch.add_failed")
			}
			return Change{}, false
		}
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return Change{}, false
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return Change{}, false
	}
	change, ok := classify(filepath.ToSlash(rel), w.public)
	if !ok {
		return Change{}, false
	}
	change.Removed = event.Op&(fsnotify.Remove|fsnotify.Rename) != 0
	return change, true
}

func (w *Watcher) addTree(notifier *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root && w.skip(p, d.Name()) {
			return filepath.SkipDir
		}
		if err := notifier.Add(p); err != nil {
			return fmt.Errorf("watch: add %s: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) skip(p, name string) bool {
	rel, err := filepath.Rel(w.root, p)
	if err == nil {
		if _, ok := w.ignore[filepath.ToSlash(rel)]; ok {
			return true
		}
	}
	if name == descriptors.CacheDir {
		return false
	}
	switch name {
	case "node_modules", "vendor":
		return true
	}
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

// Classify reports what a root relative path holds: Markdown pages,
// descriptor JSON under public/api or public/.cache, or the ike.yaml site
// configuration.
func Classify(rel string) (Kind, bool) {
	change, ok := classify(rel, defaultPublicDir)
	return change.Kind, ok
}

func classify(rel, publicDir string) (Change, bool) {
	rel = strings.TrimPrefix(filepath.ToSlash(rel), "./")
	switch {
	case rel == descriptors.SiteConfigPath:
		return Change{Path: rel, Kind: KindSiteConfig}, true
	case strings.HasSuffix(rel, ".md"):
		return Change{Path: rel, Kind: KindPage}, true
	}
	if public, ok := strings.CutPrefix(rel, publicDir+"/"); ok {
		if _, ok := descriptors.NameFromPath(public); ok || public == descriptors.DataPath {
			return Change{Path: rel, Public: public, Kind: KindDescriptor}, true
		}
	}
	return Change{}, false
}
