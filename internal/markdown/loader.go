package markdown

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-ike/pkg/interfaces"
)

// ErrPageNotFound reports a route with no backing Markdown file.
var ErrPageNotFound = errors.New("markdown: page not found")

// LoaderConfig configures how Markdown files are discovered under the pages
// directory.
type LoaderConfig struct {
	// BasePath is the pages directory on disk, used to relativise absolute
	// paths.
	BasePath string
	// Pattern limits discovered files (defaults to "*.md").
	Pattern string
	// Recursive controls whether sub-directories are traversed.
	Recursive bool
	// Exclude lists directories, relative to BasePath, that never hold pages.
	Exclude []string
}

// Loader turns page files into documents with a route.
type Loader struct {
	fs        fs.FS
	basePath  string
	pattern   string
	recursive bool
	exclude   map[string]struct{}
}

var defaultExcludes = []string{"node_modules", "vendor"}

func NewLoader(filesystem fs.FS, cfg LoaderConfig) *Loader {
	pattern := cfg.Pattern
	if strings.TrimSpace(pattern) == "" {
		pattern = "*.md"
	}

	exclude := map[string]struct{}{}
	for _, dir := range append(append([]string(nil), defaultExcludes...), cfg.Exclude...) {
		clean := path.Clean(filepath.ToSlash(strings.TrimSpace(dir)))
		if clean == "" || clean == "." || strings.HasPrefix(clean, "..") {
			continue
		}
		exclude[clean] = struct{}{}
	}

	return &Loader{
		fs:        filesystem,
		basePath:  filepath.Clean(cfg.BasePath),
		pattern:   pattern,
		recursive: cfg.Recursive,
		exclude:   exclude,
	}
}

// RouteFor maps a page file to its route: index.md is served at /,
// docs/index.md at /docs and docs/a.md at /docs/a.
func RouteFor(rel string) string {
	rel = strings.TrimPrefix(path.Clean(filepath.ToSlash(rel)), "/")
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	if rel == "index" {
		return "/"
	}
	rel = strings.TrimSuffix(rel, "/index")
	return "/" + rel
}

// CandidatesFor lists the files that can back route, in lookup order.
func CandidatesFor(route string) []string {
	clean := strings.Trim(path.Clean("/"+strings.TrimSpace(route)), "/")
	if clean == "" {
		return []string{"index.md"}
	}
	return []string{clean + ".md", clean + "/index.md"}
}

// LoadFile reads and parses a single page.
func (l *Loader) LoadFile(ctx context.Context, filePath string) (*DocumentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel, err := l.makeRelative(filePath)
	if err != nil {
		return nil, err
	}
	rel = filepath.ToSlash(rel)

	data, err := fs.ReadFile(l.fs, rel)
	if err != nil {
		return nil, fmt.Errorf("markdown loader read %s: %w", rel, err)
	}
	info, err := fs.Stat(l.fs, rel)
	if err != nil {
		return nil, fmt.Errorf("markdown loader stat %s: %w", rel, err)
	}

	doc, err := BuildDocument(rel, RouteFor(rel), data, info.ModTime())
	if err != nil {
		return nil, fmt.Errorf("markdown loader %s: %w", rel, err)
	}
	sum := sha256.Sum256(data)
	doc.Checksum = sum[:]

	return &DocumentResult{Document: doc, Source: data}, nil
}

// LoadRoute loads the page served at route.
func (l *Loader) LoadRoute(ctx context.Context, route string) (*DocumentResult, error) {
	for _, candidate := range CandidatesFor(route) {
		if l.excluded(path.Dir(candidate)) {
			continue
		}
		info, err := fs.Stat(l.fs, candidate)
		if err != nil || info.IsDir() {
			continue
		}
		return l.LoadFile(ctx, candidate)
	}
	return nil, fmt.Errorf("%w: %s", ErrPageNotFound, route)
}

// LoadDirectory discovers every page under dir, sorted by file path.
func (l *Loader) LoadDirectory(ctx context.Context, dir string, opts LoadParams) ([]*DocumentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := l.makeRelative(dir)
	if err != nil {
		return nil, err
	}
	root = filepath.ToSlash(filepath.Clean(root))

	var results []*DocumentResult
	walkErr := fs.WalkDir(l.fs, root, func(current string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if current != root && (l.excluded(current) || !l.shouldRecurse(opts.Recursive)) {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !l.matchesPattern(current, opts.Pattern) {
			return nil
		}

		result, err := l.LoadFile(ctx, current)
		if err != nil {
			return err
		}
		results = append(results, result)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Document.FilePath < results[j].Document.FilePath
	})
	return results, nil
}

// excluded reports whether dir is hidden (.ike, .cache, .git), starts with
// an underscore or sits under a configured exclude.
func (l *Loader) excluded(dir string) bool {
	dir = path.Clean(dir)
	if dir == "." {
		return false
	}
	for _, segment := range strings.Split(dir, "/") {
		if strings.HasPrefix(segment, ".") || strings.HasPrefix(segment, "_") {
			return true
		}
	}
	for prefix := range l.exclude {
		if dir == prefix || strings.HasPrefix(dir, prefix+"/") {
			return true
		}
	}
	return false
}

func (l *Loader) shouldRecurse(override *bool) bool {
	if override != nil {
		return *override
	}
	return l.recursive
}

func (l *Loader) matchesPattern(filePath string, override string) bool {
	pattern := override
	if strings.TrimSpace(pattern) == "" {
		pattern = l.pattern
	}
	pattern = filepath.ToSlash(pattern)
	if strings.Contains(pattern, "**") {
		pattern = strings.ReplaceAll(pattern, "**/", "")
	}
	target := filePath
	if !strings.Contains(pattern, "/") {
		target = path.Base(filePath)
	}
	match, err := path.Match(pattern, target)
	return err == nil && match
}

func (l *Loader) makeRelative(p string) (string, error) {
	clean := filepath.Clean(p)
	if !filepath.IsAbs(clean) {
		return clean, nil
	}
	if l.basePath == "" || l.basePath == "." {
		return "", fmt.Errorf("markdown loader: absolute path %s provided without base path", p)
	}
	rel, err := filepath.Rel(l.basePath, clean)
	if err != nil {
		return "", fmt.Errorf("markdown loader: make relative %s: %w", p, err)
	}
	return rel, nil
}

// DocumentResult carries the parsed document along with the raw source.
type DocumentResult struct {
	Document *interfaces.Document
	Source   []byte
}

// LoadParams provide call-specific overrides for discovery.
type LoadParams struct {
	Pattern   string
	Recursive *bool
}
