// Package scaffold lays out a new ike project and keeps its published
// configuration in sync.
package scaffold

import (
	"archive/zip"
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/goliatone/go-ike/internal/logging"
	"github.com/goliatone/go-ike/pkg/interfaces"
)

//go:embed starter
var starterFS embed.FS

const templateSuffix = ".tmpl"

var (
	// ErrPackageRequired is returned when Init has no package name.
	ErrPackageRequired = errors.New("scaffold: package name is required")
	// ErrDownloadFailed wraps non-200 answers from the starter URL.
	ErrDownloadFailed = errors.New("scaffold: starter download failed")
	errUnsafePath     = errors.New("scaffold: unsafe archive path")
)

// renamed maps starter names that cannot be embedded as is.
var renamed = map[string]string{
	"gitignore": ".gitignore",
}

// Options describes one Init run.
type Options struct {
	Dir     string
	Package string
	// StarterURL downloads a zip archive instead of using the embedded
	// starter.
	StarterURL string
	// StarterDir selects a subdirectory of the archive. GitHub style
	// archives with a single top level folder are unwrapped first.
	StarterDir string
}

// Result lists the files written and the files left untouched.
type Result struct {
	Created []string
	Skipped []string
}

// Scaffolder writes starter projects.
type Scaffolder struct {
	http   *http.Client
	logger interfaces.Logger
}

func New(httpClient *http.Client, logger interfaces.Logger) *Scaffolder {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Scaffolder{http: httpClient, logger: logger}
}

// Init copies the starter into opts.Dir. Files that already exist are
// warned about and skipped, never overwritten.
func (s *Scaffolder) Init(ctx context.Context, opts Options) (*Result, error) {
	pkg := strings.TrimSpace(opts.Package)
	if pkg == "" {
		return nil, ErrPackageRequired
	}
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		dir = "."
	}

	source, err := s.starter(ctx, opts)
	if err != nil {
		return nil, err
	}

	logging.WithFields(s.logger, map[string]any{"dir": dir, "package": pkg}).Info("scaffold.init.start")

	files, err := listFiles(source)
	if err != nil {
		return nil, err
	}
	data := map[string]string{"Package": pkg}
	result := &Result{}
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		content, err := fs.ReadFile(source, name)
		if err != nil {
			return result, fmt.Errorf("scaffold: read %s: %w", name, err)
		}
		rel := targetName(name)
		if strings.HasSuffix(name, templateSuffix) {
			content, err = render(name, content, data)
			if err != nil {
				return result, err
			}
		}

		target := filepath.Join(dir, filepath.FromSlash(rel))
		if _, err := os.Stat(target); err == nil {
			logging.WithFields(s.logger, map[string]any{"path": target}).Warn("scaffold.file.exists")
			result.Skipped = append(result.Skipped, rel)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return result, fmt.Errorf("scaffold: create %s: %w", filepath.Dir(target), err)
		}
		if err := os.WriteFile(target, content, 0o644); err != nil {
			return result, fmt.Errorf("scaffold: write %s: %w", target, err)
		}
		result.Created = append(result.Created, rel)
	}

	logging.WithFields(s.logger, map[string]any{
		"created": len(result.Created),
		"skipped": len(result.Skipped),
	}).Info("scaffold.init.completed")
	return result, nil
}

func (s *Scaffolder) starter(ctx context.Context, opts Options) (fs.FS, error) {
	if strings.TrimSpace(opts.StarterURL) == "" {
		return fs.Sub(starterFS, "starter")
	}
	archive, err := s.download(ctx, opts.StarterURL)
	if err != nil {
		return nil, err
	}
	return starterFromArchive(archive, opts.StarterDir)
}

func (s *Scaffolder) download(ctx context.Context, url string) (*zip.Reader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("scaffold: build request: %w", err)
	}
	logging.WithFields(s.logger, map[string]any{"url": url}).Debug("scaffold.download.start")
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scaffold: download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrDownloadFailed, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("scaffold: read archive: %w", err)
	}
	reader, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("%w: %v", errUnsafePath, err)
	}
	if err != nil {
		return nil, fmt.Errorf("scaffold: open archive: %w", err)
	}
	return reader, nil
}

// starterFromArchive narrows a zip to the starter tree.
func starterFromArchive(archive *zip.Reader, subdir string) (fs.FS, error) {
	for _, file := range archive.File {
		name := strings.TrimPrefix(file.Name, "./")
		if strings.HasPrefix(name, "/") || strings.Contains(name, `\`) || !fs.ValidPath(strings.TrimSuffix(name, "/")) {
			return nil, fmt.Errorf("%w: %q", errUnsafePath, file.Name)
		}
	}

	var root fs.FS = archive
	if top, ok := singleTopLevel(archive); ok {
		sub, err := fs.Sub(archive, top)
		if err != nil {
			return nil, err
		}
		root = sub
	}
	subdir = strings.Trim(path.Clean("/"+strings.TrimSpace(subdir)), "/")
	if subdir != "" {
		return fs.Sub(root, subdir)
	}
	return root, nil
}

func singleTopLevel(archive *zip.Reader) (string, bool) {
	top := ""
	for _, file := range archive.File {
		first, rest, nested := strings.Cut(file.Name, "/")
		if !nested || (rest == "" && !file.FileInfo().IsDir()) {
			return "", false
		}
		if top == "" {
			top = first
		} else if top != first {
			return "", false
		}
	}
	return top, top != ""
}

func listFiles(source fs.FS) ([]string, error) {
	var files []string
	err := fs.WalkDir(source, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scaffold: list starter: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

func targetName(name string) string {
	name = strings.TrimSuffix(name, templateSuffix)
	dir, base := path.Split(name)
	if alias, ok := renamed[base]; ok {
		base = alias
	}
	return dir + base
}

func render(name string, content []byte, data any) ([]byte, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("scaffold: parse %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("scaffold: render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
