package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type writeCategory string

const (
	categoryPage     writeCategory = "page"
	categoryAsset    writeCategory = "asset"
	categorySitemap  writeCategory = "sitemap"
	categoryRobots   writeCategory = "robots"
	categoryManifest writeCategory = "manifest"
)

// writeFileRequest describes a file write operation routed through the artifact writer.
type writeFileRequest struct {
	Path        string
	Content     io.Reader
	Size        int64
	Category    writeCategory
	ContentType string
	Checksum    string
}

// artifactWriter abstracts where generator outputs land. Paths are slash
// separated and relative to the writer root.
type artifactWriter interface {
	EnsureDir(ctx context.Context, path string) error
	WriteFile(ctx context.Context, req writeFileRequest) error
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

func newArtifactWriter(root string, dryRun bool) artifactWriter {
	fsw := &fsWriter{root: root}
	if dryRun {
		return dryRunWriter{reader: fsw}
	}
	return fsw
}

type fsWriter struct {
	root string
}

func (w *fsWriter) resolve(rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return "", errors.New("generator: write requires path")
	}
	clean := path.Clean("/" + filepath.ToSlash(rel))
	return filepath.Join(w.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

func (w *fsWriter) EnsureDir(_ context.Context, dir string) error {
	if strings.TrimSpace(dir) == "" || dir == "." {
		return os.MkdirAll(w.root, 0o755)
	}
	target, err := w.resolve(dir)
	if err != nil {
		return err
	}
	return os.MkdirAll(target, 0o755)
}

func (w *fsWriter) WriteFile(ctx context.Context, req writeFileRequest) error {
	if req.Content == nil {
		return errors.New("generator: write requires content reader")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := w.resolve(req.Path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("generator: create %s: %w", filepath.Dir(target), err)
	}
	file, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("generator: create %s: %w", target, err)
	}
	if _, err := io.Copy(file, req.Content); err != nil {
		_ = file.Close()
		return fmt.Errorf("generator: write %s: %w", target, err)
	}
	return file.Close()
}

func (w *fsWriter) ReadFile(_ context.Context, rel string) ([]byte, error) {
	target, err := w.resolve(rel)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(target)
}

// dryRunWriter reads existing output but discards writes.
type dryRunWriter struct {
	reader artifactWriter
}

func (dryRunWriter) EnsureDir(context.Context, string) error { return nil }

func (d dryRunWriter) WriteFile(_ context.Context, req writeFileRequest) error {
	if req.Content == nil {
		return errors.New("generator: write requires content reader")
	}
	_, err := io.Copy(io.Discard, req.Content)
	return err
}

func (d dryRunWriter) ReadFile(ctx context.Context, rel string) ([]byte, error) {
	return d.reader.ReadFile(ctx, rel)
}
