package scaffold

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestInitFromEmbeddedStarter(t *testing.T) {
	dir := t.TempDir()
	result, err := New(nil, nil).Init(context.Background(), Options{Dir: dir, Package: "mathlib"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if len(result.Skipped) != 0 {
		t.Fatalf("unexpected skipped files %v", result.Skipped)
	}

	for _, rel := range []string{"ike.yaml", "index.md", "docs/index.md", "public/data.json", ".gitignore"} {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(rel))); err != nil {
			t.Fatalf("expected %s: %v", rel, err)
		}
	}
	if cfg := readFile(t, filepath.Join(dir, "ike.yaml")); !strings.Contains(cfg, "package: mathlib") {
		t.Fatalf("package not rendered into ike.yaml:\n%s", cfg)
	}
	if _, err := os.Stat(filepath.Join(dir, "ike.yaml.tmpl")); !os.IsNotExist(err) {
		t.Fatalf("template suffix should be stripped")
	}
}

func TestInitNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.md"), []byte("# Mine\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	result, err := New(nil, nil).Init(context.Background(), Options{Dir: dir, Package: "mathlib"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != "index.md" {
		t.Fatalf("expected index.md skipped, got %v", result.Skipped)
	}
	if got := readFile(t, filepath.Join(dir, "index.md")); got != "# Mine\n" {
		t.Fatalf("existing page overwritten: %q", got)
	}
}

func TestInitRequiresPackage(t *testing.T) {
	if _, err := New(nil, nil).Init(context.Background(), Options{Dir: t.TempDir()}); !errors.Is(err, ErrPackageRequired) {
		t.Fatalf("expected ErrPackageRequired, got %v", err)
	}
}

func buildArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create entry: %v", err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("write entry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestInitFromStarterURL(t *testing.T) {
	archive := buildArchive(t, map[string]string{
		"ike-docs-main/README.md":             "repo readme",
		"ike-docs-main/starter/ike.yaml.tmpl": "package: {{ .Package }}\n",
		"ike-docs-main/starter/docs/a.md":     "# A\n",
	})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(archive)
	}))
	defer server.Close()

	dir := t.TempDir()
	result, err := New(server.Client(), nil).Init(context.Background(), Options{
		Dir:        dir,
		Package:    "mathlib",
		StarterURL: server.URL + "/main.zip",
		StarterDir: "starter",
	})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if len(result.Created) != 2 {
		t.Fatalf("expected 2 files, got %v", result.Created)
	}
	if got := readFile(t, filepath.Join(dir, "ike.yaml")); got != "package: mathlib\n" {
		t.Fatalf("unexpected ike.yaml %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "README.md")); !os.IsNotExist(err) {
		t.Fatalf("files outside the starter dir should be ignored")
	}
}

func TestInitStarterURLFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := New(server.Client(), nil).Init(context.Background(), Options{
		Dir:        t.TempDir(),
		Package:    "mathlib",
		StarterURL: server.URL,
	})
	if !errors.Is(err, ErrDownloadFailed) {
		t.Fatalf("expected ErrDownloadFailed, got %v", err)
	}
}

func TestStarterFromArchiveRejectsTraversal(t *testing.T) {
	data := buildArchive(t, map[string]string{"../evil.txt": "x"})
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		t.Fatalf("open zip: %v", err)
	}
	if _, err := starterFromArchive(reader, ""); !errors.Is(err, errUnsafePath) {
		t.Fatalf("expected errUnsafePath, got %v", err)
	}
}

func TestSyncSiteConfig(t *testing.T) {
	project := t.TempDir()
	public := filepath.Join(project, "public")
	if err := os.WriteFile(filepath.Join(project, "ike.yaml"), []byte("sidebar: []\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := SyncSiteConfig(project, public, nil); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if got := readFile(t, filepath.Join(public, "ike.yaml")); got != "sidebar: []\n" {
		t.Fatalf("unexpected published config %q", got)
	}

	if err := os.Remove(filepath.Join(public, "ike.yaml")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := os.WriteFile(filepath.Join(public, "ike.yaml"), []byte("stale"), 0o644); err != nil {
		t.Fatalf("write stale: %v", err)
	}
	if err := SyncSiteConfig(project, public, nil); err != nil {
		t.Fatalf("resync: %v", err)
	}
	if got := readFile(t, filepath.Join(public, "ike.yaml")); got != "sidebar: []\n" {
		t.Fatalf("stale config not replaced: %q", got)
	}
}

func TestSyncSiteConfigMissingSource(t *testing.T) {
	if err := SyncSiteConfig(t.TempDir(), t.TempDir(), nil); err == nil {
		t.Fatalf("expected error for missing ike.yaml")
	}
}
