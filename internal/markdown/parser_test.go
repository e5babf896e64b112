package markdown

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-ike/pkg/interfaces"
)

func TestParseFrontMatter(t *testing.T) {
	data := readFixture(t, "testdata/basic.md")

	fm, body, err := ParseFrontMatter(data)
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}

	if fm.Title != "Getting started" {
		t.Fatalf("FrontMatter Title mismatch, got %q", fm.Title)
	}
	if fm.Description != "Install the toolkit and write a first page" {
		t.Fatalf("FrontMatter Description mismatch, got %q", fm.Description)
	}
	if len(fm.Tags) != 2 || fm.Tags[0] != "docs" {
		t.Fatalf("FrontMatter Tags mismatch: %#v", fm.Tags)
	}
	if fm.Custom["nav_order"] != 2 {
		t.Fatalf("FrontMatter Custom value missing: %#v", fm.Custom)
	}
	if fm.Raw["slug"] != "getting-started" || fm.Raw["draft"] != false {
		t.Fatalf("FrontMatter Raw mismatch: %#v", fm.Raw)
	}
	if !strings.Contains(string(body), "# Getting started") || strings.Contains(string(body), "---") {
		t.Fatalf("Markdown body not returned correctly: %q", string(body))
	}
}

func TestParseFrontMatterWithoutHeader(t *testing.T) {
	fm, body, err := ParseFrontMatter([]byte("# Plain\n"))
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}
	if fm.Title != "" || !strings.Contains(string(body), "# Plain") {
		t.Fatalf("unexpected result %#v %q", fm, string(body))
	}
}

func TestBuildDocument(t *testing.T) {
	data := readFixture(t, "testdata/basic.md")
	modified := time.Now().UTC()

	doc, err := BuildDocument("docs/start.md", "/docs/start", data, modified)
	if err != nil {
		t.Fatalf("BuildDocument: %v", err)
	}

	if doc.FilePath != "docs/start.md" || doc.Route != "/docs/start" {
		t.Fatalf("unexpected path or route: %q %q", doc.FilePath, doc.Route)
	}
	if doc.LastModified != modified {
		t.Fatalf("expected LastModified to equal the provided timestamp")
	}
	if len(doc.Body) == 0 {
		t.Fatalf("expected Body to contain markdown content")
	}
}

func TestGoldmarkParser_Parse(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})

	html, err := parser.Parse([]byte("# Heading\n\nHello **world**"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	got := string(html)
	if !strings.Contains(got, `<h1 id="heading">Heading</h1>`) {
		t.Fatalf("expected rendered HTML to include an anchored h1, got %q", got)
	}
	if !strings.Contains(got, "<strong>world</strong>") {
		t.Fatalf("expected rendered HTML to include <strong>, got %q", got)
	}
}

func TestGoldmarkParser_ParseWithOptions(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})

	html, err := parser.ParseWithOptions([]byte("line one\nline two"), interfaces.ParseOptions{
		HardWraps: true,
	})
	if err != nil {
		t.Fatalf("ParseWithOptions: %v", err)
	}
	if !strings.Contains(string(html), "line one<br>") {
		t.Fatalf("expected hard wraps in HTML output, got %q", string(html))
	}
}

func TestGoldmarkParser_SafeModeDropsRawHTML(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})
	source := []byte("<div class=\"raw\">kept?</div>\n")

	unsafe, err := parser.Parse(source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !strings.Contains(string(unsafe), `<div class="raw">`) {
		t.Fatalf("expected raw HTML by default, got %q", string(unsafe))
	}

	safe, err := parser.ParseWithOptions(source, interfaces.ParseOptions{SafeMode: true})
	if err != nil {
		t.Fatalf("ParseWithOptions: %v", err)
	}
	if strings.Contains(string(safe), `<div class="raw">`) {
		t.Fatalf("expected raw HTML to be omitted in safe mode, got %q", string(safe))
	}
}

func readFixture(tb testing.TB, path string) []byte {
	tb.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		tb.Fatalf("read fixture %s: %v", path, err)
	}
	return data
}
