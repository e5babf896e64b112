package components

import (
	"bytes"
	"io/fs"
	"strings"
	"testing"

	"github.com/goliatone/go-ike/pkg/interfaces"
)

func newTestRenderer(t *testing.T, opts ...Option) *Renderer {
	t.Helper()
	r, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestFunctionReferenceLoadingState(t *testing.T) {
	html, err := newTestRenderer(t).FunctionReference(nil)
	if err != nil {
		t.Fatalf("FunctionReference: %v", err)
	}
	out := string(html)

	if !strings.Contains(out, "<h1>Loading</h1>") {
		t.Fatalf("expected loading heading, got %s", out)
	}
	if !strings.Contains(out, `<code class="language-go">Loading</code>`) {
		t.Fatalf("expected loading signature, got %s", out)
	}
	if strings.Count(out, "No arguments available.") != 2 {
		t.Fatalf("expected placeholder for arguments and examples, got %s", out)
	}
	if !strings.Contains(out, "<h2>Returns</h2>\n  <p>Loading</p>") {
		t.Fatalf("expected loading returns, got %s", out)
	}
}

func TestFunctionReferenceLoaded(t *testing.T) {
	descriptor := &interfaces.FunctionDescriptor{
		Name:      "ike.Init",
		Signature: "ike.Init(dir string, force bool) error",
		Summary:   interfaces.StringPtr("Init scaffolds a project."),
		Args: []interfaces.Arg{
			{Name: "dir", Type: interfaces.StringPtr("string"), Desc: interfaces.StringPtr("Target directory.")},
			{Name: "force"},
		},
		Returns: interfaces.StringPtr("An error when <scaffolding> fails."),
		Examples: []interfaces.Example{
			{Desc: interfaces.StringPtr("Basic use."), Code: `ike.Init(".", false)`},
		},
	}

	html, err := newTestRenderer(t, WithCodeLanguage("python")).FunctionReference(descriptor)
	if err != nil {
		t.Fatalf("FunctionReference: %v", err)
	}
	out := string(html)

	for _, want := range []string{
		"<h1>ike.Init</h1>",
		`data-language="python"`,
		"<p>Init scaffolds a project.</p>",
		"<li><b>dir</b>: string - Target directory.</li>",
		"<li><b>force</b>: any - </li>",
		"An error when &lt;scaffolding&gt; fails.",
		"<p>Basic use.</p>",
		"ike.Init(&#34;.&#34;, false)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got %s", want, out)
		}
	}
	if strings.Contains(out, "No arguments available.") {
		t.Fatalf("expected no placeholders, got %s", out)
	}
}

func TestNewFunctionViewPartialDescriptor(t *testing.T) {
	view := NewFunctionView(&interfaces.FunctionDescriptor{Name: "partial"}, "go")
	if view.Name != "partial" || view.Signature != loadingText || view.Summary != loadingText {
		t.Fatalf("unexpected view %#v", view)
	}
	if view.Desc != "" || view.Returns != loadingText {
		t.Fatalf("unexpected desc or returns %#v", view)
	}
}

func TestFile(t *testing.T) {
	r := newTestRenderer(t)

	html, err := r.File(map[string]any{"count": 2, "name": "a&b"}, true)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	out := string(html)
	if !strings.Contains(out, "<h1>Local File Data:</h1>") {
		t.Fatalf("expected heading, got %s", out)
	}
	if !strings.Contains(out, "{\n  &#34;count&#34;: 2,\n  &#34;name&#34;: &#34;a&amp;b&#34;\n}") {
		t.Fatalf("expected pretty JSON, got %s", out)
	}

	html, err = r.File(nil, false)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if !strings.Contains(string(html), "Loading...") || strings.Contains(string(html), "<pre>") {
		t.Fatalf("expected loading state, got %s", html)
	}
}

func TestSideNav(t *testing.T) {
	sections := []interfaces.Section{
		{Heading: "Guides", Links: []interfaces.Link{
			{Href: "/docs", Title: "Overview"},
			{Href: "/docs/install", Title: "Install"},
		}},
		{Links: []interfaces.Link{{Href: "/reference/ike.Init", Title: "Init"}}},
	}

	html, err := newTestRenderer(t).SideNav(sections, "/docs/install")
	if err != nil {
		t.Fatalf("SideNav: %v", err)
	}
	out := string(html)
	if !strings.Contains(out, `<li class="active"><a href="/docs/install">Install</a></li>`) {
		t.Fatalf("expected active link, got %s", out)
	}
	if !strings.Contains(out, `<li class=""><a href="/docs">Overview</a></li>`) {
		t.Fatalf("expected inactive link, got %s", out)
	}
	if strings.Count(out, "<span>") != 1 {
		t.Fatalf("expected only one section heading, got %s", out)
	}
	if strings.Index(out, "Overview") > strings.Index(out, "Install") {
		t.Fatalf("expected link order preserved, got %s", out)
	}
}

func TestTableOfContents(t *testing.T) {
	r := newTestRenderer(t)
	headings := []interfaces.Heading{
		{ID: "title", Level: 1, Title: "Title"},
		{ID: "install", Level: 2, Title: "Install"},
		{ID: "flags", Level: 3, Title: "Flags"},
		{ID: "deep", Level: 4, Title: "Deep"},
	}

	html, err := r.TableOfContents(headings)
	if err != nil {
		t.Fatalf("TableOfContents: %v", err)
	}
	out := string(html)
	if !strings.Contains(out, `<a href="#install">Install</a>`) || !strings.Contains(out, `class="level-3"`) {
		t.Fatalf("expected level 2 and 3 entries, got %s", out)
	}
	if strings.Contains(out, "#title") || strings.Contains(out, "#deep") {
		t.Fatalf("expected other levels filtered, got %s", out)
	}

	html, err = r.TableOfContents(headings[:2])
	if err != nil {
		t.Fatalf("TableOfContents: %v", err)
	}
	if strings.Contains(string(html), "<nav") {
		t.Fatalf("expected no toc for a single entry, got %s", html)
	}
}

func TestTopNav(t *testing.T) {
	html, err := newTestRenderer(t, WithBrand("Acme")).TopNav()
	if err != nil {
		t.Fatalf("TopNav: %v", err)
	}
	out := string(html)
	if !strings.Contains(out, `<a class="brand" href="/">Acme</a>`) || !strings.Contains(out, `<a href="/docs">Docs</a>`) {
		t.Fatalf("unexpected top nav %s", out)
	}
}

func TestPageDefaults(t *testing.T) {
	var buf bytes.Buffer
	err := newTestRenderer(t).Page(&buf, PageView{
		CurrentPath: "/docs",
		Content:     "<p>Hello</p>",
	})
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"<title>Markdoc</title>",
		`<meta name="description" content="A powerful, flexible, Markdown-based authoring framework">`,
		`<meta name="referrer" content="strict-origin">`,
		`<link rel="stylesheet" href="/_ike/ike.css">`,
		"<p>Hello</p>",
		`<nav class="sidenav">`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected page to contain %q, got %s", want, out)
		}
	}
}

func TestPageUsesFrontMatter(t *testing.T) {
	var buf bytes.Buffer
	err := newTestRenderer(t).Page(&buf, PageView{Title: "Install", Description: "How to install"})
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<title>Install</title>") || !strings.Contains(out, `content="How to install"`) {
		t.Fatalf("expected frontmatter title and description, got %s", out)
	}
}

func TestStatic(t *testing.T) {
	data, err := fs.ReadFile(Static(), "ike.css")
	if err != nil {
		t.Fatalf("read stylesheet: %v", err)
	}
	if !strings.Contains(string(data), ".sidenav") {
		t.Fatal("expected stylesheet content")
	}
}
