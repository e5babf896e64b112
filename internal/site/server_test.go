package site

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-ike/internal/components"
	"github.com/goliatone/go-ike/internal/descriptors"
	"github.com/goliatone/go-ike/internal/markdown"
)

const siteYAML = `package: ike
sidebar:
  - heading: Docs
    links:
      - href: /docs
        title: Overview
      - href: /reference/ike.Init
        title: Init
`

func testPublic() fstest.MapFS {
	return fstest.MapFS{
		"ike.yaml":          {Data: []byte(siteYAML)},
		"api/ike.Init.json": {Data: []byte(`{"name":"ike.Init","signature":"ike.Init(dir string) error","summary":"Init scaffolds a project.","args":[{"name":"dir","type":"string"}],"examples":[]}`)},
		"favicon.ico":       {Data: []byte("icon")},
	}
}

func testPages() fstest.MapFS {
	return fstest.MapFS{
		"index.md":      {Data: []byte("---\ntitle: Home\n---\n# Welcome\n\nHello from the home page.\n")},
		"docs/index.md": {Data: []byte("# Overview\n\n## Install\n\n## Usage\n")},
	}
}

func newTestServer(t *testing.T, opts ...ServerOption) (*Server, *Renderer) {
	t.Helper()

	pages, err := markdown.NewService(markdown.Config{Recursive: true}, markdown.WithFS(testPages()))
	if err != nil {
		t.Fatalf("markdown.NewService: %v", err)
	}
	views, err := components.New()
	if err != nil {
		t.Fatalf("components.New: %v", err)
	}
	public := testPublic()
	client := descriptors.NewClient(descriptors.NewFSSource(public))

	renderer := NewRenderer(pages, client, views, nil)
	if err := renderer.LoadSiteConfig(context.Background()); err != nil {
		t.Fatalf("LoadSiteConfig: %v", err)
	}
	return NewServer(Config{Metrics: true}, renderer, public, opts...), renderer
}

func get(t *testing.T, handler http.Handler, target string) (*http.Response, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	res := rec.Result()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, string(body)
}

func TestServerRendersPages(t *testing.T) {
	server, _ := newTestServer(t)

	res, body := get(t, server.Handler(), "/")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if !strings.Contains(body, "<title>Home</title>") || !strings.Contains(body, "Hello from the home page.") {
		t.Fatalf("unexpected home page %s", body)
	}

	res, body = get(t, server.Handler(), "/docs")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if !strings.Contains(body, "<title>Markdoc</title>") {
		t.Fatalf("expected default title, got %s", body)
	}
	if !strings.Contains(body, `<li class="active"><a href="/docs">Overview</a></li>`) {
		t.Fatalf("expected active sidebar link, got %s", body)
	}
	if !strings.Contains(body, `<a href="#install">Install</a>`) {
		t.Fatalf("expected table of contents, got %s", body)
	}
}

func TestServerMissingPage(t *testing.T) {
	server, _ := newTestServer(t)

	res, body := get(t, server.Handler(), "/docs/missing")
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.StatusCode)
	}
	if !strings.Contains(body, "Page not found") {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestServerReferencePages(t *testing.T) {
	server, _ := newTestServer(t)

	_, body := get(t, server.Handler(), "/reference/ike.Init")
	if !strings.Contains(body, "<h1>ike.Init</h1>") || !strings.Contains(body, "<b>dir</b>: string") {
		t.Fatalf("expected reference content, got %s", body)
	}
	if !strings.Contains(body, `<li class="active"><a href="/reference/ike.Init">Init</a></li>`) {
		t.Fatalf("expected active reference link, got %s", body)
	}

	res, body := get(t, server.Handler(), "/reference/missing")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected failed fetch to render, got %d", res.StatusCode)
	}
	if !strings.Contains(body, "<h1>Loading</h1>") {
		t.Fatalf("expected loading state, got %s", body)
	}

	_, body = get(t, server.Handler(), "/reference/")
	if !strings.Contains(body, "<p>Loading...</p>") {
		t.Fatalf("expected loading placeholder, got %s", body)
	}
}

func TestServerPublicFiles(t *testing.T) {
	server, _ := newTestServer(t)

	res, body := get(t, server.Handler(), "/api/ike.Init.json")
	if res.StatusCode != http.StatusOK || !strings.Contains(body, `"name":"ike.Init"`) {
		t.Fatalf("expected descriptor, got %d %s", res.StatusCode, body)
	}

	if res, _ := get(t, server.Handler(), "/api/nope.json"); res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for missing descriptor, got %d", res.StatusCode)
	}
	if res, _ := get(t, server.Handler(), "/.cache/nope.json"); res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for missing cached descriptor, got %d", res.StatusCode)
	}

	res, body = get(t, server.Handler(), "/ike.yaml")
	if res.StatusCode != http.StatusOK || !strings.Contains(body, "sidebar:") {
		t.Fatalf("expected site config, got %d %s", res.StatusCode, body)
	}

	res, body = get(t, server.Handler(), "/favicon.ico")
	if res.StatusCode != http.StatusOK || body != "icon" {
		t.Fatalf("expected public file, got %d %q", res.StatusCode, body)
	}

	res, body = get(t, server.Handler(), components.StylesheetPath)
	if res.StatusCode != http.StatusOK || !strings.Contains(body, ".sidenav") {
		t.Fatalf("expected bundled stylesheet, got %d", res.StatusCode)
	}
}

func TestServerHealthAndMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics, err := NewPrometheusMetrics(registry)
	if err != nil {
		t.Fatalf("NewPrometheusMetrics: %v", err)
	}
	server, _ := newTestServer(t, WithMetrics(metrics, registry))

	res, body := get(t, server.Handler(), "/healthz")
	if res.StatusCode != http.StatusOK || body != "ok" {
		t.Fatalf("unexpected health response %d %q", res.StatusCode, body)
	}

	_, body = get(t, server.Handler(), "/metrics")
	if !strings.Contains(body, `ike_site_requests_total{code="200",route="/healthz"} 1`) {
		t.Fatalf("expected request counter, got %s", body)
	}
}

func TestServerSiteConfigFailureLeavesEmptySidebar(t *testing.T) {
	pages, err := markdown.NewService(markdown.Config{}, markdown.WithFS(testPages()))
	if err != nil {
		t.Fatalf("markdown.NewService: %v", err)
	}
	views, err := components.New()
	if err != nil {
		t.Fatalf("components.New: %v", err)
	}
	client := descriptors.NewClient(descriptors.NewFSSource(fstest.MapFS{}))
	renderer := NewRenderer(pages, client, views, nil)

	if err := renderer.LoadSiteConfig(context.Background()); err == nil {
		t.Fatal("expected missing site config error")
	}
	if len(renderer.SiteConfig().Sidebar) != 0 {
		t.Fatalf("expected empty sidebar, got %#v", renderer.SiteConfig())
	}

	_, body := get(t, NewServer(Config{}, renderer, nil).Handler(), "/")
	if !strings.Contains(body, `<nav class="sidenav">`) {
		t.Fatalf("expected page to render without sidebar links, got %s", body)
	}
}

func TestServerStartStopsOnCancel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	server, _ := newTestServer(t, WithListener(listener))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Start(ctx) }()

	url := "http://" + listener.Addr().String() + "/healthz"
	var res *http.Response
	for i := 0; i < 50; i++ {
		res, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("GET healthz: %v", err)
	}
	res.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
