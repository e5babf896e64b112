package markdown

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-ike/internal/tags"
	"github.com/goliatone/go-ike/pkg/interfaces"
)

func TestServicePageRendersTagsAndHeadings(t *testing.T) {
	svc := newTestService(t, true)

	doc, err := svc.Page(context.Background(), "/docs/a")
	if err != nil {
		t.Fatalf("Page: %v", err)
	}

	html := string(doc.BodyHTML)
	if !strings.Contains(html, `<div class="callout callout-warning">`) {
		t.Fatalf("expected callout markup, got %q", html)
	}
	if !strings.Contains(html, "Mind the gap") {
		t.Fatalf("expected callout body, got %q", html)
	}
	if strings.Contains(html, "IKETAGPLACEHOLDER") || strings.Contains(html, "{%") {
		t.Fatalf("expected tags to be fully expanded, got %q", html)
	}
	if strings.Contains(html, "<p><div") {
		t.Fatalf("expected tag output outside a paragraph, got %q", html)
	}
	if !strings.Contains(html, `<h2 id="details">Details</h2>`) {
		t.Fatalf("expected anchored heading, got %q", html)
	}

	if len(doc.Headings) != 2 || doc.Headings[1].ID != "details" {
		t.Fatalf("unexpected headings %#v", doc.Headings)
	}
	if doc.FrontMatter.Title != "Page A" {
		t.Fatalf("expected frontmatter title, got %q", doc.FrontMatter.Title)
	}
}

func TestServicePageMissing(t *testing.T) {
	svc := newTestService(t, true)
	if _, err := svc.Page(context.Background(), "/nope"); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}
}

func TestServiceLoadDirectory(t *testing.T) {
	svc := newTestService(t, true)

	docs, err := svc.LoadDirectory(context.Background(), ".", interfaces.LoadOptions{})
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}
	for _, doc := range docs {
		if len(doc.BodyHTML) == 0 {
			t.Fatalf("expected BodyHTML for %s", doc.FilePath)
		}
	}
}

func TestServiceRenderWithoutTags(t *testing.T) {
	svc := newTestService(t, false)

	html, err := svc.Render(context.Background(), []byte("Hello *there*"), interfaces.ParseOptions{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(html), "<em>there</em>") {
		t.Fatalf("unexpected html %q", string(html))
	}
}

func TestServiceRenderUnknownTagFails(t *testing.T) {
	svc := newTestService(t, true)

	_, err := svc.Render(context.Background(), []byte("{% nope /%}"), interfaces.ParseOptions{})
	if !errors.Is(err, tags.ErrUnknownTag) {
		t.Fatalf("expected ErrUnknownTag, got %v", err)
	}
}

func TestServiceRenderDocumentNil(t *testing.T) {
	svc := newTestService(t, false)
	if _, err := svc.RenderDocument(context.Background(), nil, interfaces.ParseOptions{}); err == nil {
		t.Fatal("expected error for nil document")
	}
}

func newTestService(tb testing.TB, withTags bool) *Service {
	tb.Helper()

	fsys := pagesFS()
	fsys["docs/a.md"].Data = []byte(`---
title: Page A
---
# Page A

{% callout type="warning" %}Mind the gap{% /callout %}

## Details

Text.
`)
	delete(fsys, "public/readme.md")

	opts := []ServiceOption{WithFS(fsys)}
	if withTags {
		registry := tags.NewRegistry(tags.NewValidator())
		if err := tags.RegisterBuiltIns(registry, tags.BuiltInDeps{}, "callout"); err != nil {
			tb.Fatalf("RegisterBuiltIns: %v", err)
		}
		renderer := tags.NewRenderer(registry, tags.NewValidator())
		opts = append(opts, WithTagService(tags.NewService(registry, renderer)))
	}

	svc, err := NewService(Config{Recursive: true}, opts...)
	if err != nil {
		tb.Fatalf("NewService: %v", err)
	}
	return svc
}
