package tags

import (
	"context"
	"errors"
	"html/template"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-ike/internal/logging"
	"github.com/goliatone/go-ike/pkg/interfaces"
)

type metricsStub struct {
	mu        sync.Mutex
	durations map[string]int
	errors    map[string]int
	cacheHits map[string]int
}

func newMetricsStub() *metricsStub {
	return &metricsStub{
		durations: map[string]int{},
		errors:    map[string]int{},
		cacheHits: map[string]int{},
	}
}

func (m *metricsStub) ObserveRenderDuration(tag string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations[tag]++
}

func (m *metricsStub) IncrementRenderError(tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[tag]++
}

func (m *metricsStub) IncrementCacheHit(tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheHits[tag]++
}

func (m *metricsStub) durationCount(tag string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.durations[tag]
}

func (m *metricsStub) errorCount(tag string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[tag]
}

func (m *metricsStub) cacheHitCount(tag string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cacheHits[tag]
}

type stubRenderer struct {
	result template.HTML
	err    error
	seen   []string
}

func (s *stubRenderer) Render(_ interfaces.TagContext, tag string, _ map[string]any, inner string) (template.HTML, error) {
	s.seen = append(s.seen, tag)
	if s.err != nil {
		return "", s.err
	}
	if inner != "" {
		return template.HTML("<div>" + inner + "</div>"), nil
	}
	return s.result, nil
}

func TestServiceProcessRecordsMetrics(t *testing.T) {
	metrics := newMetricsStub()
	renderer := &stubRenderer{result: "<div>ok</div>"}
	service := NewService(nil, renderer, WithMetrics(metrics), WithLogger(logging.NoOp()))

	output, err := service.Process(context.Background(), `prefix {% func name="a" /%} suffix`, interfaces.TagProcessOptions{})
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if output != "prefix <div>ok</div> suffix" {
		t.Fatalf("unexpected output: %s", output)
	}
	if got := metrics.durationCount("func"); got != 1 {
		t.Fatalf("expected 1 duration record, got %d", got)
	}
	if got := metrics.errorCount("func"); got != 0 {
		t.Fatalf("expected 0 render errors, got %d", got)
	}
}

func TestServiceProcessRecordsMetricsOnError(t *testing.T) {
	wantErr := errors.New("render failed")
	metrics := newMetricsStub()
	service := NewService(nil, &stubRenderer{err: wantErr}, WithMetrics(metrics))

	_, err := service.Process(context.Background(), `{% func name="a" /%}`, interfaces.TagProcessOptions{})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected render error, got %v", err)
	}
	if got := metrics.errorCount("func"); got != 1 {
		t.Fatalf("expected 1 render error, got %d", got)
	}
}

func TestServiceProcessConvertsBeforeSubstituting(t *testing.T) {
	renderer := &stubRenderer{result: "<section>ref</section>"}
	service := NewService(nil, renderer)

	var converted string
	output, err := service.Process(context.Background(), "# Title\n\n{% func name=\"a\" /%}\n", interfaces.TagProcessOptions{
		Convert: func(source []byte) ([]byte, error) {
			converted = string(source)
			return []byte("<h1>Title</h1>\n<p>" + Placeholder(0) + "</p>\n"), nil
		},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if strings.Contains(converted, "{%") {
		t.Fatalf("expected tags removed before conversion, got %q", converted)
	}
	if output != "<h1>Title</h1>\n<section>ref</section>\n" {
		t.Fatalf("expected paragraph wrapper dropped, got %q", output)
	}
}

func TestServiceProcessNestedTags(t *testing.T) {
	renderer := &stubRenderer{result: "<i>leaf</i>"}
	service := NewService(nil, renderer)

	output, err := service.Process(context.Background(), `{% callout %}x {% func name="a" /%}{% /callout %}`, interfaces.TagProcessOptions{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if output != "<div>x <i>leaf</i></div>" {
		t.Fatalf("unexpected nested output: %q", output)
	}
	if renderer.seen[0] != "callout" {
		t.Fatalf("expected enclosing tag rendered first, got %v", renderer.seen)
	}
}

func TestServiceProcessParseError(t *testing.T) {
	service := NewService(nil, &stubRenderer{})
	if _, err := service.Process(context.Background(), `{% /func %}`, interfaces.TagProcessOptions{}); !errors.Is(err, ErrUnexpectedClose) {
		t.Fatalf("expected ErrUnexpectedClose, got %v", err)
	}
}

func TestNoOpServiceConverts(t *testing.T) {
	svc := NewNoOpService()
	out, err := svc.Process(context.Background(), "a", interfaces.TagProcessOptions{
		Convert: func(b []byte) ([]byte, error) { return append([]byte("<p>"), append(b, "</p>"...)...), nil },
	})
	if err != nil || out != "<p>a</p>" {
		t.Fatalf("unexpected noop output %q, %v", out, err)
	}
}
