package tags

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewPrometheusMetrics(reg)
	if err != nil {
		t.Fatalf("NewPrometheusMetrics: %v", err)
	}

	metrics.ObserveRenderDuration("func", 3*time.Millisecond)
	metrics.IncrementRenderError("func")
	metrics.IncrementCacheHit("func")
	metrics.IncrementCacheHit("func")

	if got := testutil.ToFloat64(metrics.errors.WithLabelValues("func")); got != 1 {
		t.Fatalf("expected 1 error, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.cacheHits.WithLabelValues("func")); got != 2 {
		t.Fatalf("expected 2 cache hits, got %v", got)
	}
	if count := testutil.CollectAndCount(metrics.duration); count != 1 {
		t.Fatalf("expected one duration series, got %d", count)
	}
}

func TestPrometheusMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPrometheusMetrics(reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPrometheusMetrics(reg); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}
