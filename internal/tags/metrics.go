package tags

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-ike/pkg/interfaces"
)

// NoOpMetrics returns a metrics recorder that drops every observation.
func NoOpMetrics() interfaces.TagMetrics {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) ObserveRenderDuration(string, time.Duration) {}
func (noopMetrics) IncrementRenderError(string)                 {}
func (noopMetrics) IncrementCacheHit(string)                    {}

// PrometheusMetrics exports tag telemetry:
//
//	ike_tag_render_duration_seconds
//		histogram per tag
//	ike_tag_render_errors_total
//		failed renders per tag
//	ike_tag_cache_hits_total
//		renders served from cache per tag
type PrometheusMetrics struct {
	duration  *prometheus.HistogramVec
	errors    *prometheus.CounterVec
	cacheHits *prometheus.CounterVec
}

// NewPrometheusMetrics registers the collectors on reg, or the default
// registerer when reg is nil.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &PrometheusMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ike_tag_render_duration_seconds",
			Help:    "Duration of authoring tag renders.",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 2},
		}, []string{"tag"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ike_tag_render_errors_total",
			Help: "Total failed authoring tag renders.",
		}, []string{"tag"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ike_tag_cache_hits_total",
			Help: "Total authoring tag renders served from cache.",
		}, []string{"tag"}),
	}
	for _, c := range []prometheus.Collector{m.duration, m.errors, m.cacheHits} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PrometheusMetrics) ObserveRenderDuration(tag string, d time.Duration) {
	m.duration.WithLabelValues(tag).Observe(d.Seconds())
}

func (m *PrometheusMetrics) IncrementRenderError(tag string) {
	m.errors.WithLabelValues(tag).Inc()
}

func (m *PrometheusMetrics) IncrementCacheHit(tag string) {
	m.cacheHits.WithLabelValues(tag).Inc()
}

var _ interfaces.TagMetrics = (*PrometheusMetrics)(nil)
