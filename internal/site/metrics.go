package site

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records served requests.
type Metrics interface {
	ObserveRequest(route string, status int, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObserveRequest(string, int, time.Duration) {}

// PrometheusMetrics exports request counts and latencies.
type PrometheusMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPrometheusMetrics registers the site collectors with reg, or the
// default registerer when reg is nil.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &PrometheusMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ike_site_requests_total",
			Help: "Requests served by the documentation site.",
		}, []string{"route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ike_site_request_duration_seconds",
			Help:    "Time spent serving documentation site requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
	for _, collector := range []prometheus.Collector{m.requests, m.duration} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PrometheusMetrics) ObserveRequest(route string, status int, duration time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route).Observe(duration.Seconds())
}
