package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "factbook"

// Title resolution outcomes.
const (
	OutcomeCacheHit       = "cache_hit"
	OutcomeResolved       = "resolved"
	OutcomeNoTitle        = "no_title"
	OutcomeUpstreamStatus = "upstream_status"
	OutcomeFetchError     = "fetch_error"
)

// Upload results.
const (
	UploadOK           = "ok"
	UploadRejected     = "rejected"
	UploadBackendError = "backend_error"
)

// Metrics holds the service collectors.
type Metrics struct {
	registry *prometheus.Registry

	TitleResolutions *prometheus.CounterVec
	TitleFetchTime   prometheus.Histogram
	TitleCacheSize   prometheus.Gauge
	RFPUploads       *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		TitleResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "link_title_resolutions_total",
			Help:      "Link title resolutions by outcome.",
		}, []string{"outcome"}),
		TitleFetchTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "link_title_fetch_duration_seconds",
			Help:      "Duration of outbound fetches for link titles.",
			Buckets:   prometheus.DefBuckets,
		}),
		TitleCacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "link_title_cache_entries",
			Help:      "Number of entries in the link title cache.",
		}),
		RFPUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rfp_uploads_total",
			Help:      "RFP upload relay requests by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.TitleResolutions, m.TitleFetchTime, m.TitleCacheSize, m.RFPUploads)
	return m
}

// ObserveResolution counts one title resolution.
func (m *Metrics) ObserveResolution(outcome string) {
	m.TitleResolutions.WithLabelValues(outcome).Inc()
}

// ObserveFetch records the duration of one outbound fetch.
func (m *Metrics) ObserveFetch(d time.Duration) {
	m.TitleFetchTime.Observe(d.Seconds())
}

// ObserveUpload counts one upload relay request.
func (m *Metrics) ObserveUpload(result string) {
	m.RFPUploads.WithLabelValues(result).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
