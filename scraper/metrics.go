package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraper.
type Metrics struct {
	Registry             *prometheus.Registry
	RequestsTotal        *prometheus.CounterVec
	RequestDuration      prometheus.Histogram
	ArticlesTotal        prometheus.Counter
	DuplicateTitlesTotal prometheus.Counter
	ErrorsTotal          *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_requests_total",
			Help: "Total HTTP requests issued, by crawl stage.",
		},
		[]string{"stage"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_request_duration_seconds",
			Help:    "HTTP request latency for scraper requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	articles := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_articles_extracted_total",
			Help: "Total number of article records sent to the pipeline.",
		},
	)
	duplicateTitles := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_duplicate_titles_total",
			Help: "Article cards skipped because their title was already seen.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Total number of scraper errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(requests, requestDuration, articles, duplicateTitles, errorsTotal)

	return &Metrics{
		Registry:             registry,
		RequestsTotal:        requests,
		RequestDuration:      requestDuration,
		ArticlesTotal:        articles,
		DuplicateTitlesTotal: duplicateTitles,
		ErrorsTotal:          errorsTotal,
	}
}

// IncRequest increments the requests counter for a crawl stage.
func (m *Metrics) IncRequest(stage string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(stage).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncArticles increments the extracted-articles counter.
func (m *Metrics) IncArticles() {
	if m == nil {
		return
	}
	m.ArticlesTotal.Inc()
}

// IncDuplicateTitle increments the skipped-duplicate counter.
func (m *Metrics) IncDuplicateTitle() {
	if m == nil {
		return
	}
	m.DuplicateTitlesTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
