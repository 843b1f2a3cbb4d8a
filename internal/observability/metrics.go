package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "leadchat"

// Metrics holds every Prometheus collector the service exports
type Metrics struct {
	ChatRequests       *prometheus.CounterVec
	ProviderAttempts   *prometheus.CounterVec
	ProviderLatency    *prometheus.HistogramVec
	LeadScore          prometheus.Histogram
	LeadsRecorded      *prometheus.CounterVec
	RateLimited        *prometheus.CounterVec
	ContactSubmissions *prometheus.CounterVec
	TTSRequests        *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Labels: status (ok, invalid, error)
		ChatRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Chat turns by outcome",
		}, []string{"status"}),

		// Labels: provider, outcome (success, failure)
		ProviderAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "attempts_total",
			Help:      "LLM provider attempts by provider and outcome",
		}, []string{"provider", "outcome"}),

		ProviderLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "latency_seconds",
			Help:      "LLM provider attempt latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30},
		}, []string{"provider"}),

		LeadScore: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "leads",
			Name:      "score",
			Help:      "Distribution of per-turn lead scores",
			Buckets:   []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),

		// Labels: outcome (created, updated, failed)
		LeadsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "leads",
			Name:      "recorded_total",
			Help:      "Lead recorder outcomes",
		}, []string{"outcome"}),

		// Labels: route
		RateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		}, []string{"route"}),

		// Labels: provider, status (sent, failed, unconfigured)
		ContactSubmissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "contact",
			Name:      "submissions_total",
			Help:      "Contact form submissions by email provider and status",
		}, []string{"provider", "status"}),

		TTSRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tts",
			Name:      "requests_total",
			Help:      "Text-to-speech proxy requests by status",
		}, []string{"status"}),

		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route, method and status code",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
	}
}
