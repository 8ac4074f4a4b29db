package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agreewise/agreewise/internal/core/domain"
)

// WorkspaceMetrics observes submissions, localization caches, narration and
// circuit breakers. It satisfies the usecase observer ports.
type WorkspaceMetrics struct {
	service string

	submissionsTotal   *prometheus.CounterVec
	submissionDuration *prometheus.HistogramVec
	submissionInFlight prometheus.Gauge
	rejectedTotal      *prometheus.CounterVec
	submittedPages     prometheus.Histogram

	cacheLookupsTotal   *prometheus.CounterVec
	translationsTotal   *prometheus.CounterVec
	translationDuration *prometheus.HistogramVec

	narrationTotal *prometheus.CounterVec
	composedTotal  *prometheus.CounterVec

	breakerState *prometheus.GaugeVec
}

func NewWorkspaceMetrics(service string, registerer prometheus.Registerer) *WorkspaceMetrics {
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}

	m := &WorkspaceMetrics{
		service: service,
		submissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "submissions_total",
				Help:      "Finished submissions by terminal stage.",
			},
			[]string{"service", "stage"},
		),
		submissionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "submission_duration_seconds",
				Help:      "Time from submit to a terminal stage.",
				Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
			},
			[]string{"service", "stage"},
		),
		submissionInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Subsystem:   "pipeline",
				Name:        "submission_in_flight",
				Help:        "1 while a submission is being analyzed.",
				ConstLabels: prometheus.Labels{"service": service},
			},
		),
		rejectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "rejected_total",
				Help:      "Submissions rejected before any network call.",
			},
			[]string{"service", "reason"},
		),
		submittedPages: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace:   namespace,
				Subsystem:   "pipeline",
				Name:        "submitted_pages",
				Help:        "Pages per accepted submission.",
				Buckets:     []float64{1, 2, 3, 5, 8, 13, 20},
				ConstLabels: prometheus.Labels{"service": service},
			},
		),
		cacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "localization",
				Name:      "cache_lookups_total",
				Help:      "Localization cache lookups by result.",
			},
			[]string{"service", "namespace", "result"},
		),
		translationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "localization",
				Name:      "translations_total",
				Help:      "Translation requests by status.",
			},
			[]string{"service", "namespace", "status"},
		),
		translationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "localization",
				Name:      "translation_duration_seconds",
				Help:      "Translation request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "namespace"},
		),
		narrationTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "narration",
				Name:      "sessions_total",
				Help:      "Narration sessions by outcome.",
			},
			[]string{"service", "outcome"},
		),
		composedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "composer",
				Name:      "messages_total",
				Help:      "Composed question messages by status.",
			},
			[]string{"service", "status"},
		),
		breakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "resilience",
				Name:      "breaker_state",
				Help:      "Circuit breaker state per operation (0 closed, 1 half-open, 2 open).",
			},
			[]string{"service", "operation"},
		),
	}

	registerer.MustRegister(
		m.submissionsTotal,
		m.submissionDuration,
		m.submissionInFlight,
		m.rejectedTotal,
		m.submittedPages,
		m.cacheLookupsTotal,
		m.translationsTotal,
		m.translationDuration,
		m.narrationTotal,
		m.composedTotal,
		m.breakerState,
	)
	return m
}

func (m *WorkspaceMetrics) SubmissionStarted(pages int) {
	m.submissionInFlight.Set(1)
	m.submittedPages.Observe(float64(pages))
}

func (m *WorkspaceMetrics) SubmissionFinished(stage domain.ProgressStage, elapsed time.Duration) {
	m.submissionInFlight.Set(0)
	m.submissionsTotal.WithLabelValues(m.service, string(stage)).Inc()
	m.submissionDuration.WithLabelValues(m.service, string(stage)).Observe(elapsed.Seconds())
}

func (m *WorkspaceMetrics) SubmissionRejected(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	m.rejectedTotal.WithLabelValues(m.service, reason).Inc()
}

func (m *WorkspaceMetrics) CacheHit(ns string) {
	m.cacheLookupsTotal.WithLabelValues(m.service, ns, "hit").Inc()
}

func (m *WorkspaceMetrics) CacheMiss(ns string) {
	m.cacheLookupsTotal.WithLabelValues(m.service, ns, "miss").Inc()
}

func (m *WorkspaceMetrics) TranslationFinished(ns string, ok bool, elapsed time.Duration) {
	status := "success"
	if !ok {
		status = "error"
	}
	m.translationsTotal.WithLabelValues(m.service, ns, status).Inc()
	m.translationDuration.WithLabelValues(m.service, ns).Observe(elapsed.Seconds())
}

func (m *WorkspaceMetrics) NarrationFinished(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.narrationTotal.WithLabelValues(m.service, outcome).Inc()
}

func (m *WorkspaceMetrics) MessageComposed(ok bool) {
	status := "success"
	if !ok {
		status = "error"
	}
	m.composedTotal.WithLabelValues(m.service, status).Inc()
}

// BreakerStateChanged matches the resilience executor's state hook.
func (m *WorkspaceMetrics) BreakerStateChanged(operation, _, to string) {
	value := 0.0
	switch to {
	case "half-open":
		value = 1
	case "open":
		value = 2
	}
	m.breakerState.WithLabelValues(m.service, operation).Set(value)
}
