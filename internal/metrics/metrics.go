package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WizardTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vasop_wizard_transitions_total",
			Help: "Wizard events by outcome (applied, invalid, rejected)",
		},
		[]string{"event", "outcome"},
	)

	RemoteCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vasop_remote_calls_total",
			Help: "Calls to the onboarding backend by operation and result class",
		},
		[]string{"operation", "result"},
	)

	RemoteCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vasop_remote_call_duration_seconds",
			Help:    "Latency of calls to the onboarding backend",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DraftCacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vasop_draft_cache_errors_total",
			Help: "Failed draft cache operations",
		},
		[]string{"operation"},
	)

	SubmissionsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vasop_backend_submissions_total",
			Help: "Onboarding submissions accepted by the reference backend",
		},
		[]string{"result"},
	)

	VoicePreviewsThrottled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vasop_voice_previews_throttled_total",
			Help: "Voice preview requests refused by the per-user limiter",
		},
	)
)

func ObserveRemoteCall(operation string, result string, started time.Time) {
	RemoteCalls.WithLabelValues(operation, result).Inc()
	RemoteCallDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
