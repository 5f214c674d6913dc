// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	IntentClassifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intent_classifications_total",
			Help: "Intent classifications by resulting intent and source (ai or pattern)",
		},
		[]string{"intent", "source"},
	)

	ReferenceSearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reference_search_requests_total",
			Help: "Outbound image/web search calls by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	ReferenceSearchThrottleWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reference_search_throttle_wait_seconds",
			Help:    "Time callers spent waiting for the search spacing window",
			Buckets: []float64{0, 0.1, 0.25, 0.5, 1, 1.5, 2.5, 5},
		},
	)

	ReferenceImageFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reference_image_fetches_total",
			Help: "Reference image downloads by outcome",
		},
		[]string{"outcome"},
	)

	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Chat completion calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	ConversationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_outcomes_total",
			Help: "Chat messages handled by outcome kind",
		},
		[]string{"kind"},
	)

	QuotaDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_decisions_total",
			Help: "Generation quota checks by decision",
		},
		[]string{"decision"},
	)
)
