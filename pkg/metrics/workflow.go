package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkflowMetrics records generation and publish outcomes per run.
type WorkflowMetrics struct {
	generationSuccess prometheus.Counter
	generationFailure prometheus.Counter
	publishSuccess    *prometheus.CounterVec
	publishFailure    *prometheus.CounterVec
	publishDuration   *prometheus.HistogramVec
}

// NewWorkflowMetrics registers the workflow metrics on the provided registerer.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	generationSuccess := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "generation_success",
		Help: "Successful content generation calls.",
	})
	generationFailure := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "generation_failure",
		Help: "Failed content generation calls.",
	})
	publishSuccess := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "publish_success",
		Help: "Successful publishes by platform.",
	}, []string{"platform"})
	publishFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "publish_failure",
		Help: "Failed publishes by platform.",
	}, []string{"platform"})
	publishDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "publish_duration_seconds",
		Help:    "Duration of publish calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"platform"})
	reg.MustRegister(generationSuccess, generationFailure, publishSuccess, publishFailure, publishDuration)
	return &WorkflowMetrics{
		generationSuccess: generationSuccess,
		generationFailure: generationFailure,
		publishSuccess:    publishSuccess,
		publishFailure:    publishFailure,
		publishDuration:   publishDuration,
	}
}

// IncGenerationSuccess increments the generation success counter.
func (m *WorkflowMetrics) IncGenerationSuccess() {
	if m == nil || m.generationSuccess == nil {
		return
	}
	m.generationSuccess.Inc()
}

// IncGenerationFailure increments the generation failure counter.
func (m *WorkflowMetrics) IncGenerationFailure() {
	if m == nil || m.generationFailure == nil {
		return
	}
	m.generationFailure.Inc()
}

// IncPublishSuccess increments the publish success counter for the platform.
func (m *WorkflowMetrics) IncPublishSuccess(platform string) {
	if m == nil || m.publishSuccess == nil {
		return
	}
	m.publishSuccess.WithLabelValues(normalizeLabel(platform)).Inc()
}

// IncPublishFailure increments the publish failure counter for the platform.
func (m *WorkflowMetrics) IncPublishFailure(platform string) {
	if m == nil || m.publishFailure == nil {
		return
	}
	m.publishFailure.WithLabelValues(normalizeLabel(platform)).Inc()
}

// ObservePublishDuration records how long a publish call took.
func (m *WorkflowMetrics) ObservePublishDuration(platform string, duration time.Duration) {
	if m == nil || m.publishDuration == nil {
		return
	}
	m.publishDuration.WithLabelValues(normalizeLabel(platform)).Observe(duration.Seconds())
}

func normalizeLabel(platform string) string {
	if platform == "" {
		return "unknown"
	}
	return platform
}
