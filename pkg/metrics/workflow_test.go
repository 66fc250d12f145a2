package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestWorkflowMetricsCounters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewWorkflowMetrics(reg)

	m.IncGenerationSuccess()
	m.IncGenerationSuccess()
	m.IncGenerationFailure()
	m.IncPublishSuccess("youtube")
	m.IncPublishFailure("")
	m.ObservePublishDuration("youtube", 250*time.Millisecond)

	if got := testutil.ToFloat64(m.generationSuccess); got != 2 {
		t.Fatalf("generation_success = %v", got)
	}
	if got := testutil.ToFloat64(m.generationFailure); got != 1 {
		t.Fatalf("generation_failure = %v", got)
	}
	if got := testutil.ToFloat64(m.publishSuccess.WithLabelValues("youtube")); got != 1 {
		t.Fatalf("publish_success{youtube} = %v", got)
	}
	if got := testutil.ToFloat64(m.publishFailure.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("publish_failure{unknown} = %v", got)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	t.Parallel()

	m := NewWorkflowMetrics(nil)
	m.IncGenerationSuccess()
	m.IncPublishSuccess("tiktok")
	m.ObservePublishDuration("tiktok", time.Second)

	var zero *WorkflowMetrics
	zero.IncGenerationFailure()
	zero.IncPublishFailure("x")
}
