package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricHistogram(t *testing.T, h prometheus.Histogram) *dto.Histogram {
	t.Helper()
	var m dto.Metric
	if err := h.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram()
}

func TestRecordOverflow(t *testing.T) {
	m := New(WithRegistry(prometheus.NewRegistry()))

	m.RecordOverflow(1400, 1500, true)
	m.RecordOverflow(1400, 1500, true)
	m.RecordOverflow(1400, 1401, false)

	if got := metricCounterValue(t, m.overflows.WithLabelValues("discard")); got != 2 {
		t.Errorf("overflows(discard) = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.overflows.WithLabelValues("fatal")); got != 1 {
		t.Errorf("overflows(fatal) = %v, want 1", got)
	}
}

func TestRecordFrame(t *testing.T) {
	m := New(WithRegistry(prometheus.NewRegistry()))

	m.RecordEntityDelta(1)
	m.RecordEntityDelta(4)
	m.RecordEntityDelta(4)
	m.RecordEntityRemove()
	m.RecordFrame(120, 3)

	if got := metricCounterValue(t, m.entityDeltas.WithLabelValues("4")); got != 2 {
		t.Errorf("entity_deltas(4) = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.entityRemoves); got != 1 {
		t.Errorf("entity_removes = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.frames); got != 1 {
		t.Errorf("frames = %v, want 1", got)
	}
	h := metricHistogram(t, m.frameBytes)
	if h.GetSampleCount() != 1 || h.GetSampleSum() != 120 {
		t.Errorf("frame_bytes count=%d sum=%v, want 1, 120", h.GetSampleCount(), h.GetSampleSum())
	}
}

func TestRecordInfoRejection(t *testing.T) {
	m := New(WithRegistry(prometheus.NewRegistry()))
	m.RecordInfoRejection("quote")
	m.RecordInfoRejection("")

	if got := metricCounterValue(t, m.infoRejections.WithLabelValues("quote")); got != 1 {
		t.Errorf("info_rejections(quote) = %v, want 1", got)
	}
}

func TestRecordDemoMessage(t *testing.T) {
	m := New(WithRegistry(prometheus.NewRegistry()))
	m.RecordDemoMessage(10)
	m.RecordDemoMessage(32)

	if got := metricCounterValue(t, m.demoMessages); got != 2 {
		t.Errorf("demo_messages = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.demoBytes); got != 42 {
		t.Errorf("demo_bytes = %v, want 42", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.RecordOverflow(1, 2, true)
	m.RecordEntityDelta(1)
	m.RecordEntityRemove()
	m.RecordFrame(1, 1)
	m.RecordInfoRejection("quote")
	m.RecordDemoMessage(1)
}

func TestOptions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(
		WithRegistry(reg),
		WithNamespace("game"),
		WithSubsystem("net"),
		WithConstLabels(prometheus.Labels{"server": "a"}),
		WithBuckets([]float64{1, 2}),
	)
	m.RecordFrame(1, 1)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() == "game_net_frame_bytes" {
			found = true
			metric := f.GetMetric()[0]
			if len(metric.GetHistogram().GetBucket()) != 2 {
				t.Errorf("buckets = %d, want 2", len(metric.GetHistogram().GetBucket()))
			}
			if metric.GetLabel()[0].GetValue() != "a" {
				t.Errorf("const label = %q, want \"a\"", metric.GetLabel()[0].GetValue())
			}
		}
	}
	if !found {
		t.Error("game_net_frame_bytes not registered")
	}
}
