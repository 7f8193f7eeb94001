package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestLatencyStatsSnapshotPercentiles(t *testing.T) {
	stats := NewLatencyStats(time.Hour)
	for _, d := range []time.Duration{100, 200, 300, 400, 500} {
		stats.Record(d * time.Millisecond)
	}

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 {
		t.Fatalf("expected min=100, got %f", snap.MinMs)
	}
	if snap.MaxMs != 500 {
		t.Fatalf("expected max=500, got %f", snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestLatencyStatsSubMillisecond(t *testing.T) {
	stats := NewLatencyStats(time.Hour)
	stats.Record(250 * time.Microsecond)
	snap := stats.Snapshot()
	if snap.MinMs != 0.25 {
		t.Fatalf("expected min=0.25, got %f", snap.MinMs)
	}
}

func TestLatencyStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewLatencyStats(time.Minute)
	now := time.Now()
	stats.now = func() time.Time { return now }
	stats.Record(100 * time.Millisecond)

	now = now.Add(2 * time.Minute)
	snap := stats.Snapshot()
	if snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}

	stats.Record(200 * time.Millisecond)
	snap = stats.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected count=1 for fresh sample, got %d", snap.Count)
	}
	if snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected min=max=200, got min=%f max=%f", snap.MinMs, snap.MaxMs)
	}
}

func TestLatencyStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewLatencyStats(time.Hour)
	stats.Record(-10 * time.Millisecond)
	snap := stats.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected count=1, got %d", snap.Count)
	}
	if snap.MinMs != 0 || snap.MaxMs != 0 {
		t.Fatalf("expected clamped duration=0, got min=%f max=%f", snap.MinMs, snap.MaxMs)
	}
}

func TestMetricsHandlerExposesCounters(t *testing.T) {
	m := NewMetrics("docredact_test")
	m.FilesAnalyzed.WithLabelValues("docx").Inc()
	m.Detections.WithLabelValues("email", "high").Add(2)
	m.ObserveDetectLatency(3 * time.Millisecond)

	// A second instance must not collide with the first.
	_ = NewMetrics("docredact_test")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`docredact_test_files_analyzed_total{document_type="docx"} 1`,
		`docredact_test_pii_detections_total{category="email",confidence="high"} 2`,
		`docredact_test_detect_latency_ms_count 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected metrics output to contain %q", want)
		}
	}
}
