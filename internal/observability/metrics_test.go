package observability

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/carepulse-backend/internal/data/repos/testutil"
	types "github.com/yungbote/carepulse-backend/internal/domain"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.ObserveJob("media", "media_sentiment", "succeeded", time.Second)
	m.IncMomentOutcome("immediate", "done")
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("WritePrometheus(nil): %v", err)
	}
}

func TestWritePrometheus(t *testing.T) {
	m := NewMetrics()
	m.ObserveAPI("POST", "/api/moments", "201", 30*time.Millisecond)
	m.ObserveJob("media", "media_sentiment", "succeeded", 2*time.Second)
	m.IncMomentOutcome("background", "failed")

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`cp_api_requests_total{method="POST",route="/api/moments",status="201"} 1.000000`,
		`cp_job_duration_seconds_bucket{queue="media",job_type="media_sentiment",status="succeeded",le="2"} 1`,
		`cp_moment_outcomes_total{path="background",status="failed"} 1.000000`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("exposition missing %q\n%s", want, out)
		}
	}
}

func TestCollectQueueDepth(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	jobs := []*types.JobRun{
		{Queue: "media", JobType: "media_sentiment", Status: types.JobStatusQueued, Stage: "queued"},
		{Queue: "media", JobType: "media_sentiment", Status: types.JobStatusQueued, Stage: "queued"},
		{Queue: "tasks", JobType: "task_reminder", Status: types.JobStatusRunning, Stage: "running"},
	}
	if err := db.WithContext(ctx).Create(&jobs).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	m := NewMetrics()
	if err := m.collectQueueDepth(ctx, db); err != nil {
		t.Fatalf("collectQueueDepth: %v", err)
	}
	var buf bytes.Buffer
	_ = m.queueDepth.WritePrometheus(&buf)
	if !strings.Contains(buf.String(), `cp_job_queue_depth{queue="media",status="queued"} 2.000000`) {
		t.Fatalf("queue depth: got\n%s", buf.String())
	}
}

func TestParseHeaders(t *testing.T) {
	h := ParseHeaders("x-api-key=abc, bad ,empty=")
	if len(h) != 1 || h["x-api-key"] != "abc" {
		t.Fatalf("ParseHeaders: got=%v", h)
	}
	if ParseHeaders("") != nil {
		t.Fatalf("ParseHeaders(empty): want nil")
	}
}
