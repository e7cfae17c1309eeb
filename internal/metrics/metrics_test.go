package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/eval-hub/eval-cloud/internal/config"
	"github.com/eval-hub/eval-cloud/pkg/api"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder(&config.MetricsConfig{})

	r.ObservePoll(api.JobStatusRunning)
	r.ObservePoll(api.JobStatusRunning)
	r.ObservePoll(api.JobStatusCompleted)
	r.ObserveRun("completed")
	r.ObserveStage("poll", "completed", 2*time.Second)

	if got := testutil.ToFloat64(r.polls.WithLabelValues("Running")); got != 2 {
		t.Errorf("expected 2 Running polls, got %v", got)
	}
	if got := testutil.ToFloat64(r.runs.WithLabelValues("completed")); got != 1 {
		t.Errorf("expected 1 completed run, got %v", got)
	}
	if got := testutil.CollectAndCount(r.stageDuration); got != 1 {
		t.Errorf("expected 1 stage series, got %d", got)
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.ObservePoll(api.JobStatusQueued)
	r.ObserveRun("error")
	r.ObserveStage("upload", "error", time.Second)
	if err := r.Push(context.Background(), "run-1"); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}

func TestPush(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotPath = req.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	r := NewRecorder(&config.MetricsConfig{PushgatewayURL: server.URL, JobName: "eval_cloud_test"})
	r.ObserveRun("abandoned")
	if err := r.Push(context.Background(), "run-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gotPath, "/job/eval_cloud_test") || !strings.Contains(gotPath, "run_id/run-1") {
		t.Errorf("unexpected push path %s", gotPath)
	}
}
