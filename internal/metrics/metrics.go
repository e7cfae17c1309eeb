package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/eval-hub/eval-cloud/internal/config"
	"github.com/eval-hub/eval-cloud/pkg/api"
)

const namespace = "eval_cloud"

// Recorder collects the metrics of a single run. A short lived process is
// never scraped, so the metrics are pushed to a Pushgateway at the end of
// the run when one is configured. All methods are safe on a nil Recorder.
type Recorder struct {
	registry      *prometheus.Registry
	runs          *prometheus.CounterVec
	polls         *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	pushURL       string
	jobName       string
}

func NewRecorder(cfg *config.MetricsConfig) *Recorder {
	registry := prometheus.NewRegistry()
	r := &Recorder{
		registry: registry,
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Evaluation runs by outcome.",
		}, []string{"outcome"}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_polls_total",
			Help:      "Evaluation status queries by returned status.",
		}, []string{"status"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of the workflow stages.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}, []string{"stage", "outcome"}),
	}
	registry.MustRegister(r.runs, r.polls, r.stageDuration)
	if cfg != nil {
		r.pushURL = cfg.PushgatewayURL
		r.jobName = cfg.JobName
	}
	if r.jobName == "" {
		r.jobName = namespace
	}
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) ObserveRun(outcome string) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ObservePoll(status api.JobStatus) {
	if r == nil {
		return
	}
	r.polls.WithLabelValues(string(status)).Inc()
}

func (r *Recorder) ObserveStage(stage string, outcome string, duration time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage, outcome).Observe(duration.Seconds())
}

// Push sends the collected metrics to the Pushgateway, grouped by run id.
// It is a no-op without a Pushgateway URL.
func (r *Recorder) Push(ctx context.Context, runID string) error {
	if r == nil || r.pushURL == "" {
		return nil
	}
	return push.New(r.pushURL, r.jobName).
		Gatherer(r.registry).
		Grouping("run_id", runID).
		PushContext(ctx)
}
