package runner

import (
	"time"

	"github.com/eval-hub/eval-cloud/internal/abstractions"
	"github.com/eval-hub/eval-cloud/internal/constants"
	"github.com/eval-hub/eval-cloud/internal/poller"
	"github.com/eval-hub/eval-cloud/internal/serviceerrors"
	"github.com/eval-hub/eval-cloud/pkg/api"
)

// Workflow stages, in execution order
const (
	StageConnection = "connection"
	StageCatalog    = "catalog"
	StageUpload     = "upload"
	StageSubmit     = "submit"
	StagePoll       = "poll"
)

const (
	stageOK    = "ok"
	stageError = "error"
)

// StageResult is the outcome of one stage. Outcome is "ok" or "error" for
// every stage but the poll, which carries the poll outcome.
type StageResult struct {
	Stage    string
	Outcome  string
	Duration time.Duration
	Err      error
}

// Report is the result of a run. Err is the error of the stage that ended
// the run, nil when the evaluation completed.
type Report struct {
	RunID        string
	DisplayName  string
	DatasetID    string
	EvaluationID string
	Outcome      poller.Outcome
	Status       api.JobStatus
	Retries      int
	Evaluation   *api.Evaluation
	Stages       []StageResult
	Err          error
	StartedAt    time.Time
	FinishedAt   time.Time
}

// LastStage returns the last stage that ran
func (r *Report) LastStage() string {
	if len(r.Stages) == 0 {
		return ""
	}
	return r.Stages[len(r.Stages)-1].Stage
}

// Stage returns the result of the named stage, nil if it did not run
func (r *Report) Stage(name string) *StageResult {
	for i := range r.Stages {
		if r.Stages[i].Stage == name {
			return &r.Stages[i]
		}
	}
	return nil
}

// ExitCode maps the outcome to a process exit code
func (r *Report) ExitCode() int {
	switch r.Outcome {
	case poller.OutcomeCompleted:
		return constants.ExitCodeOK
	case poller.OutcomeFailed:
		return constants.ExitCodeFailed
	case poller.OutcomeAbandoned:
		return constants.ExitCodeAbandoned
	}
	if code := serviceerrors.ExitCode(r.Err); code != constants.ExitCodeOK {
		return code
	}
	return constants.ExitCodeError
}

// Record converts the report to a run history row
func (r *Report) Record() *abstractions.RunRecord {
	record := &abstractions.RunRecord{
		RunID:        r.RunID,
		DisplayName:  r.DisplayName,
		EvaluationID: r.EvaluationID,
		DatasetID:    r.DatasetID,
		Status:       r.Status,
		Outcome:      r.Outcome.String(),
		Stage:        r.LastStage(),
		Retries:      r.Retries,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
	}
	if r.Err != nil {
		record.Error = r.Err.Error()
	}
	return record
}
