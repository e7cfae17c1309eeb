package abstractions

import (
	"context"
	"time"

	"github.com/eval-hub/eval-cloud/pkg/api"
)

// RunRecord is one row of the run history
type RunRecord struct {
	RunID        string        `json:"run_id"`
	DisplayName  string        `json:"display_name,omitempty"`
	EvaluationID string        `json:"evaluation_id,omitempty"`
	DatasetID    string        `json:"dataset_id,omitempty"`
	Status       api.JobStatus `json:"status,omitempty"`
	Outcome      string        `json:"outcome"`
	Stage        string        `json:"stage"`
	Retries      int           `json:"retries"`
	Error        string        `json:"error,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
}

// Storage keeps the history of runs. This interface must be decoupled from
// the workflow so that running without a database is a no-op.
type Storage interface {
	GetDatasourceName() string
	SaveRun(ctx context.Context, record *RunRecord) error
	GetRun(ctx context.Context, runID string) (*RunRecord, error)
	ListRuns(ctx context.Context, limit int, offset int) ([]RunRecord, error)
	Close() error
}
