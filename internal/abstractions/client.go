package abstractions

import (
	"context"

	"github.com/eval-hub/eval-cloud/pkg/api"
)

// DatasetUploader uploads a local dataset file and returns the reference the
// evaluation service uses to read it.
type DatasetUploader interface {
	UploadFile(ctx context.Context, path string) (*api.UploadedDataset, error)
}

// EvaluationClient is the capability the workflow needs from the evaluation
// service. No other places in the code should be pointing directly to the
// REST implementation so that tests can substitute a double.
type EvaluationClient interface {
	DatasetUploader
	GetDefaultConnection(ctx context.Context, connectionType api.ConnectionType) (*api.Connection, error)
	CreateEvaluation(ctx context.Context, evaluation *api.Evaluation) (*api.Evaluation, error)
	GetEvaluation(ctx context.Context, id string) (*api.Evaluation, error)
}
