package submitter

import (
	"errors"
	"time"

	"github.com/eval-hub/eval-cloud/internal/abstractions"
	"github.com/eval-hub/eval-cloud/internal/constants"
	"github.com/eval-hub/eval-cloud/internal/datasets"
	"github.com/eval-hub/eval-cloud/internal/executioncontext"
	"github.com/eval-hub/eval-cloud/internal/messages"
	"github.com/eval-hub/eval-cloud/internal/serviceerrors"
	"github.com/eval-hub/eval-cloud/pkg/api"
)

const (
	DisplayNamePrefix = "eval-cloud-via-sdk-"
	DisplayNameLayout = "2006-01-02 15:04:05.000000"

	datasetType = "dataset"
)

// Clock returns the current time
type Clock func() time.Time

// DisplayName returns the job name for a submission made at t
func DisplayName(t time.Time) string {
	return DisplayNamePrefix + t.Format(DisplayNameLayout)
}

// Submitter uploads the dataset and creates the evaluation job. It never
// retries, a failed call is returned to the caller.
type Submitter struct {
	client    abstractions.EvaluationClient
	uploader  abstractions.DatasetUploader
	preflight *datasets.Preflight
	clock     Clock
}

type Option func(*Submitter)

// WithUploader replaces the service upload, used to stage datasets elsewhere
func WithUploader(uploader abstractions.DatasetUploader) Option {
	return func(s *Submitter) {
		if uploader != nil {
			s.uploader = uploader
		}
	}
}

// WithPreflight checks the dataset locally before it is uploaded
func WithPreflight(preflight *datasets.Preflight) Option {
	return func(s *Submitter) {
		s.preflight = preflight
	}
}

func WithClock(clock Clock) Option {
	return func(s *Submitter) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func New(client abstractions.EvaluationClient, opts ...Option) *Submitter {
	s := &Submitter{
		client:   client,
		uploader: client,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload checks (when a preflight is configured) and uploads the dataset file
func (s *Submitter) Upload(ec *executioncontext.ExecutionContext, path string) (*api.UploadedDataset, error) {
	logger := ec.Logger.With(constants.LOG_DATASET, path)
	if s.preflight != nil {
		summary, err := s.preflight.CheckFile(ec.Ctx, path)
		if err != nil {
			return nil, err
		}
		logger.Debug("Dataset checked", "records", summary.Records)
	}
	logger.Info("Upload File")
	dataset, err := s.uploader.UploadFile(ec.Ctx, path)
	if err != nil {
		var serviceErr *serviceerrors.ServiceError
		if errors.As(err, &serviceErr) {
			return nil, err
		}
		return nil, serviceerrors.NewServiceErrorWithCause(err, messages.DatasetUploadFailed, "Path", path)
	}
	logger.Info("Dataset uploaded", constants.LOG_DATASET_ID, dataset.ID)
	return dataset, nil
}

// Create submits one evaluation job for the uploaded dataset and the catalog
func (s *Submitter) Create(ec *executioncontext.ExecutionContext, datasetID string, catalog map[string]*api.EvaluatorConfiguration) (*api.JobHandle, error) {
	displayName := DisplayName(s.clock())
	evaluation := &api.Evaluation{
		DisplayName: displayName,
		Description: displayName,
		Data: api.Dataset{
			Type: datasetType,
			ID:   datasetID,
		},
		Evaluators: catalog,
	}
	created, err := s.client.CreateEvaluation(ec.Ctx, evaluation)
	if err != nil {
		var serviceErr *serviceerrors.ServiceError
		if errors.As(err, &serviceErr) {
			return nil, err
		}
		return nil, serviceerrors.NewServiceErrorWithCause(err, messages.EvaluationCreateFailed, "Name", displayName)
	}
	handle := &api.JobHandle{
		ID:          created.ID,
		DisplayName: displayName,
		Status:      created.Status,
	}
	if created.DisplayName != "" {
		handle.DisplayName = created.DisplayName
	}
	ec.Logger.Info("Create evaluation",
		constants.LOG_DISPLAY_NAME, handle.DisplayName,
		constants.LOG_EVALUATION, handle.ID,
		constants.LOG_STATUS, handle.Status.String(),
		"code", constants.MESSAGE_CODE_EVALUATION_JOB_CREATED,
	)
	return handle, nil
}
