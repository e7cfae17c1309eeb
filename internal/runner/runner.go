package runner

import (
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/eval-hub/eval-cloud/internal/abstractions"
	"github.com/eval-hub/eval-cloud/internal/config"
	"github.com/eval-hub/eval-cloud/internal/constants"
	"github.com/eval-hub/eval-cloud/internal/datasets"
	"github.com/eval-hub/eval-cloud/internal/evaluators"
	"github.com/eval-hub/eval-cloud/internal/executioncontext"
	"github.com/eval-hub/eval-cloud/internal/messages"
	"github.com/eval-hub/eval-cloud/internal/metrics"
	"github.com/eval-hub/eval-cloud/internal/poller"
	"github.com/eval-hub/eval-cloud/internal/serviceerrors"
	"github.com/eval-hub/eval-cloud/internal/submitter"
	"github.com/eval-hub/eval-cloud/pkg/api"
)

const tracerName = "github.com/eval-hub/eval-cloud/internal/runner"

type Options struct {
	Workspace   *config.WorkspaceConfig
	DatasetPath string
	// Uploader replaces the service upload when set
	Uploader  abstractions.DatasetUploader
	Preflight *datasets.Preflight
	// MaxRetry and Interval keep the poller defaults when nil, zero is a
	// valid budget
	MaxRetry *int
	Interval *time.Duration
	Sleep    poller.SleepFunc
	Clock     submitter.Clock
	// Storage, Metrics and Tracer are optional
	Storage abstractions.Storage
	Metrics *metrics.Recorder
	Tracer  trace.Tracer
}

// Runner runs the evaluation workflow: resolve the default connection, build
// the evaluator catalog, upload the dataset, submit the job and poll it.
// Each stage runs only if the previous one succeeded.
type Runner struct {
	client    abstractions.EvaluationClient
	workspace *config.WorkspaceConfig
	dataset   string
	submitter *submitter.Submitter
	poller    *poller.Poller
	storage   abstractions.Storage
	metrics   *metrics.Recorder
	tracer    trace.Tracer
}

func New(client abstractions.EvaluationClient, opts Options) *Runner {
	workspace := opts.Workspace
	if workspace == nil {
		workspace = &config.WorkspaceConfig{}
	}
	datasetPath := opts.DatasetPath
	if datasetPath == "" {
		datasetPath = config.DefaultDatasetPath
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(tracerName)
	}

	pollerOptions := []poller.Option{poller.WithSleep(opts.Sleep)}
	if opts.MaxRetry != nil {
		pollerOptions = append(pollerOptions, poller.WithMaxRetry(*opts.MaxRetry))
	}
	if opts.Interval != nil {
		pollerOptions = append(pollerOptions, poller.WithInterval(*opts.Interval))
	}
	if opts.Metrics != nil {
		pollerOptions = append(pollerOptions, poller.WithObserver(opts.Metrics))
	}

	return &Runner{
		client:    client,
		workspace: workspace,
		dataset:   datasetPath,
		submitter: submitter.New(client,
			submitter.WithUploader(opts.Uploader),
			submitter.WithPreflight(opts.Preflight),
			submitter.WithClock(opts.Clock),
		),
		poller:  poller.New(client, pollerOptions...),
		storage: opts.Storage,
		metrics: opts.Metrics,
		tracer:  tracer,
	}
}

// Run executes the workflow once. It never panics on remote failures, the
// failing stage and its error are returned in the report.
func (r *Runner) Run(ec *executioncontext.ExecutionContext) *Report {
	report := &Report{
		RunID:     ec.RunID,
		StartedAt: time.Now(),
	}

	ctx, span := r.tracer.Start(ec.Ctx, "evaluation-run", trace.WithAttributes(attribute.String(constants.LOG_RUN_ID, ec.RunID)))
	defer span.End()
	ec = ec.WithContext(ctx)

	ec.Logger.Info(constants.LOG_SEPARATOR)
	ec.Logger.Info("Process Started")
	ec.Logger.Info(constants.LOG_SEPARATOR)

	r.execute(ec, report)

	report.FinishedAt = time.Now()
	if report.Outcome == "" {
		report.Outcome = poller.OutcomeError
	}
	span.SetAttributes(attribute.String(constants.LOG_OUTCOME, report.Outcome.String()))
	if report.Err != nil {
		span.SetStatus(codes.Error, report.Err.Error())
	}

	r.logResult(ec, report)
	r.metrics.ObserveRun(report.Outcome.String())
	r.saveRun(ec, report)

	ec.Logger.Info(constants.LOG_SEPARATOR)
	ec.Logger.Info("Process Finished", constants.LOG_ELAPSED, report.FinishedAt.Sub(report.StartedAt).String())
	ec.Logger.Info(constants.LOG_SEPARATOR)
	return report
}

func (r *Runner) execute(ec *executioncontext.ExecutionContext, report *Report) {
	var modelConfig *api.ModelConfiguration
	if !r.stage(ec, report, StageConnection, func(ec *executioncontext.ExecutionContext) (string, error) {
		connection, err := r.client.GetDefaultConnection(ec.Ctx, api.ConnectionTypeAzureOpenAI)
		if err != nil {
			return stageError, wrap(err, messages.ConnectionResolutionFailed, "Type", string(api.ConnectionTypeAzureOpenAI))
		}
		modelConfig = connection.ToEvaluatorModelConfig(r.workspace.DeploymentName, r.workspace.APIVersion)
		ec.Logger.Debug("Default connection resolved", "connection", connection.Name)
		return stageOK, nil
	}) {
		return
	}

	var catalog map[string]*api.EvaluatorConfiguration
	r.stage(ec, report, StageCatalog, func(ec *executioncontext.ExecutionContext) (string, error) {
		ec.Logger.Info("Prepare evaluators", constants.LOG_EVALUATORS, evaluators.Names)
		catalog = evaluators.BuildCatalog(modelConfig)
		return stageOK, nil
	})

	var dataset *api.UploadedDataset
	if !r.stage(ec, report, StageUpload, func(ec *executioncontext.ExecutionContext) (string, error) {
		var err error
		dataset, err = r.submitter.Upload(ec, r.dataset)
		if err != nil {
			return stageError, err
		}
		report.DatasetID = dataset.ID
		return stageOK, nil
	}) {
		return
	}

	var handle *api.JobHandle
	if !r.stage(ec, report, StageSubmit, func(ec *executioncontext.ExecutionContext) (string, error) {
		var err error
		handle, err = r.submitter.Create(ec, dataset.ID, catalog)
		if err != nil {
			return stageError, err
		}
		report.DisplayName = handle.DisplayName
		report.EvaluationID = handle.ID
		report.Status = handle.Status
		return stageOK, nil
	}) {
		return
	}

	r.stage(ec, report, StagePoll, func(ec *executioncontext.ExecutionContext) (string, error) {
		result := r.poller.Poll(ec, handle)
		report.Outcome = result.Outcome
		report.Status = result.Status
		report.Retries = result.Retries
		report.Evaluation = result.Evaluation
		return result.Outcome.String(), result.Err
	})
}

// stage runs fn inside its own span, records the result and reports whether
// the workflow can continue
func (r *Runner) stage(ec *executioncontext.ExecutionContext, report *Report, name string, fn func(ec *executioncontext.ExecutionContext) (string, error)) bool {
	ctx, span := r.tracer.Start(ec.Ctx, name)
	defer span.End()
	logger := ec.Logger.With(constants.LOG_STAGE, name)

	start := time.Now()
	outcome, err := fn(ec.WithContext(ctx).WithLogger(logger))
	duration := time.Since(start)

	report.Stages = append(report.Stages, StageResult{Stage: name, Outcome: outcome, Duration: duration, Err: err})
	r.metrics.ObserveStage(name, outcome, duration)
	span.SetAttributes(attribute.String(constants.LOG_OUTCOME, outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		report.Err = err
		if outcome == stageError {
			logger.Error("Stage failed", constants.LOG_ERROR, err.Error())
		}
		return false
	}
	return true
}

func (r *Runner) logResult(ec *executioncontext.ExecutionContext, report *Report) {
	logger := ec.Logger.With(
		constants.LOG_OUTCOME, report.Outcome.String(),
		constants.LOG_EVALUATION, report.EvaluationID,
		constants.LOG_STATUS, report.Status.String(),
		constants.LOG_RETRY, report.Retries,
	)
	ec.Logger.Info(constants.LOG_SEPARATOR)
	switch report.Outcome {
	case poller.OutcomeCompleted:
		logger.Info("Evaluation completed", "code", constants.MESSAGE_CODE_EVALUATION_JOB_COMPLETED)
	case poller.OutcomeFailed:
		logger.Warn("Evaluation failed", "code", constants.MESSAGE_CODE_EVALUATION_JOB_FAILED, constants.LOG_ERROR, report.Err.Error())
	case poller.OutcomeAbandoned:
		logger.Warn("Evaluation abandoned", "code", constants.MESSAGE_CODE_EVALUATION_JOB_ABANDONED, constants.LOG_ERROR, report.Err.Error())
	default:
		logger.Error("Evaluation run aborted", constants.LOG_STAGE, report.LastStage(), constants.LOG_ERROR, errorText(report.Err))
	}
	if report.Evaluation != nil {
		logger.Info("Evaluation record", "evaluation", report.Evaluation)
	}
}

func (r *Runner) saveRun(ec *executioncontext.ExecutionContext, report *Report) {
	if r.storage == nil {
		return
	}
	if err := r.storage.SaveRun(ec.Ctx, report.Record()); err != nil {
		ec.Logger.Warn("Failed to save the run history", "datasource", r.storage.GetDatasourceName(), constants.LOG_ERROR, err.Error())
		return
	}
	ec.Logger.Debug("Run saved", "datasource", r.storage.GetDatasourceName())
}

// wrap keeps service errors as they are and wraps anything else in code
func wrap(err error, code *messages.MessageCode, params ...any) error {
	var serviceErr *serviceerrors.ServiceError
	if errors.As(err, &serviceErr) {
		return err
	}
	return serviceerrors.NewServiceErrorWithCause(err, code, params...)
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
