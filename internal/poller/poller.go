package poller

import (
	"context"
	"time"

	"github.com/eval-hub/eval-cloud/internal/constants"
	"github.com/eval-hub/eval-cloud/internal/executioncontext"
	"github.com/eval-hub/eval-cloud/internal/messages"
	"github.com/eval-hub/eval-cloud/internal/serviceerrors"
	"github.com/eval-hub/eval-cloud/pkg/api"
)

const (
	DefaultMaxRetry = 30
	DefaultInterval = 15 * time.Second
)

// Outcome is how a poll ended
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeAbandoned Outcome = "abandoned"
	OutcomeError     Outcome = "error"
)

func (o Outcome) String() string {
	return string(o)
}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the timer based SleepFunc
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type StatusGetter interface {
	GetEvaluation(ctx context.Context, id string) (*api.Evaluation, error)
}

// PollObserver is notified of every status returned by the service
type PollObserver interface {
	ObservePoll(status api.JobStatus)
}

type Result struct {
	Outcome Outcome
	// Status is the last status reported by the service
	Status  api.JobStatus
	Retries int
	// Evaluation is the last record returned by the service, nil when no
	// status call succeeded
	Evaluation *api.Evaluation
	Err        error
}

type Poller struct {
	getter   StatusGetter
	maxRetry int
	interval time.Duration
	sleep    SleepFunc
	observer PollObserver
}

type Option func(*Poller)

func WithMaxRetry(maxRetry int) Option {
	return func(p *Poller) {
		if maxRetry >= 0 {
			p.maxRetry = maxRetry
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(p *Poller) {
		if interval >= 0 {
			p.interval = interval
		}
	}
}

func WithSleep(sleep SleepFunc) Option {
	return func(p *Poller) {
		if sleep != nil {
			p.sleep = sleep
		}
	}
}

func WithObserver(observer PollObserver) Option {
	return func(p *Poller) {
		p.observer = observer
	}
}

func New(getter StatusGetter, opts ...Option) *Poller {
	p := &Poller{
		getter:   getter,
		maxRetry: DefaultMaxRetry,
		interval: DefaultInterval,
		sleep:    Sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Poll queries the job status until it is terminal or the retry budget is
// spent. The status returned by the service replaces the previous one as is.
// A failed status call or a cancelled context ends the poll without retrying.
func (p *Poller) Poll(ec *executioncontext.ExecutionContext, handle *api.JobHandle) *Result {
	result := &Result{Status: handle.Status}
	logger := ec.Logger.With(constants.LOG_EVALUATION, handle.ID)

	for !result.Status.IsTerminal() && result.Retries < p.maxRetry {
		if err := p.sleep(ec.Ctx, p.interval); err != nil {
			result.Outcome = OutcomeError
			result.Err = serviceerrors.NewServiceErrorWithCause(err, messages.EvaluationStatusFailed, "ResourceId", handle.ID)
			return result
		}
		evaluation, err := p.getter.GetEvaluation(ec.Ctx, handle.ID)
		if err != nil {
			logger.Error("Status request failed", constants.LOG_RETRY, result.Retries, constants.LOG_ERROR, err.Error())
			result.Outcome = OutcomeError
			result.Err = serviceerrors.NewServiceErrorWithCause(err, messages.EvaluationStatusFailed, "ResourceId", handle.ID)
			return result
		}
		result.Evaluation = evaluation
		result.Status = evaluation.Status
		result.Retries++
		if p.observer != nil {
			p.observer.ObservePoll(evaluation.Status)
		}

		logger.Info(constants.LOG_SEPARATOR)
		logger.Info("Evaluation ID", "id", handle.ID)
		logger.Info("Status", constants.LOG_STATUS, evaluation.Status.String())
		logger.Info("Retry", constants.LOG_RETRY, result.Retries)
	}

	switch result.Status {
	case api.JobStatusCompleted:
		result.Outcome = OutcomeCompleted
	case api.JobStatusFailed:
		result.Outcome = OutcomeFailed
		result.Err = serviceerrors.NewServiceError(messages.EvaluationFailed, "ResourceId", handle.ID, "Status", result.Status.String())
	default:
		result.Outcome = OutcomeAbandoned
		result.Err = serviceerrors.NewServiceError(messages.EvaluationAbandoned, "ResourceId", handle.ID, "Status", result.Status.String(), "Retries", result.Retries)
		logger.Warn("Retry budget exhausted", constants.LOG_STATUS, result.Status.String(), constants.LOG_RETRY, result.Retries)
	}
	return result
}
