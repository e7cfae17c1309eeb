package executioncontext

import (
	"context"
	"log/slog"
	"time"

	"github.com/eval-hub/eval-cloud/internal/constants"
)

// ExecutionContext carries the state shared by the stages of one run. Stages
// receive an ExecutionContext instead of a bare context so that the run id
// and the enriched logger travel together.
//
// The ExecutionContext contains:
//   - Ctx: cancelled on SIGINT/SIGTERM
//   - RunID: a unique id for this invocation, also sent as the client request id prefix
//   - Logger: a logger enriched with the run id
type ExecutionContext struct {
	Ctx       context.Context
	RunID     string
	Logger    *slog.Logger
	StartedAt time.Time
}

func NewExecutionContext(ctx context.Context, runID string, logger *slog.Logger) *ExecutionContext {
	return &ExecutionContext{
		Ctx:       ctx,
		RunID:     runID,
		Logger:    logger.With(constants.LOG_RUN_ID, runID),
		StartedAt: time.Now(),
	}
}

// WithContext returns a copy bound to ctx, used to attach tracing spans
func (e *ExecutionContext) WithContext(ctx context.Context) *ExecutionContext {
	clone := *e
	clone.Ctx = ctx
	return &clone
}

// WithLogger returns a copy using logger
func (e *ExecutionContext) WithLogger(logger *slog.Logger) *ExecutionContext {
	clone := *e
	clone.Logger = logger
	return &clone
}
