package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/eval-hub/eval-cloud/internal/abstractions"
	"github.com/eval-hub/eval-cloud/internal/config"
	"github.com/eval-hub/eval-cloud/internal/constants"
	"github.com/eval-hub/eval-cloud/internal/datasets"
	"github.com/eval-hub/eval-cloud/internal/datasets/s3store"
	"github.com/eval-hub/eval-cloud/internal/evaluators"
	"github.com/eval-hub/eval-cloud/internal/executioncontext"
	"github.com/eval-hub/eval-cloud/internal/logging"
	"github.com/eval-hub/eval-cloud/internal/metrics"
	"github.com/eval-hub/eval-cloud/internal/projectclient"
	"github.com/eval-hub/eval-cloud/internal/runner"
	"github.com/eval-hub/eval-cloud/internal/serviceerrors"
	"github.com/eval-hub/eval-cloud/internal/storage"
	"github.com/eval-hub/eval-cloud/internal/telemetry"
)

var (
	// Version can be set during the compilation
	Version string = "0.0.1"
	// Build is set during the compilation
	Build string
	// BuildDate is set during the compilation
	BuildDate string
)

const pushTimeout = 10 * time.Second

// cliError carries the exit code of a failed command
type cliError struct {
	code int
	err  error
}

func (e cliError) Error() string { return e.err.Error() }

func (e cliError) Unwrap() error { return e.err }

// newClientFunc is replaced in tests
var newClientFunc = func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (abstractions.EvaluationClient, error) {
	opts := []projectclient.Option{
		projectclient.WithLogger(logger),
		projectclient.WithAPIVersion(cfg.Service.APIVersion),
		projectclient.WithUserAgent(cfg.Service.UserAgent),
		projectclient.WithTimeout(cfg.Service.Timeout),
	}
	if tokenSource := projectclient.NewTokenSource(ctx, cfg.Auth); tokenSource != nil {
		opts = append(opts, projectclient.WithTokenSource(tokenSource))
	}
	return projectclient.NewFromConnectionString(cfg.Workspace.ConnectionString(), opts...)
}

func main() {
	root := newRootCommand(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		var ce cliError
		if errors.As(err, &ce) {
			os.Exit(ce.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalOptions struct {
	envFile string
}

func newRootCommand(stdout io.Writer, stderr io.Writer) *cobra.Command {
	global := &globalOptions{}
	root := &cobra.Command{
		Use:           "eval-cloud",
		Short:         "Submit a batch evaluation job to the cloud evaluation service and wait for it",
		Version:       fmt.Sprintf("%s (build %s, %s)", Version, Build, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEvaluation(cmd, global, stdout, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&global.envFile, "env-file", config.DefaultEnvFile, "environment file loaded before reading the environment")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("log-format", "console", "log format: console or json")
	flags.Bool("strict-exit", false, "exit with a non-zero code when the evaluation does not complete")

	runFlags := root.Flags()
	runFlags.String("dataset", config.DefaultDatasetPath, "newline delimited JSON dataset to evaluate")
	runFlags.String("dataset-store", "service", "where the dataset is uploaded: service or s3")
	runFlags.Bool("validate-dataset", true, "check the dataset records before uploading")
	runFlags.Int("max-retry", config.DefaultMaxRetry, "maximum number of status checks")
	runFlags.Duration("poll-interval", config.DefaultPollInterval, "wait between status checks")

	root.AddCommand(newStatusCommand(global, stdout, stderr))
	root.AddCommand(newHistoryCommand(global, stdout, stderr))
	return root
}

// bootstrap loads the configuration and creates the logger
func bootstrap(cmd *cobra.Command, global *globalOptions, stderr io.Writer) (*config.Config, *slog.Logger, func() error, error) {
	bootLogger, syncBoot, err := logging.NewLogger(&config.LogConfig{Level: "info", Format: "console"}, stderr)
	if err != nil {
		return nil, nil, nil, err
	}
	defer syncBoot()

	cfg, err := config.Load(bootLogger, config.LoadOptions{EnvFile: global.envFile, Flags: cmd.Flags()})
	if err != nil {
		bootLogger.Error("Failed to load the configuration", constants.LOG_ERROR, err.Error())
		return nil, nil, nil, err
	}
	logger, syncLogger, err := logging.NewLogger(cfg.Log, stderr)
	if err != nil {
		bootLogger.Error("Failed to create the logger", constants.LOG_ERROR, err.Error())
		return nil, nil, nil, err
	}
	return cfg, logger, syncLogger, nil
}

// exitError applies the exit policy: errors are logged and end the process
// with code 0 unless strict exit is enabled
func exitError(cfg *config.Config, cmd *cobra.Command, err error) error {
	strict := false
	if cfg != nil {
		strict = cfg.StrictExit
	} else if flag := cmd.Flags().Lookup("strict-exit"); flag != nil {
		strict = flag.Value.String() == "true"
	}
	if !strict {
		return nil
	}
	code := serviceerrors.ExitCode(err)
	if code == constants.ExitCodeOK {
		code = constants.ExitCodeError
	}
	return cliError{code: code, err: err}
}

func runEvaluation(cmd *cobra.Command, global *globalOptions, stdout io.Writer, stderr io.Writer) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, syncLogger, err := bootstrap(cmd, global, stderr)
	if err != nil {
		return exitError(cfg, cmd, err)
	}
	defer syncLogger()

	tracer, shutdownTracing, err := telemetry.Setup(ctx, cfg.Tracing.Exporter, cfg.Tracing.Endpoint, cfg.Tracing.Insecure, cfg.Tracing.ServiceName, stdout, logger)
	if err != nil {
		logger.Error("Failed to set up tracing", constants.LOG_ERROR, err.Error())
		return exitError(cfg, cmd, err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("Failed to flush the traces", constants.LOG_ERROR, err.Error())
		}
	}()

	client, err := newClientFunc(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to create the evaluation client", constants.LOG_ERROR, err.Error())
		return exitError(cfg, cmd, err)
	}

	opts := runner.Options{
		Workspace:   cfg.Workspace,
		DatasetPath: cfg.Dataset.Path,
		MaxRetry:    &cfg.Poll.MaxRetry,
		Interval:    &cfg.Poll.Interval,
		Metrics:     metrics.NewRecorder(cfg.Metrics),
		Tracer:      tracer,
	}
	if cfg.Dataset.Store == "s3" {
		store, err := s3store.NewStore(ctx, cfg.Dataset.S3, logger)
		if err != nil {
			logger.Error("Failed to create the dataset store", constants.LOG_ERROR, err.Error())
			return exitError(cfg, cmd, err)
		}
		opts.Uploader = store
	}
	if cfg.Dataset.Validate {
		preflight, err := datasets.NewPreflight(evaluators.NewDataMapping())
		if err != nil {
			logger.Error("Failed to create the dataset checks", constants.LOG_ERROR, err.Error())
			return exitError(cfg, cmd, err)
		}
		opts.Preflight = preflight
	}
	history, err := storage.NewStorage(cfg.History, logger)
	if err != nil {
		// the run goes ahead without history
		logger.Warn("Run history is not available", constants.LOG_ERROR, err.Error())
	} else if history != nil {
		defer history.Close()
		opts.Storage = history
	}

	ec := executioncontext.NewExecutionContext(ctx, uuid.NewString(), logger)
	report := runner.New(client, opts).Run(ec)

	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
	defer cancel()
	if err := opts.Metrics.Push(pushCtx, ec.RunID); err != nil {
		logger.Warn("Failed to push the metrics", constants.LOG_ERROR, err.Error())
	}

	if cfg.StrictExit && report.ExitCode() != constants.ExitCodeOK {
		return cliError{code: report.ExitCode(), err: report.Err}
	}
	return nil
}

func newStatusCommand(global *globalOptions, stdout io.Writer, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "status <evaluation-id>",
		Short: "Print the current record of an evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, logger, syncLogger, err := bootstrap(cmd, global, stderr)
			if err != nil {
				return exitError(cfg, cmd, err)
			}
			defer syncLogger()

			client, err := newClientFunc(ctx, cfg, logger)
			if err != nil {
				logger.Error("Failed to create the evaluation client", constants.LOG_ERROR, err.Error())
				return exitError(cfg, cmd, err)
			}
			evaluation, err := client.GetEvaluation(ctx, args[0])
			if err != nil {
				logger.Error("Failed to get the evaluation", constants.LOG_EVALUATION, args[0], constants.LOG_ERROR, err.Error())
				return exitError(cfg, cmd, err)
			}
			return writeJSON(stdout, evaluation)
		},
	}
}

func newHistoryCommand(global *globalOptions, stdout io.Writer, stderr io.Writer) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List the recorded runs, newest first, or print a single run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, syncLogger, err := bootstrap(cmd, global, stderr)
			if err != nil {
				return exitError(cfg, cmd, err)
			}
			defer syncLogger()

			history, err := storage.NewStorage(cfg.History, logger)
			if err != nil {
				logger.Error("Failed to open the run history", constants.LOG_ERROR, err.Error())
				return exitError(cfg, cmd, err)
			}
			if history == nil {
				logger.Warn("No run history is configured, set EVAL_HISTORY_DRIVER and EVAL_HISTORY_URL")
				return nil
			}
			defer history.Close()

			if len(args) == 1 {
				record, err := history.GetRun(cmd.Context(), args[0])
				if err != nil {
					logger.Error("Failed to get the run", constants.LOG_RUN_ID, args[0], "datasource", history.GetDatasourceName(), constants.LOG_ERROR, err.Error())
					return exitError(cfg, cmd, err)
				}
				return writeJSON(stdout, record)
			}

			runs, err := history.ListRuns(cmd.Context(), limit, offset)
			if err != nil {
				logger.Error("Failed to list the runs", constants.LOG_ERROR, err.Error())
				return exitError(cfg, cmd, err)
			}
			if runs == nil {
				runs = []abstractions.RunRecord{}
			}
			return writeJSON(stdout, runs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of runs to skip")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
