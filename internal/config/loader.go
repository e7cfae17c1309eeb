package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/eval-hub/eval-cloud/internal/messages"
	"github.com/eval-hub/eval-cloud/internal/serviceerrors"
	"github.com/eval-hub/eval-cloud/internal/validation"
)

const (
	DefaultEnvFile        = ".env"
	DefaultDatasetPath    = "./data.jsonl"
	DefaultMaxRetry       = 30
	DefaultPollInterval   = 15 * time.Second
	DefaultServiceVersion = "2024-07-01-preview"
)

// envBindings maps configuration keys to the environment variables they are read from
var envBindings = map[string]string{
	"workspace.deployment_name":    "AZURE_DEPLOYMENT_NAME",
	"workspace.api_version":        "AZURE_OPENAI_API_VERSION",
	"workspace.subscription_id":    "AZURE_SUBSCRIPTION_ID",
	"workspace.resource_group":     "AZURE_WORKSPACE_RG_NAME",
	"workspace.name":               "AZURE_WORKSPACE_NAME",
	"workspace.endpoint":           "AZURE_WORKSPACE_ENDPOINT",
	"service.api_version":          "EVAL_SERVICE_API_VERSION",
	"service.timeout":              "EVAL_SERVICE_TIMEOUT",
	"service.user_agent":           "EVAL_SERVICE_USER_AGENT",
	"auth.access_token":            "AZURE_ACCESS_TOKEN",
	"auth.tenant_id":               "AZURE_TENANT_ID",
	"auth.client_id":               "AZURE_CLIENT_ID",
	"auth.client_secret":           "AZURE_CLIENT_SECRET",
	"auth.authority_host":          "AZURE_AUTHORITY_HOST",
	"auth.scope":                   "EVAL_AUTH_SCOPE",
	"dataset.path":                 "EVAL_DATASET_PATH",
	"dataset.store":                "EVAL_DATASET_STORE",
	"dataset.validate":             "EVAL_DATASET_VALIDATE",
	"dataset.s3.bucket":            "EVAL_DATASET_S3_BUCKET",
	"dataset.s3.prefix":            "EVAL_DATASET_S3_PREFIX",
	"dataset.s3.region":            "EVAL_DATASET_S3_REGION",
	"dataset.s3.endpoint":          "EVAL_DATASET_S3_ENDPOINT",
	"dataset.s3.access_key_id":     "EVAL_DATASET_S3_ACCESS_KEY_ID",
	"dataset.s3.secret_access_key": "EVAL_DATASET_S3_SECRET_ACCESS_KEY",
	"dataset.s3.use_path_style":    "EVAL_DATASET_S3_USE_PATH_STYLE",
	"poll.max_retry":               "EVAL_POLL_MAX_RETRY",
	"poll.interval":                "EVAL_POLL_INTERVAL",
	"history.driver":               "EVAL_HISTORY_DRIVER",
	"history.url":                  "EVAL_HISTORY_URL",
	"history.table_name":           "EVAL_HISTORY_TABLE",
	"metrics.pushgateway_url":      "EVAL_METRICS_PUSHGATEWAY_URL",
	"metrics.job_name":             "EVAL_METRICS_JOB_NAME",
	"tracing.exporter":             "EVAL_TRACING_EXPORTER",
	"tracing.endpoint":             "EVAL_TRACING_ENDPOINT",
	"tracing.insecure":             "EVAL_TRACING_INSECURE",
	"tracing.service_name":         "EVAL_TRACING_SERVICE_NAME",
	"log.level":                    "EVAL_LOG_LEVEL",
	"log.format":                   "EVAL_LOG_FORMAT",
	"strict_exit":                  "EVAL_STRICT_EXIT",
}

// flagBindings maps configuration keys to command line flag names
var flagBindings = map[string]string{
	"dataset.path":     "dataset",
	"dataset.store":    "dataset-store",
	"dataset.validate": "validate-dataset",
	"poll.max_retry":   "max-retry",
	"poll.interval":    "poll-interval",
	"log.level":        "log-level",
	"log.format":       "log-format",
	"strict_exit":      "strict-exit",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.api_version", DefaultServiceVersion)
	v.SetDefault("service.timeout", 60*time.Second)
	v.SetDefault("service.user_agent", "eval-cloud")
	v.SetDefault("auth.authority_host", "https://login.microsoftonline.com")
	v.SetDefault("auth.scope", "https://ml.azure.com/.default")
	v.SetDefault("dataset.path", DefaultDatasetPath)
	v.SetDefault("dataset.store", "service")
	v.SetDefault("dataset.validate", true)
	v.SetDefault("poll.max_retry", DefaultMaxRetry)
	v.SetDefault("poll.interval", DefaultPollInterval)
	v.SetDefault("history.table_name", "evaluation_runs")
	v.SetDefault("metrics.job_name", "eval_cloud")
	v.SetDefault("tracing.exporter", "none")
	v.SetDefault("tracing.service_name", "eval-cloud")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("strict_exit", false)
}

type LoadOptions struct {
	// EnvFile is loaded into the process environment without overriding
	// variables that are already set. A missing file is not an error.
	EnvFile string
	// Flags are optional command line overrides
	Flags *pflag.FlagSet
}

// Load resolves the configuration from the environment, an optional .env file
// and command line flags, in increasing order of precedence.
func Load(logger *slog.Logger, opts LoadOptions) (*Config, error) {
	if opts.EnvFile != "" {
		if err := gotenv.Load(opts.EnvFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, serviceerrors.NewServiceErrorWithCause(err, messages.ConfigurationFailed)
			}
			logger.Debug("No env file found", "path", opts.EnvFile)
		}
	}

	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, serviceerrors.NewServiceErrorWithCause(err, messages.ConfigurationFailed)
		}
	}
	if opts.Flags != nil {
		for key, name := range flagBindings {
			flag := opts.Flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, serviceerrors.NewServiceErrorWithCause(err, messages.ConfigurationFailed)
			}
		}
	}

	cfg := &Config{}
	err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, serviceerrors.NewServiceErrorWithCause(err, messages.ConfigurationFailed)
	}
	cfg.normalize()

	validate, err := validation.NewValidator()
	if err != nil {
		return nil, serviceerrors.NewServiceErrorWithCause(err, messages.ConfigurationFailed)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, serviceerrors.NewServiceErrorWithCause(err, messages.ConfigurationFailed)
	}

	if cfg.Workspace.Endpoint == "" || cfg.Workspace.SubscriptionID == "" {
		// not fatal, the service rejects the requests later on
		logger.Warn("Workspace configuration is incomplete", "connection", cfg.Workspace.ConnectionString())
	}
	return cfg, nil
}

// normalize makes sure every optional section is present so callers never
// have to check for nil sections.
func (c *Config) normalize() {
	if c.Workspace == nil {
		c.Workspace = &WorkspaceConfig{}
	}
	if c.Service == nil {
		c.Service = &ServiceConfig{APIVersion: DefaultServiceVersion}
	}
	if c.Auth == nil {
		c.Auth = &AuthConfig{}
	}
	if c.Dataset == nil {
		c.Dataset = &DatasetConfig{Path: DefaultDatasetPath, Store: "service", Validate: true}
	}
	if c.Dataset.S3 == nil && c.Dataset.Store != "s3" {
		c.Dataset.S3 = &S3DatasetConfig{}
	}
	if c.Poll == nil {
		c.Poll = &PollConfig{MaxRetry: DefaultMaxRetry, Interval: DefaultPollInterval}
	}
	if c.History == nil {
		c.History = &HistoryConfig{}
	}
	if c.Metrics == nil {
		c.Metrics = &MetricsConfig{}
	}
	if c.Tracing == nil {
		c.Tracing = &TracingConfig{Exporter: "none"}
	}
	if c.Log == nil {
		c.Log = &LogConfig{Level: "info", Format: "console"}
	}
}
