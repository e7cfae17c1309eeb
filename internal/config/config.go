package config

import (
	"strings"
	"time"
)

type Config struct {
	Workspace *WorkspaceConfig `mapstructure:"workspace"`
	Service   *ServiceConfig   `mapstructure:"service" validate:"required"`
	Auth      *AuthConfig      `mapstructure:"auth"`
	Dataset   *DatasetConfig   `mapstructure:"dataset" validate:"required"`
	Poll      *PollConfig      `mapstructure:"poll" validate:"required"`
	History   *HistoryConfig   `mapstructure:"history"`
	Metrics   *MetricsConfig   `mapstructure:"metrics"`
	Tracing   *TracingConfig   `mapstructure:"tracing"`
	Log       *LogConfig       `mapstructure:"log" validate:"required"`
	// StrictExit maps the run outcome to the process exit code
	StrictExit bool `mapstructure:"strict_exit"`
}

// WorkspaceConfig holds the six workspace parameters. None of them are
// validated locally, missing values surface as remote failures.
type WorkspaceConfig struct {
	DeploymentName string `mapstructure:"deployment_name"`
	APIVersion     string `mapstructure:"api_version"`
	SubscriptionID string `mapstructure:"subscription_id"`
	ResourceGroup  string `mapstructure:"resource_group"`
	WorkspaceName  string `mapstructure:"name"`
	Endpoint       string `mapstructure:"endpoint"`
}

// ConnectionString returns the project connection descriptor. The field order
// endpoint;subscription;resource group;workspace is fixed by the service client.
func (w *WorkspaceConfig) ConnectionString() string {
	return strings.Join([]string{w.Endpoint, w.SubscriptionID, w.ResourceGroup, w.WorkspaceName}, ";")
}

type ServiceConfig struct {
	APIVersion string        `mapstructure:"api_version" validate:"required"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gte=0"`
	UserAgent  string        `mapstructure:"user_agent"`
}

type AuthConfig struct {
	AccessToken   string `mapstructure:"access_token"`
	TenantID      string `mapstructure:"tenant_id"`
	ClientID      string `mapstructure:"client_id"`
	ClientSecret  string `mapstructure:"client_secret"`
	AuthorityHost string `mapstructure:"authority_host" validate:"omitempty,url"`
	Scope         string `mapstructure:"scope"`
}

type DatasetConfig struct {
	Path     string           `mapstructure:"path" validate:"required"`
	Store    string           `mapstructure:"store" validate:"oneof=service s3"`
	Validate bool             `mapstructure:"validate"`
	S3       *S3DatasetConfig `mapstructure:"s3" validate:"required_if=Store s3"`
}

type S3DatasetConfig struct {
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
	// Static credentials, the default AWS chain is used when empty
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

type PollConfig struct {
	MaxRetry int           `mapstructure:"max_retry" validate:"gte=0"`
	Interval time.Duration `mapstructure:"interval" validate:"gte=0"`
}

type HistoryConfig struct {
	Driver          string         `mapstructure:"driver" validate:"omitempty,oneof=sqlite pgx"`
	URL             string         `mapstructure:"url" validate:"required_with=Driver"`
	ConnMaxLifetime *time.Duration `mapstructure:"conn_max_lifetime,omitempty"`
	MaxIdleConns    *int           `mapstructure:"max_idle_conns,omitempty"`
	MaxOpenConns    *int           `mapstructure:"max_open_conns,omitempty"`
	TableName       string         `mapstructure:"table_name"`
}

// Enabled reports whether a run history database is configured
func (h *HistoryConfig) Enabled() bool {
	return h != nil && h.Driver != ""
}

type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url" validate:"omitempty,url"`
	JobName        string `mapstructure:"job_name"`
}

type TracingConfig struct {
	Exporter    string `mapstructure:"exporter" validate:"oneof=none stdout otlp-http otlp-grpc"`
	Endpoint    string `mapstructure:"endpoint"`
	Insecure    bool   `mapstructure:"insecure"`
	ServiceName string `mapstructure:"service_name"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}
