package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/contrib/detectors/aws/ecs"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
)

const instrumentationName = "github.com/eval-hub/eval-cloud"

// ShutdownFunc flushes and stops the tracer provider
type ShutdownFunc func(ctx context.Context) error

// Setup installs the global tracer provider for the configured exporter and
// returns the tracer used by the workflow. With exporter "none" a no-op tracer
// is returned and nothing global is changed.
func Setup(ctx context.Context, exporter string, endpoint string, insecure bool, serviceName string, stdout io.Writer, logger *slog.Logger) (trace.Tracer, ShutdownFunc, error) {
	var spanExporter sdktrace.SpanExporter
	var err error
	switch exporter {
	case "", "none":
		return noop.NewTracerProvider().Tracer(instrumentationName), func(context.Context) error { return nil }, nil
	case "stdout":
		spanExporter, err = stdouttrace.New(stdouttrace.WithWriter(stdout), stdouttrace.WithPrettyPrint())
	case "otlp-http":
		opts := []otlptracehttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(endpoint))
		}
		if insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		spanExporter, err = otlptracehttp.New(ctx, opts...)
	case "otlp-grpc":
		opts := []otlptracegrpc.Option{}
		if endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(endpoint))
		}
		if insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		opts = append(opts, otlptracegrpc.WithDialOption(grpc.WithUserAgent(serviceName)))
		spanExporter, err = otlptracegrpc.New(ctx, opts...)
	default:
		return nil, nil, fmt.Errorf("unsupported tracing exporter %q", exporter)
	}
	if err != nil {
		return nil, nil, err
	}

	// exporter errors are reported through the application logger
	otel.SetLogger(logr.FromSlogHandler(logger.Handler()))

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExporter),
		sdktrace.WithResource(newResource(ctx, serviceName, logger)),
	)
	otel.SetTracerProvider(provider)
	logger.Debug("Tracing enabled", "exporter", exporter, "endpoint", endpoint)
	return provider.Tracer(instrumentationName), provider.Shutdown, nil
}

// newResource describes the process. The ECS detector adds the task and
// container attributes when running on ECS and nothing otherwise.
func newResource(ctx context.Context, serviceName string, logger *slog.Logger) *resource.Resource {
	base := resource.NewSchemaless(attribute.String("service.name", serviceName))
	detected, err := ecs.NewResourceDetector().Detect(ctx)
	if err != nil {
		logger.Warn("ECS resource detection failed", "error", err)
		return base
	}
	merged, err := resource.Merge(base, detected)
	if err != nil {
		logger.Warn("Failed to merge the resource attributes", "error", err)
		return base
	}
	return merged
}
