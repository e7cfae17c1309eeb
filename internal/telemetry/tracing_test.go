package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/eval-hub/eval-cloud/internal/logging"
)

func TestSetupNone(t *testing.T) {
	tracer, shutdown, err := Setup(context.Background(), "none", "", false, "eval-cloud", &bytes.Buffer{}, logging.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, span := tracer.Start(context.Background(), "stage")
	span.End()
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
}

func TestSetupStdout(t *testing.T) {
	buf := &bytes.Buffer{}
	tracer, shutdown, err := Setup(context.Background(), "stdout", "", false, "eval-cloud", buf, logging.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, span := tracer.Start(context.Background(), "upload")
	span.End()
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}
	if !strings.Contains(buf.String(), `"Name": "upload"`) {
		t.Errorf("expected the exported span, got %s", buf.String())
	}
}

func TestSetupUnsupported(t *testing.T) {
	if _, _, err := Setup(context.Background(), "zipkin", "", false, "eval-cloud", &bytes.Buffer{}, logging.Discard()); err == nil {
		t.Fatalf("expected an error for an unsupported exporter")
	}
}

func TestNewResourceOutsideECS(t *testing.T) {
	t.Setenv("ECS_CONTAINER_METADATA_URI", "")
	t.Setenv("ECS_CONTAINER_METADATA_URI_V4", "")
	res := newResource(context.Background(), "eval-cloud", logging.Discard())
	found := false
	for _, kv := range res.Attributes() {
		if string(kv.Key) == "service.name" && kv.Value.AsString() == "eval-cloud" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected service.name in %v", res.Attributes())
	}
}
