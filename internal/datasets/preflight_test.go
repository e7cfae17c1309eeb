package datasets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eval-hub/eval-cloud/internal/evaluators"
	"github.com/eval-hub/eval-cloud/internal/messages"
	"github.com/eval-hub/eval-cloud/internal/serviceerrors"
	"github.com/eval-hub/eval-cloud/pkg/api"
)

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.jsonl")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

func TestMappingToJSONPath(t *testing.T) {
	tests := []struct {
		expression string
		want       string
		wantErr    bool
	}{
		{expression: "${data.response}", want: "$.response"},
		{expression: "${data.meta.source}", want: "$.meta.source"},
		{expression: "${target.response}", wantErr: true},
		{expression: "response", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			got, err := MappingToJSONPath(tt.expression)
			if (err != nil) != tt.wantErr {
				t.Fatalf("MappingToJSONPath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("MappingToJSONPath() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCheckFile(t *testing.T) {
	preflight, err := NewPreflight(evaluators.NewDataMapping())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	t.Run("valid dataset", func(t *testing.T) {
		path := writeDataset(t, `{"query":"What is Go?","context":"Go is a language.","response":"A language."}

{"query":"q2","context":"c2","response":"r2","extra":1}
`)
		summary, err := preflight.CheckFile(ctx, path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.Records != 2 {
			t.Errorf("expected 2 records, got %d", summary.Records)
		}
	})

	t.Run("missing field", func(t *testing.T) {
		path := writeDataset(t, `{"query":"q","response":"r"}`+"\n")
		_, err := preflight.CheckFile(ctx, path)
		serviceError := &serviceerrors.ServiceError{}
		if !errors.As(err, &serviceError) || serviceError.MessageCode() != messages.DatasetInvalid {
			t.Fatalf("expected DatasetInvalid, got %v", err)
		}
		if !strings.Contains(err.Error(), "line 1") || !strings.Contains(err.Error(), "context") {
			t.Errorf("expected the line and the field in %q", err.Error())
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		path := writeDataset(t, `{"query":"q","context":"c","response":"r"}`+"\n"+`{not json}`+"\n")
		_, err := preflight.CheckFile(ctx, path)
		if err == nil || !strings.Contains(err.Error(), "line 2") {
			t.Fatalf("expected an error on line 2, got %v", err)
		}
	})

	t.Run("non string values", func(t *testing.T) {
		path := writeDataset(t, `{"query":"q","context":["c1","c2"],"response":42}`+"\n")
		if _, err := preflight.CheckFile(ctx, path); err != nil {
			t.Fatalf("expected present fields to be enough, got %v", err)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeDataset(t, "\n\n")
		summary, err := preflight.CheckFile(ctx, path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.Records != 0 {
			t.Errorf("expected 0 records, got %d", summary.Records)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := preflight.CheckFile(ctx, filepath.Join(t.TempDir(), "nope.jsonl")); err == nil {
			t.Fatalf("expected an error for a missing file")
		}
	})
}

func TestCheckFileCustomMapping(t *testing.T) {
	mapping := api.DataMapping{"query": "${data.question}"}
	if _, err := NewPreflight(api.DataMapping{"query": "question"}); err == nil {
		t.Fatalf("expected an error for an unsupported expression")
	}
	preflight, err := NewPreflight(mapping)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path := writeDataset(t, `{"query":"q","context":"c","response":"r"}`+"\n")
	_, err = preflight.CheckFile(context.Background(), path)
	if err == nil || !strings.Contains(err.Error(), `mapping "query" does not resolve`) {
		t.Fatalf("expected an unresolved mapping error, got %v", err)
	}
}
