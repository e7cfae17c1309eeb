package serialization

import (
	"context"
	"errors"
	"testing"

	"github.com/eval-hub/eval-cloud/internal/logging"
	"github.com/eval-hub/eval-cloud/internal/messages"
	"github.com/eval-hub/eval-cloud/internal/serviceerrors"
	"github.com/eval-hub/eval-cloud/internal/validation"
	"github.com/eval-hub/eval-cloud/pkg/api"
)

func TestUnmarshal(t *testing.T) {
	validate, err := validation.NewValidator()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()
	logger := logging.Discard()

	t.Run("valid job handle", func(t *testing.T) {
		handle := api.JobHandle{}
		if err := Unmarshal(ctx, logger, validate, []byte(`{"id":"job-1","status":"Queued"}`), &handle, "evaluation"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if handle.ID != "job-1" || handle.Status != api.JobStatusQueued {
			t.Errorf("unexpected handle %+v", handle)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		handle := api.JobHandle{}
		err := Unmarshal(ctx, logger, validate, []byte(`{"id":`), &handle, "evaluation")
		serviceError := &serviceerrors.ServiceError{}
		if !errors.As(err, &serviceError) || serviceError.MessageCode() != messages.InvalidJSONResponse {
			t.Fatalf("expected InvalidJSONResponse, got %v", err)
		}
	})

	t.Run("missing required field", func(t *testing.T) {
		handle := api.JobHandle{}
		err := Unmarshal(ctx, logger, validate, []byte(`{"status":"Queued"}`), &handle, "evaluation")
		serviceError := &serviceerrors.ServiceError{}
		if !errors.As(err, &serviceError) || serviceError.MessageCode() != messages.ResponseValidationFailed {
			t.Fatalf("expected ResponseValidationFailed, got %v", err)
		}
	})
}
