package serialization

import (
	"context"
	"encoding/json"
	"log/slog"

	validator "github.com/go-playground/validator/v10"

	"github.com/eval-hub/eval-cloud/internal/messages"
	"github.com/eval-hub/eval-cloud/internal/serviceerrors"
)

// Unmarshal decodes a service response into v and validates it. typeName is
// used in the error messages only.
func Unmarshal(ctx context.Context, logger *slog.Logger, validate *validator.Validate, jsonBytes []byte, v any, typeName string) error {
	err := json.Unmarshal(jsonBytes, v)
	if err != nil {
		return serviceerrors.NewServiceErrorWithCause(err, messages.InvalidJSONResponse, "Type", typeName)
	}
	if validate == nil {
		return nil
	}
	// now validate the unmarshalled data
	err = validate.StructCtx(ctx, v)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, validationError := range validationErrors {
				logger.Info("Validation error", "type", typeName, "field", validationError.Field(), "tag", validationError.Tag(), "value", validationError.Value())
			}
		}
		return serviceerrors.NewServiceErrorWithCause(err, messages.ResponseValidationFailed, "Type", typeName)
	}
	// if the validation is successful, return nil
	return nil
}
