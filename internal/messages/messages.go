package messages

import (
	"fmt"
	"strings"

	"github.com/eval-hub/eval-cloud/internal/constants"
)

// This package provides all the error messages that are reported to the user.
// Note that we add a comment with the message parameters so that it is possible
// to see the parameters in the IDE when creating an error message.
var (
	// Configuration related errors

	// ConfigurationFailed The configuration could not be loaded: '{{.Error}}'.
	ConfigurationFailed = createMessage(
		constants.ExitCodeError,
		"The configuration could not be loaded: '{{.Error}}'.",
	)

	// InvalidConnectionString The connection string '{{.Value}}' is invalid: {{.Error}}.
	InvalidConnectionString = createMessage(
		constants.ExitCodeError,
		"The connection string '{{.Value}}' is invalid: {{.Error}}.",
	)

	// Workflow stage errors

	// ConnectionResolutionFailed The default {{.Type}} connection could not be resolved: '{{.Error}}'.
	ConnectionResolutionFailed = createMessage(
		constants.ExitCodeError,
		"The default {{.Type}} connection could not be resolved: '{{.Error}}'.",
	)

	// DatasetInvalid The dataset {{.Path}} is invalid: '{{.Error}}'.
	DatasetInvalid = createMessage(
		constants.ExitCodeError,
		"The dataset {{.Path}} is invalid: '{{.Error}}'.",
	)

	// DatasetUploadFailed The upload of the dataset {{.Path}} failed: '{{.Error}}'.
	DatasetUploadFailed = createMessage(
		constants.ExitCodeError,
		"The upload of the dataset {{.Path}} failed: '{{.Error}}'.",
	)

	// EvaluationCreateFailed The creation of the evaluation {{.Name}} failed: '{{.Error}}'.
	EvaluationCreateFailed = createMessage(
		constants.ExitCodeError,
		"The creation of the evaluation {{.Name}} failed: '{{.Error}}'.",
	)

	// EvaluationStatusFailed The status request for the evaluation {{.ResourceId}} failed: '{{.Error}}'.
	EvaluationStatusFailed = createMessage(
		constants.ExitCodeError,
		"The status request for the evaluation {{.ResourceId}} failed: '{{.Error}}'.",
	)

	// EvaluationFailed The evaluation {{.ResourceId}} finished with status {{.Status}}.
	EvaluationFailed = createMessage(
		constants.ExitCodeFailed,
		"The evaluation {{.ResourceId}} finished with status {{.Status}}.",
	)

	// EvaluationAbandoned The evaluation {{.ResourceId}} is still {{.Status}} after {{.Retries}} status checks.
	EvaluationAbandoned = createMessage(
		constants.ExitCodeAbandoned,
		"The evaluation {{.ResourceId}} is still {{.Status}} after {{.Retries}} status checks.",
	)

	// Remote service errors

	// ServiceRequestFailed The {{.Method}} request to {{.Api}} failed with status {{.Code}}: '{{.Error}}'.
	ServiceRequestFailed = createMessage(
		constants.ExitCodeError,
		"The {{.Method}} request to {{.Api}} failed with status {{.Code}}: '{{.Error}}'.",
	)

	// InvalidJSONResponse The response JSON for the {{.Type}} is invalid: '{{.Error}}'.
	InvalidJSONResponse = createMessage(
		constants.ExitCodeError,
		"The response JSON for the {{.Type}} is invalid: '{{.Error}}'.",
	)

	// ResponseValidationFailed The response validation for the {{.Type}} failed: '{{.Error}}'.
	ResponseValidationFailed = createMessage(
		constants.ExitCodeError,
		"The response validation for the {{.Type}} failed: '{{.Error}}'.",
	)

	// Storage related errors

	// DatabaseOperationFailed The request for the {{.Type}} resource {{.ResourceId}} failed: '{{.Error}}'.
	DatabaseOperationFailed = createMessage(
		constants.ExitCodeError,
		"The request for the {{.Type}} resource {{.ResourceId}} failed: '{{.Error}}'.",
	)

	// UnknownError An unknown error occurred: '{{.Error}}'. This is a fallback error if the error is not a service error.
	UnknownError = createMessage(
		constants.ExitCodeError,
		"An unknown error occurred: {{.Error}}.",
	)
)

type MessageCode struct {
	status int
	one    string
}

// GetCode returns the process exit code associated with the message
func (m *MessageCode) GetCode() int {
	return m.status
}

func (m *MessageCode) GetMessage() string {
	return m.one
}

func createMessage(status int, one string) *MessageCode {
	return &MessageCode{
		status,
		one,
	}
}

func GetErrorMesssage(messageCode *MessageCode, messageParams ...any) string {
	msg := messageCode.GetMessage()
	for i := 0; i < len(messageParams); i += 2 {
		param := messageParams[i]
		var paramValue any
		if i+1 < len(messageParams) {
			paramValue = messageParams[i+1]
		} else {
			paramValue = "NOT_DEFINED" // this is a placeholder for a missing parameter value - if you see this value then the code needs to be fixed
		}
		msg = strings.ReplaceAll(msg, fmt.Sprintf("{{.%v}}", param), fmt.Sprintf("%v", paramValue))
	}
	return msg
}
