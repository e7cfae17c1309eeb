package projectclient

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Jeffail/gabs/v2"
)

// APIError represents a non 2xx response of the evaluation service
type APIError struct {
	StatusCode   int
	Method       string
	Path         string
	ErrorCode    string
	Message      string
	ResponseBody string
}

func (e *APIError) Error() string {
	sb := strings.Builder{}
	sb.WriteString("evaluation service error")
	if e.ErrorCode != "" {
		sb.WriteString(" ")
		sb.WriteString(e.ErrorCode)
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	} else if e.ResponseBody != "" {
		sb.WriteString(" with response body: ")
		sb.WriteString(e.ResponseBody)
	}
	sb.WriteString(" with status code: ")
	sb.WriteString(strconv.Itoa(e.StatusCode))
	return sb.String()
}

// newAPIError extracts the error envelope {"error":{"code","message"}} when present
func newAPIError(method string, path string, statusCode int, body []byte) *APIError {
	apiError := &APIError{
		StatusCode:   statusCode,
		Method:       method,
		Path:         path,
		ResponseBody: strings.TrimSpace(string(body)),
	}
	parsed, err := gabs.ParseJSON(body)
	if err != nil {
		return apiError
	}
	if code, ok := parsed.Path("error.code").Data().(string); ok {
		apiError.ErrorCode = code
	}
	if message, ok := parsed.Path("error.message").Data().(string); ok {
		apiError.Message = message
	} else if message, ok := parsed.Path("message").Data().(string); ok {
		apiError.Message = message
	}
	return apiError
}

func IsNotFoundError(err error) bool {
	apiError := &APIError{}
	return errors.As(err, &apiError) && apiError.StatusCode == http.StatusNotFound
}

func IsAuthenticationError(err error) bool {
	apiError := &APIError{}
	return errors.As(err, &apiError) &&
		(apiError.StatusCode == http.StatusUnauthorized || apiError.StatusCode == http.StatusForbidden)
}
