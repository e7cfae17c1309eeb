package serviceerrors

import (
	"errors"

	"github.com/eval-hub/eval-cloud/internal/messages"
)

type ServiceError struct {
	messageCode   *messages.MessageCode
	messageParams []any
	cause         error
}

func (e *ServiceError) Error() string {
	return messages.GetErrorMesssage(e.messageCode, e.messageParams...)
}

// Unwrap exposes the underlying cause so errors.Is and errors.As work across stages
func (e *ServiceError) Unwrap() error {
	return e.cause
}

func (e *ServiceError) MessageCode() *messages.MessageCode {
	return e.messageCode
}

func (e *ServiceError) MessageParams() []any {
	return e.messageParams
}

func NewServiceError(messageCode *messages.MessageCode, messageParams ...any) *ServiceError {
	return &ServiceError{
		messageCode:   messageCode,
		messageParams: messageParams,
	}
}

// NewServiceErrorWithCause builds a service error whose "Error" parameter is the cause message.
func NewServiceErrorWithCause(cause error, messageCode *messages.MessageCode, messageParams ...any) *ServiceError {
	params := append(messageParams, "Error", cause.Error())
	return &ServiceError{
		messageCode:   messageCode,
		messageParams: params,
		cause:         cause,
	}
}

// ExitCode returns the exit code carried by the first service error in the chain.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	serviceError := &ServiceError{}
	if errors.As(err, &serviceError) {
		return serviceError.messageCode.GetCode()
	}
	return messages.UnknownError.GetCode()
}
