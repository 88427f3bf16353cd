package errors

import (
	"fmt"
	"net/http"
)

// AppError is the custom error type for the application's HTTP boundary
type AppError struct {
	Raw      error
	HTTPCode int
	Code     ErrorCode
	Message  string
	Details  map[string]string
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the wrapped cause
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// General errors

func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

// Analysis errors

func ErrAnalysisParseFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_ANALYSIS_PARSE_FAILED,
		Message:  "Model output could not be parsed into an analysis",
	}
}

func ErrAnalysisRemoteFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_ANALYSIS_REMOTE_FAILED,
		Message:  "Language model call failed",
	}
}

func ErrAnalysisInputTooLarge(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusRequestEntityTooLarge,
		Code:     ErrorCode_ANALYSIS_INPUT_TOO_LARGE,
		Message:  "Transcript exceeds the configured size limit",
	}
}

// Dispatch errors

func ErrDispatchPrecondition(reason string) AppError {
	return AppError{
		HTTPCode: http.StatusUnprocessableEntity,
		Code:     ErrorCode_DISPATCH_PRECONDITION,
		Message:  fmt.Sprintf("Dispatch precondition failed: %s", reason),
	}
}

// Integration errors

func ErrTrackerFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_INTEGRATION_TRACKER_FAILED,
		Message:  fmt.Sprintf("Tracker operation failed: %s", operation),
	}
}
