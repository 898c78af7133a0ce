package errors

import (
	"errors"
	"fmt"
)

var (
	ErrAuthFailed  = errors.New("telemetry authentication failed")
	ErrAuthExpired = errors.New("telemetry token invalid or expired")

	ErrNoMatch = errors.New("no telemetry asset matches vehicle identifier")
	ErrNoFix   = errors.New("asset has no position fix")

	ErrTickInFlight = errors.New("a poll tick is already in flight")

	ErrInvalidInput = errors.New("invalid input data")
)

// APIError is returned for any non-2xx telemetry provider response that is
// not handled by the session's 401 retry or the geofence 404 special case.
type APIError struct {
	StatusCode int
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telemetry api returned %d for %s", e.StatusCode, e.Endpoint)
}

func NewAPIError(statusCode int, endpoint string) *APIError {
	return &APIError{StatusCode: statusCode, Endpoint: endpoint}
}

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
