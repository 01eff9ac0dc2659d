package httpclient

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorCode classifies adapter errors.
type ErrorCode int

const (
	// ErrCodeTimeout means the call ran out of time.
	ErrCodeTimeout ErrorCode = iota
	// ErrCodeConnection means no complete response was received.
	ErrCodeConnection
	// ErrCodeRequest means the request could not be built.
	ErrCodeRequest
	// ErrCodeStatus means a complete response arrived with a non-2xx status.
	ErrCodeStatus
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeConnection:
		return "connection"
	case ErrCodeRequest:
		return "request"
	case ErrCodeStatus:
		return "status"
	default:
		return "unknown"
	}
}

// Error is a classified adapter error.
type Error struct {
	// StatusCode is set for ErrCodeStatus only.
	StatusCode int
	Code       ErrorCode
	Message    string
	// Retryable reports whether repeating the call may succeed.
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(err error) *Error {
	return &Error{Code: ErrCodeTimeout, Message: err.Error(), Retryable: true, Err: err}
}

// NewConnectionError creates a connection error.
func NewConnectionError(err error) *Error {
	return &Error{Code: ErrCodeConnection, Message: err.Error(), Retryable: true, Err: err}
}

func newRequestError(err error) *Error {
	return &Error{Code: ErrCodeRequest, Message: fmt.Sprintf("create request: %v", err), Err: err}
}

// StatusError classifies a non-2xx status. It returns nil for 2xx.
// Only statuses that signal a busy or restarting node are retryable:
// 429, 502, 503 and 504.
func StatusError(statusCode int) *Error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	retryable := false
	switch statusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		retryable = true
	}
	return &Error{
		StatusCode: statusCode,
		Code:       ErrCodeStatus,
		Message:    http.StatusText(statusCode),
		Retryable:  retryable,
	}
}

// IsTimeout reports whether err is a timeout.
func IsTimeout(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeTimeout
}

// IsConnection reports whether err is a connection failure.
func IsConnection(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeConnection
}

// IsRetryable reports whether err may succeed on a later attempt.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

// IsStatus reports whether err only classifies a received status code.
// The response that accompanies such an error is complete.
func IsStatus(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeStatus
}

// isBackendFailure counts connection failures and 5xx statuses.
func isBackendFailure(err error) bool {
	if err == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) && e.Code == ErrCodeStatus {
		return e.StatusCode >= 500
	}
	return true
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
