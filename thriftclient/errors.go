package thriftclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/apache/thrift/lib/go/thrift"
)

// ErrorCode classifies Thrift client errors.
type ErrorCode int

const (
	// ErrCodeTimeout indicates a call or dial that exceeded its deadline.
	ErrCodeTimeout ErrorCode = iota
	// ErrCodeConnection indicates a connection failure (refused, reset, closed).
	ErrCodeConnection
	// ErrCodeProtocol indicates a malformed or unexpected message.
	ErrCodeProtocol
	// ErrCodeApplication indicates the server answered with an exception.
	ErrCodeApplication
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeConnection:
		return "connection"
	case ErrCodeProtocol:
		return "protocol"
	case ErrCodeApplication:
		return "application"
	default:
		return "unknown"
	}
}

// Error is a structured Thrift client error with classification.
type Error struct {
	// Code classifies the error.
	Code ErrorCode
	// Message describes the error.
	Message string
	// Retryable indicates whether the operation can be retried.
	Retryable bool
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("thriftclient: %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, retryable bool, err error) *Error {
	return &Error{Code: code, Message: err.Error(), Retryable: retryable, Err: err}
}

// classify maps errors from the socket and the thrift library to *Error.
func classify(ctx context.Context, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if ctx.Err() != nil {
		return newError(ErrCodeTimeout, true, err)
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return newError(ErrCodeTimeout, true, err)
	}

	// The binary protocol wraps socket reads in protocol exceptions, which
	// would otherwise hide a peer that hung up.
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return newError(ErrCodeConnection, true, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return newError(ErrCodeConnection, true, err)
	}

	var appErr thrift.TApplicationException
	if errors.As(err, &appErr) {
		return newError(ErrCodeApplication, false, err)
	}

	var transErr thrift.TTransportException
	if errors.As(err, &transErr) {
		if transErr.TypeId() == thrift.TIMED_OUT {
			return newError(ErrCodeTimeout, true, err)
		}
		return newError(ErrCodeConnection, true, err)
	}

	var protoErr thrift.TProtocolException
	if errors.As(err, &protoErr) {
		return newError(ErrCodeProtocol, false, err)
	}
	return newError(ErrCodeConnection, true, err)
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeTimeout
}

// IsConnection checks if an error is a connection error.
func IsConnection(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeConnection
}

// IsProtocol checks if an error is a protocol error.
func IsProtocol(err error) bool {
	var e *Error
	return errors.As(err, &e) && (e.Code == ErrCodeProtocol || e.Code == ErrCodeApplication)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

var errMissingResult = errors.New("execute returned no result")
