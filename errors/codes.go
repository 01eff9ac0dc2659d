package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Transport errors (retryable)
const (
	// ErrCodeTransportFailure indicates the request never produced a response:
	// connection refused, reset, protocol violation or an open circuit.
	ErrCodeTransportFailure ErrorCode = "TRANSPORT_FAILURE"
	// ErrCodeTimeout indicates the request exceeded its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Payload errors
const (
	// ErrCodeSerializationFailure indicates a request body or parameter
	// could not be encoded. Raised before any network call.
	ErrCodeSerializationFailure ErrorCode = "SERIALIZATION_FAILURE"
	// ErrCodeDecodeFailure indicates a response body was not valid JSON.
	ErrCodeDecodeFailure ErrorCode = "DECODE_FAILURE"
)

// Input errors
const (
	// ErrCodeInvalidInput indicates a caller-supplied value was rejected.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required configuration field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected failure inside the client.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTransportFailure: true,
	ErrCodeTimeout:          true,
	ErrCodeInternal:         false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
