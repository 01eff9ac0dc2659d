package elastic

import "github.com/kbukum/rawes/errors"

// IsTransportFailure reports whether err means the call produced no
// response: a connection failure, protocol error, open circuit or timeout.
func IsTransportFailure(err error) bool {
	return errors.HasCode(err, errors.ErrCodeTransportFailure) || errors.HasCode(err, errors.ErrCodeTimeout)
}

// IsTimeout reports whether err is a deadline failure.
func IsTimeout(err error) bool {
	return errors.HasCode(err, errors.ErrCodeTimeout)
}

// IsSerializationFailure reports whether a body or parameter could not be encoded.
func IsSerializationFailure(err error) bool {
	return errors.HasCode(err, errors.ErrCodeSerializationFailure)
}

// IsDecodeFailure reports whether the response body was not JSON.
func IsDecodeFailure(err error) bool {
	return errors.HasCode(err, errors.ErrCodeDecodeFailure)
}

// IsInvalidInput reports whether a path segment, method or config was rejected.
func IsInvalidInput(err error) bool {
	return errors.HasCode(err, errors.ErrCodeInvalidInput)
}
