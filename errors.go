package argseal

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrInvalidSecret indicates no configured secret could decrypt a value.
	ErrInvalidSecret = errors.New("cannot decrypt: invalid secret provided")

	// ErrPolicy indicates a job type's encryption policy declaration is malformed.
	ErrPolicy = errors.New("invalid encryption policy")

	// ErrUnknownJob indicates a job class has no registered job type.
	ErrUnknownJob = errors.New("unknown job class")

	// ErrUnmarshal indicates the codec failed to unmarshal input data.
	ErrUnmarshal = errors.New("unmarshal failed")

	// ErrMarshal indicates the codec failed to marshal output data.
	ErrMarshal = errors.New("marshal failed")

	// ErrEncrypt indicates encryption of an argument failed.
	ErrEncrypt = errors.New("encrypt failed")

	// ErrDecrypt indicates decryption of an argument failed.
	ErrDecrypt = errors.New("decrypt failed")

	// ErrTransportClosed indicates a transport can no longer move jobs.
	ErrTransportClosed = errors.New("transport closed")
)

// PolicyError describes a policy declaration that cannot be interpreted.
// It wraps ErrPolicy.
type PolicyError struct {
	Value  any    // Offending declaration or element
	Reason string // Why it was rejected
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("%s: %s (got %#v)", ErrPolicy.Error(), e.Reason, e.Value)
}

func (e *PolicyError) Unwrap() error {
	return ErrPolicy
}

// TransformError represents an error while sealing or opening one argument.
// It wraps a sentinel error with context about which position and operation failed.
type TransformError struct {
	Err       error  // Underlying sentinel error (ErrEncrypt, ErrDecrypt)
	Class     string // Job class being processed
	Position  int    // Argument position that failed
	Operation string // encrypt or decrypt
	Cause     error  // Original error from the underlying operation
}

func (e *TransformError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s argument %d: %v", e.Operation, e.Class, e.Position, e.Cause)
	}
	return fmt.Sprintf("%s %s argument %d", e.Operation, e.Class, e.Position)
}

// Unwrap exposes both the sentinel and the cause, so errors.Is matches
// ErrDecrypt as well as ErrInvalidSecret.
func (e *TransformError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// CodecError represents a marshal/unmarshal error.
type CodecError struct {
	Err   error // Underlying sentinel error (ErrMarshal, ErrUnmarshal)
	Cause error // Original error from the codec
}

func (e *CodecError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Err.Error(), e.Cause)
	}
	return e.Err.Error()
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// newPolicyError creates a PolicyError for a rejected declaration.
func newPolicyError(value any, reason string) error {
	return &PolicyError{
		Value:  value,
		Reason: reason,
	}
}

// newTransformError creates a TransformError for argument transformation failures.
func newTransformError(sentinel error, operation, class string, position int, cause error) error {
	return &TransformError{
		Err:       sentinel,
		Class:     class,
		Position:  position,
		Operation: operation,
		Cause:     cause,
	}
}

// newCodecError creates a CodecError for marshal/unmarshal failures.
func newCodecError(sentinel error, cause error) error {
	return &CodecError{
		Err:   sentinel,
		Cause: cause,
	}
}
