package domainerrors

import "errors"

// Code represents a domain error category independent of transport layer.
// These codes describe what went wrong in business logic terms, not HTTP terms.
type Code string

const (
	CodeNotFound           Code = "not_found"
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_failed"
	CodeInternal           Code = "internal_error"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"

	// Disclosure engine codes
	CodeUnknownAttribute     Code = "unknown_attribute"     // Requested attribute is not a claim of the subject's credential
	CodeNotAuthorized        Code = "not_authorized"        // No grant exists for (subject, organization)
	CodeAuthorizationExpired Code = "authorization_expired" // Grant exists but its window has lapsed
	CodeProofInvalid         Code = "proof_invalid"         // Cryptographic verification failed
	CodeStoreUnavailable     Code = "store_unavailable"     // Document store timed out or is unreachable
)

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service, store, and other layers.
type Error struct {
	Code    Code
	Message string
	Err     error
	// Details carries structured context for callers, e.g. the valid attribute set
	// on an unknown_attribute failure.
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// NewWithDetails creates a domain error carrying structured details.
func NewWithDetails(code Code, msg string, details map[string]any) error {
	return &Error{Code: code, Message: msg, Details: details}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err, Details: existing.Details}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the domain code of err, or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// DetailsOf returns the structured details attached to err, if any.
func DetailsOf(err error) map[string]any {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}

// Retryable reports whether the caller may retry the operation after re-reading
// current state. Only write collisions and transient store failures qualify.
func Retryable(err error) bool {
	switch CodeOf(err) {
	case CodeConflict, CodeStoreUnavailable:
		return true
	default:
		return false
	}
}
