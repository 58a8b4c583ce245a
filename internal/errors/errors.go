package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeUpstreamUnavailable indicates the SSO server could not be reached.
	// Retryable once by the validator; surfaced as 503 afterwards.
	ErrCodeUpstreamUnavailable ErrorCode = "upstream_unavailable"
	// ErrCodeTicketRejected indicates an invalid, expired, or replayed service
	// ticket. Not retryable; the login flow must restart.
	ErrCodeTicketRejected ErrorCode = "ticket_rejected"
	// ErrCodeProtocolError indicates a malformed response from the SSO server.
	ErrCodeProtocolError ErrorCode = "protocol_error"
	// ErrCodeAssertionMalformed indicates a validated assertion that cannot be
	// resolved to a principal.
	ErrCodeAssertionMalformed ErrorCode = "assertion_malformed"
	// ErrCodeUnauthenticated indicates a request without a live session.
	ErrCodeUnauthenticated ErrorCode = "unauthenticated"
	// ErrCodeInsufficientRole indicates an authenticated principal lacking a
	// required role.
	ErrCodeInsufficientRole ErrorCode = "insufficient_role"
	// ErrCodeCSRFRejected indicates a state-changing request with a missing or
	// mismatched anti-forgery token.
	ErrCodeCSRFRejected ErrorCode = "csrf_rejected"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
)

// AppError represents a structured application error with a code, message, and
// optional cause. It supports errors.Is and errors.As via Unwrap.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// UpstreamUnavailable creates a new UpstreamUnavailable error.
func UpstreamUnavailable(message string) *AppError {
	return &AppError{Code: ErrCodeUpstreamUnavailable, Message: message}
}

// TicketRejected creates a new TicketRejected error.
func TicketRejected(message string) *AppError {
	return &AppError{Code: ErrCodeTicketRejected, Message: message}
}

// TicketRejectedf creates a new TicketRejected error with formatted message.
func TicketRejectedf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeTicketRejected, Message: fmt.Sprintf(format, args...)}
}

// ProtocolError creates a new ProtocolError error.
func ProtocolError(message string) *AppError {
	return &AppError{Code: ErrCodeProtocolError, Message: message}
}

// AssertionMalformed creates a new AssertionMalformed error.
func AssertionMalformed(message string) *AppError {
	return &AppError{Code: ErrCodeAssertionMalformed, Message: message}
}

// Unauthenticated creates a new Unauthenticated error.
func Unauthenticated(message string) *AppError {
	return &AppError{Code: ErrCodeUnauthenticated, Message: message}
}

// InsufficientRole creates a new InsufficientRole error.
func InsufficientRole(message string) *AppError {
	return &AppError{Code: ErrCodeInsufficientRole, Message: message}
}

// CSRFRejected creates a new CSRFRejected error.
func CSRFRejected(message string) *AppError {
	return &AppError{Code: ErrCodeCSRFRejected, Message: message}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsUpstreamUnavailable checks if an error is an UpstreamUnavailable error.
func IsUpstreamUnavailable(err error) bool {
	return isCode(err, ErrCodeUpstreamUnavailable)
}

// IsTicketRejected checks if an error is a TicketRejected error.
func IsTicketRejected(err error) bool {
	return isCode(err, ErrCodeTicketRejected)
}

// IsProtocolError checks if an error is a ProtocolError error.
func IsProtocolError(err error) bool {
	return isCode(err, ErrCodeProtocolError)
}

// IsAssertionMalformed checks if an error is an AssertionMalformed error.
func IsAssertionMalformed(err error) bool {
	return isCode(err, ErrCodeAssertionMalformed)
}

// IsUnauthenticated checks if an error is an Unauthenticated error.
func IsUnauthenticated(err error) bool {
	return isCode(err, ErrCodeUnauthenticated)
}

// IsInsufficientRole checks if an error is an InsufficientRole error.
func IsInsufficientRole(err error) bool {
	return isCode(err, ErrCodeInsufficientRole)
}

// IsCSRFRejected checks if an error is a CSRFRejected error.
func IsCSRFRejected(err error) bool {
	return isCode(err, ErrCodeCSRFRejected)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
