package server

import (
	"fmt"
	"net/http"
)

// Error codes returned to API clients. Stable strings; clients branch on
// these rather than on messages.
const (
	CodeValidation            = "validation_error"
	CodeConflict              = "conflict"
	CodeNotFound              = "not_found"
	CodeInvalidOrExpiredToken = "invalid_or_expired_token"
	CodeProvider              = "provider_error"
	CodeNotification          = "notification_error"
	CodeRateLimited           = "rate_limit_exceeded"
	CodeUnauthorized          = "unauthorized"
)

// Error is the taxonomy every controller failure maps into. Message is safe
// to return to clients; the wrapped cause is not.
type Error struct {
	Code    string
	Message string
	Status  int
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// ValidationError reports malformed or missing input.
func ValidationError(message string) *Error {
	return &Error{Code: CodeValidation, Message: message, Status: http.StatusBadRequest}
}

// ConflictError reports a request that contradicts existing account state.
func ConflictError(message string) *Error {
	return &Error{Code: CodeConflict, Message: message, Status: http.StatusConflict}
}

// NotFoundError reports a missing account where existence was required.
func NotFoundError(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message, Status: http.StatusNotFound}
}

// TokenError reports an invalid, expired, or already-used reset token. The
// message is deliberately uniform across the three cases.
func TokenError() *Error {
	return &Error{
		Code:    CodeInvalidOrExpiredToken,
		Message: "Reset link is invalid or has expired. Please request a new one.",
		Status:  http.StatusBadRequest,
	}
}

// ProviderError wraps an identity provider failure.
func ProviderError(message string, cause error) *Error {
	return &Error{Code: CodeProvider, Message: message, Status: http.StatusInternalServerError, cause: cause}
}

// NotificationError wraps an email delivery failure.
func NotificationError(message string, cause error) *Error {
	return &Error{Code: CodeNotification, Message: message, Status: http.StatusInternalServerError, cause: cause}
}

// RateLimitedError reports a rate limit violation.
func RateLimitedError() *Error {
	return &Error{
		Code:    CodeRateLimited,
		Message: "Too many requests. Please try again later.",
		Status:  http.StatusTooManyRequests,
	}
}

// UnauthorizedError reports a failed admin authentication.
func UnauthorizedError() *Error {
	return &Error{Code: CodeUnauthorized, Message: "Unauthorized.", Status: http.StatusUnauthorized}
}
