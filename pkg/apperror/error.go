package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an error independently of its HTTP status so callers can
// branch on the failure category without string matching.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindUnauthenticated    Kind = "unauthenticated"
	KindForbidden          Kind = "forbidden"
	KindNotFound           Kind = "not_found"
	KindConflict           Kind = "conflict"
	KindRemote             Kind = "remote"
	KindStale              Kind = "stale"
	KindRateLimited        Kind = "rate_limited"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindEmailInUse         Kind = "email_in_use"
	KindWeakPassword       Kind = "weak_password"
	KindInvalidEmail       Kind = "invalid_email"
	KindProvider           Kind = "provider"
	KindUnavailable        Kind = "unavailable"
	KindInternal           Kind = "internal"
)

type AppError struct {
	Code    int    `json:"code"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kindForStatus(code),
		Message: message,
		Err:     err,
	}
}

// WithKind builds an error with an explicit kind.
func WithKind(kind Kind, code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

func BadRequest(message string) *AppError {
	return New(http.StatusBadRequest, message, nil)
}

func Unauthorized(message string) *AppError {
	return New(http.StatusUnauthorized, message, nil)
}

func Forbidden(message string) *AppError {
	return New(http.StatusForbidden, message, nil)
}

func NotFound(message string) *AppError {
	return New(http.StatusNotFound, message, nil)
}

func Conflict(message string) *AppError {
	return New(http.StatusConflict, message, nil)
}

func Internal(err error) *AppError {
	return New(http.StatusInternalServerError, "An unexpected error occurred. Please try again later.", err)
}

// Remote wraps a failure of the backing document store or identity service.
func Remote(err error) *AppError {
	return WithKind(KindRemote, http.StatusServiceUnavailable,
		"We couldn't reach your notes right now. Please try again.", err)
}

// Stale reports a result that was discarded because a newer request or a
// teardown superseded it.
func Stale(message string) *AppError {
	return WithKind(KindStale, http.StatusConflict, message, nil)
}

func TooManyRequests(message string) *AppError {
	return New(http.StatusTooManyRequests, message, nil)
}

func Unavailable(message string) *AppError {
	return New(http.StatusServiceUnavailable, message, nil)
}

// KindOf returns the kind of the first AppError in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func kindForStatus(code int) Kind {
	switch code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusUnauthorized:
		return KindUnauthenticated
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return KindUnavailable
	default:
		return KindInternal
	}
}

// Sign-in and sign-up failures carry the message shown to the user as-is.

func InvalidCredentials() *AppError {
	return WithKind(KindInvalidCredentials, http.StatusUnauthorized,
		"Invalid email or password. Please try again.", nil)
}

func EmailInUse() *AppError {
	return WithKind(KindEmailInUse, http.StatusConflict,
		"This email is already in use. Please try another email.", nil)
}

func WeakPassword() *AppError {
	return WithKind(KindWeakPassword, http.StatusBadRequest,
		"Password is too weak. Please use a stronger password.", nil)
}

func InvalidEmail() *AppError {
	return WithKind(KindInvalidEmail, http.StatusBadRequest,
		"Invalid email format. Please check your email address.", nil)
}

func ProviderFailed(message string, err error) *AppError {
	return WithKind(KindProvider, http.StatusBadGateway, message, err)
}
