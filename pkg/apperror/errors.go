package apperror

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrBadRequest        = errors.New("bad request")
	ErrConflict          = errors.New("conflict")
	ErrInternal          = errors.New("internal server error")
	ErrInvalidInput      = errors.New("invalid input")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// Auth and account errors. Login deliberately reports the same message for an
// unknown email and a wrong password.
var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrAccountPending        = errors.New("account is pending approval")
	ErrAccountInactive       = errors.New("account is not active, please contact an administrator")
	ErrDuplicateAccount      = errors.New("user with this email already exists")
	ErrInvalidToken          = errors.New("invalid or expired token")
	ErrInvalidResetToken     = errors.New("invalid or expired reset token")
	ErrIncorrectPassword     = errors.New("current password is incorrect")
	ErrEmailDomainNotAllowed = errors.New("fellows, community admins and users must register with a @hacettepe.edu.tr email address")
)

// Messaging errors.
var (
	ErrNotParticipant   = errors.New("you are not a participant in this conversation")
	ErrSelfConversation = errors.New("cannot create a conversation with yourself")
)

// AppError is a custom error type that can hold an HTTP status code
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// MapErrorToStatus maps common errors to HTTP status codes
func MapErrorToStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrIncorrectPassword):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden),
		errors.Is(err, ErrAccountPending),
		errors.Is(err, ErrAccountInactive),
		errors.Is(err, ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict),
		errors.Is(err, ErrDuplicateAccount),
		errors.Is(err, ErrSelfConversation):
		return http.StatusConflict
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidResetToken),
		errors.Is(err, ErrEmailDomainNotAllowed):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	}
	// Default to internal server error
	return http.StatusInternalServerError
}
