package errors

import (
	"errors"
	"net/http"
)

// Kind classifies an application error independently of transport.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindAlreadyExists Kind = "already_exists"
	KindAlreadyShared Kind = "already_shared"
	KindSelfShare     Kind = "self_share"
	KindForbidden     Kind = "forbidden"
	KindUnauthorized  Kind = "unauthorized"
	KindUnavailable   Kind = "unavailable"
	KindInFlight      Kind = "in_flight"
	KindUnknown       Kind = "unknown"
)

var statusByKind = map[Kind]int{
	KindValidation:    http.StatusUnprocessableEntity,
	KindNotFound:      http.StatusNotFound,
	KindAlreadyExists: http.StatusConflict,
	KindAlreadyShared: http.StatusConflict,
	KindSelfShare:     http.StatusUnprocessableEntity,
	KindForbidden:     http.StatusForbidden,
	KindUnauthorized:  http.StatusUnauthorized,
	KindUnavailable:   http.StatusServiceUnavailable,
	KindInFlight:      http.StatusConflict,
	KindUnknown:       http.StatusInternalServerError,
}

// AppError represents an application error
type AppError struct {
	Kind    Kind   `json:"kind"`
	Status  int    `json:"-"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error returns the error message
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the original error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithMessage returns a copy of the AppError with a custom message
func (e *AppError) WithMessage(msg string) *AppError {
	return &AppError{
		Kind:    e.Kind,
		Status:  e.Status,
		Message: msg,
		Err:     e.Err,
	}
}

// New creates a new application error of the given kind
func New(kind Kind, message string, err error) *AppError {
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{
		Kind:    kind,
		Status:  status,
		Message: message,
		Err:     err,
	}
}

func Validation(message string, err error) *AppError {
	return New(KindValidation, message, err)
}

func NotFound(message string, err error) *AppError {
	return New(KindNotFound, message, err)
}

func AlreadyExists(message string, err error) *AppError {
	return New(KindAlreadyExists, message, err)
}

func AlreadyShared(message string, err error) *AppError {
	return New(KindAlreadyShared, message, err)
}

func SelfShare(message string, err error) *AppError {
	return New(KindSelfShare, message, err)
}

func Forbidden(message string, err error) *AppError {
	return New(KindForbidden, message, err)
}

func Unauthorized(message string, err error) *AppError {
	return New(KindUnauthorized, message, err)
}

func Unavailable(message string, err error) *AppError {
	return New(KindUnavailable, message, err)
}

func InFlight(message string, err error) *AppError {
	return New(KindInFlight, message, err)
}

// Unknown passes a backend failure through with its own message.
func Unknown(err error) *AppError {
	if err == nil {
		return New(KindUnknown, "Internal server error", nil)
	}
	return New(KindUnknown, err.Error(), err)
}

// NewValidationError wraps a request binding failure.
func NewValidationError(err error) *AppError {
	return Validation("Invalid input", err)
}

// KindOf reports the kind of err, or KindUnknown when err is not an AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// From converts any error into an AppError, passing unknown ones through.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Unknown(err)
}
