package fault

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUniqueViolation     = errors.New("unique violation")
	ErrForeignKeyViolation = errors.New("restricted for deletion")
)

type ErrorType int

const (
	ErrClient ErrorType = iota
	ErrInternal
)

// Kind narrows a client error down to the reason the request was refused.
type Kind int

const (
	KindBadRequest Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindInternal
)

// Detail describes one offending field of a rejected payload.
type Detail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Fault struct {
	Type    ErrorType
	Kind    Kind
	Message string
	Details []Detail
	Err     error
}

func (e *Fault) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.typeString(), e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.typeString(), e.Message)
}

// Unwrap allows errors.Is and errors.As to work.
func (e *Fault) Unwrap() error {
	return e.Err
}

// typeString returns a human-readable representation of the error type.
func (e *Fault) typeString() string {
	switch e.Type {
	case ErrClient:
		return "ClientError"
	case ErrInternal:
		return "InternalError"
	default:
		return "UnknownError"
	}
}

// NewClientError creates a new client error.
func NewClientError(msg string, err error) error {
	return &Fault{
		Type:    ErrClient,
		Kind:    KindBadRequest,
		Message: msg,
		Err:     err,
	}
}

// NewInternalError creates a new internal server error.
func NewInternalError(msg string, err error) error {
	return &Fault{
		Type:    ErrInternal,
		Kind:    KindInternal,
		Message: msg,
		Err:     err,
	}
}

func Unauthorized(msg string) error {
	return &Fault{Type: ErrClient, Kind: KindUnauthorized, Message: msg}
}

func Forbidden(msg string) error {
	return &Fault{Type: ErrClient, Kind: KindForbidden, Message: msg}
}

func NotFound(msg string, err error) error {
	return &Fault{Type: ErrClient, Kind: KindNotFound, Message: msg, Err: err}
}

func Conflict(msg string, err error) error {
	return &Fault{Type: ErrClient, Kind: KindConflict, Message: msg, Err: err}
}

// Invalid creates a bad request carrying every offending field.
func Invalid(msg string, details []Detail) error {
	return &Fault{Type: ErrClient, Kind: KindBadRequest, Message: msg, Details: details}
}

// IsClientError checks if an error is a client error.
func IsClientError(err error) bool {
	var ce *Fault
	if errors.As(err, &ce) {
		return ce.Type == ErrClient
	}
	return false
}

// IsInternalError checks if an error is an internal error.
func IsInternalError(err error) bool {
	var ce *Fault
	if errors.As(err, &ce) {
		return ce.Type == ErrInternal
	}
	return false
}

// KindOf reports the kind of err. Errors that are not a *Fault are internal.
func KindOf(err error) Kind {
	var ce *Fault
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}

// HTTPStatus maps err onto the status code returned to API callers.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
