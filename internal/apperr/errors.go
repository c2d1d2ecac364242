// Package apperr separates user-facing business errors from internal failures
// and maps both onto HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation  Kind = "ValidationError"
	KindNotFound    Kind = "NotFound"
	KindOutOfStock  Kind = "OutOfStock"
	KindConflict    Kind = "InvalidTransition"
	KindUnavailable Kind = "ServiceUnavailable"
	KindInternal    Kind = "InternalError"
)

// Error carries a message that is safe to show the caller. Err, if set, is
// only for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindOutOfStock, KindConflict:
		return http.StatusConflict
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// UserFacing reports whether Message may be returned verbatim.
func (e *Error) UserFacing() bool { return e.Kind != KindInternal }

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

func Validation(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, fmt.Sprintf(format, args...))
}

func OutOfStock(msg string) *Error { return New(KindOutOfStock, msg) }

func Conflict(msg string) *Error { return New(KindConflict, msg) }

func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns KindInternal for errors that carry no kind.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
