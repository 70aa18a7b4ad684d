// Package apperr defines the domain error kinds shared by services and the
// HTTP layer. Handlers map a Kind to a status code in exactly one place.
package apperr

import (
	"errors"
	"fmt"

	"github.com/valyala/fasthttp"
)

type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindValidation
	KindOwnerConflict
	KindInvalidStage
	KindNoVisitSettings
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindOwnerConflict:
		return "owner_conflict"
	case KindInvalidStage:
		return "invalid_stage"
	case KindNoVisitSettings:
		return "no_visit_settings"
	case KindConflict:
		return "conflict"
	}
	return "internal"
}

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

// Is matches any *Error of the same kind, so sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns KindInternal for errors that carry no domain kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Public returns the message that is safe to send to a client.
func Public(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal server error"
}

func Unauthorized(msg string) *Error { return New(KindUnauthorized, msg) }
func Forbidden(msg string) *Error { return New(KindForbidden, msg) }
func NotFound(msg string) *Error { return New(KindNotFound, msg) }
func Validation(msg string) *Error { return New(KindValidation, msg) }
func Conflict(msg string) *Error { return New(KindConflict, msg) }
func OwnerConflict(msg string) *Error { return New(KindOwnerConflict, msg) }
func NoVisitSettings(msg string) *Error { return New(KindNoVisitSettings, msg) }
func Internal(err error) *Error { return Wrap(KindInternal, "internal error", err) }

// Ensure leaves domain errors untouched and wraps anything else as internal.
func Ensure(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Internal(err)
}

func InvalidStage(stage string) *Error {
	return New(KindInvalidStage, fmt.Sprintf("invalid stage %q", stage))
}

// HTTPStatus is the single mapping from error kind to response status.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindUnauthorized:
		return fasthttp.StatusUnauthorized
	case KindForbidden:
		return fasthttp.StatusForbidden
	case KindNotFound:
		return fasthttp.StatusNotFound
	case KindValidation:
		return fasthttp.StatusBadRequest
	case KindOwnerConflict:
		return fasthttp.StatusConflict
	case KindInvalidStage:
		return fasthttp.StatusBadRequest
	case KindNoVisitSettings:
		return fasthttp.StatusBadRequest
	case KindConflict:
		return fasthttp.StatusConflict
	}
	return fasthttp.StatusInternalServerError
}
