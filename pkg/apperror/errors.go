package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure the way the HTTP layer needs to report it.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindAuthenticity
	KindUpstream
	KindConflict
)

func (k Kind) Error() string {
	switch k {
	case KindValidation:
		return "validation error"
	case KindNotFound:
		return "not found"
	case KindAuthenticity:
		return "authenticity error"
	case KindUpstream:
		return "upstream error"
	case KindConflict:
		return "conflict"
	default:
		return "unknown error"
	}
}

// HTTPStatus maps a kind to the status the handlers respond with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindAuthenticity:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind  Kind
	Msg   string
	Op    string
	Cause error
}

func (e *Error) Error() string {
	base := e.Kind.Error()
	if e.Msg != "" {
		base = base + ": " + e.Msg
	}
	if e.Op != "" {
		base = e.Op + ": " + base
	}
	if e.Cause != nil {
		base = base + ": " + e.Cause.Error()
	}
	return base
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool {
	if k, ok := target.(Kind); ok {
		return e.Kind == k
	}
	return errors.Is(e.Cause, target)
}

func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Cause: cause}
}

// KindOf extracts the kind from an error chain, defaulting to upstream.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}

// StatusOf is the HTTP status for an error chain.
func StatusOf(err error) int {
	return KindOf(err).HTTPStatus()
}
