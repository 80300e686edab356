package service

import (
	"errors"

	"github.com/hongminglow/squeak-be/internal/storage"
)

// Kind classifies service failures for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalid
	KindConflict
	KindNotFound
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal error"
	}
}

// Error is a classified failure. Message is safe to show to clients; the
// wrapped cause is for logs only.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalid      = &Error{Kind: KindInvalid, Message: "invalid request"}
	ErrConflict     = &Error{Kind: KindConflict, Message: "already exists"}
	ErrNotFound     = &Error{Kind: KindNotFound, Message: "not found"}
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrForbidden    = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrInternal     = &Error{Kind: KindInternal, Message: "internal error"}
)

// Messages surfaced by login. Kept distinct so clients can tell them apart.
const (
	MsgEmailNotRegistered = "email not registered"
	MsgIncorrectPassword  = "incorrect password"
)

// MsgPasswordTooLong is returned when a password exceeds bcrypt's input limit.
const MsgPasswordTooLong = "password must be at most 72 bytes"

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// KindOf reports the kind of err; unclassified errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the client-safe message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ErrInternal.Message
}

// mapStoreError normalizes storage errors. notFound is the message used when
// the record is missing.
func mapStoreError(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return newError(KindNotFound, notFound, err)
	case errors.Is(err, storage.ErrAlreadyExists):
		return newError(KindConflict, "user already exists", err)
	default:
		return newError(KindInternal, ErrInternal.Message, err)
	}
}
