package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so callers can react without parsing messages.
type ErrorKind string

const (
	KindNotFound      ErrorKind = "NOT_FOUND"
	KindForbidden     ErrorKind = "FORBIDDEN"
	KindInvalidState  ErrorKind = "INVALID_STATE"
	KindUnavailable   ErrorKind = "UNAVAILABLE"
	KindInvalidAmount ErrorKind = "INVALID_AMOUNT"
	KindEmptyCart     ErrorKind = "EMPTY_CART"
	KindAlreadyExists ErrorKind = "ALREADY_EXISTS"
	KindInvalidInput  ErrorKind = "INVALID_INPUT"
	KindStoreFailure  ErrorKind = "STORE_FAILURE"
)

// Error carries the kind plus the offending aggregate.
type Error struct {
	Kind    ErrorKind
	Entity  string
	ID      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Entity != "" && e.ID != "" {
		msg = fmt.Sprintf("%s %s: %s", e.Entity, e.ID, msg)
	} else if e.Entity != "" {
		msg = fmt.Sprintf("%s: %s", e.Entity, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works
// regardless of entity or message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrForbidden     = &Error{Kind: KindForbidden}
	ErrInvalidState  = &Error{Kind: KindInvalidState}
	ErrUnavailable   = &Error{Kind: KindUnavailable}
	ErrInvalidAmount = &Error{Kind: KindInvalidAmount}
	ErrEmptyCart     = &Error{Kind: KindEmptyCart}
	ErrAlreadyExists = &Error{Kind: KindAlreadyExists}
	ErrInvalidInput  = &Error{Kind: KindInvalidInput}
	ErrStoreFailure  = &Error{Kind: KindStoreFailure}
)

func NotFound(entity, id string) error {
	return &Error{Kind: KindNotFound, Entity: entity, ID: id, Message: "not found"}
}

func Forbidden(entity, id, message string) error {
	return &Error{Kind: KindForbidden, Entity: entity, ID: id, Message: message}
}

func InvalidState(entity, id, message string) error {
	return &Error{Kind: KindInvalidState, Entity: entity, ID: id, Message: message}
}

func Unavailable(entity, id, message string) error {
	return &Error{Kind: KindUnavailable, Entity: entity, ID: id, Message: message}
}

func InvalidAmount(entity, id, message string) error {
	return &Error{Kind: KindInvalidAmount, Entity: entity, ID: id, Message: message}
}

func EmptyCart(id string) error {
	return &Error{Kind: KindEmptyCart, Entity: "quotation", ID: id, Message: "quotation has no lines"}
}

func AlreadyExists(entity, id, message string) error {
	return &Error{Kind: KindAlreadyExists, Entity: entity, ID: id, Message: message}
}

func InvalidInput(message string) error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

// StoreFailure wraps an infrastructure error. Errors that already carry a kind
// are returned unchanged.
func StoreFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: KindStoreFailure, Message: op, Err: err}
}

// KindOf reports the kind of err, or KindStoreFailure for untyped errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindStoreFailure
}

// Rejection reports whether the error is an expected business outcome rather
// than an infrastructure failure.
func (e *Error) Rejection() bool {
	return e.Kind != KindStoreFailure
}
