// Package errors defines the classified error shared by the service and HTTP
// layers. Services tag every failure with a Kind; transports map the kind to
// a status code and never parse messages.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an application error.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindInternal   Kind = "internal"
)

// Error carries a kind, a caller-safe message, and an optional cause. The
// message may be returned to clients for every kind except KindInternal.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewValidation reports rejected input.
func NewValidation(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

// NewNotFound reports a missing entity.
func NewNotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

// NewConflict reports a uniqueness or state conflict.
func NewConflict(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

// NewInternal reports an unexpected failure with its cause attached.
func NewInternal(message string, cause error) error {
	return &Error{Kind: KindInternal, Message: message, Cause: cause}
}

// Wrap prefixes message onto err. An already classified error keeps its kind
// so transport mapping survives wrapping; anything else becomes KindInternal.
// Wrapping nil returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if stderrors.As(err, &appErr) {
		return &Error{
			Kind:    appErr.Kind,
			Message: fmt.Sprintf("%s: %s", message, appErr.Message),
			Cause:   appErr.Cause,
		}
	}
	return &Error{Kind: KindInternal, Message: message, Cause: err}
}

func kindOf(err error) Kind {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// IsValidation reports whether err is classified as validation.
func IsValidation(err error) bool {
	return kindOf(err) == KindValidation
}

// IsNotFound reports whether err is classified as not found.
func IsNotFound(err error) bool {
	return kindOf(err) == KindNotFound
}

// IsConflict reports whether err is classified as a conflict.
func IsConflict(err error) bool {
	return kindOf(err) == KindConflict
}

// IsInternal reports whether err is classified as internal.
func IsInternal(err error) bool {
	return kindOf(err) == KindInternal
}
