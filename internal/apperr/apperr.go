package apperr

import (
	"net/http"

	"github.com/pkg/errors"
)

// Kind classifies a failure at the point where it occurs, so HTTP status
// mapping never has to inspect message text.
type Kind int

const (
	KindUnexpected Kind = iota
	KindMissingParameter
	KindInvalidCredential
	KindSessionNotFound
)

// Error is a tagged application error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// MissingParameter reports a required field that is absent or empty.
func MissingParameter(message string) *Error {
	return &Error{Kind: KindMissingParameter, Message: message}
}

// InvalidCredential reports a missing or rejected API key.
func InvalidCredential(message string, cause error) *Error {
	return &Error{Kind: KindInvalidCredential, Message: message, Err: cause}
}

// SessionNotFound reports a follow-up that references an unknown session.
func SessionNotFound(message string) *Error {
	return &Error{Kind: KindSessionNotFound, Message: message}
}

// Wrap annotates err with a message and tags it as unexpected, unless it
// already carries a kind, in which case the kind is preserved.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return errors.WithMessage(err, message)
	}
	return &Error{Kind: KindUnexpected, Message: message + ": " + err.Error(), Err: err}
}

// KindOf returns the kind carried by err, or KindUnexpected for untagged errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnexpected
}

// HTTPStatus maps an error to the status code the API boundary should return.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindMissingParameter:
		return http.StatusBadRequest
	case KindInvalidCredential:
		return http.StatusUnauthorized
	case KindSessionNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
