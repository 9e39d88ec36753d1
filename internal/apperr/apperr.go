// Package apperr defines the typed outcomes returned by account and post operations.
// The HTTP boundary maps each Kind to a status code; nothing below it writes responses.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	Internal Kind = iota
	InvalidInput
	Conflict
	MissingCredential
	MalformedToken
	ExpiredToken
	UnknownIdentity
	InvalidCredentials
	Forbidden
	NotFound
	StoreUnavailable
	DeleteFailed
)

var kindNames = map[Kind]string{
	Internal:           "INTERNAL_ERROR",
	InvalidInput:       "INVALID_INPUT",
	Conflict:           "CONFLICT",
	MissingCredential:  "MISSING_CREDENTIAL",
	MalformedToken:     "MALFORMED_TOKEN",
	ExpiredToken:       "EXPIRED_TOKEN",
	UnknownIdentity:    "UNKNOWN_IDENTITY",
	InvalidCredentials: "INVALID_CREDENTIALS",
	Forbidden:          "FORBIDDEN",
	NotFound:           "NOT_FOUND",
	StoreUnavailable:   "STORE_UNAVAILABLE",
	DeleteFailed:       "DELETE_FAILED",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[Internal]
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case InvalidInput:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	case MissingCredential, MalformedToken, ExpiredToken, UnknownIdentity, InvalidCredentials:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is an operation failure with a short user-facing message.
// Err carries the underlying cause and is only exposed for 500-class kinds.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status code for the error.
func (e *Error) Status() int {
	return e.Kind.Status()
}

// Detail returns the cause text for server-side failures and "" otherwise.
func (e *Error) Detail() string {
	if e.Err == nil || e.Kind.Status() < http.StatusInternalServerError {
		return ""
	}
	return e.Err.Error()
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the Kind of err, or Internal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// From converts any error to an *Error, treating unknown errors as Internal.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(Internal, "An error occurred!", err)
}
