package domain

import (
	"errors"
	"fmt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")
var ErrMissingToken = errors.New("missing credentials")
var ErrTokenExpired = errors.New("token has expired")
var ErrTokenInvalid = errors.New("invalid token")
var ErrTooManyAttempts = errors.New("too many failed login attempts")

var ErrNotFound = errors.New("not found")
var ErrDuplicateValue = errors.New("duplicate value")
var ErrForbidden = errors.New("access forbidden")
var ErrInvalidInput = errors.New("invalid input")
var ErrAlreadyInactive = errors.New("already inactive")
var ErrOperationFailed = errors.New("operation failed")

// Error is a domain failure with a message meant for the caller. errors.Is
// matches it against its Kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

// NotFound returns an ErrNotFound carrying msg.
func NotFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

// Forbidden returns an ErrForbidden carrying msg.
func Forbidden(msg string) error {
	return &Error{Kind: ErrForbidden, Message: msg}
}

// InvalidInput returns an ErrInvalidInput carrying msg.
func InvalidInput(msg string) error {
	return &Error{Kind: ErrInvalidInput, Message: msg}
}

// DuplicateValueError reports a uniqueness violation on Field (in-memory
// field name). The message is the same for every field.
type DuplicateValueError struct {
	Field string
}

func (e *DuplicateValueError) Error() string {
	return fmt.Sprintf("this %s already exists! try another one", e.Field)
}

func (e *DuplicateValueError) Unwrap() error { return ErrDuplicateValue }
