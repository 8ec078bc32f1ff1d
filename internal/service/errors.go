package service

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map them to HTTP statuses with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrGone         = errors.New("gone")
	ErrUnavailable  = errors.New("unavailable")
)

// Error is a client-facing error with a message and a kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

var (
	ErrEmailTaken         = newError(ErrInvalidInput, "email is already registered")
	ErrInvalidCredentials = newError(ErrUnauthorized, "invalid credentials")
	ErrInvalidResetToken  = newError(ErrInvalidInput, "reset token is invalid or expired")
	ErrCompanyNotApproved = newError(ErrForbidden, "company is not approved")
)
