// Package errs defines the user domain error taxonomy.
//
// Every error carries a Kind (ValidationError, AuthError, NotFoundError,
// ApiError) and, for specific failures, a Reason code. errors.Is matches a
// kind sentinel against any error of that kind, and a specific sentinel only
// against the same kind and reason.
package errs

import "errors"

// Kind is the error family surfaced to callers.
type Kind string

const (
	KindValidation Kind = "ValidationError"
	KindAuth       Kind = "AuthError"
	KindNotFound   Kind = "NotFoundError"
	KindAPI        Kind = "ApiError"
)

// Error is a terminal domain error. It is never retried by the core.
type Error struct {
	Kind    Kind
	Reason  string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

// Is reports whether target matches this error by kind, and by reason when
// the target carries one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

// New creates a domain error of the given kind.
func New(kind Kind, reason, message string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message}
}

// Kind sentinels.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrAuth       = &Error{Kind: KindAuth}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrAPI        = &Error{Kind: KindAPI}
)

// Validation failures raised while building a user.
var (
	ErrInvalidPassword     = New(KindValidation, "invalid-password", "password is required")
	ErrInvalidExternalID   = New(KindValidation, "invalid-external-id", "external id is required")
	ErrInvalidRegisterType = New(KindValidation, "invalid-register-type", "unknown register type")
	ErrDuplicatedEmail     = New(KindValidation, "duplicated-email", "email is already in use")
	ErrDuplicatedRegister  = New(KindValidation, "duplicated-register", "register is already in use")
)

var (
	// ErrInvalidCredentials is returned for every login failure.
	ErrInvalidCredentials = New(KindAuth, "invalid-login", "invalid credentials")

	ErrUserNotFound = New(KindNotFound, "user-not-found", "user not found")

	ErrRollbackExpired = New(KindAPI, "rollback-expired", "rollback expired")
)

// KindOf returns the kind of a domain error, or "" for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
