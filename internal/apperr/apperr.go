// Package apperr defines the typed error taxonomy engines raise; a
// middleware layer maps each Kind to an HTTP status, replacing the
// decorator-style per-endpoint error handling of the system this was
// ported from.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation            Kind = "validation"
	KindAuthentication        Kind = "authentication"
	KindAuthorization         Kind = "authorization"
	KindVerificationRequired  Kind = "verification_required"
	KindPolicy                Kind = "policy"
	KindConflict              Kind = "conflict"
	KindNotFound              Kind = "not_found"
	KindRateLimit              Kind = "rate_limit"
	KindInternal               Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string
	// Fields carries per-field validation messages, rendered as
	// {detail, errors: [...]}.
	Fields map[string]string
	// Email is set on KindVerificationRequired so the caller can route to
	// the OTP flow without a second lookup.
	Email string
	// err is the wrapped cause, if any; never rendered to the client.
	err error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, err: cause}
}

func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

func VerificationRequired(email string) *Error {
	return &Error{Kind: KindVerificationRequired, Message: "email verification required", Email: email}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func Policy(message string) *Error {
	return &Error{Kind: KindPolicy, Message: message}
}

func Authentication(message string) *Error {
	return &Error{Kind: KindAuthentication, Message: message}
}

func Authorization(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

func RateLimit(message string) *Error {
	return &Error{Kind: KindRateLimit, Message: message}
}

func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, err: cause}
}

// As extracts an *Error from any error via errors.As-compatible assertion;
// returns (nil, false) for a plain error, which callers treat as internal.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
