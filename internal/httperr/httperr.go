// Package httperr carries an HTTP status code and reason phrase alongside
// a Go error, in the shape of the donor repository's pkg/errors.Error
// (status code + wrapped cause).
package httperr

import "fmt"

// Error pairs an HTTP status line (version is filled in by the caller) with
// an optional underlying cause.
type Error struct {
	Code   int
	Reason string
	cause  error
}

func New(code int, reason string) *Error {
	return &Error{Code: code, Reason: reason}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%d %s: %v", e.Code, e.Reason, e.cause)
	}
	return fmt.Sprintf("%d %s", e.Code, e.Reason)
}

func (e *Error) Unwrap() error { return e.cause }

// WithCause returns a copy of e carrying err as its cause, leaving e itself
// untouched — the package-level sentinels (ErrNotFound etc.) are shared
// across every connection's goroutine, so mutating the receiver in place
// would be an unsynchronized concurrent write.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Reason: e.Reason, cause: err}
}

var (
	ErrBadRequest            = New(400, "Bad Request")
	ErrForbidden             = New(403, "Forbidden")
	ErrNotFound              = New(404, "Not Found")
	ErrMethodNotAllowed      = New(405, "Method Not Allowed")
	ErrVersionNotSupported   = New(505, "HTTP Version Not Supported")
)
