// Package errcode defines the machine-readable error model of the cell
// platform. Every failure that crosses a package boundary is an *Error
// carrying a kind, an HTTP status, a stable code and a parameterized,
// human-readable message, so that handlers can map errors to responses and
// client tooling can branch on the code.
package errcode

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error independent of its concrete code.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuthenticationRequired
	KindPrivilegeLacking
	KindSchemaMismatch
	KindNotFound
	KindMalformedRequest
	KindConflict
	KindServerFault
)

func (k Kind) String() string {
	switch k {
	case KindAuthenticationRequired:
		return "authentication_required"
	case KindPrivilegeLacking:
		return "privilege_lacking"
	case KindSchemaMismatch:
		return "schema_mismatch"
	case KindNotFound:
		return "not_found"
	case KindMalformedRequest:
		return "malformed_request"
	case KindConflict:
		return "conflict"
	case KindServerFault:
		return "server_fault"
	default:
		return "unknown"
	}
}

// Error is a flat, tagged platform error.
type Error struct {
	Kind    Kind
	Status  int
	Code    string
	Message string
	Params  []any
}

func (e *Error) Error() string {
	if len(e.Params) == 0 {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}

	return fmt.Sprintf("[%s] %s", e.Code, fmt.Sprintf(e.Message, e.Params...))
}

// WithParams returns a copy of the error with the message parameters filled.
// The template itself is kept untouched so the same declaration can be
// instantiated with different parameters.
func (e *Error) WithParams(params ...any) *Error {
	clone := *e
	clone.Params = params

	return &clone
}

// Is matches errors by code, so instantiated copies compare equal to their
// declarations.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}

	return e.Code == other.Code
}

// From extracts an *Error from err, unwrapping as needed.
func From(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}

	return nil, false
}

// StatusOf returns the HTTP status for err, defaulting to 500 for errors
// that are not platform errors.
func StatusOf(err error) int {
	if e, ok := From(err); ok {
		return e.Status
	}

	return http.StatusInternalServerError
}

func declare(kind Kind, status int, code, message string) *Error {
	return &Error{Kind: kind, Status: status, Code: code, Message: message}
}
