// Package apperr defines the error kinds surfaced by the library API and the
// typed error value carried through services, the loan engine and handlers.
package apperr

import (
	"errors"
	"slices"
	"strings"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindBusinessRule
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindBusinessRule:
		return "business_rule"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a caller-facing failure. Sentinels are declared once per package and
// compared with errors.Is; WithMessage and WithDetails derive copies that still
// match their sentinel.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]string

	base *Error
}

// New declares a sentinel error.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string { return e.Message }

// Is reports whether target is e or the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e == t || e.root() == t
}

func (e *Error) root() *Error {
	if e.base != nil {
		return e.base
	}
	return e
}

// WithMessage returns a copy of e carrying a more specific message.
func (e *Error) WithMessage(message string) *Error {
	cp := *e
	cp.Message = message
	cp.base = e.root()
	return &cp
}

// WithDetails returns a copy of e carrying per-field details.
func (e *Error) WithDetails(details map[string]string) *Error {
	cp := *e
	cp.Details = details
	cp.base = e.root()
	return &cp
}

// ErrValidation is the generic input validation failure.
var ErrValidation = New(KindValidation, "validation_failed", "Validation failed")

// Invalid wraps field violations into a validation error. The message lists the
// offending fields so clients that only read "error" still get something useful.
func Invalid(violations map[string]string) *Error {
	fields := make([]string, 0, len(violations))
	for f := range violations {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	msg := ErrValidation.Message
	if len(fields) > 0 {
		msg += ": " + strings.Join(fields, ", ")
	}
	return ErrValidation.WithDetails(violations).WithMessage(msg)
}

// KindOf returns the kind of err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As extracts the *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
