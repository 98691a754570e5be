// Package fault is the dashboard's domain error taxonomy.
//
// Errors carrying a Kind are client-facing: the HTTP layer maps them to 400
// and reports "<Kind>: <extra>". Anything else is treated as internal.
package fault

import (
	"errors"
	"fmt"
)

// Kinds. Compare with errors.Is.
var (
	ErrBadArguments   = errors.New("BadArguments")
	ErrObjectNotFound = errors.New("ObjectNotFound")
)

// Error is a domain error of a known kind with optional detail.
type Error struct {
	Kind  error
	Extra string
}

func (e *Error) Error() string {
	if e.Extra == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Extra
}

func (e *Error) Unwrap() error { return e.Kind }

// BadArguments reports an invalid or missing argument.
func BadArguments(extra string) error {
	return &Error{Kind: ErrBadArguments, Extra: extra}
}

// BadArgumentsf formats the detail.
func BadArgumentsf(format string, args ...any) error {
	return BadArguments(fmt.Sprintf(format, args...))
}

// ObjectNotFound reports a missing object.
func ObjectNotFound(extra string) error {
	return &Error{Kind: ErrObjectNotFound, Extra: extra}
}

// As returns the domain error wrapped in err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
