// Package errs provides the error taxonomy shared by the parqsee packages.
//
// Every failure surfaced to a caller carries a Kind so that transports can
// report it as text while tests and callers can still branch on it.
package errs

import (
	"errors"
	"fmt"
)

// Kind represents the category of an error.
type Kind string

const (
	// KindIO represents open/read failures.
	KindIO Kind = "io"
	// KindFormat represents a corrupt or unparseable footer or schema.
	KindFormat Kind = "format"
	// KindQueryPlan represents invalid SQL or filter expressions.
	KindQueryPlan Kind = "query_plan"
	// KindConversion represents a result whose shape does not match the expected type.
	KindConversion Kind = "conversion"
	// KindUnsupportedFormat represents an unrecognized export format name.
	KindUnsupportedFormat Kind = "unsupported_format"
)

// Error is a categorized error with operation context.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an error of the given kind.
func New(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps cause with a kind and message. Wrap returns nil if cause is nil.
func Wrap(cause error, kind Kind, op, message string) error {
	if cause == nil {
		return nil
	}
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Cause:   cause,
	}
}

// KindOf returns the kind of the outermost categorized error in err's chain,
// or the empty Kind if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}
