package domain

import (
	"errors"
	"fmt"
)

// ErrAdapterMismatch signals that the registry dispatched a payload to an
// adapter whose own sender/subject precondition rejects it. This is a
// dispatch bug, not bad input, and is logged loudly.
var ErrAdapterMismatch = errors.New("payload does not match adapter signature")

// ErrIllegalTransition signals a rejected status change. The record is left
// untouched.
var ErrIllegalTransition = errors.New("illegal status transition")

// ErrNotFound signals a lookup for an id or natural key that does not exist.
var ErrNotFound = errors.New("not found")

// ParseError describes one malformed record inside an otherwise parseable
// payload. Callers skip the record and continue the batch.
type ParseError struct {
	Source string
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.Source, e.Detail, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.Source, e.Detail)
}

func (e *ParseError) Unwrap() error { return e.Err }
