package pattern

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAlternatives is returned when a multi-pattern marker has nothing to match.
	ErrNoAlternatives = errors.New("no alternatives")
	// ErrTooManyAlternatives is returned when more alternatives are supplied than
	// can be told apart by named group.
	ErrTooManyAlternatives = errors.New("too many alternatives")
)

// Error reports a pattern that could not be compiled.
type Error struct {
	Expr string // the offending expression
	Err  error  // underlying cause
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Expr, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ScanError reports a failure of the matching engine while advancing a scan,
// typically a match timeout on a pathological pattern.
type ScanError struct {
	Expr   string
	Offset int // rune offset the failed search started from
	Err    error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scanning with %q at offset %d: %v", e.Expr, e.Offset, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
