package predicate

import (
	"errors"
	"fmt"
)

// ErrNotMapping is returned by Filter when the source is not an object.
var ErrNotMapping = errors.New("predicate: filter must be an object")

// ParseError is returned for malformed filter input.
type ParseError struct {
	Input string // Offending input, possibly truncated
	Err   error  // Underlying decoding error
}

// Error returns the error string.
func (e *ParseError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("predicate: parse: %v", e.Err)
	}
	return fmt.Sprintf("predicate: parse %q: %v", e.Input, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(input string, err error) *ParseError {
	const max = 64
	if len(input) > max {
		input = input[:max] + "..."
	}
	return &ParseError{Input: input, Err: err}
}

// UnsupportedOperatorError is returned when a $-prefixed key is neither a
// match operator nor a group.
type UnsupportedOperatorError struct {
	Key string
}

// Error returns the error string.
func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("predicate: unsupported operator %q", e.Key)
}
