package compiler

import (
	"errors"
	"fmt"
)

// CompileError is returned when a descriptor cannot be compiled.
type CompileError struct {
	Table  string
	Clause string // clause being compiled, e.g. "where" or "order by"
	Err    error
}

// Error returns the error string.
func (e *CompileError) Error() string {
	if e.Clause == "" {
		return fmt.Sprintf("compiler: table %q: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("compiler: %s clause of table %q: %v", e.Clause, e.Table, e.Err)
}

// Unwrap returns the underlying error.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// IsCompileError returns a boolean indicating whether the error is a compile error.
func IsCompileError(err error) bool {
	if err == nil {
		return false
	}
	var e *CompileError
	return errors.As(err, &e)
}

var (
	errEmptyIdent     = errors.New("empty identifier")
	errEmptyFields    = errors.New("no fields to set")
	errEmptyGroup     = errors.New("empty group")
	errEmptyValue     = errors.New("empty value mapping")
	errMixedKeys      = errors.New("operators mixed with fields")
	errGroupInField   = errors.New("group inside a field value")
	errNegativeBounds = errors.New("negative offset or limit")
	errQueryClauses   = errors.New("query clauses apply to find only")
)
