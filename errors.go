package symbol

import (
	"errors"
	"fmt"

	"github.com/symbolspace/Symbol-sub006/compiler"
	"github.com/symbolspace/Symbol-sub006/conn"
	"github.com/symbolspace/Symbol-sub006/dialect/sql"
	"github.com/symbolspace/Symbol-sub006/predicate"
	"github.com/symbolspace/Symbol-sub006/reader"
)

// Standard sentinel errors for common operations.
var (
	// ErrClosed is returned when using a closed data context.
	ErrClosed = conn.ErrClosed

	// ErrTxStarted is returned when attempting to start a new transaction
	// within an existing transaction.
	ErrTxStarted = conn.ErrTxStarted

	// ErrTxDone is returned when committing or rolling back a finished transaction.
	ErrTxDone = errors.New("symbol: transaction has already been committed or rolled back")

	// ErrNotMapping is returned when a filter or field set is not an object.
	ErrNotMapping = predicate.ErrNotMapping

	// ErrConsumed is yielded when iterating a reader a second time.
	ErrConsumed = reader.ErrConsumed
)

type (
	// ParseError is returned for a malformed filter or JSON fragment.
	ParseError = predicate.ParseError
	// UnsupportedOperatorError is returned for an unknown $ key.
	UnsupportedOperatorError = predicate.UnsupportedOperatorError
	// CompileError is returned for an invalid clause combination.
	CompileError = compiler.CompileError
	// ConnectionError is returned when a session cannot be obtained, opened or pinged.
	ConnectionError = conn.ConnectionError
	// Constraint is the kind of integrity constraint a statement violated.
	Constraint = sql.Constraint
)

// ExecutionError is returned when the backend fails to execute a statement.
// It carries the statement and a snapshot of its parameters.
type ExecutionError struct {
	Op    string // Operation (e.g. "insert", "find")
	Table string
	SQL   string
	Args  []any
	Err   error // Underlying driver error
}

// Error returns the error string.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("symbol: %s %s: %v", e.Op, e.Table, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Constraint classifies the driver error as a constraint violation.
func (e *ExecutionError) Constraint() Constraint {
	return sql.ClassifyConstraint(e.Err)
}

// NewExecutionError returns a new ExecutionError. The arguments are copied.
func NewExecutionError(op, table, query string, args []any, err error) *ExecutionError {
	return &ExecutionError{Op: op, Table: table, SQL: query, Args: append([]any(nil), args...), Err: err}
}

// RollbackError wraps an error that occurred during a transaction rollback.
type RollbackError struct {
	Err error
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("symbol: rollback failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *RollbackError) Unwrap() error {
	return e.Err
}

// IsParseError returns true if the error is a ParseError.
func IsParseError(err error) bool {
	if err == nil {
		return false
	}
	var e *ParseError
	return errors.As(err, &e)
}

// IsUnsupportedOperator returns true if the error is an UnsupportedOperatorError.
func IsUnsupportedOperator(err error) bool {
	if err == nil {
		return false
	}
	var e *UnsupportedOperatorError
	return errors.As(err, &e)
}

// IsCompileError returns true if the error is a CompileError.
func IsCompileError(err error) bool {
	return compiler.IsCompileError(err)
}

// IsConnectionError returns true if the error is a ConnectionError.
func IsConnectionError(err error) bool {
	return conn.IsConnectionError(err)
}

// IsExecutionError returns true if the error is an ExecutionError.
func IsExecutionError(err error) bool {
	if err == nil {
		return false
	}
	var e *ExecutionError
	return errors.As(err, &e)
}

// IsConstraintError returns true if the error is an ExecutionError caused
// by a constraint violation.
func IsConstraintError(err error) bool {
	var e *ExecutionError
	return errors.As(err, &e) && e.Constraint() != sql.NoConstraint
}

// IsUniqueConstraintError returns true if the error is an ExecutionError
// caused by a unique constraint violation.
func IsUniqueConstraintError(err error) bool {
	var e *ExecutionError
	return errors.As(err, &e) && e.Constraint() == sql.UniqueConstraint
}
