package conn

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when using a closed connection.
	ErrClosed = errors.New("conn: connection is closed")
	// ErrTxStarted is returned by Begin when a transaction is already open.
	ErrTxStarted = errors.New("conn: transaction already started")
	// ErrNoTx is returned by Commit and Rollback without an open transaction.
	ErrNoTx = errors.New("conn: no transaction in progress")
)

// ConnectionError is returned when a session cannot be obtained, opened or pinged.
type ConnectionError struct {
	Op  string
	Err error
}

// Error returns the error string.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("conn: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// NewConnectionError returns a new ConnectionError.
func NewConnectionError(op string, err error) *ConnectionError {
	return &ConnectionError{Op: op, Err: err}
}

// IsConnectionError returns a boolean indicating whether the error is a connection error.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConnectionError
	return errors.As(err, &e)
}
