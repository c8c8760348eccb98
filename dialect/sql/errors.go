package sql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"
)

// Constraint classifies a backend constraint violation.
type Constraint int

const (
	// NoConstraint means the error is not a constraint violation.
	NoConstraint Constraint = iota
	// UniqueConstraint is a duplicate value in a unique index.
	UniqueConstraint
	// ForeignKeyConstraint is a missing or still referenced parent row.
	ForeignKeyConstraint
	// CheckConstraint is a value failing a check condition.
	CheckConstraint
)

// String returns the constraint kind name.
func (c Constraint) String() string {
	switch c {
	case UniqueConstraint:
		return "unique"
	case ForeignKeyConstraint:
		return "foreign key"
	case CheckConstraint:
		return "check"
	default:
		return "none"
	}
}

// sqlStateError is an interface for errors that provide SQLSTATE codes.
// Implemented by pgx, go-mssqldb wrappers and some MySQL drivers.
type sqlStateError interface {
	SQLState() string
}

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// SQL Server error numbers for constraint violations.
const (
	mssqlDuplicateKeyRow = 2601
	mssqlUniqueKey       = 2627
	mssqlConstraintFail  = 547 // foreign key or check, told apart by message
)

// ClassifyConstraint reports which constraint, if any, err violated.
func ClassifyConstraint(err error) Constraint {
	if err == nil {
		return NoConstraint
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fromSQLState(string(pqErr.Code))
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return UniqueConstraint
		case mysqlForeignKeyParent, mysqlForeignKeyChild:
			return ForeignKeyConstraint
		case mysqlCheckConstraintViolate:
			return CheckConstraint
		}
		return NoConstraint
	}
	var msErr mssql.Error
	if errors.As(err, &msErr) {
		switch msErr.Number {
		case mssqlDuplicateKeyRow, mssqlUniqueKey:
			return UniqueConstraint
		case mssqlConstraintFail:
			if strings.Contains(msErr.Message, "CHECK") {
				return CheckConstraint
			}
			return ForeignKeyConstraint
		}
		return NoConstraint
	}
	var stErr sqlStateError
	if errors.As(err, &stErr) {
		if c := fromSQLState(stErr.SQLState()); c != NoConstraint {
			return c
		}
	}
	// Fallback to string matching for drivers that don't expose codes.
	msg := err.Error()
	switch {
	case containsAny(msg, "violates unique constraint", "UNIQUE constraint failed", "Violation of UNIQUE KEY", "Duplicate key"):
		return UniqueConstraint
	case containsAny(msg, "violates foreign key constraint", "FOREIGN KEY constraint failed", "conflicted with the FOREIGN KEY"):
		return ForeignKeyConstraint
	case containsAny(msg, "violates check constraint", "CHECK constraint failed", "conflicted with the CHECK"):
		return CheckConstraint
	}
	return NoConstraint
}

// IsConstraintError reports whether err resulted from a constraint violation.
func IsConstraintError(err error) bool {
	return ClassifyConstraint(err) != NoConstraint
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
func IsUniqueConstraintError(err error) bool {
	return ClassifyConstraint(err) == UniqueConstraint
}

// IsForeignKeyConstraintError reports if the error resulted from a foreign-key constraint violation.
func IsForeignKeyConstraintError(err error) bool {
	return ClassifyConstraint(err) == ForeignKeyConstraint
}

// IsCheckConstraintError reports if the error resulted from a check constraint violation.
func IsCheckConstraintError(err error) bool {
	return ClassifyConstraint(err) == CheckConstraint
}

func fromSQLState(code string) Constraint {
	switch code {
	case pgUniqueViolation:
		return UniqueConstraint
	case pgForeignKeyViolation:
		return ForeignKeyConstraint
	case pgCheckViolation:
		return CheckConstraint
	}
	return NoConstraint
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
