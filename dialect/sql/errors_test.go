package sql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/stretchr/testify/assert"
)

type stateErr string

func (e stateErr) Error() string    { return "state " + string(e) }
func (e stateErr) SQLState() string { return string(e) }

func TestClassifyConstraint(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Constraint
	}{
		{"nil", nil, NoConstraint},
		{"plain", errors.New("connection reset"), NoConstraint},
		{"pq_unique", &pq.Error{Code: "23505"}, UniqueConstraint},
		{"pq_fk_wrapped", fmt.Errorf("exec: %w", &pq.Error{Code: "23503"}), ForeignKeyConstraint},
		{"pq_other", &pq.Error{Code: "42P01"}, NoConstraint},
		{"mysql_duplicate", &mysql.MySQLError{Number: 1062}, UniqueConstraint},
		{"mysql_fk_child", &mysql.MySQLError{Number: 1452}, ForeignKeyConstraint},
		{"mysql_check", &mysql.MySQLError{Number: 3819}, CheckConstraint},
		{"mssql_unique", mssql.Error{Number: 2627}, UniqueConstraint},
		{"mssql_check", mssql.Error{Number: 547, Message: "conflicted with the CHECK constraint"}, CheckConstraint},
		{"mssql_fk", mssql.Error{Number: 547, Message: "conflicted with the FOREIGN KEY constraint"}, ForeignKeyConstraint},
		{"sqlstate", stateErr("23514"), CheckConstraint},
		{"sqlite_message", errors.New("UNIQUE constraint failed: users.email"), UniqueConstraint},
		{"sqlite_fk_message", errors.New("FOREIGN KEY constraint failed"), ForeignKeyConstraint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyConstraint(tt.err))
			assert.Equal(t, tt.want != NoConstraint, IsConstraintError(tt.err))
		})
	}
	assert.True(t, IsUniqueConstraintError(&pq.Error{Code: "23505"}))
	assert.True(t, IsForeignKeyConstraintError(&mysql.MySQLError{Number: 1451}))
	assert.True(t, IsCheckConstraintError(errors.New("violates check constraint")))
	assert.Equal(t, "foreign key", ForeignKeyConstraint.String())
}
