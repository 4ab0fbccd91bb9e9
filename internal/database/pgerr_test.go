package database_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/capital/internal/database"
)

func TestPgErrors(t *testing.T) {
	unique := fmt.Errorf("creating category: %w", &pgconn.PgError{Code: "23505", ConstraintName: "categories_name_key"})
	fk := &pgconn.PgError{Code: "23503"}
	overflow := fmt.Errorf("adjusting balance: %w", &pgconn.PgError{Code: "22003"})

	tests := []struct {
		name       string
		err        error
		unique     bool
		foreignKey bool
		outOfRange bool
		constraint string
	}{
		{name: "unique violation", err: unique, unique: true, constraint: "categories_name_key"},
		{name: "foreign key violation", err: fk, foreignKey: true},
		{name: "numeric out of range", err: overflow, outOfRange: true},
		{name: "plain error", err: errors.New("boom")},
		{name: "nil", err: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unique, database.IsUniqueViolation(tt.err))
			assert.Equal(t, tt.foreignKey, database.IsForeignKeyViolation(tt.err))
			assert.Equal(t, tt.outOfRange, database.IsNumericOutOfRange(tt.err))
			assert.Equal(t, tt.constraint, database.ConstraintName(tt.err))
		})
	}
}
