package database

import (
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestClassifyErrorSchemaMissing(t *testing.T) {
	undefinedTable := &pq.Error{Code: pqUndefinedTable, Message: `relation "audit_log" does not exist`}
	err := classifyError("insert audit entry", undefinedTable)
	assert.ErrorIs(t, err, ErrSchemaMissing)
	assert.Contains(t, err.Error(), "audit_log")

	undefinedColumn := &pq.Error{Code: pqUndefinedColumn, Message: `column "excluded_from_reset" does not exist`}
	assert.ErrorIs(t, classifyError("list", undefinedColumn), ErrSchemaMissing)
}

func TestClassifyErrorWrapsOthers(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := classifyError("list customers", cause)
	assert.NotErrorIs(t, err, ErrSchemaMissing)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "list customers")
}

func TestClassifyErrorWrappedPqError(t *testing.T) {
	inner := fmt.Errorf("exec: %w", &pq.Error{Code: pqUndefinedTable})
	assert.ErrorIs(t, classifyError("op", inner), ErrSchemaMissing)
}

func TestClassifyErrorNil(t *testing.T) {
	assert.NoError(t, classifyError("op", nil))
}
