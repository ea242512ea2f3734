package database

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Sentinel errors shared by the Postgres repositories.
var (
	ErrCustomerNotFound = fmt.Errorf("customer not found")
	ErrSettingNotFound  = fmt.Errorf("setting not found")

	// ErrSchemaMissing means the backing store lacks an expected table or
	// column. It is surfaced distinctly so an operator can provision the
	// schema instead of chasing a generic failure; for the audit table it is
	// an expected condition until the table is lazily created.
	ErrSchemaMissing = fmt.Errorf("database schema missing")
)

// Postgres error codes for undefined relations/columns. Matching on the
// structured code, not the message text, keeps detection locale- and
// version-proof.
const (
	pqUndefinedTable  = "42P01"
	pqUndefinedColumn = "42703"
)

// classifyError maps driver errors onto the repository error taxonomy,
// wrapping schema problems with ErrSchemaMissing. Other errors pass through
// wrapped with op for context.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUndefinedTable, pqUndefinedColumn:
			return fmt.Errorf("%s: %w: %s", op, ErrSchemaMissing, pqErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
