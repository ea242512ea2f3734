package database

import (
	"context"
	"database/sql"
	"fmt"

	"cable_billing_engine/internal/domain/audit"

	"github.com/google/uuid"
)

// PostgresAuditRepository appends to and queries the audit_log table. The
// table may not exist yet; every operation maps that case onto
// ErrSchemaMissing so callers can tell "no schema" from "no entries".
type PostgresAuditRepository struct {
	db *sql.DB
}

func NewPostgresAuditRepository(db *sql.DB) *PostgresAuditRepository {
	return &PostgresAuditRepository{db: db}
}

func (r *PostgresAuditRepository) Insert(ctx context.Context, e *audit.Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	query := `INSERT INTO audit_log (id, customer_id, action, details, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, e.ID, e.CustomerID, e.Action, e.Details).Scan(&e.Timestamp)
	if err != nil {
		return classifyError("insert audit entry", err)
	}
	return nil
}

func (r *PostgresAuditRepository) ListByCustomer(ctx context.Context, customerID string) ([]*audit.Entry, error) {
	query := `SELECT id, customer_id, action, details, created_at FROM audit_log
		WHERE customer_id = $1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, "list audit entries by customer", query, customerID)
}

func (r *PostgresAuditRepository) ListByAction(ctx context.Context, action audit.Action, limit int) ([]*audit.Entry, error) {
	query := `SELECT id, customer_id, action, details, created_at FROM audit_log
		WHERE action = $1 ORDER BY created_at DESC, id DESC LIMIT $2`
	return r.list(ctx, "list audit entries by action", query, action, limit)
}

func (r *PostgresAuditRepository) list(ctx context.Context, op, query string, args ...any) ([]*audit.Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyError(op, err)
	}
	defer rows.Close()

	entries := make([]*audit.Entry, 0)
	for rows.Next() {
		e := &audit.Entry{}
		if err := rows.Scan(&e.ID, &e.CustomerID, &e.Action, &e.Details, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate: %w", op, err)
	}
	return entries, nil
}
