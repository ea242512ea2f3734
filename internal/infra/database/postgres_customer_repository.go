package database

import (
	"context"
	"database/sql"
	"fmt"

	"cable_billing_engine/internal/domain/customer"

	"github.com/lib/pq"
)

const customerColumns = `id, name, service_type, packages, status, address, mobile,
		box_number, mac_address, last_payment_date, excluded_from_reset, deleted,
		created_at, updated_at`

type PostgresCustomerRepository struct {
	db *sql.DB
}

func NewPostgresCustomerRepository(db *sql.DB) *PostgresCustomerRepository {
	return &PostgresCustomerRepository{db: db}
}

func (r *PostgresCustomerRepository) GetByID(ctx context.Context, id string) (*customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	c, err := scanCustomer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCustomerNotFound
		}
		return nil, classifyError("get customer by id", err)
	}
	return c, nil
}

func (r *PostgresCustomerRepository) ListAll(ctx context.Context) ([]*customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE NOT deleted ORDER BY name, id`
	return r.list(ctx, "list customers", query)
}

func (r *PostgresCustomerRepository) ListByType(ctx context.Context, t customer.ServiceType) ([]*customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE NOT deleted AND service_type = $1 ORDER BY name, id`
	return r.list(ctx, "list customers by type", query, t)
}

// ListResetEligible returns the customers a monthly reset may transition:
// currently paid, not soft-deleted and not flagged as excluded.
func (r *PostgresCustomerRepository) ListResetEligible(ctx context.Context) ([]*customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers
		WHERE status = $1 AND NOT deleted AND NOT excluded_from_reset ORDER BY id`
	return r.list(ctx, "list reset-eligible customers", query, customer.StatusPaid)
}

// ListPaid returns paid, non-deleted customers regardless of the exclusion
// flag. Auto-expiry evaluates these against the recharge window.
func (r *PostgresCustomerRepository) ListPaid(ctx context.Context) ([]*customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE status = $1 AND NOT deleted ORDER BY id`
	return r.list(ctx, "list paid customers", query, customer.StatusPaid)
}

func (r *PostgresCustomerRepository) UpdateStatusBulk(ctx context.Context, ids []string, status customer.Status) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `UPDATE customers SET status = $1, updated_at = NOW() WHERE id = ANY($2)`
	res, err := r.db.ExecContext(ctx, query, status, pq.Array(ids))
	if err != nil {
		return 0, classifyError("bulk update customer status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("bulk update customer status: rows affected: %w", err)
	}
	return n, nil
}

func (r *PostgresCustomerRepository) SetExcludedBulk(ctx context.Context, ids []string, excluded bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `UPDATE customers SET excluded_from_reset = $1, updated_at = NOW() WHERE id = ANY($2)`
	res, err := r.db.ExecContext(ctx, query, excluded, pq.Array(ids))
	if err != nil {
		return 0, classifyError("bulk update exclusion flag", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("bulk update exclusion flag: rows affected: %w", err)
	}
	return n, nil
}

func (r *PostgresCustomerRepository) InsertBulk(ctx context.Context, customers []*customer.Customer) error {
	if len(customers) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classifyError("bulk insert customers: begin", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO customers (id, name, service_type, packages, status, address, mobile,
			box_number, mac_address, last_payment_date, excluded_from_reset, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return classifyError("bulk insert customers: prepare", err)
	}
	defer stmt.Close()

	for _, c := range customers {
		var lastPayment sql.NullTime
		if c.LastPaymentDate != nil {
			lastPayment = sql.NullTime{Time: *c.LastPaymentDate, Valid: true}
		}
		_, err := stmt.ExecContext(ctx, c.ID, c.Name, c.ServiceType, customer.JoinPackages(c.Packages),
			c.Status, c.Address, c.Mobile, c.BoxNumber, c.MACAddress, lastPayment,
			c.ExcludedFromReset, c.Deleted)
		if err != nil {
			return classifyError(fmt.Sprintf("bulk insert customer %s", c.ID), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return classifyError("bulk insert customers: commit", err)
	}
	return nil
}

func (r *PostgresCustomerRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM customers`); err != nil {
		return classifyError("delete all customers", err)
	}
	return nil
}

func (r *PostgresCustomerRepository) DeleteByType(ctx context.Context, t customer.ServiceType) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE service_type = $1`, t); err != nil {
		return classifyError("delete customers by type", err)
	}
	return nil
}

func (r *PostgresCustomerRepository) list(ctx context.Context, op, query string, args ...any) ([]*customer.Customer, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyError(op, err)
	}
	defer rows.Close()

	customers := make([]*customer.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		customers = append(customers, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate: %w", op, err)
	}
	return customers, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*customer.Customer, error) {
	c := &customer.Customer{}
	var packages string
	var lastPayment sql.NullTime
	err := row.Scan(&c.ID, &c.Name, &c.ServiceType, &packages, &c.Status, &c.Address, &c.Mobile,
		&c.BoxNumber, &c.MACAddress, &lastPayment, &c.ExcludedFromReset, &c.Deleted,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Packages = customer.SplitPackages(packages)
	if lastPayment.Valid {
		t := lastPayment.Time
		c.LastPaymentDate = &t
	}
	return c, nil
}
