package database

import (
	"context"
	"database/sql"
	"fmt"

	"cable_billing_engine/internal/domain/customer"
)

// PostgresPackageRepository persists channel packages / internet plans.
type PostgresPackageRepository struct {
	db *sql.DB
}

func NewPostgresPackageRepository(db *sql.DB) *PostgresPackageRepository {
	return &PostgresPackageRepository{db: db}
}

func (r *PostgresPackageRepository) ListAll(ctx context.Context) ([]*customer.Package, error) {
	return r.list(ctx, "list packages", `SELECT id, name, service_type, price FROM packages ORDER BY name, id`)
}

func (r *PostgresPackageRepository) ListByType(ctx context.Context, t customer.ServiceType) ([]*customer.Package, error) {
	return r.list(ctx, "list packages by type",
		`SELECT id, name, service_type, price FROM packages WHERE service_type = $1 ORDER BY name, id`, t)
}

func (r *PostgresPackageRepository) InsertBulk(ctx context.Context, packages []*customer.Package) error {
	if len(packages) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classifyError("bulk insert packages: begin", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO packages (id, name, service_type, price) VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return classifyError("bulk insert packages: prepare", err)
	}
	defer stmt.Close()

	for _, p := range packages {
		if _, err := stmt.ExecContext(ctx, p.ID, p.Name, p.ServiceType, p.Price); err != nil {
			return classifyError(fmt.Sprintf("bulk insert package %s", p.ID), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return classifyError("bulk insert packages: commit", err)
	}
	return nil
}

func (r *PostgresPackageRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM packages`); err != nil {
		return classifyError("delete all packages", err)
	}
	return nil
}

func (r *PostgresPackageRepository) DeleteByType(ctx context.Context, t customer.ServiceType) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM packages WHERE service_type = $1`, t); err != nil {
		return classifyError("delete packages by type", err)
	}
	return nil
}

func (r *PostgresPackageRepository) list(ctx context.Context, op, query string, args ...any) ([]*customer.Package, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyError(op, err)
	}
	defer rows.Close()

	packages := make([]*customer.Package, 0)
	for rows.Next() {
		p := &customer.Package{}
		if err := rows.Scan(&p.ID, &p.Name, &p.ServiceType, &p.Price); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		packages = append(packages, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate: %w", op, err)
	}
	return packages, nil
}

// PostgresBundleRepository persists package bundles. Bundles are never
// scoped by service type.
type PostgresBundleRepository struct {
	db *sql.DB
}

func NewPostgresBundleRepository(db *sql.DB) *PostgresBundleRepository {
	return &PostgresBundleRepository{db: db}
}

func (r *PostgresBundleRepository) ListAll(ctx context.Context) ([]*customer.Bundle, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, package_ids, price FROM bundles ORDER BY name, id`)
	if err != nil {
		return nil, classifyError("list bundles", err)
	}
	defer rows.Close()

	bundles := make([]*customer.Bundle, 0)
	for rows.Next() {
		b := &customer.Bundle{}
		var packageIDs string
		if err := rows.Scan(&b.ID, &b.Name, &packageIDs, &b.Price); err != nil {
			return nil, fmt.Errorf("list bundles: scan: %w", err)
		}
		b.PackageIDs = customer.SplitPackages(packageIDs)
		bundles = append(bundles, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("list bundles: iterate: %w", err)
	}
	return bundles, nil
}

func (r *PostgresBundleRepository) InsertBulk(ctx context.Context, bundles []*customer.Bundle) error {
	if len(bundles) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classifyError("bulk insert bundles: begin", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO bundles (id, name, package_ids, price) VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return classifyError("bulk insert bundles: prepare", err)
	}
	defer stmt.Close()

	for _, b := range bundles {
		if _, err := stmt.ExecContext(ctx, b.ID, b.Name, customer.JoinPackages(b.PackageIDs), b.Price); err != nil {
			return classifyError(fmt.Sprintf("bulk insert bundle %s", b.ID), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return classifyError("bulk insert bundles: commit", err)
	}
	return nil
}

func (r *PostgresBundleRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM bundles`); err != nil {
		return classifyError("delete all bundles", err)
	}
	return nil
}
