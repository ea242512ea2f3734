package customer

import (
	"context"
)

// Repository defines the persistence operations the billing engines need
// for customers. List methods never return soft-deleted rows; the delete
// and insert methods operate on raw rows and exist for snapshot restore.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Customer, error)
	ListAll(ctx context.Context) ([]*Customer, error)
	ListByType(ctx context.Context, t ServiceType) ([]*Customer, error)

	// ListResetEligible returns customers with status=paid, deleted=false,
	// excluded_from_reset=false.
	ListResetEligible(ctx context.Context) ([]*Customer, error)
	// ListPaid returns non-deleted customers with status=paid regardless of
	// the exclusion flag (auto-expiry ignores it).
	ListPaid(ctx context.Context) ([]*Customer, error)

	UpdateStatusBulk(ctx context.Context, ids []string, status Status) (int64, error)
	SetExcludedBulk(ctx context.Context, ids []string, excluded bool) (int64, error)

	InsertBulk(ctx context.Context, customers []*Customer) error
	DeleteAll(ctx context.Context) error
	DeleteByType(ctx context.Context, t ServiceType) error
}

// PackageRepository persists channel packages / internet plans.
type PackageRepository interface {
	ListAll(ctx context.Context) ([]*Package, error)
	ListByType(ctx context.Context, t ServiceType) ([]*Package, error)
	InsertBulk(ctx context.Context, packages []*Package) error
	DeleteAll(ctx context.Context) error
	DeleteByType(ctx context.Context, t ServiceType) error
}

// BundleRepository persists bundles. There is no by-type variant: bundles
// may mix service types, so they are always replaced wholesale.
type BundleRepository interface {
	ListAll(ctx context.Context) ([]*Bundle, error)
	InsertBulk(ctx context.Context, bundles []*Bundle) error
	DeleteAll(ctx context.Context) error
}
