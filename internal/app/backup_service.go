package app

import (
	"context"
	"fmt"

	"cable_billing_engine/internal/domain/audit"
	"cable_billing_engine/internal/domain/backup"
	"cable_billing_engine/internal/domain/billing"
	"cable_billing_engine/internal/domain/customer"
	"cable_billing_engine/internal/infra/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CollectionStatus is the per-collection outcome of a restore.
type CollectionStatus string

const (
	CollectionRestored CollectionStatus = "restored"
	CollectionSkipped  CollectionStatus = "skipped" // collection absent from the snapshot
	CollectionFailed   CollectionStatus = "failed"
)

// CollectionOutcome reports what happened to one entity collection.
type CollectionOutcome struct {
	Status CollectionStatus `json:"status"`
	Count  int              `json:"count"`
	Error  string           `json:"error,omitempty"`
}

// RestoreResult reports a restore per collection. Collections are handled
// independently; there is no cross-collection atomicity, so a caller must
// inspect every outcome rather than a single success flag.
type RestoreResult struct {
	Customers CollectionOutcome `json:"customers"`
	Packages  CollectionOutcome `json:"packages"`
	Bundles   CollectionOutcome `json:"bundles"`
}

// Failed reports whether any attempted collection failed.
func (r RestoreResult) Failed() bool {
	return r.Customers.Status == CollectionFailed ||
		r.Packages.Status == CollectionFailed ||
		r.Bundles.Status == CollectionFailed
}

// BackupService builds snapshots from live records and reconciles
// snapshots back against them.
type BackupService struct {
	customers customer.Repository
	packages  customer.PackageRepository
	bundles   customer.BundleRepository
	audit     *AuditRecorder
	clock     billing.Clock
	logger    *logrus.Entry
}

func NewBackupService(
	customers customer.Repository,
	packages customer.PackageRepository,
	bundles customer.BundleRepository,
	auditRec *AuditRecorder,
	clock billing.Clock,
	logger *logrus.Entry,
) *BackupService {
	return &BackupService{
		customers: customers,
		packages:  packages,
		bundles:   bundles,
		audit:     auditRec,
		clock:     clock,
		logger:    logger,
	}
}

// CreateSnapshot exports live records under the given scope. Scoped
// snapshots omit bundles entirely (bundles may span both service types),
// so restoring one leaves live bundles untouched.
func (s *BackupService) CreateSnapshot(ctx context.Context, scope backup.Scope) (backup.Snapshot, error) {
	var (
		custs []*customer.Customer
		pkgs  []*customer.Package
		err   error
	)
	if svcType, scoped := scope.ServiceType(); scoped {
		if custs, err = s.customers.ListByType(ctx, svcType); err != nil {
			return backup.Snapshot{}, fmt.Errorf("create snapshot: %w", err)
		}
		if pkgs, err = s.packages.ListByType(ctx, svcType); err != nil {
			return backup.Snapshot{}, fmt.Errorf("create snapshot: %w", err)
		}
		return backup.Build(deref(custs), deref(pkgs), nil, scope, s.clock.Now()), nil
	}

	if custs, err = s.customers.ListAll(ctx); err != nil {
		return backup.Snapshot{}, fmt.Errorf("create snapshot: %w", err)
	}
	if pkgs, err = s.packages.ListAll(ctx); err != nil {
		return backup.Snapshot{}, fmt.Errorf("create snapshot: %w", err)
	}
	bundles, err := s.bundles.ListAll(ctx)
	if err != nil {
		return backup.Snapshot{}, fmt.Errorf("create snapshot: %w", err)
	}
	return backup.Build(deref(custs), deref(pkgs), deref(bundles), scope, s.clock.Now()), nil
}

// ExportCSV renders the scoped customer list in the flat tabular form.
func (s *BackupService) ExportCSV(ctx context.Context, scope backup.Scope) (string, error) {
	var (
		custs []*customer.Customer
		err   error
	)
	if svcType, scoped := scope.ServiceType(); scoped {
		custs, err = s.customers.ListByType(ctx, svcType)
	} else {
		custs, err = s.customers.ListAll(ctx)
	}
	if err != nil {
		return "", fmt.Errorf("export csv: %w", err)
	}
	return backup.EncodeCSV(*deref(custs)), nil
}

// Restore applies a snapshot against live storage: scoped delete then bulk
// insert, per collection, each collection independent of the others. The
// returned error is non-nil only when nothing was attempted (validation);
// partial failures are reported inside the result.
func (s *BackupService) Restore(ctx context.Context, snap backup.Snapshot) (RestoreResult, error) {
	if err := snap.Validate(); err != nil {
		return RestoreResult{}, err
	}
	svcType, scoped := snap.Scope.ServiceType()

	var res RestoreResult
	res.Customers = s.restoreCustomers(ctx, snap, svcType, scoped)
	res.Packages = s.restorePackages(ctx, snap, svcType, scoped)
	res.Bundles = s.restoreBundles(ctx, snap)

	s.audit.Record(ctx, "", audit.ActionRestored, fmt.Sprintf(
		"snapshot restore (scope %s): customers %s (%d), packages %s (%d), bundles %s (%d)",
		snap.Scope,
		res.Customers.Status, res.Customers.Count,
		res.Packages.Status, res.Packages.Count,
		res.Bundles.Status, res.Bundles.Count,
	))
	s.logger.WithFields(logrus.Fields{
		"scope":     snap.Scope,
		"customers": res.Customers.Status,
		"packages":  res.Packages.Status,
		"bundles":   res.Bundles.Status,
	}).Info("Snapshot restore finished")
	return res, nil
}

// RestoreFromCSV decodes a pasted CSV export and applies it. The CSV form
// carries no scope marker, so it always restores as scope "all".
func (s *BackupService) RestoreFromCSV(ctx context.Context, text string) (RestoreResult, error) {
	custs, err := backup.DecodeCSV(text)
	if err != nil {
		return RestoreResult{}, err
	}
	snap := backup.Build(&custs, nil, nil, backup.ScopeAll, s.clock.Now())
	return s.Restore(ctx, snap)
}

func (s *BackupService) restoreCustomers(ctx context.Context, snap backup.Snapshot, svcType customer.ServiceType, scoped bool) CollectionOutcome {
	if snap.Customers == nil {
		return CollectionOutcome{Status: CollectionSkipped}
	}
	var err error
	if scoped {
		err = s.customers.DeleteByType(ctx, svcType)
	} else {
		err = s.customers.DeleteAll(ctx)
	}
	if err != nil {
		return s.collectionFailed("customers", err)
	}

	rows := make([]*customer.Customer, len(*snap.Customers))
	for i := range *snap.Customers {
		c := (*snap.Customers)[i]
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		rows[i] = &c
	}
	if err := s.customers.InsertBulk(ctx, rows); err != nil {
		return s.collectionFailed("customers", err)
	}
	metrics.RestoreCollectionsTotal.WithLabelValues("customers", string(CollectionRestored)).Inc()
	return CollectionOutcome{Status: CollectionRestored, Count: len(rows)}
}

func (s *BackupService) restorePackages(ctx context.Context, snap backup.Snapshot, svcType customer.ServiceType, scoped bool) CollectionOutcome {
	if snap.Packages == nil {
		return CollectionOutcome{Status: CollectionSkipped}
	}
	var err error
	if scoped {
		err = s.packages.DeleteByType(ctx, svcType)
	} else {
		err = s.packages.DeleteAll(ctx)
	}
	if err != nil {
		return s.collectionFailed("packages", err)
	}

	rows := make([]*customer.Package, len(*snap.Packages))
	for i := range *snap.Packages {
		p := (*snap.Packages)[i]
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		rows[i] = &p
	}
	if err := s.packages.InsertBulk(ctx, rows); err != nil {
		return s.collectionFailed("packages", err)
	}
	metrics.RestoreCollectionsTotal.WithLabelValues("packages", string(CollectionRestored)).Inc()
	return CollectionOutcome{Status: CollectionRestored, Count: len(rows)}
}

// restoreBundles ignores the snapshot scope: bundles are replaced
// wholesale whenever they are present at all.
func (s *BackupService) restoreBundles(ctx context.Context, snap backup.Snapshot) CollectionOutcome {
	if snap.Bundles == nil {
		return CollectionOutcome{Status: CollectionSkipped}
	}
	if err := s.bundles.DeleteAll(ctx); err != nil {
		return s.collectionFailed("bundles", err)
	}

	rows := make([]*customer.Bundle, len(*snap.Bundles))
	for i := range *snap.Bundles {
		b := (*snap.Bundles)[i]
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		rows[i] = &b
	}
	if err := s.bundles.InsertBulk(ctx, rows); err != nil {
		return s.collectionFailed("bundles", err)
	}
	metrics.RestoreCollectionsTotal.WithLabelValues("bundles", string(CollectionRestored)).Inc()
	return CollectionOutcome{Status: CollectionRestored, Count: len(rows)}
}

func (s *BackupService) collectionFailed(name string, err error) CollectionOutcome {
	s.logger.WithError(err).WithField("collection", name).Error("Restore collection failed")
	metrics.RestoreCollectionsTotal.WithLabelValues(name, string(CollectionFailed)).Inc()
	return CollectionOutcome{Status: CollectionFailed, Error: err.Error()}
}

// deref converts a repository's pointer slice into the value slice snapshots
// carry, preserving present-but-empty.
func deref[T any](in []*T) *[]T {
	out := make([]T, len(in))
	for i, p := range in {
		out[i] = *p
	}
	return &out
}
