package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cable_billing_engine/internal/domain/audit"
	"cable_billing_engine/internal/domain/backup"
	"cable_billing_engine/internal/domain/customer"
)

func cableCustomer(id string) *customer.Customer {
	return &customer.Customer{ID: id, Name: "Cable " + id, ServiceType: customer.ServiceCable, Status: customer.StatusUnpaid}
}

func internetCustomer(id string) *customer.Customer {
	return &customer.Customer{ID: id, Name: "Net " + id, ServiceType: customer.ServiceInternet, Status: customer.StatusUnpaid}
}

func newBackupFixture(custs *fakeCustomerRepo, pkgs *fakePackageRepo, bundles *fakeBundleRepo) (*BackupService, *fakeAuditRepo) {
	auditRepo := &fakeAuditRepo{}
	svc := NewBackupService(custs, pkgs, bundles,
		NewAuditRecorder(auditRepo, testLogger()),
		fixedClock{now: time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)},
		testLogger())
	return svc, auditRepo
}

func TestCreateSnapshotAllScope(t *testing.T) {
	custs := newFakeCustomerRepo(cableCustomer("c-1"), internetCustomer("c-2"))
	pkgs := newFakePackageRepo(&customer.Package{ID: "p-1", Name: "Sports", ServiceType: customer.ServiceCable})
	bundles := newFakeBundleRepo(&customer.Bundle{ID: "b-1", Name: "Combo"})
	svc, _ := newBackupFixture(custs, pkgs, bundles)

	snap, err := svc.CreateSnapshot(context.Background(), backup.ScopeAll)
	require.NoError(t, err)

	require.NoError(t, snap.Validate())
	require.NotNil(t, snap.Customers)
	assert.Len(t, *snap.Customers, 2)
	require.NotNil(t, snap.Bundles)
	assert.Len(t, *snap.Bundles, 1)
}

// Scoped snapshots carry only that service type and omit bundles.
func TestCreateSnapshotScoped(t *testing.T) {
	custs := newFakeCustomerRepo(cableCustomer("c-1"), internetCustomer("c-2"))
	svc, _ := newBackupFixture(custs, newFakePackageRepo(), newFakeBundleRepo())

	snap, err := svc.CreateSnapshot(context.Background(), backup.ScopeCable)
	require.NoError(t, err)

	require.NotNil(t, snap.Customers)
	require.Len(t, *snap.Customers, 1)
	assert.Equal(t, "c-1", (*snap.Customers)[0].ID)
	assert.Nil(t, snap.Bundles)
}

// A cable-scoped snapshot with customers but no packages
// replaces only cable customers, leaves internet rows and the packages
// collection untouched, and reports packages as skipped.
func TestRestoreScopedSkipsAbsentCollections(t *testing.T) {
	custs := newFakeCustomerRepo(cableCustomer("old-cable"), internetCustomer("keep-net"))
	pkgs := newFakePackageRepo(&customer.Package{ID: "p-keep", Name: "Keep", ServiceType: customer.ServiceCable})
	svc, _ := newBackupFixture(custs, pkgs, newFakeBundleRepo())

	incoming := []customer.Customer{*cableCustomer("new-1"), *cableCustomer("new-2"), *cableCustomer("new-3")}
	snap := backup.Build(&incoming, nil, nil, backup.ScopeCable, time.Now())

	res, err := svc.Restore(context.Background(), snap)
	require.NoError(t, err)

	assert.Equal(t, CollectionRestored, res.Customers.Status)
	assert.Equal(t, 3, res.Customers.Count)
	assert.Equal(t, CollectionSkipped, res.Packages.Status)
	assert.Equal(t, CollectionSkipped, res.Bundles.Status)
	assert.False(t, res.Failed())

	assert.Nil(t, custs.get("old-cable"), "scoped restore replaces cable rows")
	assert.NotNil(t, custs.get("keep-net"), "other service type untouched")
	assert.NotNil(t, custs.get("new-1"))
	assert.Len(t, pkgs.packages, 1, "absent collection left alone")
}

// Present-but-empty clears the collection; that is not the same as absent.
func TestRestoreEmptyCollectionClears(t *testing.T) {
	custs := newFakeCustomerRepo(cableCustomer("c-1"))
	pkgs := newFakePackageRepo(&customer.Package{ID: "p-1", Name: "Old", ServiceType: customer.ServiceCable})
	svc, _ := newBackupFixture(custs, pkgs, newFakeBundleRepo())

	empty := []customer.Package{}
	keep := []customer.Customer{*cableCustomer("c-1")}
	snap := backup.Build(&keep, &empty, nil, backup.ScopeAll, time.Now())

	res, err := svc.Restore(context.Background(), snap)
	require.NoError(t, err)

	assert.Equal(t, CollectionRestored, res.Packages.Status)
	assert.Equal(t, 0, res.Packages.Count)
	assert.Empty(t, pkgs.packages)
}

func TestRestoreRejectsEmptySnapshot(t *testing.T) {
	svc, _ := newBackupFixture(newFakeCustomerRepo(), newFakePackageRepo(), newFakeBundleRepo())

	_, err := svc.Restore(context.Background(), backup.Snapshot{Version: 1, Scope: backup.ScopeAll})
	assert.ErrorIs(t, err, backup.ErrEmptySnapshot)
}

// One collection failing does not stop the others, and the failure is
// reported rather than swallowed.
func TestRestorePartialFailureReported(t *testing.T) {
	custs := newFakeCustomerRepo()
	pkgs := newFakePackageRepo()
	pkgs.insertErr = fmt.Errorf("store unavailable")
	svc, _ := newBackupFixture(custs, pkgs, newFakeBundleRepo())

	incomingCusts := []customer.Customer{*cableCustomer("c-1")}
	incomingPkgs := []customer.Package{{ID: "p-1", Name: "Sports", ServiceType: customer.ServiceCable}}
	snap := backup.Build(&incomingCusts, &incomingPkgs, nil, backup.ScopeAll, time.Now())

	res, err := svc.Restore(context.Background(), snap)
	require.NoError(t, err)

	assert.Equal(t, CollectionRestored, res.Customers.Status)
	assert.Equal(t, CollectionFailed, res.Packages.Status)
	assert.Contains(t, res.Packages.Error, "store unavailable")
	assert.True(t, res.Failed())
	assert.NotNil(t, custs.get("c-1"))
}

func TestRestoreWritesAuditSummary(t *testing.T) {
	svc, auditRepo := newBackupFixture(newFakeCustomerRepo(), newFakePackageRepo(), newFakeBundleRepo())

	incoming := []customer.Customer{*cableCustomer("c-1")}
	_, err := svc.Restore(context.Background(), backup.Build(&incoming, nil, nil, backup.ScopeAll, time.Now()))
	require.NoError(t, err)

	entries := auditRepo.byAction(audit.ActionRestored)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Details, "customers restored (1)")
	assert.Contains(t, entries[0].Details, "packages skipped")
}

func TestRestoreFromCSVUsesAllScope(t *testing.T) {
	custs := newFakeCustomerRepo(cableCustomer("old-cable"), internetCustomer("old-net"))
	svc, _ := newBackupFixture(custs, newFakePackageRepo(), newFakeBundleRepo())

	text := backup.EncodeCSV([]customer.Customer{*cableCustomer("csv-1")})
	res, err := svc.RestoreFromCSV(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, CollectionRestored, res.Customers.Status)
	assert.Nil(t, custs.get("old-cable"))
	assert.Nil(t, custs.get("old-net"), "CSV restore wipes both service types")
	assert.NotNil(t, custs.get("csv-1"))
}

func TestRestoreFromCSVMalformed(t *testing.T) {
	svc, _ := newBackupFixture(newFakeCustomerRepo(), newFakePackageRepo(), newFakeBundleRepo())

	_, err := svc.RestoreFromCSV(context.Background(), "not a csv")
	assert.ErrorIs(t, err, backup.ErrMalformedCSV)
}

func TestSnapshotRoundTripThroughRestore(t *testing.T) {
	orig := newFakeCustomerRepo(cableCustomer("c-1"), internetCustomer("c-2"))
	svc, _ := newBackupFixture(orig, newFakePackageRepo(), newFakeBundleRepo())

	snap, err := svc.CreateSnapshot(context.Background(), backup.ScopeAll)
	require.NoError(t, err)

	data, err := backup.EncodeJSON(snap)
	require.NoError(t, err)
	decoded, err := backup.DecodeJSON(data)
	require.NoError(t, err)

	target := newFakeCustomerRepo()
	svc2, _ := newBackupFixture(target, newFakePackageRepo(), newFakeBundleRepo())
	res, err := svc2.Restore(context.Background(), decoded)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Customers.Count)
	assert.NotNil(t, target.get("c-1"))
	assert.NotNil(t, target.get("c-2"))
}
