package app

import (
	"context"
	"io"
	"sync"
	"time"

	"cable_billing_engine/internal/domain/audit"
	"cable_billing_engine/internal/domain/billing"
	"cable_billing_engine/internal/domain/customer"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// fakeCustomerRepo is an in-memory customer.Repository with per-method
// error injection.
type fakeCustomerRepo struct {
	mu        sync.Mutex
	customers map[string]*customer.Customer

	listErr    error
	updateErr  error
	deleteErr  error
	insertErr  error
	excludeErr error
}

func newFakeCustomerRepo(customers ...*customer.Customer) *fakeCustomerRepo {
	r := &fakeCustomerRepo{customers: make(map[string]*customer.Customer)}
	for _, c := range customers {
		cc := *c
		r.customers[c.ID] = &cc
	}
	return r
}

func (r *fakeCustomerRepo) get(id string) *customer.Customer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.customers[id]
}

func (r *fakeCustomerRepo) GetByID(_ context.Context, id string) (*customer.Customer, error) {
	if c := r.get(id); c != nil {
		return c, nil
	}
	return nil, customerNotFound
}

func (r *fakeCustomerRepo) ListAll(_ context.Context) ([]*customer.Customer, error) {
	return r.filter(func(c *customer.Customer) bool { return !c.Deleted })
}

func (r *fakeCustomerRepo) ListByType(_ context.Context, t customer.ServiceType) ([]*customer.Customer, error) {
	return r.filter(func(c *customer.Customer) bool { return !c.Deleted && c.ServiceType == t })
}

func (r *fakeCustomerRepo) ListResetEligible(_ context.Context) ([]*customer.Customer, error) {
	return r.filter(func(c *customer.Customer) bool {
		return c.Status == customer.StatusPaid && !c.Deleted && !c.ExcludedFromReset
	})
}

func (r *fakeCustomerRepo) ListPaid(_ context.Context) ([]*customer.Customer, error) {
	return r.filter(func(c *customer.Customer) bool {
		return c.Status == customer.StatusPaid && !c.Deleted
	})
}

func (r *fakeCustomerRepo) filter(keep func(*customer.Customer) bool) ([]*customer.Customer, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*customer.Customer
	for _, c := range r.customers {
		if keep(c) {
			cc := *c
			out = append(out, &cc)
		}
	}
	return out, nil
}

func (r *fakeCustomerRepo) UpdateStatusBulk(_ context.Context, ids []string, status customer.Status) (int64, error) {
	if r.updateErr != nil {
		return 0, r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if c, ok := r.customers[id]; ok {
			c.Status = status
			n++
		}
	}
	return n, nil
}

func (r *fakeCustomerRepo) SetExcludedBulk(_ context.Context, ids []string, excluded bool) (int64, error) {
	if r.excludeErr != nil {
		return 0, r.excludeErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if c, ok := r.customers[id]; ok {
			c.ExcludedFromReset = excluded
			n++
		}
	}
	return n, nil
}

func (r *fakeCustomerRepo) InsertBulk(_ context.Context, customers []*customer.Customer) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range customers {
		cc := *c
		r.customers[c.ID] = &cc
	}
	return nil
}

func (r *fakeCustomerRepo) DeleteAll(context.Context) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers = make(map[string]*customer.Customer)
	return nil
}

func (r *fakeCustomerRepo) DeleteByType(_ context.Context, t customer.ServiceType) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.customers {
		if c.ServiceType == t {
			delete(r.customers, id)
		}
	}
	return nil
}

var customerNotFound = errString("customer not found")

type errString string

func (e errString) Error() string { return string(e) }

type fakePackageRepo struct {
	packages  map[string]*customer.Package
	deleteErr error
	insertErr error
}

func newFakePackageRepo(packages ...*customer.Package) *fakePackageRepo {
	r := &fakePackageRepo{packages: make(map[string]*customer.Package)}
	for _, p := range packages {
		pp := *p
		r.packages[p.ID] = &pp
	}
	return r
}

func (r *fakePackageRepo) ListAll(context.Context) ([]*customer.Package, error) {
	var out []*customer.Package
	for _, p := range r.packages {
		pp := *p
		out = append(out, &pp)
	}
	return out, nil
}

func (r *fakePackageRepo) ListByType(_ context.Context, t customer.ServiceType) ([]*customer.Package, error) {
	var out []*customer.Package
	for _, p := range r.packages {
		if p.ServiceType == t {
			pp := *p
			out = append(out, &pp)
		}
	}
	return out, nil
}

func (r *fakePackageRepo) InsertBulk(_ context.Context, packages []*customer.Package) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	for _, p := range packages {
		pp := *p
		r.packages[p.ID] = &pp
	}
	return nil
}

func (r *fakePackageRepo) DeleteAll(context.Context) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.packages = make(map[string]*customer.Package)
	return nil
}

func (r *fakePackageRepo) DeleteByType(_ context.Context, t customer.ServiceType) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	for id, p := range r.packages {
		if p.ServiceType == t {
			delete(r.packages, id)
		}
	}
	return nil
}

type fakeBundleRepo struct {
	bundles   map[string]*customer.Bundle
	deleteErr error
	insertErr error
}

func newFakeBundleRepo(bundles ...*customer.Bundle) *fakeBundleRepo {
	r := &fakeBundleRepo{bundles: make(map[string]*customer.Bundle)}
	for _, b := range bundles {
		bb := *b
		r.bundles[b.ID] = &bb
	}
	return r
}

func (r *fakeBundleRepo) ListAll(context.Context) ([]*customer.Bundle, error) {
	var out []*customer.Bundle
	for _, b := range r.bundles {
		bb := *b
		out = append(out, &bb)
	}
	return out, nil
}

func (r *fakeBundleRepo) InsertBulk(_ context.Context, bundles []*customer.Bundle) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	for _, b := range bundles {
		bb := *b
		r.bundles[b.ID] = &bb
	}
	return nil
}

func (r *fakeBundleRepo) DeleteAll(context.Context) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.bundles = make(map[string]*customer.Bundle)
	return nil
}

type fakeAuditRepo struct {
	entries   []*audit.Entry
	insertErr error
}

func (r *fakeAuditRepo) Insert(_ context.Context, e *audit.Entry) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	ee := *e
	if ee.Timestamp.IsZero() {
		ee.Timestamp = time.Now()
	}
	r.entries = append(r.entries, &ee)
	return nil
}

func (r *fakeAuditRepo) ListByCustomer(_ context.Context, customerID string) ([]*audit.Entry, error) {
	var out []*audit.Entry
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].CustomerID == customerID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

func (r *fakeAuditRepo) ListByAction(_ context.Context, action audit.Action, limit int) ([]*audit.Entry, error) {
	var out []*audit.Entry
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.entries[i].Action == action {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

func (r *fakeAuditRepo) byAction(action audit.Action) []*audit.Entry {
	var out []*audit.Entry
	for _, e := range r.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

type fakeSettings struct {
	cfg     billing.CycleConfig
	loadErr error
	saveErr error
}

func (s *fakeSettings) LoadCycleConfig(context.Context) (billing.CycleConfig, error) {
	if s.loadErr != nil {
		return billing.CycleConfig{}, s.loadErr
	}
	return s.cfg, nil
}

func (s *fakeSettings) SaveCycleConfig(_ context.Context, cfg billing.CycleConfig) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.cfg = cfg
	return nil
}

func (s *fakeSettings) SaveLastResetMonth(_ context.Context, key billing.MonthKey) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.cfg.LastResetMonthKey = key
	return nil
}

type fakeNotifier struct {
	confirmations int
	completions   int
	expiries      int
	lastCount     int64
	lastSilent    bool
}

func (n *fakeNotifier) ResetConfirmationRequested(billing.CycleConfig, time.Time) { n.confirmations++ }

func (n *fakeNotifier) ResetCompleted(count int64, silent bool) {
	n.completions++
	n.lastCount = count
	n.lastSilent = silent
}

func (n *fakeNotifier) AutoExpireCompleted(count int64) {
	n.expiries++
	n.lastCount = count
}
