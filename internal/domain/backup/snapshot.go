package backup

import (
	"encoding/json"
	"fmt"
	"time"

	"cable_billing_engine/internal/domain/customer"
)

// SnapshotVersion is the only payload version this build reads or writes.
const SnapshotVersion = 1

// Scope restricts a snapshot to all records or to one service type.
type Scope string

const (
	ScopeAll      Scope = "all"
	ScopeCable    Scope = "cable"
	ScopeInternet Scope = "internet"
)

var (
	ErrEmptySnapshot      = fmt.Errorf("snapshot contains neither customers nor packages")
	ErrUnsupportedVersion = fmt.Errorf("unsupported snapshot version")
	ErrInvalidScope       = fmt.Errorf("invalid snapshot scope")
)

// ParseScope validates a scope string from an external caller.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeAll, ScopeCable, ScopeInternet:
		return Scope(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidScope, s)
}

// ServiceType returns the service type a non-all scope selects.
func (s Scope) ServiceType() (customer.ServiceType, bool) {
	switch s {
	case ScopeCable:
		return customer.ServiceCable, true
	case ScopeInternet:
		return customer.ServiceInternet, true
	}
	return "", false
}

// Snapshot is a versioned, optionally scoped export of live records.
// Collection fields are pointers to slices: a nil pointer means the
// collection is absent from the payload (restore leaves it untouched),
// while a non-nil empty slice means present-and-empty (restore clears it).
// encoding/json preserves the distinction both ways.
type Snapshot struct {
	Version   int                  `json:"version"`
	Scope     Scope                `json:"type"`
	Timestamp time.Time            `json:"timestamp"`
	Customers *[]customer.Customer `json:"customers,omitempty"`
	Packages  *[]customer.Package  `json:"packages,omitempty"`
	Bundles   *[]customer.Bundle   `json:"bundles,omitempty"`
}

// Build assembles a snapshot from already-scoped collections. Pass nil for
// a collection that should be absent. Pure; the caller supplies the time.
func Build(customers *[]customer.Customer, packages *[]customer.Package, bundles *[]customer.Bundle, scope Scope, now time.Time) Snapshot {
	return Snapshot{
		Version:   SnapshotVersion,
		Scope:     scope,
		Timestamp: now.UTC(),
		Customers: customers,
		Packages:  packages,
		Bundles:   bundles,
	}
}

// Validate rejects payloads a restore must not even attempt.
func (s Snapshot) Validate() error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, s.Version)
	}
	if _, err := ParseScope(string(s.Scope)); err != nil {
		return err
	}
	if s.Customers == nil && s.Packages == nil {
		return ErrEmptySnapshot
	}
	return nil
}

// EncodeJSON serializes the snapshot to its wire form.
func EncodeJSON(s Snapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// DecodeJSON parses and validates a snapshot payload.
func DecodeJSON(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("malformed snapshot payload: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}
