package backup

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cable_billing_engine/internal/domain/customer"
)

func TestBuildAndJSONRoundTrip(t *testing.T) {
	now := time.Date(2026, time.August, 31, 10, 0, 0, 0, time.UTC)
	custs := sampleCustomers()
	pkgs := []customer.Package{{ID: "p-1", Name: "Sports Pack", ServiceType: customer.ServiceCable, Price: 199}}

	snap := Build(&custs, &pkgs, nil, ScopeAll, now)
	data, err := EncodeJSON(snap)
	require.NoError(t, err)

	got, err := DecodeJSON(data)
	require.NoError(t, err)
	assert.Equal(t, SnapshotVersion, got.Version)
	assert.Equal(t, ScopeAll, got.Scope)
	require.NotNil(t, got.Customers)
	assert.Equal(t, custs, *got.Customers)
	require.NotNil(t, got.Packages)
	assert.Nil(t, got.Bundles, "absent collection must stay absent")
}

// An empty-but-present collection means "clear it" on restore; an absent one
// means "leave it untouched". The JSON form must keep the two apart.
func TestSnapshotAbsentVsEmpty(t *testing.T) {
	now := time.Now()
	empty := []customer.Customer{}
	snap := Build(&empty, nil, nil, ScopeAll, now)

	data, err := EncodeJSON(snap)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"customers": []`)
	assert.NotContains(t, string(data), `"packages"`)

	got, err := DecodeJSON(data)
	require.NoError(t, err)
	require.NotNil(t, got.Customers)
	assert.Empty(t, *got.Customers)
	assert.Nil(t, got.Packages)
}

func TestDecodeJSONRejectsEmptySnapshot(t *testing.T) {
	payload, err := json.Marshal(map[string]any{
		"version": 1, "type": "all", "timestamp": time.Now(),
		"bundles": []customer.Bundle{},
	})
	require.NoError(t, err)

	_, err = DecodeJSON(payload)
	assert.ErrorIs(t, err, ErrEmptySnapshot)
}

func TestDecodeJSONRejectsBadVersion(t *testing.T) {
	payload := []byte(`{"version":2,"type":"all","timestamp":"2026-08-31T00:00:00Z","customers":[]}`)
	_, err := DecodeJSON(payload)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestDecodeJSONRejectsBadScope(t *testing.T) {
	payload := []byte(`{"version":1,"type":"satellite","timestamp":"2026-08-31T00:00:00Z","customers":[]}`)
	_, err := DecodeJSON(payload)
	assert.ErrorIs(t, err, ErrInvalidScope)
}

func TestScopeServiceType(t *testing.T) {
	st, ok := ScopeCable.ServiceType()
	assert.True(t, ok)
	assert.Equal(t, customer.ServiceCable, st)

	_, ok = ScopeAll.ServiceType()
	assert.False(t, ok)
}
