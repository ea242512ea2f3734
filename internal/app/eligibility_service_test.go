package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetExcludedFlagsCustomers(t *testing.T) {
	repo := newFakeCustomerRepo(paidCustomer("c-1"), paidCustomer("c-2"), paidCustomer("c-3"))
	svc := NewEligibilityService(repo, testLogger())

	count, err := svc.SetExcluded(context.Background(), []string{"c-1", "c-3"}, true)
	require.NoError(t, err)

	assert.Equal(t, int64(2), count)
	assert.True(t, repo.get("c-1").ExcludedFromReset)
	assert.False(t, repo.get("c-2").ExcludedFromReset)
	assert.True(t, repo.get("c-3").ExcludedFromReset)
}

func TestSetExcludedEmptySetNoOp(t *testing.T) {
	repo := newFakeCustomerRepo(paidCustomer("c-1"))
	repo.excludeErr = fmt.Errorf("should not be called")
	svc := NewEligibilityService(repo, testLogger())

	count, err := svc.SetExcluded(context.Background(), nil, true)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestSetExcludedClearFlag(t *testing.T) {
	flagged := paidCustomer("c-1")
	flagged.ExcludedFromReset = true
	repo := newFakeCustomerRepo(flagged)
	svc := NewEligibilityService(repo, testLogger())

	count, err := svc.SetExcluded(context.Background(), []string{"c-1"}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.False(t, repo.get("c-1").ExcludedFromReset)
}
