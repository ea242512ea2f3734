package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthKeyRoundTrip(t *testing.T) {
	k := MonthKeyOf(date(2026, time.August, 17))
	assert.Equal(t, "2026-08-01", k.String())

	parsed, err := ParseMonthKey(k.String())
	require.NoError(t, err)
	assert.Equal(t, k, parsed)
}

func TestMonthKeyZero(t *testing.T) {
	k, err := ParseMonthKey("")
	require.NoError(t, err)
	assert.True(t, k.IsZero())
	assert.Equal(t, "", k.String())
}

func TestParseMonthKeyInvalid(t *testing.T) {
	_, err := ParseMonthKey("08/2026")
	assert.Error(t, err)
}
