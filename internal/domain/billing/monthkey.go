package billing

import (
	"fmt"
	"time"
)

// MonthKey identifies one calendar month's billing cycle.
// The zero value means "no cycle has ever been completed".
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthKeyOf returns the key of the month containing t.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// ParseMonthKey parses the stored first-of-month ISO date form ("2026-08-01").
// An empty string maps to the zero key.
func ParseMonthKey(s string) (MonthKey, error) {
	if s == "" {
		return MonthKey{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return MonthKey{}, fmt.Errorf("invalid month key %q: %w", s, err)
	}
	return MonthKey{Year: t.Year(), Month: t.Month()}, nil
}

// String renders the key using the first-of-month convention expected by the
// settings store. The zero key renders as "".
func (k MonthKey) String() string {
	if k.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-01", k.Year, int(k.Month))
}

func (k MonthKey) IsZero() bool {
	return k.Year == 0 && k.Month == 0
}
