package billing

import (
	"fmt"
	"time"
)

// Due day is clamped to [1,28] so month-length differences can never make
// the configured day unreachable (February included).
const (
	MinDueDay = 1
	MaxDueDay = 28

	DefaultDueDay = 1
)

var ErrInvalidDueDay = fmt.Errorf("due day must be between %d and %d", MinDueDay, MaxDueDay)

// CycleConfig is the process-wide reset configuration persisted in the
// settings store.
type CycleConfig struct {
	DueDay            int
	LastResetMonthKey MonthKey
	AutoResetEnabled  bool
}

// Validate checks the due day range.
func (c CycleConfig) Validate() error {
	if c.DueDay < MinDueDay || c.DueDay > MaxDueDay {
		return ErrInvalidDueDay
	}
	return nil
}

// IsCycleDue reports whether a new billing cycle has started and a reset is
// owed: today has reached the configured due day and the current month has
// not already been reset. Pure; no I/O.
func IsCycleDue(cfg CycleConfig, today time.Time) bool {
	return today.Day() >= cfg.DueDay && MonthKeyOf(today) != cfg.LastResetMonthKey
}
