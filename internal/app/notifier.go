package app

import (
	"time"

	"cable_billing_engine/internal/domain/billing"

	"github.com/sirupsen/logrus"
)

// Notifier is the confirmation/notification surface the engine can request
// but not control. Calls are advisory; implementations must not block the
// calling engine on user interaction.
type Notifier interface {
	// ResetConfirmationRequested asks the operator to confirm a due cycle
	// reset when auto-reset is disabled.
	ResetConfirmationRequested(cfg billing.CycleConfig, today time.Time)
	// ResetCompleted reports a finished reset run.
	ResetCompleted(count int64, silent bool)
	// AutoExpireCompleted reports a finished auto-expire run that
	// transitioned at least one customer.
	AutoExpireCompleted(count int64)
}

// NopNotifier satisfies Notifier with log lines only. Used when no operator
// channel is configured.
type NopNotifier struct {
	Logger *logrus.Entry
}

func (n NopNotifier) ResetConfirmationRequested(cfg billing.CycleConfig, today time.Time) {
	n.Logger.WithFields(logrus.Fields{
		"due_day": cfg.DueDay,
		"today":   today.Format("2006-01-02"),
	}).Warn("Cycle reset is due and auto-reset is disabled, but no operator channel is configured")
}

func (n NopNotifier) ResetCompleted(count int64, silent bool) {
	n.Logger.WithFields(logrus.Fields{"count": count, "silent": silent}).Info("Reset completed")
}

func (n NopNotifier) AutoExpireCompleted(count int64) {
	n.Logger.WithField("count", count).Info("Auto-expire completed")
}
