package app

import (
	"context"
	"errors"

	"cable_billing_engine/internal/domain/audit"
	idb "cable_billing_engine/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// AuditRecorder is the engines' write/read facade over the audit trail.
// Record is fire-and-forget: a state transition that already committed is
// never rolled back or failed because the audit store misbehaved.
type AuditRecorder struct {
	repo   audit.Repository
	logger *logrus.Entry
}

func NewAuditRecorder(repo audit.Repository, logger *logrus.Entry) *AuditRecorder {
	return &AuditRecorder{repo: repo, logger: logger}
}

// Record appends one lifecycle event. Failures are logged, never returned.
// A missing audit table gets its own log line so an operator can tell
// "provision the table" apart from a transient store failure.
func (a *AuditRecorder) Record(ctx context.Context, customerID string, action audit.Action, details string) {
	err := a.repo.Insert(ctx, &audit.Entry{
		CustomerID: customerID,
		Action:     action,
		Details:    details,
	})
	if err == nil {
		return
	}
	entry := a.logger.WithFields(logrus.Fields{
		"customer_id": customerID,
		"action":      action,
	})
	if errors.Is(err, idb.ErrSchemaMissing) {
		entry.WithError(err).Warn("Audit entry dropped: audit table not provisioned yet")
		return
	}
	entry.WithError(err).Error("Failed to write audit entry")
}

// History returns a customer's full audit trail, newest first.
func (a *AuditRecorder) History(ctx context.Context, customerID string) ([]*audit.Entry, error) {
	return a.repo.ListByCustomer(ctx, customerID)
}

// RecentByAction returns up to limit entries with the given tag, newest
// first. Used by the reset log view.
func (a *AuditRecorder) RecentByAction(ctx context.Context, action audit.Action, limit int) ([]*audit.Entry, error) {
	return a.repo.ListByAction(ctx, action, limit)
}
