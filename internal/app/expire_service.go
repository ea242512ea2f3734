package app

import (
	"context"
	"fmt"

	"cable_billing_engine/internal/domain/audit"
	"cable_billing_engine/internal/domain/billing"
	"cable_billing_engine/internal/domain/customer"
	"cable_billing_engine/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

// ExpireResult reports one auto-expire run.
type ExpireResult struct {
	Count int64 `json:"count"`
}

// ExpireService transitions paid customers whose recharge window has
// already lapsed. Unlike the monthly reset it is not gated by a month key
// and may run arbitrarily often: expired customers become unpaid on the
// first run and the paid filter excludes them afterwards.
type ExpireService struct {
	customers customer.Repository
	audit     *AuditRecorder
	notifier  Notifier
	clock     billing.Clock
	logger    *logrus.Entry
}

func NewExpireService(
	customers customer.Repository,
	auditRec *AuditRecorder,
	notifier Notifier,
	clock billing.Clock,
	logger *logrus.Entry,
) *ExpireService {
	return &ExpireService{
		customers: customers,
		audit:     auditRec,
		notifier:  notifier,
		clock:     clock,
		logger:    logger,
	}
}

// RunAutoExpire finds and transitions customers past their billing window.
// Customers with no recorded payment date are never expired.
func (s *ExpireService) RunAutoExpire(ctx context.Context) (ExpireResult, error) {
	paid, err := s.customers.ListPaid(ctx)
	if err != nil {
		return ExpireResult{}, fmt.Errorf("auto-expire: list paid customers: %w", err)
	}

	today := s.clock.Now()
	var expired []*customer.Customer
	for _, c := range paid {
		days, known := billing.DaysRemaining(c.LastPaymentDate, today)
		if known && days < 0 {
			expired = append(expired, c)
		}
	}
	if len(expired) == 0 {
		s.logger.Debug("Auto-expire found no lapsed customers")
		return ExpireResult{Count: 0}, nil
	}

	ids := make([]string, len(expired))
	for i, c := range expired {
		ids[i] = c.ID
	}
	count, err := s.customers.UpdateStatusBulk(ctx, ids, customer.StatusUnpaid)
	if err != nil {
		return ExpireResult{}, fmt.Errorf("auto-expire: transition customers: %w", err)
	}

	for _, c := range expired {
		days, _ := billing.DaysRemaining(c.LastPaymentDate, today)
		details := fmt.Sprintf("auto-expired: last recharge %s lapsed %d days ago",
			c.LastPaymentDate.Format("2006-01-02"), -days)
		s.audit.Record(ctx, c.ID, audit.ActionAutoExpire, details)
	}

	s.logger.WithField("count", count).Info("Auto-expire completed")
	metrics.AutoExpiredCustomersTotal.Add(float64(count))
	s.notifier.AutoExpireCompleted(count)
	return ExpireResult{Count: count}, nil
}
