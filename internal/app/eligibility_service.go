package app

import (
	"context"
	"fmt"

	"cable_billing_engine/internal/domain/customer"

	"github.com/sirupsen/logrus"
)

// EligibilityService applies the "excluded from reset" flag in bulk.
// Exclusion-flag changes are configuration, not billing events, so no audit
// entries are written.
type EligibilityService struct {
	customers customer.Repository
	logger    *logrus.Entry
}

func NewEligibilityService(customers customer.Repository, logger *logrus.Entry) *EligibilityService {
	return &EligibilityService{customers: customers, logger: logger}
}

// SetExcluded flags or unflags the given customers in one batch update and
// returns how many rows changed. An empty id set is a no-op, not an error.
func (s *EligibilityService) SetExcluded(ctx context.Context, ids []string, excluded bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	count, err := s.customers.SetExcludedBulk(ctx, ids, excluded)
	if err != nil {
		return 0, fmt.Errorf("set exclusion flag: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"count":    count,
		"excluded": excluded,
	}).Info("Exclusion flag updated")
	return count, nil
}
