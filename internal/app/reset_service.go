package app

import (
	"context"
	"fmt"
	"sync"

	"cable_billing_engine/internal/domain/audit"
	"cable_billing_engine/internal/domain/billing"
	"cable_billing_engine/internal/domain/customer"
	"cable_billing_engine/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

// CycleSettingsStore persists the process-wide reset configuration.
type CycleSettingsStore interface {
	LoadCycleConfig(ctx context.Context) (billing.CycleConfig, error)
	SaveCycleConfig(ctx context.Context, cfg billing.CycleConfig) error
	SaveLastResetMonth(ctx context.Context, key billing.MonthKey) error
}

// ResetResult reports one monthly reset run.
type ResetResult struct {
	Count    int64            `json:"count"`
	MonthKey billing.MonthKey `json:"-"`
}

// EvaluateOutcome reports what one cycle evaluation decided to do.
type EvaluateOutcome struct {
	Due                   bool         `json:"due"`
	ResetRun              bool         `json:"resetRun"`
	ConfirmationRequested bool         `json:"confirmationRequested"`
	Result                *ResetResult `json:"result,omitempty"`
}

// ResetService is the state-transition core for monthly cycle turnover.
// A mutex serializes every evaluate/reset path so two triggers racing on
// the same month key can never both transition the cycle.
type ResetService struct {
	mu sync.Mutex

	customers customer.Repository
	settings  CycleSettingsStore
	audit     *AuditRecorder
	notifier  Notifier
	clock     billing.Clock
	logger    *logrus.Entry

	// promptedMonth remembers which cycle the operator was last asked to
	// confirm, so a due-but-unconfirmed cycle prompts once, not hourly.
	promptedMonth billing.MonthKey
}

func NewResetService(
	customers customer.Repository,
	settings CycleSettingsStore,
	auditRec *AuditRecorder,
	notifier Notifier,
	clock billing.Clock,
	logger *logrus.Entry,
) *ResetService {
	return &ResetService{
		customers: customers,
		settings:  settings,
		audit:     auditRec,
		notifier:  notifier,
		clock:     clock,
		logger:    logger,
	}
}

// EvaluateCycle is the single evaluate-then-act path invoked by both the
// hourly timer and explicit operator triggers. If a new cycle is due it
// either resets silently (auto-reset enabled) or asks the operator to
// confirm via the notifier.
func (s *ResetService) EvaluateCycle(ctx context.Context) (EvaluateOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.settings.LoadCycleConfig(ctx)
	if err != nil {
		return EvaluateOutcome{}, fmt.Errorf("evaluate cycle: load config: %w", err)
	}

	today := s.clock.Now()
	if !billing.IsCycleDue(cfg, today) {
		return EvaluateOutcome{Due: false}, nil
	}

	if !cfg.AutoResetEnabled {
		outcome := EvaluateOutcome{Due: true}
		if s.promptedMonth != billing.MonthKeyOf(today) {
			s.notifier.ResetConfirmationRequested(cfg, today)
			s.promptedMonth = billing.MonthKeyOf(today)
			outcome.ConfirmationRequested = true
			s.logger.WithField("due_day", cfg.DueDay).Info("Cycle due; operator confirmation requested")
		}
		return outcome, nil
	}

	res, err := s.runReset(ctx, cfg, true)
	if err != nil {
		return EvaluateOutcome{Due: true}, err
	}
	return EvaluateOutcome{Due: true, ResetRun: true, Result: &res}, nil
}

// RunMonthlyReset executes the reset immediately, without consulting the
// cycle gate: running it twice in the same month simply finds no eligible
// customers the second time. silent marks timer-triggered runs.
func (s *ResetService) RunMonthlyReset(ctx context.Context, silent bool) (ResetResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.settings.LoadCycleConfig(ctx)
	if err != nil {
		return ResetResult{}, fmt.Errorf("monthly reset: load config: %w", err)
	}
	return s.runReset(ctx, cfg, silent)
}

// ErrStaleConfirmation rejects an operator confirmation issued for a cycle
// that is no longer the pending one.
var ErrStaleConfirmation = fmt.Errorf("confirmation does not match the pending cycle")

// ConfirmReset runs the reset an operator confirmation was issued for.
// Confirmation surfaces can outlive their cycle (a prompt for August may be
// acted on in September), so the run is honored only when promptedKey still
// names the current month and that month has not already been reset.
func (s *ResetService) ConfirmReset(ctx context.Context, promptedKey billing.MonthKey) (ResetResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.settings.LoadCycleConfig(ctx)
	if err != nil {
		return ResetResult{}, fmt.Errorf("confirm reset: load config: %w", err)
	}
	if billing.MonthKeyOf(s.clock.Now()) != promptedKey || cfg.LastResetMonthKey == promptedKey {
		return ResetResult{}, ErrStaleConfirmation
	}
	return s.runReset(ctx, cfg, false)
}

// runReset does the actual transition. Caller must hold s.mu.
//
// Failure semantics: if the batch status update fails, nothing is
// considered transitioned and the month marker is not advanced. Audit
// writes after a committed update are non-fatal.
func (s *ResetService) runReset(ctx context.Context, cfg billing.CycleConfig, silent bool) (ResetResult, error) {
	today := s.clock.Now()
	monthKey := billing.MonthKeyOf(today)
	log := s.logger.WithFields(logrus.Fields{
		"month":  monthKey.String(),
		"silent": silent,
	})

	eligible, err := s.customers.ListResetEligible(ctx)
	if err != nil {
		return ResetResult{}, fmt.Errorf("monthly reset: list eligible customers: %w", err)
	}

	if len(eligible) == 0 {
		// Still advance the marker: an empty cycle is a completed cycle and
		// must not keep re-prompting every hour.
		if err := s.settings.SaveLastResetMonth(ctx, monthKey); err != nil {
			return ResetResult{}, fmt.Errorf("monthly reset: advance cycle marker: %w", err)
		}
		log.Info("Monthly reset found no eligible customers; cycle marker advanced")
		metrics.ResetsTotal.Inc()
		return ResetResult{Count: 0, MonthKey: monthKey}, nil
	}

	ids := make([]string, len(eligible))
	for i, c := range eligible {
		ids[i] = c.ID
	}

	count, err := s.customers.UpdateStatusBulk(ctx, ids, customer.StatusUnpaid)
	if err != nil {
		return ResetResult{}, fmt.Errorf("monthly reset: transition customers: %w", err)
	}

	details := fmt.Sprintf("monthly reset for %s (due day %d, silent=%t)", monthKey.String(), cfg.DueDay, silent)
	for _, c := range eligible {
		s.audit.Record(ctx, c.ID, audit.ActionMonthlyReset, details)
	}

	result := ResetResult{Count: count, MonthKey: monthKey}
	if err := s.settings.SaveLastResetMonth(ctx, monthKey); err != nil {
		// The transition is committed; the stale marker only means the next
		// evaluation re-runs a reset that will match nothing.
		log.WithError(err).Error("Reset committed but cycle marker was not advanced")
		return result, fmt.Errorf("monthly reset: transitioned %d customers but failed to advance cycle marker: %w", count, err)
	}

	log.WithField("count", count).Info("Monthly reset completed")
	metrics.ResetsTotal.Inc()
	metrics.ResetCustomersTotal.Add(float64(count))
	s.notifier.ResetCompleted(count, silent)
	return result, nil
}

// CycleConfig exposes the current configuration (for status surfaces).
func (s *ResetService) CycleConfig(ctx context.Context) (billing.CycleConfig, error) {
	return s.settings.LoadCycleConfig(ctx)
}

// UpdateCycleConfig validates and persists a new configuration.
func (s *ResetService) UpdateCycleConfig(ctx context.Context, cfg billing.CycleConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := cfg.Validate(); err != nil {
		return err
	}
	return s.settings.SaveCycleConfig(ctx, cfg)
}
