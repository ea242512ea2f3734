package scheduler

import (
	"context"
	"time"

	"cable_billing_engine/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// BillingScheduler drives the engine's two periodic jobs: the hourly cycle
// evaluation and the daily auto-expire sweep. Operator-triggered runs go
// through the same services, which serialize internally.
type BillingScheduler struct {
	cronEngine *cron.Cron
	resetSvc   *app.ResetService
	expireSvc  *app.ExpireService
	logger     *logrus.Entry

	cronSpecCycleCheck string
	cronSpecAutoExpire string
}

func NewBillingScheduler(
	resetSvc *app.ResetService,
	expireSvc *app.ExpireService,
	logger *logrus.Entry,
	cronSpecCycleCheck string, // e.g. "0 * * * *" (hourly)
	cronSpecAutoExpire string, // e.g. "30 0 * * *" (daily at 00:30)
) *BillingScheduler {
	return &BillingScheduler{
		cronEngine:         cron.New(cron.WithLocation(time.Local)), // cycle due-days follow server-local calendar days
		resetSvc:           resetSvc,
		expireSvc:          expireSvc,
		logger:             logger,
		cronSpecCycleCheck: cronSpecCycleCheck,
		cronSpecAutoExpire: cronSpecAutoExpire,
	}
}

func (s *BillingScheduler) Start() error {
	_, err := s.cronEngine.AddFunc(s.cronSpecCycleCheck, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		out, err := s.resetSvc.EvaluateCycle(ctx)
		if err != nil {
			s.logger.WithError(err).Error("Cycle evaluation failed")
			return
		}
		switch {
		case out.ResetRun:
			s.logger.WithField("count", out.Result.Count).Info("Scheduled cycle evaluation ran a reset")
		case out.ConfirmationRequested:
			s.logger.Info("Scheduled cycle evaluation requested operator confirmation")
		case out.Due:
			s.logger.Debug("Cycle due; awaiting operator confirmation")
		default:
			s.logger.Debug("Cycle not due")
		}
	})
	if err != nil {
		return err
	}

	_, err = s.cronEngine.AddFunc(s.cronSpecAutoExpire, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		res, err := s.expireSvc.RunAutoExpire(ctx)
		if err != nil {
			s.logger.WithError(err).Error("Scheduled auto-expire failed")
			return
		}
		if res.Count > 0 {
			s.logger.WithField("count", res.Count).Info("Scheduled auto-expire transitioned customers")
		}
	})
	if err != nil {
		return err
	}

	s.cronEngine.Start()
	s.logger.WithFields(logrus.Fields{
		"cycle_check": s.cronSpecCycleCheck,
		"auto_expire": s.cronSpecAutoExpire,
	}).Info("Billing scheduler started")
	return nil
}

// Stop halts scheduling and waits for any in-flight job to finish.
func (s *BillingScheduler) Stop() {
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.logger.Info("Billing scheduler stopped")
}
