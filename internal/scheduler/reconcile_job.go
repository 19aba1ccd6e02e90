// Package scheduler runs periodic ledger maintenance.
package scheduler

import (
	"context"
	"sync"
	"time"

	"stablecircle/internal/logger"
	"stablecircle/internal/service"

	"github.com/robfig/cron/v3"
)

// Reconciler is implemented by service.LedgerService.
type Reconciler interface {
	Reconcile(ctx context.Context) (*service.ReconcileReport, error)
}

type ReconcileScheduler struct {
	cron     *cron.Cron
	ledger   Reconciler
	schedule string
	timeout  time.Duration
	running  sync.Mutex
}

func NewReconcileScheduler(ledger Reconciler, schedule string) *ReconcileScheduler {
	return &ReconcileScheduler{
		cron:     cron.New(cron.WithSeconds()),
		ledger:   ledger,
		schedule: schedule,
		timeout:  5 * time.Minute,
	}
}

func (s *ReconcileScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.run); err != nil {
		return err
	}
	s.cron.Start()
	logger.Info("reconcile scheduler started", "schedule", s.schedule)
	return nil
}

func (s *ReconcileScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("reconcile scheduler stopped")
}

// run skips a tick while the previous pass is still going.
func (s *ReconcileScheduler) run() {
	if !s.running.TryLock() {
		logger.Warn("reconcile still running, skipping tick")
		return
	}
	defer s.running.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.RunOnce(ctx); err != nil {
		logger.Error("reconcile failed", "error", err)
	}
}

func (s *ReconcileScheduler) RunOnce(ctx context.Context) (*service.ReconcileReport, error) {
	start := time.Now()
	rep, err := s.ledger.Reconcile(ctx)
	if err != nil {
		return rep, err
	}
	logger.Info("reconcile completed",
		"users_checked", rep.UsersChecked, "users_fixed", rep.UsersFixed,
		"hubs_checked", rep.HubsChecked, "hubs_fixed", rep.HubsFixed,
		"skipped", rep.Skipped, "took", time.Since(start).String())
	return rep, nil
}
