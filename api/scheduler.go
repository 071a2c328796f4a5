/*
scheduler.go - Month-end reconciliation scheduler

PURPOSE:
  Reconciles every active employee's salary record for the month that just
  ended, so records exist and reflect attendance without an admin having to
  trigger it.

DESIGN:
  - robfig/cron drives the schedule (default "0 1 1 * *": 01:00 on the 1st)
  - Each run reconciles PreviousMonth(now) via Service.ReconcileAll
  - SkipIfStillRunning: a slow run is never overlapped by the next tick
  - Each run gets its own context with RunTimeout
  - Paid records are skipped by the service and reported in the summary

USAGE:
  scheduler := NewReconciliationScheduler(svc, "0 1 1 * *")
  if err := scheduler.Start(); err != nil { ... }
  // ... later
  scheduler.Stop()

SEE ALSO:
  - payroll/reconcile.go: ReconcileAll
  - handlers.go: Reconcile endpoint (manual reconciliation)
*/
package api

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/warp/payroll-engine/payroll"
)

// schedulerActor is the identity the scheduler reconciles as.
var schedulerActor = payroll.Actor{UserID: "system:scheduler", Role: payroll.RoleAdmin}

// ReconciliationScheduler runs month-end reconciliation on a cron schedule.
type ReconciliationScheduler struct {
	Service    *payroll.Service
	Schedule   string
	RunTimeout time.Duration
	Enabled    bool

	// Now is the clock used to pick the month to reconcile.
	Now func() time.Time

	cron *cron.Cron
	mu   sync.Mutex
}

// NewReconciliationScheduler creates a new scheduler.
func NewReconciliationScheduler(svc *payroll.Service, schedule string) *ReconciliationScheduler {
	return &ReconciliationScheduler{
		Service:    svc,
		Schedule:   schedule,
		RunTimeout: 10 * time.Minute,
		Enabled:    true,
		Now:        time.Now,
	}
}

// Start registers the job and starts the cron runner.
func (rs *ReconciliationScheduler) Start() error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return nil
	}
	if rs.cron != nil {
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(rs.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), rs.RunTimeout)
		defer cancel()
		rs.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", rs.Schedule, err)
	}
	c.Start()
	rs.cron = c

	log.Printf("[Scheduler] Started with schedule=%q timeout=%v", rs.Schedule, rs.RunTimeout)
	return nil
}

// Stop stops the runner and waits for a running job to finish.
func (rs *ReconciliationScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.cron != nil {
		<-rs.cron.Stop().Done()
		rs.cron = nil
		log.Println("[Scheduler] Stopped")
	}
}

// RunOnce reconciles the month before Now.
func (rs *ReconciliationScheduler) RunOnce(ctx context.Context) (*payroll.ReconcileSummary, error) {
	month, year := payroll.PreviousMonth(rs.Now())
	log.Printf("[Scheduler] Reconciling %s", payroll.PeriodLabel(month, year))

	summary, err := rs.Service.ReconcileAll(ctx, schedulerActor, month, year)
	if err != nil {
		log.Printf("[Scheduler] Reconciliation of %s failed: %v", payroll.PeriodLabel(month, year), err)
		return nil, err
	}

	for _, f := range summary.Failures {
		log.Printf("[Scheduler] Employee %s: %v", f.EmployeeID, f.Err)
	}
	log.Printf("[Scheduler] %s: %d reconciled, %d created, %d skipped (paid), %d failed",
		payroll.PeriodLabel(month, year), summary.Reconciled, summary.Created,
		summary.SkippedPaid, len(summary.Failures))
	return summary, nil
}
