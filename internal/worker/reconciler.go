// Package worker runs the background maintenance jobs. Currently that is a
// single cron-scheduled job that recomputes the denormalized category task
// counts, repairing any drift left by failed counter adjustments.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/oakmund/taskdeck-api/internal/service"
)

// jobTimeout bounds a single reconciliation run.
const jobTimeout = 5 * time.Minute

// Reconciler periodically recomputes category task counts from the tasks
// table. The counters are adjusted outside the task write transaction, so a
// crash or a failed adjustment leaves them stale until this job runs.
type Reconciler struct {
	categories service.CategoryService
	schedule   string
	logger     *slog.Logger
	cron       *cron.Cron
}

// NewReconciler creates a Reconciler with the given cron schedule, such as
// "@hourly" or "0 */6 * * *".
func NewReconciler(categories service.CategoryService, schedule string, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		categories: categories,
		schedule:   schedule,
		logger:     logger.With(slog.String("component", "count_reconciler")),
		cron:       cron.New(),
	}
}

// Start registers the job and starts the scheduler. One reconciliation runs
// immediately so a restart repairs drift without waiting a full period.
func (r *Reconciler) Start() error {
	if _, err := r.cron.AddFunc(r.schedule, r.runOnce); err != nil {
		return err
	}
	r.cron.Start()
	go r.runOnce()

	r.logger.Info("task count reconciler started", slog.String("schedule", r.schedule))
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (r *Reconciler) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("task count reconciler stopped")
}

func (r *Reconciler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	repaired, err := r.categories.ReconcileTaskCounts(ctx)
	if err != nil {
		r.logger.Error("task count reconciliation failed", slog.String("error", err.Error()))
		return
	}

	if repaired > 0 {
		r.logger.Warn("task count reconciliation repaired drift",
			slog.Int64("categories_repaired", repaired))
		return
	}
	r.logger.Debug("task count reconciliation found no drift")
}
