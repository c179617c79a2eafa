// scheduler/scheduler.go
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	dg_errors "github.com/securenet/dyngroups/errors"
	"github.com/securenet/dyngroups/logging"
	"github.com/securenet/dyngroups/model"
)

// Runner is the reconciliation entry point triggered on schedule.
type Runner interface {
	Run(ctx context.Context, dryRun bool) (*model.RunResult, error)
}

// Scheduler runs reconciliation on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	runner   Runner
	log      *zap.Logger
	entry    cron.EntryID
	rootCtx  context.Context
	stopOnce sync.Once
}

// New parses schedule (standard five-field cron or a descriptor such as
// "@every 15m") and registers the reconcile job.
func New(schedule string, runner Runner, log *zap.Logger) (*Scheduler, error) {
	log = logging.OrNop(log)
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

	s := &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		runner:  runner,
		log:     log,
		rootCtx: context.Background(),
	}

	entry, err := s.cron.AddFunc(schedule, s.runOnce)
	if err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}
	s.entry = entry
	return s, nil
}

// Start begins running the job until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.rootCtx = ctx
	s.cron.Start()
	s.log.Info("Reconcile scheduler started", zap.Time("next", s.Next()))
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		<-s.cron.Stop().Done()
		s.log.Info("Reconcile scheduler stopped")
	})
}

// Next returns the next scheduled run.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

func (s *Scheduler) runOnce() {
	start := time.Now()
	run, err := s.runner.Run(s.rootCtx, false)
	if errors.Is(err, dg_errors.ErrReconcileInProgress) {
		s.log.Info("Scheduled reconciliation skipped, another run is in progress")
		return
	}
	if err != nil {
		s.log.Error("Scheduled reconciliation failed", zap.Error(err))
		return
	}

	fields := []zap.Field{
		zap.Int("toAdd", len(run.Plan.ToAdd)),
		zap.Int("toRemove", len(run.Plan.ToRemove)),
		zap.Duration("duration", time.Since(start)),
	}
	if run.Result != nil {
		fields = append(fields,
			zap.Int("added", run.Result.Added),
			zap.Int("removed", run.Result.Removed),
			zap.Int("failed", run.Result.Failed))
	}
	s.log.Info("Scheduled reconciliation finished", fields...)
}
