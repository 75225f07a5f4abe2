package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/storecheck/internal/domain"
	"github.com/hamed0406/storecheck/internal/probe"
	"github.com/hamed0406/storecheck/internal/repo"
)

// Rechecker re-runs the probe sequence on an interval and stores each report.
type Rechecker struct {
	Logger   *zap.Logger
	Runner   probe.Runner
	Reports  repo.ReportStore
	Interval time.Duration
	Timeout  time.Duration

	// runs must not overlap: each one writes and deletes a probe record
	mu sync.Mutex
}

func NewRechecker(
	logger *zap.Logger,
	runner probe.Runner,
	reports repo.ReportStore,
	interval time.Duration,
	timeout time.Duration,
) *Rechecker {
	if interval < 0 {
		interval = 0
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Rechecker{
		Logger:   logger,
		Runner:   runner,
		Reports:  reports,
		Interval: interval,
		Timeout:  timeout,
	}
}

// Run starts the loop. It does an immediate pass, then runs each tick.
// Stops when ctx is cancelled.
func (r *Rechecker) Run(ctx context.Context) {
	if r.Interval == 0 {
		r.Logger.Info("rechecker_disabled")
		return
	}
	t := time.NewTicker(r.Interval)
	defer t.Stop()

	r.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			r.Logger.Info("rechecker_stopped")
			return
		case <-t.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs one probe run and stores it. It is also what the HTTP
// API calls for on-demand checks.
func (r *Rechecker) RunOnce(ctx context.Context) *domain.Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	rep := r.Runner.Run(cctx)
	if err := r.Reports.Append(ctx, rep); err != nil {
		r.Logger.Warn("rechecker_append_error",
			zap.String("report_id", rep.ID),
			zap.Error(err),
		)
	} else {
		r.Logger.Debug("rechecker_checked",
			zap.String("report_id", rep.ID),
			zap.Bool("healthy", rep.Healthy),
			zap.String("failure", rep.Failure),
		)
	}
	return rep
}
