package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/storecheck/internal/domain"
	"github.com/hamed0406/storecheck/internal/metrics"
	"github.com/hamed0406/storecheck/internal/notify"
	"github.com/hamed0406/storecheck/internal/repo"
)

type AlerterConfig struct {
	AlertOnRecovery bool
	Cooldown        time.Duration
	PollInterval    time.Duration
}

// Alerter watches the latest report and notifies when health flips.
type Alerter struct {
	logger   *zap.Logger
	reports  repo.ReportStore
	alertDB  repo.AlertStore
	notifier notify.Notifier
	cfg      AlerterConfig
	now      func() time.Time
}

func NewAlerter(
	logger *zap.Logger,
	reports repo.ReportStore,
	alertDB repo.AlertStore,
	notifier notify.Notifier,
	cfg AlerterConfig,
) *Alerter {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	return &Alerter{
		logger:   logger,
		reports:  reports,
		alertDB:  alertDB,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (a *Alerter) Run(ctx context.Context) error {
	t := time.NewTicker(a.cfg.PollInterval)
	defer t.Stop()

	a.scanOnceLogged(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			a.scanOnceLogged(ctx)
		}
	}
}

func (a *Alerter) scanOnceLogged(ctx context.Context) {
	if err := a.scanOnce(ctx); err != nil {
		a.logger.Warn("alerter_scan_error", zap.Error(err))
	}
}

func (a *Alerter) scanOnce(ctx context.Context) error {
	r, err := a.reports.Latest(ctx)
	if err != nil {
		return err
	}
	if r == nil {
		return nil
	}

	key := r.AlertKey()
	rec, err := a.alertDB.Get(ctx, key)
	if err != nil {
		return err
	}
	now := a.now()

	// First sighting counts as a change only when the store is down.
	stateChanged := (rec == nil && !r.Healthy) || (rec != nil && rec.LastState != r.Healthy)

	// Cooldown only matters for DOWN alerts (suppresses flapping).
	cooled := true
	if rec != nil && rec.LastSentAt != nil {
		cooled = now.Sub(*rec.LastSentAt) >= a.cfg.Cooldown
	}

	downAlert := stateChanged && !r.Healthy && cooled
	recoveryAlert := stateChanged && r.Healthy && a.cfg.AlertOnRecovery

	if downAlert || recoveryAlert {
		kind := "down"
		if r.Healthy {
			kind = "recovery"
		}
		msg := buildMessage(r)
		if err := a.notifier.Notify(ctx, msg); err != nil {
			metrics.NotificationsSent.WithLabelValues(kind, "error").Inc()
			a.logger.Warn("alert_send_error", zap.String("key", key), zap.Error(err))
		} else {
			metrics.NotificationsSent.WithLabelValues(kind, "ok").Inc()
			a.logger.Info("alert_sent", zap.String("key", key), zap.String("kind", kind))
		}
		return a.alertDB.Set(ctx, key, r.Healthy, now)
	}

	// Record the new state even when nothing was sent (cooldown, recovery
	// alerts disabled, or the first healthy sighting).
	if rec == nil || stateChanged {
		return a.alertDB.Set(ctx, key, r.Healthy, time.Time{})
	}
	return nil
}

func buildMessage(r *domain.Report) notify.Message {
	title := "🔴 Data store check FAILED"
	if r.Healthy {
		title = "🟢 Data store check RECOVERED"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Target: %s\nTable: %s\n", r.Target, r.Table)
	if r.Failure != "" {
		fmt.Fprintf(&b, "Failure: %s\n", r.Failure)
	}
	for _, s := range r.Steps {
		status := "n/a"
		if s.StatusCode != 0 {
			status = fmt.Sprintf("%d", s.StatusCode)
		}
		mark := "✔"
		if !s.Success {
			mark = "✖"
		}
		fmt.Fprintf(&b, "%s %s: HTTP %s, %.0f ms\n", mark, s.Step, status, s.LatencyMS)
	}
	fmt.Fprintf(&b, "Checked: %s", r.FinishedAt.Format(time.RFC3339))

	return notify.Message{Title: title, Text: b.String(), Healthy: r.Healthy}
}
