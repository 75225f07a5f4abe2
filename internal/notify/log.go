package notify

import (
	"context"

	"go.uber.org/zap"
)

// Log writes alerts to the structured log, so state flips are recorded even
// without a webhook.
type Log struct {
	Logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{Logger: logger}
}

func (l *Log) Notify(ctx context.Context, m Message) error {
	level := l.Logger.Warn
	if m.Healthy {
		level = l.Logger.Info
	}
	level("store_alert",
		zap.String("title", m.Title),
		zap.Bool("healthy", m.Healthy),
		zap.String("text", m.Text),
	)
	return nil
}
