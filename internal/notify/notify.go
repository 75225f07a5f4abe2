package notify

import (
	"context"

	"go.uber.org/multierr"
)

// Message is one alert about the monitored store.
type Message struct {
	Title   string
	Text    string
	Healthy bool
}

type Notifier interface {
	Notify(ctx context.Context, m Message) error
}

// Multi fans a message out to every notifier and returns all failures.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Notify(ctx, msg))
	}
	return err
}
