package repo

import (
	"context"
	"time"
)

// AlertRecord holds the last health we saw for a monitored store and the last
// time a notification went out (used for cooldown).
type AlertRecord struct {
	Key        string
	LastState  bool
	LastSentAt *time.Time
}

// AlertStore is implemented by a persistence layer to store alert state.
type AlertStore interface {
	// Get returns nil, nil if there's no record yet.
	Get(ctx context.Context, key string) (*AlertRecord, error)
	// Set upserts the record. If sentAt.IsZero() the send time is left empty.
	Set(ctx context.Context, key string, lastState bool, sentAt time.Time) error
}
