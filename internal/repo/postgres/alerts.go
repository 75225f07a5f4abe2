package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hamed0406/storecheck/internal/repo"
)

func (s *Store) Get(ctx context.Context, key string) (*repo.AlertRecord, error) {
	const q = `SELECT last_state, last_sent_at FROM storecheck_alerts WHERE key=$1`
	r := repo.AlertRecord{Key: key}
	err := s.pool.QueryRow(ctx, q, key).Scan(&r.LastState, &r.LastSentAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// Set upserts alert state. A zero sentAt keeps the previous send time, so a
// state flip without a notification does not reset the cooldown.
func (s *Store) Set(ctx context.Context, key string, lastState bool, sentAt time.Time) error {
	const q = `
		INSERT INTO storecheck_alerts (key, last_state, last_sent_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (key)
		DO UPDATE SET last_state=EXCLUDED.last_state,
		              last_sent_at=COALESCE(EXCLUDED.last_sent_at, storecheck_alerts.last_sent_at)
	`
	var ts *time.Time
	if !sentAt.IsZero() {
		ts = &sentAt
	}
	_, err := s.pool.Exec(ctx, q, key, lastState, ts)
	return err
}
