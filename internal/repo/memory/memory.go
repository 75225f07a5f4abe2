package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hamed0406/storecheck/internal/domain"
	"github.com/hamed0406/storecheck/internal/repo"
)

// maxReports bounds the in-memory history.
const maxReports = 500

type Store struct {
	mu      sync.RWMutex
	reports []*domain.Report
	alerts  map[string]repo.AlertRecord
}

func New() *Store {
	return &Store{
		reports: make([]*domain.Report, 0, 64),
		alerts:  make(map[string]repo.AlertRecord),
	}
}

// ---- ReportStore ----

func (m *Store) Append(ctx context.Context, r *domain.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now().UTC()
	}
	m.reports = append(m.reports, r)
	if len(m.reports) > maxReports {
		m.reports = append(m.reports[:0:0], m.reports[len(m.reports)-maxReports:]...)
	}
	return nil
}

func (m *Store) Latest(ctx context.Context) (*domain.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *domain.Report
	for _, r := range m.reports {
		if latest == nil || !r.FinishedAt.Before(latest.FinishedAt) {
			latest = r
		}
	}
	return latest, nil
}

func (m *Store) Recent(ctx context.Context, limit int) ([]*domain.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.reports) {
		limit = len(m.reports)
	}
	out := make([]*domain.Report, 0, limit)
	for i := len(m.reports) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.reports[i])
	}
	return out, nil
}

// ---- AlertStore ----

func (m *Store) Get(ctx context.Context, key string) (*repo.AlertRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.alerts[key]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *Store) Set(ctx context.Context, key string, lastState bool, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := repo.AlertRecord{Key: key, LastState: lastState}
	if !sentAt.IsZero() {
		ts := sentAt
		rec.LastSentAt = &ts
	} else if prev, ok := m.alerts[key]; ok {
		// keep the cooldown anchor when only the state changes
		rec.LastSentAt = prev.LastSentAt
	}
	m.alerts[key] = rec
	return nil
}

var _ repo.ReportStore = (*Store)(nil)
var _ repo.AlertStore = (*Store)(nil)
