package memory

import (
	"context"
	"testing"
	"time"

	"github.com/hamed0406/storecheck/internal/domain"
)

func report(id string, healthy bool, finished time.Time) *domain.Report {
	return &domain.Report{
		ID:         id,
		Target:     "https://x.supabase.co",
		Table:      "data_store",
		Healthy:    healthy,
		StartedAt:  finished.Add(-time.Second),
		FinishedAt: finished,
	}
}

func TestMemoryStore_AppendLatestRecent(t *testing.T) {
	ctx := context.Background()
	s := New()

	if r, err := s.Latest(ctx); err != nil || r != nil {
		t.Fatalf("expected empty latest, got %+v err=%v", r, err)
	}

	base := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := s.Append(ctx, report(id, i%2 == 0, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	latest, err := s.Latest(ctx)
	if err != nil || latest == nil || latest.ID != "c" {
		t.Fatalf("latest wrong: %+v err=%v", latest, err)
	}

	recent, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "c" || recent[1].ID != "b" {
		t.Fatalf("recent wrong: %+v", recent)
	}
	if all, _ := s.Recent(ctx, 0); len(all) != 3 {
		t.Fatalf("limit 0 should return all, got %d", len(all))
	}
}

func TestMemoryStore_HistoryIsBounded(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Now().UTC()
	for i := 0; i < maxReports+10; i++ {
		_ = s.Append(ctx, report("r", true, base.Add(time.Duration(i)*time.Second)))
	}
	all, _ := s.Recent(ctx, 0)
	if len(all) != maxReports {
		t.Fatalf("want %d reports, got %d", maxReports, len(all))
	}
}

func TestMemoryStore_Alerts(t *testing.T) {
	ctx := context.Background()
	s := New()

	if rec, err := s.Get(ctx, "k"); err != nil || rec != nil {
		t.Fatalf("expected nil, got %+v err=%v", rec, err)
	}

	sent := time.Now()
	_ = s.Set(ctx, "k", false, sent)
	rec, _ := s.Get(ctx, "k")
	if rec == nil || rec.LastState || rec.LastSentAt == nil || !rec.LastSentAt.Equal(sent) {
		t.Fatalf("unexpected: %+v", rec)
	}

	// state-only update keeps the last send time
	_ = s.Set(ctx, "k", true, time.Time{})
	rec, _ = s.Get(ctx, "k")
	if rec == nil || !rec.LastState || rec.LastSentAt == nil {
		t.Fatalf("unexpected after state-only update: %+v", rec)
	}
}
