package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/storecheck/internal/domain"
	"github.com/hamed0406/storecheck/internal/repo/memory"
)

// --- fakes ---

type countingRunner struct {
	mu sync.Mutex
	n  int
}

func (c *countingRunner) Run(ctx context.Context) *domain.Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return &domain.Report{
		ID:         "run",
		Target:     "https://a.supabase.co",
		Table:      "data_store",
		Healthy:    true,
		FinishedAt: time.Now().UTC(),
	}
}

func (c *countingRunner) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// --- tests ---

func TestRechecker_RunOnceViaLoop_StoresReport(t *testing.T) {
	runner := &countingRunner{}
	store := memory.New()

	rc := NewRechecker(zap.NewNop(), runner, store, 2*time.Millisecond, 200*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go rc.Run(ctx)

	// Wait a tiny bit for the immediate pass to execute.
	time.Sleep(20 * time.Millisecond)

	if runner.count() == 0 {
		t.Fatalf("expected at least one run")
	}
	latest, err := store.Latest(context.Background())
	if err != nil || latest == nil || !latest.Healthy {
		t.Fatalf("unexpected latest report: %+v err=%v", latest, err)
	}
}

func TestRechecker_DisabledReturns(t *testing.T) {
	runner := &countingRunner{}
	rc := NewRechecker(zap.NewNop(), runner, memory.New(), 0, 0)

	done := make(chan struct{})
	go func() {
		rc.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("disabled rechecker should return immediately")
	}
	if runner.count() != 0 {
		t.Fatalf("disabled rechecker ran %d times", runner.count())
	}
}

func TestRechecker_RunOnceReturnsStoredReport(t *testing.T) {
	store := memory.New()
	rc := NewRechecker(zap.NewNop(), &countingRunner{}, store, time.Minute, time.Second)

	rep := rc.RunOnce(context.Background())
	recent, _ := store.Recent(context.Background(), 10)
	if len(recent) != 1 || recent[0] != rep {
		t.Fatalf("report not stored: %+v", recent)
	}
}
