package domain

import (
	"strings"
	"testing"
	"time"
)

func TestKeyGenerator_MillisecondKey(t *testing.T) {
	var g KeyGenerator
	got := g.Next(time.UnixMilli(1700000000000))
	if got != "test_1700000000000" {
		t.Fatalf("want test_1700000000000, got %q", got)
	}
}

func TestKeyGenerator_UniqueWhenClockStalls(t *testing.T) {
	var g KeyGenerator
	now := time.UnixMilli(1700000000000)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		k := g.Next(now)
		if seen[k] {
			t.Fatalf("duplicate key %q at iteration %d", k, i)
		}
		seen[k] = true
	}
	// clock going backwards must not reuse a key either
	if k := g.Next(now.Add(-time.Second)); seen[k] {
		t.Fatalf("duplicate key %q after clock skew", k)
	}
}

func TestNewProbeRecord(t *testing.T) {
	now := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	rec := NewProbeRecord("test_1", now)
	if rec.Key != "test_1" {
		t.Fatalf("key mismatch: %q", rec.Key)
	}
	if rec.Value.Test == "" {
		t.Fatalf("expected diagnostic message")
	}
	if !strings.HasPrefix(rec.Value.Timestamp, "2025-08-18T12:00:00") {
		t.Fatalf("unexpected timestamp %q", rec.Value.Timestamp)
	}
}

func TestReport_StepLookup(t *testing.T) {
	r := &Report{
		Target: "https://x.example",
		Table:  "data_store",
		Steps: []StepResult{
			{Step: StepConnection, Success: true, StatusCode: 200},
			{Step: StepWrite, Success: false, StatusCode: 401},
		},
	}
	if s := r.Step(StepWrite); s == nil || s.StatusCode != 401 {
		t.Fatalf("write step not found: %+v", s)
	}
	if s := r.Step(StepRead); s != nil {
		t.Fatalf("read step should be absent, got %+v", s)
	}
	if r.AlertKey() != "https://x.example/data_store" {
		t.Fatalf("alert key: %q", r.AlertKey())
	}
}
