package domain

import (
	"strconv"
	"sync"
	"time"
)

const ProbeKeyPrefix = "test_"

// ProbePayload is the value stored with a probe record.
type ProbePayload struct {
	Test      string `json:"test"`
	Timestamp string `json:"timestamp"`
}

// ProbeRecord is the single row the smoke test creates, reads back and deletes.
type ProbeRecord struct {
	Key   string       `json:"key"`
	Value ProbePayload `json:"value"`
}

func NewProbeRecord(key string, now time.Time) ProbeRecord {
	return ProbeRecord{
		Key: key,
		Value: ProbePayload{
			Test:      "Data store connection successful!",
			Timestamp: now.Format(time.RFC3339Nano),
		},
	}
}

// KeyGenerator hands out millisecond-derived keys that never repeat within
// the process, even if the clock has not advanced between calls.
type KeyGenerator struct {
	mu   sync.Mutex
	last int64
}

func (g *KeyGenerator) Next(now time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := now.UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return ProbeKeyPrefix + strconv.FormatInt(ms, 10)
}
