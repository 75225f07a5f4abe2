package domain

import "time"

// Probe step names, in execution order.
const (
	StepConnection = "connection"
	StepWrite      = "write"
	StepRead       = "read"
	StepCleanup    = "cleanup"
)

type StepResult struct {
	Step       string  `json:"step"`
	Success    bool    `json:"success"`
	StatusCode int     `json:"status_code,omitempty"` // 0 for transport errors
	LatencyMS  float64 `json:"latency_ms"`
	Message    string  `json:"message,omitempty"`
	Failure    string  `json:"failure,omitempty"` // connection_failed | schema_missing | write_failed | read_failed | cleanup_failed
}

// Report is the outcome of one full probe run.
type Report struct {
	ID         string       `json:"id"`
	Target     string       `json:"target"`
	Table      string       `json:"table"`
	Healthy    bool         `json:"healthy"`
	Failure    string       `json:"failure,omitempty"`
	ProbeKey   string       `json:"probe_key,omitempty"`
	Steps      []StepResult `json:"steps"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}

// AlertKey identifies the monitored store in alert state.
func (r *Report) AlertKey() string {
	return r.Target + "/" + r.Table
}

// Step returns the result for the named step, or nil if it never ran.
func (r *Report) Step(name string) *StepResult {
	for i := range r.Steps {
		if r.Steps[i].Step == name {
			return &r.Steps[i]
		}
	}
	return nil
}
