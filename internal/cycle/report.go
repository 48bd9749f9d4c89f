package cycle

import (
	"time"

	"github.com/agentstation/osiris/pkg/events"
)

// Result classifies one connector's outcome in a cycle.
type Result string

// Connector results.
const (
	ResultOK           Result = "ok"
	ResultUnconfigured Result = "unconfigured"
	ResultFetchError   Result = "fetch_error"
	ResultEnrichError  Result = "enrichment_error"
)

// Outcome is one connector's share of a cycle.
type Outcome struct {
	Connector string        `json:"connector"`
	Source    events.Source `json:"source"`
	Result    Result        `json:"result"`
	Events    int           `json:"events"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// Report summarizes a completed cycle.
type Report struct {
	Seq       int64         `json:"seq"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Outcomes  []Outcome     `json:"outcomes"`

	// Events is the cycle output in registration order.
	Events []events.Event `json:"-"`
}

// Failed counts connectors that errored.
func (r *Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Result == ResultFetchError || o.Result == ResultEnrichError {
			n++
		}
	}
	return n
}
