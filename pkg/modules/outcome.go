package modules

import "time"

// State is the terminal state of one module within a pipeline run.
type State string

// Module outcome states. Pending and running are internal to the executor;
// only terminal states appear in a Record.
const (
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateSkipped   State = "skipped"
)

// Outcome records what happened to one module during a run.
type Outcome struct {
	ModuleID string
	State    State
	// Reason explains Failed and Skipped states ("blocked by identity",
	// error text). Empty for Succeeded.
	Reason string
	// Err carries the underlying failure for Failed states.
	Err      error
	Duration time.Duration
}

// Blocked reports whether the module was skipped rather than attempted.
func (o Outcome) Blocked() bool {
	return o.State == StateSkipped
}
