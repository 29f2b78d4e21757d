// Package metrics defines the store observability hooks and a Prometheus
// implementation. Components default to NoopRecorder.
package metrics

import "time"

// Outcome labels a finished load.
type Outcome string

const (
	OutcomeSuccess    Outcome = "success"
	OutcomeFailure    Outcome = "failure"
	OutcomeCancelled  Outcome = "cancelled"
	OutcomeSuperseded Outcome = "superseded"
)

// Recorder receives store events. Implementations must be safe for concurrent use.
type Recorder interface {
	IncLoad(store string, outcome Outcome)
	ObserveLoadDuration(store string, d time.Duration)
	IncRetry(store string)
	IncCommit(store string)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

func (NoopRecorder) IncLoad(string, Outcome)                   {}
func (NoopRecorder) ObserveLoadDuration(string, time.Duration) {}
func (NoopRecorder) IncRetry(string)                           {}
func (NoopRecorder) IncCommit(string)                          {}
