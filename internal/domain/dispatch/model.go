// Package dispatch records the audit trail for every job C7 hands off
// to the external persistent queue: one row per enqueue attempt, so a
// silent queue failure is diagnosable from the store instead of from
// log archaeology.
package dispatch

import "time"

// Status is the lifecycle of a single dispatch attempt.
type Status string

const (
	StatusSent      Status = "sent"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Event is one row of the dispatch audit trail.
type Event struct {
	DispatchID   string
	JobName      string
	JobPath      string
	SeasonID     string
	Status       Status
	Payload      map[string]any
	ErrorMessage string
	OccurredAt   time.Time
	TraceID      string
	SpanID       string
}
