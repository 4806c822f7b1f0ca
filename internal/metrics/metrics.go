// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the console.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Outbound bookbase API calls. status is the status class ("2xx",
	// "4xx", "5xx") or "error" for transport failures.
	ObserveAPIRequest(op, status string, duration time.Duration)

	// List views
	IncListFetch(view, outcome string) // outcome: "success" or "error"
	IncStaleResponse(view string)

	// Mutations (create_book, delete_book, create_loan, return_loan)
	IncMutation(kind, outcome string)

	// Sessions
	IncLogin(outcome string) // outcome: "success", "failed", "throttled"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
