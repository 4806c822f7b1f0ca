package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// ObserveAPIRequest is a no-op.
func (n *NoopRecorder) ObserveAPIRequest(op, status string, duration time.Duration) {}

// IncListFetch is a no-op.
func (n *NoopRecorder) IncListFetch(view, outcome string) {}

// IncStaleResponse is a no-op.
func (n *NoopRecorder) IncStaleResponse(view string) {}

// IncMutation is a no-op.
func (n *NoopRecorder) IncMutation(kind, outcome string) {}

// IncLogin is a no-op.
func (n *NoopRecorder) IncLogin(outcome string) {}
