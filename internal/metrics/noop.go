package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncBookCacheHit is a no-op.
func (n *NoopRecorder) IncBookCacheHit() {}

// IncBookCacheMiss is a no-op.
func (n *NoopRecorder) IncBookCacheMiss() {}

// IncSearch is a no-op.
func (n *NoopRecorder) IncSearch(empty bool) {}

// IncCheckoutCreated is a no-op.
func (n *NoopRecorder) IncCheckoutCreated() {}

// IncCheckoutRejected is a no-op.
func (n *NoopRecorder) IncCheckoutRejected(reason string) {}

// IncCheckin is a no-op.
func (n *NoopRecorder) IncCheckin(overdue bool) {}

// ObserveCheckoutTxDuration is a no-op.
func (n *NoopRecorder) ObserveCheckoutTxDuration(duration time.Duration) {}
