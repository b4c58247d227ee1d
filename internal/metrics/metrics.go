// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Checkout rejection reasons.
const (
	RejectViolations  = "violations"
	RejectLimit       = "limit"
	RejectUnavailable = "unavailable"
	RejectNoBook      = "no_book"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Catalog metrics
	IncBookCacheHit()
	IncBookCacheMiss()
	IncSearch(empty bool)

	// Checkout lifecycle metrics
	IncCheckoutCreated()
	IncCheckoutRejected(reason string)
	IncCheckin(overdue bool)
	ObserveCheckoutTxDuration(duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
