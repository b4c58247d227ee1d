package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	BookCacheHits       uint64
	BookCacheMisses     uint64
	Searches            uint64
	SearchesEmpty       uint64
	CheckoutsCreated    uint64
	RejectedViolations  uint64
	RejectedLimit       uint64
	RejectedUnavailable uint64
	RejectedNoBook      uint64
	Checkins            uint64
	CheckinsOverdue     uint64
	CheckoutTxCount     uint64
	CheckoutTxTotalNs   int64
}

// InMemoryRecorder keeps counters in process memory. It backs /metrics and
// is used directly in tests.
type InMemoryRecorder struct {
	bookCacheHits       uint64
	bookCacheMisses     uint64
	searches            uint64
	searchesEmpty       uint64
	checkoutsCreated    uint64
	rejectedViolations  uint64
	rejectedLimit       uint64
	rejectedUnavailable uint64
	rejectedNoBook      uint64
	checkins            uint64
	checkinsOverdue     uint64
	checkoutTxCount     uint64
	checkoutTxTotalNs   int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		BookCacheHits:       atomic.LoadUint64(&m.bookCacheHits),
		BookCacheMisses:     atomic.LoadUint64(&m.bookCacheMisses),
		Searches:            atomic.LoadUint64(&m.searches),
		SearchesEmpty:       atomic.LoadUint64(&m.searchesEmpty),
		CheckoutsCreated:    atomic.LoadUint64(&m.checkoutsCreated),
		RejectedViolations:  atomic.LoadUint64(&m.rejectedViolations),
		RejectedLimit:       atomic.LoadUint64(&m.rejectedLimit),
		RejectedUnavailable: atomic.LoadUint64(&m.rejectedUnavailable),
		RejectedNoBook:      atomic.LoadUint64(&m.rejectedNoBook),
		Checkins:            atomic.LoadUint64(&m.checkins),
		CheckinsOverdue:     atomic.LoadUint64(&m.checkinsOverdue),
		CheckoutTxCount:     atomic.LoadUint64(&m.checkoutTxCount),
		CheckoutTxTotalNs:   atomic.LoadInt64(&m.checkoutTxTotalNs),
	}
}

// IncBookCacheHit increments the book cache hit counter.
func (m *InMemoryRecorder) IncBookCacheHit() {
	atomic.AddUint64(&m.bookCacheHits, 1)
}

// IncBookCacheMiss increments the book cache miss counter.
func (m *InMemoryRecorder) IncBookCacheMiss() {
	atomic.AddUint64(&m.bookCacheMisses, 1)
}

// IncSearch counts a catalog search.
func (m *InMemoryRecorder) IncSearch(empty bool) {
	atomic.AddUint64(&m.searches, 1)
	if empty {
		atomic.AddUint64(&m.searchesEmpty, 1)
	}
}

// IncCheckoutCreated increments the checkout created counter.
func (m *InMemoryRecorder) IncCheckoutCreated() {
	atomic.AddUint64(&m.checkoutsCreated, 1)
}

// IncCheckoutRejected counts a refused borrow by reason. Unknown reasons are dropped.
func (m *InMemoryRecorder) IncCheckoutRejected(reason string) {
	switch reason {
	case RejectViolations:
		atomic.AddUint64(&m.rejectedViolations, 1)
	case RejectLimit:
		atomic.AddUint64(&m.rejectedLimit, 1)
	case RejectUnavailable:
		atomic.AddUint64(&m.rejectedUnavailable, 1)
	case RejectNoBook:
		atomic.AddUint64(&m.rejectedNoBook, 1)
	}
}

// IncCheckin counts a return.
func (m *InMemoryRecorder) IncCheckin(overdue bool) {
	atomic.AddUint64(&m.checkins, 1)
	if overdue {
		atomic.AddUint64(&m.checkinsOverdue, 1)
	}
}

// ObserveCheckoutTxDuration records how long a borrow or return transaction took.
func (m *InMemoryRecorder) ObserveCheckoutTxDuration(duration time.Duration) {
	atomic.AddUint64(&m.checkoutTxCount, 1)
	atomic.AddInt64(&m.checkoutTxTotalNs, duration.Nanoseconds())
}
