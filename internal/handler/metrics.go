package handler

import (
	"fmt"
	"net/http"

	"github.com/shelfdesk/shelfdesk/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "shelfdesk_book_cache_hits_total %d\n", snap.BookCacheHits)
	writeMetric(w, "shelfdesk_book_cache_misses_total %d\n", snap.BookCacheMisses)

	writeMetric(w, "shelfdesk_searches_total{result=\"found\"} %d\n", snap.Searches-snap.SearchesEmpty)
	writeMetric(w, "shelfdesk_searches_total{result=\"empty\"} %d\n", snap.SearchesEmpty)

	writeMetric(w, "shelfdesk_checkouts_created_total %d\n", snap.CheckoutsCreated)
	writeMetric(w, "shelfdesk_checkouts_rejected_total{reason=%q} %d\n", metrics.RejectViolations, snap.RejectedViolations)
	writeMetric(w, "shelfdesk_checkouts_rejected_total{reason=%q} %d\n", metrics.RejectLimit, snap.RejectedLimit)
	writeMetric(w, "shelfdesk_checkouts_rejected_total{reason=%q} %d\n", metrics.RejectUnavailable, snap.RejectedUnavailable)
	writeMetric(w, "shelfdesk_checkouts_rejected_total{reason=%q} %d\n", metrics.RejectNoBook, snap.RejectedNoBook)

	writeMetric(w, "shelfdesk_checkins_total{overdue=\"false\"} %d\n", snap.Checkins-snap.CheckinsOverdue)
	writeMetric(w, "shelfdesk_checkins_total{overdue=\"true\"} %d\n", snap.CheckinsOverdue)

	writeMetric(w, "shelfdesk_checkout_tx_duration_seconds_count %d\n", snap.CheckoutTxCount)
	writeMetric(w, "shelfdesk_checkout_tx_duration_seconds_sum %.6f\n", float64(snap.CheckoutTxTotalNs)/1e9)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
