package handler

import (
	"fmt"
	"net/http"

	"github.com/spendlog/spendlog/internal/metrics"
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

	writeMetric(w, "spendlog_users_registered_total %d\n", snap.UsersRegistered)
	writeMetric(w, "spendlog_logins_total{status=\"success\"} %d\n", snap.LoginsSucceeded)
	writeMetric(w, "spendlog_logins_total{status=\"failure\"} %d\n", snap.LoginsFailed)

	writeMetric(w, "spendlog_expenses_created_total %d\n", snap.ExpensesCreated)
	writeMetric(w, "spendlog_expenses_updated_total %d\n", snap.ExpensesUpdated)
	writeMetric(w, "spendlog_expenses_deleted_total %d\n", snap.ExpensesDeleted)

	writeMetric(w, "spendlog_summary_duration_seconds_count %d\n", snap.SummaryDurationCount)
	writeMetric(w, "spendlog_summary_duration_seconds_sum %.6f\n", float64(snap.SummaryDurationTotalNs)/1e9)

	writeMetric(w, "spendlog_rate_limited_total{scope=\"auth\"} %d\n", snap.RateLimitedAuth)
	writeMetric(w, "spendlog_rate_limited_total{scope=\"api\"} %d\n", snap.RateLimitedAPI)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
