package handler

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/bookbase/bookbase-admin/internal/metrics"
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

	for _, k := range sortedPairs(snap.APIRequests) {
		writeMetric(w, "bookbase_api_requests_total{operation=%q,status=%q} %d\n", k[0], k[1], snap.APIRequests[k])
	}
	for _, op := range sortedKeys(snap.APIDurationCount) {
		writeMetric(w, "bookbase_api_request_duration_seconds_count{operation=%q} %d\n", op, snap.APIDurationCount[op])
		writeMetric(w, "bookbase_api_request_duration_seconds_sum{operation=%q} %.6f\n", op, float64(snap.APIDurationTotalNs[op])/1e9)
	}
	for _, k := range sortedPairs(snap.ListFetches) {
		writeMetric(w, "bookbase_list_fetches_total{view=%q,outcome=%q} %d\n", k[0], k[1], snap.ListFetches[k])
	}
	for _, view := range sortedKeys(snap.StaleResponses) {
		writeMetric(w, "bookbase_stale_responses_total{view=%q} %d\n", view, snap.StaleResponses[view])
	}
	for _, k := range sortedPairs(snap.Mutations) {
		writeMetric(w, "bookbase_mutations_total{kind=%q,outcome=%q} %d\n", k[0], k[1], snap.Mutations[k])
	}
	for _, outcome := range sortedKeys(snap.Logins) {
		writeMetric(w, "bookbase_logins_total{outcome=%q} %d\n", outcome, snap.Logins[outcome])
	}
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

// Series are written in a stable order so scrapes diff cleanly.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedPairs(m map[metrics.Pair]uint64) []metrics.Pair {
	keys := make([]metrics.Pair, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	return keys
}
