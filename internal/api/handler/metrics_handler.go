package handler

import (
	"net/http"

	"github.com/sealdesk/sealdesk/internal/queue"
)

// MetricsHandler serves a human-readable JSON queue snapshot.
// Raw Prometheus metrics (counters, histograms) are available at /metrics
// via promhttp.Handler and are separate from this endpoint.
type MetricsHandler struct {
	q *queue.PaymentQueue
}

func NewMetricsHandler(q *queue.PaymentQueue) *MetricsHandler {
	return &MetricsHandler{q: q}
}

// GetMetrics handles GET /api/v1/metrics
//
// @Summary  Real-time payment queue snapshot
// @Tags     metrics
// @Produce  json
// @Success  200  {object}  map[string]any
// @Router   /api/v1/metrics [get]
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	depth := h.q.Len()
	plan := queue.Plan(depth)
	respondJSON(w, http.StatusOK, map[string]any{
		"queue_depth": depth,
		"next_plan": map[string]int{
			"batches":    plan.NumBatches,
			"batch_size": plan.BatchSize,
		},
	})
}
