package queue

// maxBatchSize caps per-batch size at high load so no single goroutine's
// fan-out grows unbounded; anything the cap leaves behind is drained by the
// immediately following cycle.
const maxBatchSize = 20

// BatchPlan is the drain schedule for one processing cycle, derived from the
// queue length at the moment of planning. It is recomputed every cycle and
// never persisted.
type BatchPlan struct {
	NumBatches int
	BatchSize  int
}

// Plan maps a queue length to a batch partition. The tiers keep batches in a
// 10–20 item sweet spot: tiny queues get one batch instead of many near-empty
// ones, and bursts get more batches instead of bigger ones.
//
//	0        → no work
//	1–10     → 1 batch of everything
//	11–50    → 2–3 batches
//	51–200   → 4–8 batches
//	201+     → 10–20 batches, each capped at maxBatchSize
//
// Below the cap tier, BatchSize is rounded up so NumBatches×BatchSize covers
// the whole queue; the last batch absorbs the rounding shortfall by draining
// fewer items.
func Plan(queueLen int) BatchPlan {
	switch {
	case queueLen <= 0:
		return BatchPlan{}
	case queueLen <= 10:
		return BatchPlan{NumBatches: 1, BatchSize: queueLen}
	case queueLen <= 50:
		n := 2 + min(1, queueLen/25)
		return BatchPlan{NumBatches: n, BatchSize: ceilDiv(queueLen, n)}
	case queueLen <= 200:
		n := 4 + min(4, queueLen/50)
		return BatchPlan{NumBatches: n, BatchSize: ceilDiv(queueLen, n)}
	default:
		n := 10 + min(10, queueLen/100)
		return BatchPlan{NumBatches: n, BatchSize: min(maxBatchSize, ceilDiv(queueLen, n))}
	}
}

// Covers reports whether the plan spans the full queue length it was computed
// for. False only in the capped top tier, where the leftover waits one cycle.
func (p BatchPlan) Covers(queueLen int) bool {
	return p.NumBatches*p.BatchSize >= queueLen
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
