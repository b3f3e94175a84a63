package queue

import (
	"sync"

	"github.com/sealdesk/sealdesk/internal/domain"
)

// PaymentQueue is a FIFO buffer of payment records waiting to be persisted.
//
// A single mutex guards the backing slice. The lock is held only for the
// duration of an enqueue or drain, never across I/O — the batch processor
// drains first and persists after releasing the lock, so persistence calls
// from different batches proceed concurrently.
//
// An item lives in exactly one place at a time: the queue or the in-flight
// batch that drained it. DrainBatch hands out each item exactly once.
type PaymentQueue struct {
	mu    sync.Mutex
	items []domain.Payment
}

func New() *PaymentQueue {
	return &PaymentQueue{}
}

// Enqueue appends an item to the tail. It never fails; capacity is bounded
// only by memory, which keeps producers (HTTP handlers) non-blocking.
func (q *PaymentQueue) Enqueue(p domain.Payment) {
	q.mu.Lock()
	q.items = append(q.items, p)
	q.mu.Unlock()
}

// DrainBatch atomically removes up to max items from the head and returns
// them in FIFO order. Empty queue yields a nil slice.
func (q *PaymentQueue) DrainBatch(max int) []domain.Payment {
	if max <= 0 {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	n := min(max, len(q.items))
	if n == 0 {
		return nil
	}

	batch := make([]domain.Payment, n)
	copy(batch, q.items[:n])

	// Shift in place rather than re-slicing so drained entries do not pin
	// the backing array's memory.
	rest := copy(q.items, q.items[n:])
	q.items = q.items[:rest]

	return batch
}

// Len is a snapshot of the current size. It is racy against concurrent
// Enqueue and DrainBatch calls; callers use it for batch sizing only,
// never for correctness.
func (q *PaymentQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
