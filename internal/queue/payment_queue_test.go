package queue_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sealdesk/sealdesk/internal/domain"
	"github.com/sealdesk/sealdesk/internal/queue"
)

func payment(id string) domain.Payment {
	return domain.Payment{
		AccountID:   id,
		Kind:        domain.PaymentSignatureCompleted,
		AmountCents: 100,
		Currency:    "usd",
		OccurredAt:  time.Now().UTC(),
	}
}

func TestPaymentQueue_FIFOOrder(t *testing.T) {
	q := queue.New()
	for i := 0; i < 5; i++ {
		q.Enqueue(payment(fmt.Sprintf("acc-%d", i)))
	}

	batch := q.DrainBatch(5)
	if len(batch) != 5 {
		t.Fatalf("expected 5 items, got %d", len(batch))
	}
	for i, p := range batch {
		if want := fmt.Sprintf("acc-%d", i); p.AccountID != want {
			t.Fatalf("item %d: expected %s, got %s", i, want, p.AccountID)
		}
	}
}

func TestPaymentQueue_DrainBatch_Partial(t *testing.T) {
	q := queue.New()
	for i := 0; i < 3; i++ {
		q.Enqueue(payment("acc"))
	}

	if got := len(q.DrainBatch(10)); got != 3 {
		t.Fatalf("expected to drain 3, got %d", got)
	}
	if got := q.DrainBatch(10); got != nil {
		t.Fatalf("expected nil from empty queue, got %v", got)
	}
}

func TestPaymentQueue_DrainBatch_Empty(t *testing.T) {
	q := queue.New()
	if got := q.DrainBatch(20); got != nil {
		t.Fatalf("expected nil, got %d items", len(got))
	}
	if q.Len() != 0 {
		t.Fatalf("expected len 0, got %d", q.Len())
	}
}

func TestPaymentQueue_DrainBatch_NonPositiveMax(t *testing.T) {
	q := queue.New()
	q.Enqueue(payment("acc"))

	if got := q.DrainBatch(0); got != nil {
		t.Fatalf("expected nil for max=0, got %v", got)
	}
	if q.Len() != 1 {
		t.Fatalf("item should remain queued, len=%d", q.Len())
	}
}

// TestPaymentQueue_NoLossNoDuplication enqueues uniquely tagged items from
// several goroutines while two drainers compete, then checks that the union
// of all drained batches equals the input set with no repeats.
func TestPaymentQueue_NoLossNoDuplication(t *testing.T) {
	q := queue.New()

	const producers = 8
	const perProducer = 250
	const total = producers * perProducer

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(payment(fmt.Sprintf("p%d-i%d", p, i)))
			}
		}(p)
	}

	seen := make(map[string]int, total)
	var seenMu sync.Mutex

	var drainers sync.WaitGroup
	stop := make(chan struct{})
	for d := 0; d < 2; d++ {
		drainers.Add(1)
		go func() {
			defer drainers.Done()
			for {
				batch := q.DrainBatch(17)
				seenMu.Lock()
				for _, p := range batch {
					seen[p.AccountID]++
				}
				done := len(seen) == total
				seenMu.Unlock()
				if done {
					return
				}
				if batch == nil {
					select {
					case <-stop:
						return
					default:
						time.Sleep(time.Millisecond)
					}
				}
			}
		}()
	}

	wg.Wait()

	deadline := time.After(5 * time.Second)
	for {
		seenMu.Lock()
		n := len(seen)
		seenMu.Unlock()
		if n == total {
			break
		}
		select {
		case <-deadline:
			close(stop)
			drainers.Wait()
			t.Fatalf("timeout: drained %d/%d unique items", n, total)
		default:
			time.Sleep(time.Millisecond)
		}
	}
	close(stop)
	drainers.Wait()

	for id, count := range seen {
		if count != 1 {
			t.Fatalf("item %s drained %d times", id, count)
		}
	}
	if q.Len() != 0 {
		t.Fatalf("expected empty queue, len=%d", q.Len())
	}
}
