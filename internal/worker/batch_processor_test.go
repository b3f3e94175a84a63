package worker_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sealdesk/sealdesk/internal/domain"
	"github.com/sealdesk/sealdesk/internal/queue"
	"github.com/sealdesk/sealdesk/internal/repository"
	"github.com/sealdesk/sealdesk/internal/worker"
)

func newProcessor(repo repository.PaymentRepository, hooks worker.MetricHooks) (*worker.BatchProcessor, *queue.PaymentQueue) {
	q := queue.New()
	bp := worker.NewBatchProcessor(q, repo, 5*time.Millisecond, 10, zap.NewNop(), hooks)
	return bp, q
}

func testPayment(tag string) domain.Payment {
	return domain.Payment{
		AccountID:   tag,
		Kind:        domain.PaymentSignatureCompleted,
		AmountCents: 250,
		Currency:    "usd",
		OccurredAt:  time.Now().UTC(),
	}
}

// waitFor polls cond until it is true or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached before timeout")
}

// TestBatchProcessor_SeventyFivePayments is the end-to-end drain scenario:
// 75 enqueued payments are covered by a 5×15 plan and fully persisted in
// one drain-and-process cycle.
func TestBatchProcessor_SeventyFivePayments(t *testing.T) {
	repo := repository.NewMockPaymentRepository()
	bp, q := newProcessor(repo, worker.MetricHooks{})

	for i := 0; i < 75; i++ {
		q.Enqueue(testPayment(fmt.Sprintf("acc-%d", i)))
	}

	p := queue.Plan(75)
	if p.NumBatches < 4 || p.NumBatches > 8 || p.BatchSize > 20 {
		t.Fatalf("Plan(75) = (%d, %d) outside expected bounds", p.NumBatches, p.BatchSize)
	}

	ctx, cancel := context.WithCancel(context.Background())
	bp.Start(ctx)

	waitFor(t, 5*time.Second, func() bool { return len(repo.Inserted()) == 75 })
	cancel()
	bp.Wait()

	if got := len(repo.Inserted()); got != 75 {
		t.Fatalf("expected 75 persisted payments, got %d", got)
	}
	if q.Len() != 0 {
		t.Fatalf("expected empty queue, len=%d", q.Len())
	}
}

// TestBatchProcessor_FailureIsolation verifies that one item's persistence
// failure does not abort its siblings: of 5 items with item 3 failing,
// the other 4 still succeed.
func TestBatchProcessor_FailureIsolation(t *testing.T) {
	repo := repository.NewMockPaymentRepository()
	repo.FailFor = func(p domain.Payment) error {
		if p.AccountID == "acc-3" {
			return errors.New("connection reset")
		}
		return nil
	}

	var failed int64
	done := make(chan struct{})
	bp, q := newProcessor(repo, worker.MetricHooks{
		OnFailed: func(domain.PaymentKind) { failed++; close(done) },
	})

	for i := 1; i <= 5; i++ {
		q.Enqueue(testPayment(fmt.Sprintf("acc-%d", i)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	bp.Start(ctx)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("failure hook never fired")
	}
	waitFor(t, 5*time.Second, func() bool { return len(repo.Inserted()) == 4 })
	cancel()
	bp.Wait()

	inserted := repo.Inserted()
	if len(inserted) != 4 {
		t.Fatalf("expected 4 persisted payments, got %d", len(inserted))
	}
	for _, p := range inserted {
		if p.AccountID == "acc-3" {
			t.Fatal("failing item must not be persisted")
		}
	}
	if failed != 1 {
		t.Fatalf("expected 1 failure, got %d", failed)
	}
}

// TestBatchProcessor_NoItemLoss enqueues tagged items concurrently with a
// running processor and checks every item is persisted exactly once.
func TestBatchProcessor_NoItemLoss(t *testing.T) {
	repo := repository.NewMockPaymentRepository()
	bp, q := newProcessor(repo, worker.MetricHooks{})

	ctx, cancel := context.WithCancel(context.Background())
	bp.Start(ctx)

	const total = 500
	go func() {
		for i := 0; i < total; i++ {
			q.Enqueue(testPayment(fmt.Sprintf("acc-%d", i)))
			if i%50 == 0 {
				time.Sleep(time.Millisecond) // interleave with drain cycles
			}
		}
	}()

	waitFor(t, 10*time.Second, func() bool { return len(repo.Inserted()) == total })
	cancel()
	bp.Wait()

	seen := make(map[string]int, total)
	for _, p := range repo.Inserted() {
		seen[p.AccountID]++
	}
	if len(seen) != total {
		t.Fatalf("expected %d unique items, got %d", total, len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("item %s persisted %d times", id, n)
		}
	}
}

// TestBatchProcessor_CappedPlanEventuallyDrains pushes the queue into the
// capped tier (batch size limited to 20) and verifies the leftover from one
// cycle is picked up by the following cycles.
func TestBatchProcessor_CappedPlanEventuallyDrains(t *testing.T) {
	repo := repository.NewMockPaymentRepository()
	bp, q := newProcessor(repo, worker.MetricHooks{})

	const total = 1000
	for i := 0; i < total; i++ {
		q.Enqueue(testPayment(fmt.Sprintf("acc-%d", i)))
	}

	if p := queue.Plan(total); p.Covers(total) {
		t.Fatalf("Plan(%d) = (%d, %d) unexpectedly covers the queue; test premise broken",
			total, p.NumBatches, p.BatchSize)
	}

	ctx, cancel := context.WithCancel(context.Background())
	bp.Start(ctx)

	waitFor(t, 10*time.Second, func() bool { return len(repo.Inserted()) == total })
	cancel()
	bp.Wait()

	if q.Len() != 0 {
		t.Fatalf("expected empty queue, len=%d", q.Len())
	}
}
