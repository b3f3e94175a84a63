package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/sealdesk/sealdesk/internal/domain"
	"github.com/sealdesk/sealdesk/internal/queue"
	"github.com/sealdesk/sealdesk/internal/repository"
)

// MetricHooks carries the metric callback functions injected by main.
// Using a struct keeps the processor constructor signature clean and the
// worker package free of prometheus imports.
type MetricHooks struct {
	OnPersisted func(kind domain.PaymentKind)
	OnFailed    func(kind domain.PaymentKind)
	OnCycle     func(drained int, elapsed time.Duration)
}

func (h *MetricHooks) fillNoops() {
	if h.OnPersisted == nil {
		h.OnPersisted = func(domain.PaymentKind) {}
	}
	if h.OnFailed == nil {
		h.OnFailed = func(domain.PaymentKind) {}
	}
	if h.OnCycle == nil {
		h.OnCycle = func(int, time.Duration) {}
	}
}

// BatchProcessor drains the payment queue in adaptively sized batches and
// persists the drained items with bounded concurrency.
//
// It alternates between two states: idle (queue empty, sleeping idleInterval
// between polls) and draining (queue non-empty). One draining cycle computes
// a plan from the queue length, drains that many batches, spawns one
// goroutine per non-empty batch, and fans item persistence out inside each
// batch through a semaphore of perBatchConcurrency slots. The queue lock is
// released before any persistence I/O starts.
//
// A failed item is logged and counted, never re-enqueued; its siblings are
// unaffected. The loop has no natural termination — it runs until ctx is
// cancelled, and Wait returns once the in-flight cycle has finished.
type BatchProcessor struct {
	q     *queue.PaymentQueue
	repo  repository.PaymentRepository
	idle  time.Duration
	slots int
	log   *zap.Logger
	hooks MetricHooks
	wg    sync.WaitGroup
}

func NewBatchProcessor(
	q *queue.PaymentQueue,
	repo repository.PaymentRepository,
	idleInterval time.Duration,
	perBatchConcurrency int,
	logger *zap.Logger,
	hooks MetricHooks,
) *BatchProcessor {
	hooks.fillNoops()
	return &BatchProcessor{
		q:     q,
		repo:  repo,
		idle:  idleInterval,
		slots: perBatchConcurrency,
		log:   logger,
		hooks: hooks,
	}
}

// Start launches the supervisory loop as a goroutine.
// Cancelling ctx stops the loop; call Wait to block until it has drained
// its in-flight cycle and returned.
func (bp *BatchProcessor) Start(ctx context.Context) {
	bp.wg.Add(1)
	go func() {
		defer bp.wg.Done()
		bp.run(ctx)
	}()
}

// Wait blocks until the loop started by Start has returned.
func (bp *BatchProcessor) Wait() {
	bp.wg.Wait()
}

func (bp *BatchProcessor) run(ctx context.Context) {
	bp.log.Info("batch processor started",
		zap.Duration("idle_interval", bp.idle),
		zap.Int("per_batch_concurrency", bp.slots),
	)
	for {
		if bp.q.Len() == 0 {
			select {
			case <-ctx.Done():
				bp.log.Info("batch processor stopping")
				return
			case <-time.After(bp.idle):
			}
			continue
		}

		bp.cycle(ctx)

		// A capped plan can leave items queued; loop straight into the
		// next cycle instead of idling while work remains.
		select {
		case <-ctx.Done():
			bp.log.Info("batch processor stopping")
			return
		default:
		}
	}
}

// cycle runs one drain-and-process pass and reports the outcome.
func (bp *BatchProcessor) cycle(ctx context.Context) {
	start := time.Now()

	plan := queue.Plan(bp.q.Len())
	if plan.NumBatches == 0 {
		return
	}

	batches := make([][]domain.Payment, 0, plan.NumBatches)
	drained := 0
	for i := 0; i < plan.NumBatches; i++ {
		batch := bp.q.DrainBatch(plan.BatchSize)
		if len(batch) == 0 {
			break
		}
		drained += len(batch)
		batches = append(batches, batch)
	}

	var persisted, failed atomic.Int64
	var wg sync.WaitGroup
	for _, batch := range batches {
		wg.Add(1)
		go func(batch []domain.Payment) {
			defer wg.Done()
			bp.processBatch(ctx, batch, &persisted, &failed)
		}(batch)
	}
	wg.Wait()

	elapsed := time.Since(start)
	bp.hooks.OnCycle(drained, elapsed)
	bp.log.Info("payment cycle complete",
		zap.Int("drained", drained),
		zap.Int("batches", len(batches)),
		zap.Int("batch_size", plan.BatchSize),
		zap.Int64("persisted", persisted.Load()),
		zap.Int64("failed", failed.Load()),
		zap.Duration("elapsed", elapsed),
	)
}

// processBatch persists one batch's items with at most bp.slots in flight.
// Item failures are isolated: each item gets exactly one attempt and an
// error affects only its own counter.
func (bp *BatchProcessor) processBatch(ctx context.Context, items []domain.Payment, persisted, failed *atomic.Int64) {
	sem := make(chan struct{}, bp.slots)
	var wg sync.WaitGroup
	for _, p := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(p domain.Payment) {
			defer wg.Done()
			defer func() { <-sem }()

			if _, err := bp.repo.Insert(ctx, p); err != nil {
				failed.Add(1)
				bp.hooks.OnFailed(p.Kind)
				bp.log.Warn("payment persist failed",
					zap.String("account_id", p.AccountID),
					zap.String("kind", string(p.Kind)),
					zap.Error(err),
				)
				return
			}
			persisted.Add(1)
			bp.hooks.OnPersisted(p.Kind)
		}(p)
	}
	wg.Wait()
}
