package queue_test

import (
	"fmt"
	"testing"

	"github.com/sealdesk/sealdesk/internal/queue"
)

func TestPlan_Tiers(t *testing.T) {
	tests := []struct {
		queueLen   int
		numBatches int
		batchSize  int
	}{
		{0, 0, 0},
		{1, 1, 1},
		{10, 1, 10},
		{11, 2, 6},    // 2+min(1,0)=2, ceil(11/2)
		{50, 3, 17},   // 2+min(1,2)=3, ceil(50/3)
		{51, 5, 11},   // 4+min(4,1)=5, ceil(51/5)
		{75, 5, 15},   // 4+min(4,1)=5, ceil(75/5)
		{200, 8, 25},  // 4+min(4,4)=8, ceil(200/8)
		{201, 12, 17}, // 10+min(10,2)=12, min(20, ceil(201/12))
		{1000, 20, 20},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("len=%d", tc.queueLen), func(t *testing.T) {
			p := queue.Plan(tc.queueLen)
			if p.NumBatches != tc.numBatches || p.BatchSize != tc.batchSize {
				t.Fatalf("Plan(%d) = (%d, %d), want (%d, %d)",
					tc.queueLen, p.NumBatches, p.BatchSize, tc.numBatches, tc.batchSize)
			}
		})
	}
}

// TestPlan_CoversBelowCapTier verifies that outside the capped top tier the
// planned batches always span the full queue, with the last batch absorbing
// the ceiling-division remainder.
func TestPlan_CoversBelowCapTier(t *testing.T) {
	for n := 0; n <= 200; n++ {
		p := queue.Plan(n)
		if !p.Covers(n) {
			t.Fatalf("Plan(%d) = (%d, %d) does not cover the queue",
				n, p.NumBatches, p.BatchSize)
		}
		if n > 0 && p.NumBatches*p.BatchSize >= n+p.BatchSize {
			t.Fatalf("Plan(%d) = (%d, %d) over-partitions: an entire batch would be empty",
				n, p.NumBatches, p.BatchSize)
		}
	}
}

func TestPlan_CapAtHighLoad(t *testing.T) {
	for _, n := range []int{201, 500, 1000, 10000} {
		p := queue.Plan(n)
		if p.BatchSize > 20 {
			t.Fatalf("Plan(%d): batch size %d exceeds cap", n, p.BatchSize)
		}
		if p.NumBatches < 10 || p.NumBatches > 20 {
			t.Fatalf("Plan(%d): %d batches outside [10,20]", n, p.NumBatches)
		}
	}
}

// TestPlan_DrainPartitionExhaustive drains a real queue according to its plan
// and checks that no items are left behind for lengths the plan fully covers.
func TestPlan_DrainPartitionExhaustive(t *testing.T) {
	for _, n := range []int{1, 10, 11, 50, 51, 75, 200} {
		q := queue.New()
		for i := 0; i < n; i++ {
			q.Enqueue(payment(fmt.Sprintf("acc-%d", i)))
		}

		p := queue.Plan(q.Len())
		drained := 0
		for b := 0; b < p.NumBatches; b++ {
			drained += len(q.DrainBatch(p.BatchSize))
		}

		if drained != n {
			t.Fatalf("len=%d: drained %d items", n, drained)
		}
		if q.Len() != 0 {
			t.Fatalf("len=%d: %d items left behind", n, q.Len())
		}
	}
}
