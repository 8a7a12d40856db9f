package forkjoin

import (
	"testing"

	"github.com/araxia/sparqld/internal/model"
)

func newQuery(patterns []model.Pattern) *model.Query {
	q := &model.Query{PatternGroup: model.PatternGroup{Patterns: patterns}}
	q.Result = model.NewResultTable()
	return q
}

func TestShouldScatterNonRDMA(t *testing.T) {
	topo := Topology{NumNodes: 4, RDMACapable: false}

	varSubject := newQuery([]model.Pattern{{Subject: -1}})
	if !ShouldScatter(varSubject, topo) {
		t.Fatal("a variable subject should scatter on non-RDMA topologies")
	}

	constSubject := newQuery([]model.Pattern{{Subject: 5}})
	if ShouldScatter(constSubject, topo) {
		t.Fatal("a constant subject should never scatter")
	}

	finished := newQuery(nil)
	if ShouldScatter(finished, topo) {
		t.Fatal("a finished query should never scatter")
	}
}

func TestShouldScatterRDMA(t *testing.T) {
	topo := Topology{NumNodes: 4, RDMACapable: true, RDMAThreshold: 100}

	q := newQuery([]model.Pattern{{Subject: -1}})
	q.LocalVar = -1
	q.Result.RowNum = 1000
	if ShouldScatter(q, topo) {
		t.Fatal("matching LocalVar means rows are already partitioned on subject; should not re-scatter")
	}

	q.LocalVar = -2
	q.Result.RowNum = 50
	if ShouldScatter(q, topo) {
		t.Fatal("below RDMAThreshold should stay local even with a new partition var")
	}

	q.Result.RowNum = 500
	if !ShouldScatter(q, topo) {
		t.Fatal("above RDMAThreshold with a new partition var should scatter")
	}
}

func TestHashPartitionDeterministicAndInRange(t *testing.T) {
	const n = 8
	target := HashPartition(12345, n)
	if target < 0 || target >= n {
		t.Fatalf("HashPartition out of range: %d", target)
	}
	if HashPartition(12345, n) != target {
		t.Fatal("HashPartition should be deterministic for the same inputs")
	}
	if HashPartition(0, 0) != 0 {
		t.Fatal("HashPartition should guard against numNodes <= 0")
	}
}

func TestPartitionDistributesRowsAndMetadata(t *testing.T) {
	q := newQuery([]model.Pattern{{Subject: -1}})
	q.ID = 777
	q.Result.ColNum = 1
	q.Result.BindVar(-1, 0)
	for i := int64(0); i < 50; i++ {
		q.Result.AppendRow([]int64{i}, nil)
	}

	topo := Topology{NumNodes: 4}
	subs := Partition(q, topo)

	if len(subs) != 4 {
		t.Fatalf("Partition produced %d sub-queries, want 4", len(subs))
	}

	total := 0
	for idx, sub := range subs {
		if sub.PID != q.ID {
			t.Fatalf("sub.PID = %d, want %d", sub.PID, q.ID)
		}
		if sub.LocalVar != -1 {
			t.Fatalf("sub.LocalVar = %d, want -1 (the partitioning subject)", sub.LocalVar)
		}
		if sub.Result.ColNum != q.Result.ColNum {
			t.Fatal("sub-query should inherit ColNum")
		}
		for _, row := range sub.Result.Rows {
			if HashPartition(row[0], topo.NumNodes) != idx {
				t.Fatalf("row %d landed in sub-query %d, want %d", row[0], idx, HashPartition(row[0], topo.NumNodes))
			}
		}
		total += sub.Result.RowNum
	}
	if total != 50 {
		t.Fatalf("sub-queries hold %d rows total, want 50", total)
	}
}

func TestPartitionOfEmptyQueryProducesEmptySubs(t *testing.T) {
	q := newQuery([]model.Pattern{{Subject: -1}})
	q.Result.ColNum = 0

	subs := Partition(q, Topology{NumNodes: 3})
	if len(subs) != 3 {
		t.Fatalf("want 3 sub-queries, got %d", len(subs))
	}
	for _, sub := range subs {
		if sub.Result.RowNum != 0 {
			t.Fatal("partitioning an empty query should produce empty sub-queries")
		}
	}
}
