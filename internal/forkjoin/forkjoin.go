// Package forkjoin decides between in-place continuation and scattering
// a query's intermediate result across the cluster, and builds the
// resulting sub-queries.
package forkjoin

import (
	"github.com/zeebo/xxh3"

	"github.com/araxia/sparqld/internal/idspace"
	"github.com/araxia/sparqld/internal/model"
)

// Topology carries the cluster facts the scatter decision needs.
type Topology struct {
	NumNodes      int
	RDMACapable   bool
	RDMAThreshold int64
}

// ShouldScatter reports whether the query's current pattern needs its
// intermediate result redistributed across nodes before the next step can
// run: an unbound subject always forces a scatter without RDMA, and with
// RDMA a local-only continuation is allowed until the row count crosses
// the configured threshold.
func ShouldScatter(q *model.Query, topo Topology) bool {
	if q.IsFinished() {
		return false
	}
	nextSubject := q.CurrentPattern().Subject

	if !topo.RDMACapable {
		return idspace.IsVariable(nextSubject)
	}
	return q.LocalVar != nextSubject && int64(q.Result.RowNum) >= topo.RDMAThreshold
}

// Partition hash-partitions q's result rows across topo.NumNodes
// sub-queries by hash(row[subject]) mod N, using the same xxh3 hash the
// bulk loader uses for shard assignment so row placement and storage
// placement agree.
//
// Each returned sub-query inherits PatternGroup/Step/CorunStep/FetchStep
// and the variable->column map; LocalVar is set to the pattern's subject
// variable and PID is set to q.ID.
func Partition(q *model.Query, topo Topology) []*model.Query {
	subject := q.CurrentPattern().Subject
	subjCol, ok := q.Result.ColumnOf(subject)
	if !ok {
		subjCol = 0
	}

	subs := make([]*model.Query, topo.NumNodes)
	for i := range subs {
		sub := &model.Query{
			PatternGroup: q.PatternGroup,
			Step:         q.Step,
			CorunStep:    q.CorunStep,
			FetchStep:    q.FetchStep,
			LocalVar:     subject,
			PID:          q.ID,
			Orders:       q.Orders,
			Limit:        q.Limit,
			Offset:       q.Offset,
			Distinct:     q.Distinct,
			Silent:       q.Silent,
			RequiredVars: q.RequiredVars,
		}
		sub.Result = model.NewResultTable()
		sub.Result.ColNum = q.Result.ColNum
		sub.Result.AttrColNum = q.Result.AttrColNum
		for k, v := range q.Result.Var2Col {
			sub.Result.Var2Col[k] = v
		}
		subs[i] = sub
	}

	for i := 0; i < q.Result.RowNum; i++ {
		target := HashPartition(q.Result.Rows[i][subjCol], topo.NumNodes)
		var attrRow []model.AttrValue
		if len(q.Result.AttrRows) > 0 {
			attrRow = append([]model.AttrValue(nil), q.Result.AttrRows[i]...)
		}
		subs[target].Result.AppendRow(append([]int64(nil), q.Result.Rows[i]...), attrRow)
	}

	return subs
}

// HashPartition returns hash(subjectID) mod numNodes, the partitioning
// function every scatter in the cluster must agree on.
func HashPartition(subjectID int64, numNodes int) int {
	if numNodes <= 0 {
		return 0
	}
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(subjectID >> (8 * i))
	}
	return int(xxh3.Hash(buf[:]) % uint64(numNodes))
}
