// Package proxy implements the worker dedicated to ingress/egress with
// clients: mint an id, route the query into the cluster, wait for the
// merged reply, render it.
package proxy

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/araxia/sparqld/internal/annotations"
	"github.com/araxia/sparqld/internal/cluster"
	"github.com/araxia/sparqld/internal/forkjoin"
	"github.com/araxia/sparqld/internal/idspace"
	"github.com/araxia/sparqld/internal/model"
	"github.com/araxia/sparqld/internal/replymap"
	"github.com/araxia/sparqld/internal/transport"
	"github.com/araxia/sparqld/internal/wire"
	"github.com/araxia/sparqld/internal/wireid"
)

// QueryOptions carries the solution modifiers and co-run range a caller
// attaches to a submitted pattern group, exposed here at the ingress
// boundary.
type QueryOptions struct {
	CorunStep    int
	FetchStep    int
	Orders       []model.Order
	Limit        int64
	Offset       int64
	Distinct     bool
	Silent       bool
	RequiredVars []int64
	// VarNames optionally labels variable ids for result rendering; any
	// variable absent from this map is rendered as "?v<-id>".
	VarNames map[int64]string
}

// stashedSend is one outgoing message a prior Send refused, retried on
// the next sweep (same discipline internal/engine uses).
type stashedSend struct {
	dstSid int
	tid    int
	bundle wire.Bundle
}

// Proxy mints query ids for one (sid, tid) ingress worker, routes fresh
// submissions to the engine owning the first pattern's shard (or fans
// an index-rooted query out across every node), and merges/renders the
// eventual reply.
type Proxy struct {
	Sid int
	Tid int

	NumNodes      int
	firstEngineID int // in-node engine tid fresh submissions target

	SessionID uuid.UUID

	coder *wireid.Coder
	node  *cluster.Node
	tp    transport.Transport
	topo  forkjoin.Topology
	rmap  *replymap.Map
	log   *annotations.Collector

	mu      sync.Mutex
	pending map[int64]chan struct{}

	rrMu   sync.Mutex
	rrNext int

	stashMu sync.Mutex
	stash   []stashedSend
}

// New creates a Proxy for worker (sid, tid), routing own-node fast-path
// submissions through node and everything else through tp.
func New(sid, tid, numNodes int, node *cluster.Node, tp transport.Transport, topo forkjoin.Topology, log *annotations.Collector) *Proxy {
	firstEngineID := 0
	if node != nil {
		firstEngineID = node.NumProxies
	}
	return &Proxy{
		Sid:           sid,
		Tid:           tid,
		NumNodes:      numNodes,
		firstEngineID: firstEngineID,
		SessionID:     uuid.New(),
		coder:         wireid.NewCoder(int64(sid), int64(tid)),
		node:          node,
		tp:            tp,
		topo:          topo,
		rmap:          replymap.New(),
		log:           log,
		pending:       make(map[int64]chan struct{}),
	}
}

// Submit mints a request id, decides where the query's first pattern
// must run, and dispatches it, returning the id Deliver waits on.
//
// A first pattern whose predicate is an index selector (idspace.TypeID
// or idspace.PredicateID) is the index->unknown special case: its
// subject is a class id and each node's index only covers that node's
// shard, so Submit fans it out to every node and lets the reply map
// merge the per-node partial indexes, the same mechanism an in-flight
// scatter uses, just hosted here instead of inside an engine. Every
// other first pattern routes as a single top-level query to the node
// that owns its subject's shard (forkjoin's own hash function, so row
// placement and storage placement agree).
func (p *Proxy) Submit(pg model.PatternGroup, opts QueryOptions) (int64, error) {
	if len(pg.Patterns) == 0 {
		return 0, fmt.Errorf("proxy: pattern group has no patterns")
	}

	reqID := p.coder.NextID()
	root := &model.Query{
		ID:           reqID,
		PID:          reqID,
		PatternGroup: pg,
		Step:         0,
		CorunStep:    opts.CorunStep,
		FetchStep:    opts.FetchStep,
		LocalVar:     -1,
		Result:       model.NewResultTable(),
		Orders:       opts.Orders,
		Limit:        opts.Limit,
		Offset:       opts.Offset,
		Distinct:     opts.Distinct,
		Silent:       opts.Silent,
		RequiredVars: opts.RequiredVars,
	}

	p.mu.Lock()
	p.pending[reqID] = make(chan struct{}, 1)
	p.mu.Unlock()

	first := pg.Patterns[0]
	if first.Predicate != idspace.PredicateID && first.Predicate != idspace.TypeID {
		p.rmap.Register(*root, 1)
		if p.log != nil {
			p.log.Add(annotations.Event{Name: annotations.QuerySubmitted, Data: map[string]interface{}{"id": reqID, "mode": "single"}})
			p.log.Add(annotations.Event{Name: annotations.ReplyMapRegistered, Data: map[string]interface{}{"parent_id": reqID, "count": 1}})
		}
		dst := forkjoin.HashPartition(first.Subject, p.NumNodes)
		sub := root.Clone()
		sub.ID = 0
		p.dispatchTopLevel(dst, sub)
		return reqID, nil
	}

	subs := forkjoin.Partition(root, p.topo)
	p.rmap.Register(*root, len(subs))
	if p.log != nil {
		p.log.Add(annotations.Event{Name: annotations.QuerySubmitted, Data: map[string]interface{}{"id": reqID, "mode": "fanout", "n": len(subs)}})
		p.log.Add(annotations.Event{Name: annotations.ReplyMapRegistered, Data: map[string]interface{}{"parent_id": reqID, "count": len(subs)}})
	}
	for i, sub := range subs {
		p.dispatchTopLevel(i, sub)
	}
	return reqID, nil
}

// dispatchTopLevel ships sub to the engine tier of node dst, taking the
// in-process fast path when dst is this proxy's own node.
func (p *Proxy) dispatchTopLevel(dst int, q *model.Query) {
	if dst == p.Sid && p.node != nil && len(p.node.Engines) > 0 {
		p.rrMu.Lock()
		idx := p.rrNext
		p.rrNext++
		p.rrMu.Unlock()
		p.node.Engines[idx%len(p.node.Engines)].Submit(q)
		return
	}
	p.send(dst, p.firstEngineID, wire.Bundle{Kind: wire.KindSparqlQuery, Payload: wire.EncodeQuery(q)})
}

func (p *Proxy) send(dstSid, tid int, b wire.Bundle) {
	if !p.tp.Send(dstSid, tid, b) {
		p.stashMu.Lock()
		p.stash = append(p.stash, stashedSend{dstSid: dstSid, tid: tid, bundle: b})
		p.stashMu.Unlock()
	}
}

func (p *Proxy) sweepStash() {
	p.stashMu.Lock()
	pending := p.stash
	p.stash = nil
	p.stashMu.Unlock()

	var retry []stashedSend
	for _, s := range pending {
		if !p.tp.Send(s.dstSid, s.tid, s.bundle) {
			retry = append(retry, s)
		}
	}
	if len(retry) > 0 {
		p.stashMu.Lock()
		p.stash = append(retry, p.stash...)
		p.stashMu.Unlock()
	}
}

// Run drains this proxy's inbox until ctx is canceled, merging replies
// into the reply map and waking any Deliver call whose request just
// became ready. Intended to run in its own goroutine, one per proxy
// worker, mirroring the engine's own main loop shape.
func (p *Proxy) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		p.sweepStash()

		b, ok := p.tp.TryRecv(p.Tid)
		if !ok {
			continue
		}
		if b.Kind != wire.KindSparqlQuery {
			continue
		}
		reply, err := wire.DecodeQuery(b.Payload)
		if err != nil {
			continue
		}

		ready, err := p.rmap.Merge(*reply)
		if err != nil {
			if p.log != nil {
				p.log.Add(annotations.Event{Name: annotations.ReplyMapOrphan, Data: map[string]interface{}{"pid": reply.PID}})
			}
			continue
		}
		if !ready {
			continue
		}

		p.mu.Lock()
		ch, ok := p.pending[reply.PID]
		p.mu.Unlock()
		if ok {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}

// Deliver blocks until reqID's reply map entry is fully merged (or
// timeout elapses), applies Distinct/Orders/Limit/Offset, and returns
// the finished table.
func (p *Proxy) Deliver(ctx context.Context, reqID int64, timeout time.Duration) (*model.ResultTable, error) {
	p.mu.Lock()
	ch, ok := p.pending[reqID]
	p.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("proxy: unknown request id %d", reqID)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
	case <-timer.C:
		return nil, fmt.Errorf("proxy: request %d timed out after %s", reqID, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.Lock()
	delete(p.pending, reqID)
	p.mu.Unlock()

	parent, ok := p.rmap.Take(reqID)
	if !ok {
		return nil, fmt.Errorf("proxy: request %d missing from reply map after ready signal", reqID)
	}
	if p.log != nil {
		p.log.Add(annotations.Event{Name: annotations.QueryCompleted, Data: map[string]interface{}{"id": reqID, "rows": parent.Result.RowNum}})
	}

	postProcess(parent.Result, parent.Distinct, parent.Orders)
	applyLimitOffset(parent.Result, parent.Offset, parent.Limit)
	return parent.Result, nil
}

// postProcess applies DISTINCT then ORDER BY, the order the proxy
// chooses to evaluate SPARQL's solution modifiers in; OFFSET/LIMIT are
// applied last, after ordering, by applyLimitOffset.
func postProcess(t *model.ResultTable, distinct bool, orders []model.Order) {
	if distinct {
		dedupe(t)
	}
	if len(orders) > 0 {
		orderBy(t, orders)
	}
}

func dedupe(t *model.ResultTable) {
	seen := make(map[string]struct{}, t.RowNum)
	rows := t.Rows[:0]
	var attrRows [][]model.AttrValue
	if len(t.AttrRows) > 0 {
		attrRows = t.AttrRows[:0]
	}
	for i, row := range t.Rows {
		key := rowKey(row)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		rows = append(rows, row)
		if attrRows != nil {
			attrRows = append(attrRows, t.AttrRows[i])
		}
	}
	t.Rows = rows
	t.AttrRows = attrRows
	t.RowNum = len(rows)
}

func rowKey(row []int64) string {
	b := make([]byte, 0, len(row)*8)
	for _, v := range row {
		b = append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24), byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
	}
	return string(b)
}

func orderBy(t *model.ResultTable, orders []model.Order) {
	idx := make([]int, t.RowNum)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		i, j := idx[a], idx[b]
		for _, ord := range orders {
			c := compareRows(t, i, j, ord.Var)
			if c == 0 {
				continue
			}
			if ord.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	rows := make([][]int64, t.RowNum)
	var attrRows [][]model.AttrValue
	if len(t.AttrRows) > 0 {
		attrRows = make([][]model.AttrValue, t.RowNum)
	}
	for newPos, oldPos := range idx {
		rows[newPos] = t.Rows[oldPos]
		if attrRows != nil {
			attrRows[newPos] = t.AttrRows[oldPos]
		}
	}
	t.Rows = rows
	t.AttrRows = attrRows
}

func compareRows(t *model.ResultTable, i, j int, varID int64) int {
	if col, ok := t.ColumnOf(varID); ok {
		a, b := t.Rows[i][col], t.Rows[j][col]
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
	if col, _, ok := t.AttrColumnOf(varID); ok {
		a, b := t.AttrRows[i][col], t.AttrRows[j][col]
		return compareAttr(a, b)
	}
	return 0
}

func compareAttr(a, b model.AttrValue) int {
	as, bs := a.String(), b.String()
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

// applyLimitOffset slices t's rows to [offset, offset+limit); limit < 0
// means unlimited.
func applyLimitOffset(t *model.ResultTable, offset, limit int64) {
	if offset <= 0 && limit < 0 {
		return
	}
	start := int(offset)
	if start > t.RowNum {
		start = t.RowNum
	}
	end := t.RowNum
	if limit >= 0 && start+int(limit) < end {
		end = start + int(limit)
	}

	t.Rows = append([][]int64(nil), t.Rows[start:end]...)
	if len(t.AttrRows) > 0 {
		t.AttrRows = append([][]model.AttrValue(nil), t.AttrRows[start:end]...)
	}
	t.RowNum = len(t.Rows)
}
