// Package engine implements the per-worker query execution loop: the
// fast-path list, pending-send stash, own-transport-queue dispatch, and
// optional work-stealing.
package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/araxia/sparqld/internal/annotations"
	"github.com/araxia/sparqld/internal/forkjoin"
	"github.com/araxia/sparqld/internal/graphstore"
	"github.com/araxia/sparqld/internal/model"
	"github.com/araxia/sparqld/internal/replymap"
	"github.com/araxia/sparqld/internal/stepexec"
	"github.com/araxia/sparqld/internal/transport"
	"github.com/araxia/sparqld/internal/wire"
	"github.com/araxia/sparqld/internal/wireid"
)

// Config bundles the per-worker tunables the engine needs beyond the
// step executor's own Config.
type Config struct {
	Step               stepexec.Config
	Topology           forkjoin.Topology
	EnableWorkStealing bool
	TimeoutThreshold   time.Duration // how long a worker waits idle before ceding to a neighbor's steal
}

// stashedSend is one outgoing message that a prior send() refused.
type stashedSend struct {
	dstSid int
	tid    int
	bundle wire.Bundle
}

// Engine drives query execution for one (sid, tid) worker.
type Engine struct {
	Sid int
	Tid int

	cfg   Config
	coder *wireid.Coder
	exec  *stepexec.Executor
	rmap  *replymap.Map
	tp    transport.Transport
	log   *annotations.Collector

	fastMu   sync.Mutex
	fastPath []*model.Query

	stashMu sync.Mutex
	stash   []stashedSend

	// lastActivityNano is a unix-nano timestamp updated at the start of
	// the own-queue, fast-path and work-stealing steps, read by neighbors
	// deciding whether to steal from this worker.
	lastActivityNano atomic.Int64

	// neighbor is the paired worker consulted for work-stealing, wired by
	// internal/cluster at process start. Nil disables stealing regardless
	// of cfg.EnableWorkStealing.
	neighbor *Engine
}

// New creates an Engine for worker (sid, tid) against shard, using tp for
// inter-node messaging and log (may be nil) for execution annotations.
func New(sid, tid int, shard graphstore.Shard, tp transport.Transport, cfg Config, log *annotations.Collector) *Engine {
	e := &Engine{
		Sid:   sid,
		Tid:   tid,
		cfg:   cfg,
		coder: wireid.NewCoder(int64(sid), int64(tid)),
		exec:  stepexec.New(shard, tid, cfg.Step),
		rmap:  replymap.New(),
		tp:    tp,
		log:   log,
	}
	e.touch()
	return e
}

// SetNeighbor wires the paired worker this engine may steal work from.
// Called once by internal/cluster at process start.
func (e *Engine) SetNeighbor(n *Engine) { e.neighbor = n }

func (e *Engine) touch() {
	e.lastActivityNano.Store(time.Now().UnixNano())
}

// IdleSince reports how long it has been since this engine's last
// activity tick.
func (e *Engine) IdleSince() time.Duration {
	last := e.lastActivityNano.Load()
	return time.Duration(time.Now().UnixNano() - last)
}

// Submit pushes a freshly submitted top-level query onto this engine's
// fast-path list (used by internal/proxy when the query's first pattern
// targets this node's shard).
func (e *Engine) Submit(q *model.Query) {
	e.pushFastPath(q)
}

func (e *Engine) pushFastPath(q *model.Query) {
	e.fastMu.Lock()
	e.fastPath = append(e.fastPath, q)
	e.fastMu.Unlock()
	if e.log != nil {
		e.log.Add(annotations.Event{Name: annotations.FastPathPush, Data: map[string]interface{}{"sid": e.Sid, "tid": e.Tid, "qid": q.ID}})
	}
}

func (e *Engine) popFastPath() (*model.Query, bool) {
	e.fastMu.Lock()
	defer e.fastMu.Unlock()
	if len(e.fastPath) == 0 {
		return nil, false
	}
	q := e.fastPath[0]
	e.fastPath = e.fastPath[1:]
	return q, true
}

func (e *Engine) stashSend(dstSid, tid int, b wire.Bundle) {
	e.stashMu.Lock()
	e.stash = append(e.stash, stashedSend{dstSid: dstSid, tid: tid, bundle: b})
	e.stashMu.Unlock()
	if e.log != nil {
		e.log.Add(annotations.Event{Name: annotations.TransportStash, Data: map[string]interface{}{"sid": e.Sid, "tid": e.Tid}})
	}
}

// sweepStash retries every stashed send once, keeping only the ones that
// still refuse.
func (e *Engine) sweepStash() {
	e.stashMu.Lock()
	pending := e.stash
	e.stash = nil
	e.stashMu.Unlock()

	var retry []stashedSend
	for _, s := range pending {
		if !e.tp.Send(s.dstSid, s.tid, s.bundle) {
			retry = append(retry, s)
			if e.log != nil {
				e.log.Add(annotations.Event{Name: annotations.TransportRetry, Data: map[string]interface{}{"sid": e.Sid, "tid": e.Tid}})
			}
		}
	}
	if len(retry) > 0 {
		e.stashMu.Lock()
		e.stash = append(retry, e.stash...)
		e.stashMu.Unlock()
	}
}

// send attempts a direct send and stashes on refusal, the one path every
// outbound message in this package takes.
func (e *Engine) send(dstSid, tid int, b wire.Bundle) {
	if !e.tp.Send(dstSid, tid, b) {
		e.stashSend(dstSid, tid, b)
	}
}
