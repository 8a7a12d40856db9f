package transport

import (
	"sync"

	"github.com/araxia/sparqld/internal/wire"
)

// LocalFabric is the shared switchboard behind every LocalTransport view
// onto it: one channel per (sid, tid) destination, created lazily. A
// single-process simulation of an N-node cluster shares one fabric
// across N LocalTransport instances (one per simulated sid); a
// standalone test that only needs one node can let NewLocalTransport
// allocate a private fabric.
type LocalFabric struct {
	mu     sync.Mutex
	queues map[key]chan wire.Bundle
	depth  int
}

type key struct {
	sid int
	tid int
}

// NewLocalFabric creates an empty fabric with the given per-destination
// queue depth (defaulting to 1024 when depth <= 0).
func NewLocalFabric(queueDepth int) *LocalFabric {
	if queueDepth <= 0 {
		queueDepth = 1024
	}
	return &LocalFabric{queues: make(map[key]chan wire.Bundle), depth: queueDepth}
}

func (f *LocalFabric) queueFor(sid, tid int) chan wire.Bundle {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := key{sid, tid}
	ch, ok := f.queues[k]
	if !ok {
		ch = make(chan wire.Bundle, f.depth)
		f.queues[k] = ch
	}
	return ch
}

// LocalTransport is one node's view onto a LocalFabric: Send never
// blocks — a full destination channel reports false so the caller
// stashes and retries, preserving the contract the engine main loop
// relies on; TryRecv only ever drains this view's own (selfSid, tid)
// channels.
type LocalTransport struct {
	fabric  *LocalFabric
	rdma    bool
	selfSid int
}

// NewLocalTransport creates a LocalTransport rooted at selfSid with its
// own private fabric, for a single simulated node or a unit test that
// never needs a peer.
func NewLocalTransport(selfSid int, queueDepth int, rdmaCapable bool) *LocalTransport {
	return NewLocalTransportOnFabric(NewLocalFabric(queueDepth), selfSid, rdmaCapable)
}

// NewLocalTransportOnFabric creates a LocalTransport rooted at selfSid
// sharing fabric with every other node's view, the configuration a
// single-binary multi-node simulation uses.
func NewLocalTransportOnFabric(fabric *LocalFabric, selfSid int, rdmaCapable bool) *LocalTransport {
	return &LocalTransport{fabric: fabric, rdma: rdmaCapable, selfSid: selfSid}
}

// Send enqueues b for (dstSid, tid), returning false (never blocking)
// if the destination's queue is full.
func (t *LocalTransport) Send(dstSid int, tid int, b wire.Bundle) bool {
	ch := t.fabric.queueFor(dstSid, tid)
	select {
	case ch <- b:
		return true
	default:
		return false
	}
}

// TryRecv non-blockingly pops one bundle destined for this node's
// worker tid.
func (t *LocalTransport) TryRecv(tid int) (wire.Bundle, bool) {
	ch := t.fabric.queueFor(t.selfSid, tid)
	select {
	case b := <-ch:
		return b, true
	default:
		return wire.Bundle{}, false
	}
}

// RDMACapable reports whether this transport should be treated as
// RDMA-capable for the fork-join scatter decision.
func (t *LocalTransport) RDMACapable() bool { return t.rdma }

func (t *LocalTransport) Close() error { return nil }
