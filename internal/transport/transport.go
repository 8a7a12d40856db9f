// Package transport implements the non-blocking send/try-receive message
// substrate the engine main loop drives.
package transport

import "github.com/araxia/sparqld/internal/wire"

// Transport is the send/try-receive interface the engine main loop
// consumes. Send never blocks: it either enqueues the bundle or reports
// false, in which case the caller is responsible for stashing the
// message and retrying. TryRecv never blocks either: it reports false
// when no message is currently queued for (dstSid, tid).
type Transport interface {
	Send(dstSid int, tid int, b wire.Bundle) bool
	TryRecv(tid int) (wire.Bundle, bool)
	Close() error
}

// Capable reports whether a transport supports RDMA-class remote reads,
// which the fork-join scatter decision needs. Concrete transports that
// cannot serve remote edge-reads (e.g. TCPTransport) return false.
type Capable interface {
	RDMACapable() bool
}
