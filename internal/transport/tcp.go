package transport

import (
	"bufio"
	"fmt"
	"net"
	"sync"

	"github.com/araxia/sparqld/internal/wire"
)

// TCPTransport maintains one persistent net.Conn per ordered (src, dst)
// node pair, framing messages with internal/wire, and a bounded
// per-connection write queue whose overflow reports false rather than
// blocking — the same non-blocking-send contract LocalTransport gives
// tests, but over real sockets. TCP is never treated as RDMA-capable.
type TCPTransport struct {
	selfSid int
	mu      sync.Mutex
	conns   map[int]*nodeConn
	recvMu  sync.Mutex
	recvQ   map[int]chan wire.Bundle
	depth   int
}

type nodeConn struct {
	conn   net.Conn
	outbox chan []byte
	done   chan struct{}
}

// NewTCPTransport creates a transport for the node at selfSid. Peer
// connections are established lazily via Dial.
func NewTCPTransport(selfSid int, queueDepth int) *TCPTransport {
	if queueDepth <= 0 {
		queueDepth = 1024
	}
	return &TCPTransport{
		selfSid: selfSid,
		conns:   make(map[int]*nodeConn),
		recvQ:   make(map[int]chan wire.Bundle),
		depth:   queueDepth,
	}
}

// Dial registers an outbound connection to the peer node at dstSid and
// starts its write pump.
func (t *TCPTransport) Dial(dstSid int, addr string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	t.adopt(dstSid, conn)
	return nil
}

// Adopt registers an inbound connection accepted by a listener, keyed by
// the peer node id the caller has already identified (e.g. via a
// handshake outside this package's scope).
func (t *TCPTransport) Adopt(peerSid int, conn net.Conn) {
	t.adopt(peerSid, conn)
}

func (t *TCPTransport) adopt(peerSid int, conn net.Conn) {
	nc := &nodeConn{conn: conn, outbox: make(chan []byte, t.depth), done: make(chan struct{})}
	t.mu.Lock()
	t.conns[peerSid] = nc
	t.mu.Unlock()

	go t.writePump(nc)
	go t.readPump(peerSid, nc)
}

func (t *TCPTransport) writePump(nc *nodeConn) {
	for {
		select {
		case frame := <-nc.outbox:
			if _, err := nc.conn.Write(frame); err != nil {
				close(nc.done)
				return
			}
		case <-nc.done:
			return
		}
	}
}

func (t *TCPTransport) readPump(peerSid int, nc *nodeConn) {
	r := bufio.NewReader(nc.conn)
	header := make([]byte, 5)
	for {
		if _, err := readFull(r, header); err != nil {
			return
		}
		kind := header[0]
		n := le32(header[1:5])
		payload := make([]byte, n)
		if _, err := readFull(r, payload); err != nil {
			return
		}
		b := wire.Bundle{Kind: kind, Payload: payload}

		t.recvMu.Lock()
		ch, ok := t.recvQ[peerSid]
		if !ok {
			ch = make(chan wire.Bundle, t.depth)
			t.recvQ[peerSid] = ch
		}
		t.recvMu.Unlock()

		// Blocks while the receive queue is full rather than dropping b:
		// the sender's Send already reported success, so a drop here would
		// lose the message.
		ch <- b
	}
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	read := 0
	for read < len(buf) {
		n, err := r.Read(buf[read:])
		read += n
		if err != nil {
			return read, err
		}
	}
	return read, nil
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// Send frames and enqueues b for dstSid. tid is ignored: a frame carries
// no destination worker id, so every worker on the peer node reads from
// the same per-source receive queue. Returns false without blocking if the
// connection's write queue is full or no connection exists yet.
func (t *TCPTransport) Send(dstSid int, tid int, b wire.Bundle) bool {
	t.mu.Lock()
	nc, ok := t.conns[dstSid]
	t.mu.Unlock()
	if !ok {
		return false
	}

	frame := wire.EncodeBundle(b)
	select {
	case nc.outbox <- frame:
		return true
	default:
		return false
	}
}

// TryRecv non-blockingly pops one bundle received from peerSid. tid is
// unused at this layer; see Send's comment.
func (t *TCPTransport) TryRecv(peerSid int) (wire.Bundle, bool) {
	t.recvMu.Lock()
	ch, ok := t.recvQ[peerSid]
	t.recvMu.Unlock()
	if !ok {
		return wire.Bundle{}, false
	}
	select {
	case b := <-ch:
		return b, true
	default:
		return wire.Bundle{}, false
	}
}

// RDMACapable is always false: TCP cannot serve remote edge-reads, so
// the fork-join scatter decision falls back to its non-RDMA rule.
func (t *TCPTransport) RDMACapable() bool { return false }

func (t *TCPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, nc := range t.conns {
		_ = nc.conn.Close()
	}
	return nil
}
