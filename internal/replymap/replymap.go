// Package replymap tracks sub-queries in flight for a scattered query and
// merges their replies back into one result table.
package replymap

import (
	"fmt"
	"sync"

	"github.com/araxia/sparqld/internal/model"
)

type item struct {
	remaining    int
	parentQuery  model.Query
	mergedResult model.ResultTable
}

// Map is a single mutex-guarded table from parent query id to the count
// of outstanding sub-replies and the result table merged so far. One Map
// is owned per engine worker; every read-modify-write runs under the
// same mutex so a register/merge race can never drop a reply.
type Map struct {
	mu    sync.Mutex
	items map[int64]*item
}

// New creates an empty reply map.
func New() *Map {
	return &Map{items: make(map[int64]*item)}
}

// Register records a parent query about to be scattered into count
// sub-queries. The merge target starts empty; its column counts and
// variable->column map are taken from the first merged reply.
func (m *Map) Register(parent model.Query, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[parent.ID] = &item{
		remaining:   count,
		parentQuery: parent,
	}
}

// Merge folds a sub-reply into its parent's accumulating result and
// reports whether every expected sub-reply has now arrived. The decrement
// and the readiness check run under one lock acquisition so callers can't
// interleave them and observe a torn state.
func (m *Map) Merge(reply model.Query) (ready bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[reply.PID]
	if !ok {
		return false, fmt.Errorf("replymap: reply for unknown parent query %d", reply.PID)
	}
	it.remaining--

	if reply.Result != nil {
		it.mergedResult.Blind = reply.Result.Blind
		it.mergedResult.AppendTable(reply.Result)
	}

	return it.remaining <= 0, nil
}

// Take removes and returns the parent query with its merged result
// attached, once Merge has reported ready. Calling Take before the count
// has reached zero is a caller bug; it
// still returns what has accumulated so far rather than panicking, since
// a late duplicate delivery must never crash a worker.
func (m *Map) Take(pid int64) (model.Query, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[pid]
	if !ok {
		return model.Query{}, false
	}
	delete(m.items, pid)

	parent := it.parentQuery
	merged := it.mergedResult
	parent.Result = &merged
	return parent, true
}

// Pending reports the number of sub-replies still outstanding for pid,
// for diagnostics and annotation events.
func (m *Map) Pending(pid int64) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[pid]
	if !ok {
		return 0, false
	}
	return it.remaining, true
}
