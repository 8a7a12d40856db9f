package engine

import (
	"context"

	"github.com/araxia/sparqld/internal/annotations"
)

// Run drives this engine's main loop until ctx is canceled, checking in
// priority order: sweep pending sends, fast-path, own transport queue,
// optional work-stealing. Every primitive here is non-blocking, so the
// loop spins; callers typically run it in its own goroutine, one per
// (sid, tid) worker.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		e.sweepStash()

		if q, ok := e.popFastPath(); ok {
			e.touch()
			if err := e.executeRequest(q); err != nil && e.log != nil {
				e.log.Add(annotations.Event{Name: annotations.StepError, Data: map[string]interface{}{"qid": q.ID, "err": err.Error()}})
			}
			continue
		}

		e.touch()
		if b, ok := e.tp.TryRecv(e.Tid); ok {
			if err := e.dispatch(b); err != nil && e.log != nil {
				e.log.Add(annotations.Event{Name: annotations.StepError, Data: map[string]interface{}{"err": err.Error()}})
			}
			continue
		}

		if e.tryStealFromNeighbor() {
			continue
		}
	}
}

// tryStealFromNeighbor: if work-stealing is enabled and the paired
// neighbor has been idle past the timeout threshold, pop one message from
// its queue and execute it here. Replies
// merged this way write into the neighbor's reply map, so the eventual
// forward still happens from the owning worker.
func (e *Engine) tryStealFromNeighbor() bool {
	if !e.cfg.EnableWorkStealing || e.neighbor == nil {
		return false
	}
	if e.neighbor.IdleSince() < e.cfg.TimeoutThreshold {
		return false
	}

	e.touch()
	b, ok := e.tp.TryRecv(e.neighbor.Tid)
	if !ok {
		return false
	}
	if e.log != nil {
		e.log.Add(annotations.Event{Name: annotations.WorkStealClaim, Data: map[string]interface{}{"thief_tid": e.Tid, "victim_tid": e.neighbor.Tid}})
	}
	if err := e.neighbor.dispatch(b); err != nil && e.log != nil {
		e.log.Add(annotations.Event{Name: annotations.StepError, Data: map[string]interface{}{"err": err.Error()}})
	}
	return true
}
