package engine

import (
	"time"

	"github.com/araxia/sparqld/internal/annotations"
	"github.com/araxia/sparqld/internal/corun"
	"github.com/araxia/sparqld/internal/forkjoin"
	"github.com/araxia/sparqld/internal/model"
	"github.com/araxia/sparqld/internal/wire"
	"github.com/araxia/sparqld/internal/wireid"
)

// dispatch routes a decoded bundle to executeRequest or executeReply. A
// query whose ID is already assigned has necessarily finished executing
// somewhere and is being delivered back to its parent: that is this
// core's operational definition of "reply". Unassigned-ID queries are
// fresh requests awaiting their first step.
func (e *Engine) dispatch(b wire.Bundle) error {
	switch b.Kind {
	case wire.KindSparqlQuery:
		q, err := wire.DecodeQuery(b.Payload)
		if err != nil {
			return err
		}
		if q.ID == 0 {
			return e.executeRequest(q)
		}
		return e.executeReply(q)
	case wire.KindDynamicLoad:
		// Bulk-load bundles are handled by internal/graphstore/ingest
		// directly against a shard; the engine's hot path never needs to
		// decode them, so they are acknowledged and dropped here.
		return nil
	default:
		return nil
	}
}

// executeRequest runs q's step loop until it either finishes or scatters.
func (e *Engine) executeRequest(q *model.Query) error {
	if q.ID == 0 {
		q.ID = e.coder.NextID()
	}

	for !q.IsFinished() {
		if e.log != nil {
			p := q.CurrentPattern()
			e.log.Add(annotations.Event{Name: annotations.StepBegin, Data: map[string]interface{}{
				"qid": q.ID, "step": q.Step, "subject": p.Subject, "predicate": p.Predicate,
				"direction": p.Direction.String(), "object": p.Object,
			}})
		}
		start := time.Now()
		if err := e.exec.Step(q); err != nil {
			if e.log != nil {
				e.log.Add(annotations.Event{Name: annotations.StepError, Data: map[string]interface{}{"qid": q.ID, "err": err.Error()}})
			}
			return err
		}
		if e.log != nil {
			e.log.AddTiming(annotations.StepComplete, start, map[string]interface{}{"qid": q.ID, "step": q.Step})
		}

		if q.CorunStep >= 0 && q.Step == q.CorunStep {
			if e.log != nil {
				e.log.Add(annotations.Event{Name: annotations.CorunBegin, Data: map[string]interface{}{"qid": q.ID, "corun_step": q.CorunStep, "fetch_step": q.FetchStep}})
			}
			corunStart := time.Now()
			if err := corun.Probe(q, localRunner{e}); err != nil {
				return err
			}
			if e.log != nil {
				e.log.AddTiming(annotations.CorunComplete, corunStart, map[string]interface{}{"qid": q.ID})
			}
		}

		if q.IsFinished() {
			break
		}

		if forkjoin.ShouldScatter(q, e.cfg.Topology) {
			e.scatter(q)
			return nil
		}
	}

	e.finish(q)
	return nil
}

// finish ships a completed query back to its requestor, blinding the
// result table first if requested.
func (e *Engine) finish(q *model.Query) {
	if q.Result != nil && q.Result.Blind {
		q.Result.Clear()
	}
	if e.log != nil {
		e.log.Add(annotations.Event{Name: annotations.QueryCompleted, Data: map[string]interface{}{"qid": q.ID, "pid": q.PID}})
	}
	e.sendQuery(int(wireid.SidOf(q.PID)), int(wireid.TidOf(q.PID)), q)
}

// scatter partitions q's result across the cluster, records the reply
// map entry, and dispatches every sub-query.
func (e *Engine) scatter(q *model.Query) {
	subs := forkjoin.Partition(q, e.cfg.Topology)
	e.rmap.Register(*q, len(subs))
	if e.log != nil {
		e.log.Add(annotations.Event{Name: annotations.ScatterDecision, Data: map[string]interface{}{"qid": q.ID, "n": len(subs)}})
		e.log.Add(annotations.Event{Name: annotations.ReplyMapRegistered, Data: map[string]interface{}{"parent_id": q.ID, "count": len(subs)}})
	}

	for i, sub := range subs {
		if i == e.Sid {
			e.pushFastPath(sub)
			continue
		}
		if e.log != nil {
			e.log.Add(annotations.Event{Name: annotations.ScatterDispatch, Data: map[string]interface{}{"dst_sid": i, "tid": e.Tid}})
		}
		e.sendQuery(i, e.Tid, sub)
	}
}

// executeReply folds a finished sub-query into its parent's reply-map
// entry, forwarding the merged reply once every sub-reply has arrived.
func (e *Engine) executeReply(reply *model.Query) error {
	ready, err := e.rmap.Merge(*reply)
	if err != nil {
		if e.log != nil {
			e.log.Add(annotations.Event{Name: annotations.ReplyMapOrphan, Data: map[string]interface{}{"pid": reply.PID}})
		}
		return nil
	}
	if e.log != nil {
		e.log.Add(annotations.Event{Name: annotations.ReplyMapMerged, Data: map[string]interface{}{"pid": reply.PID}})
	}
	if !ready {
		return nil
	}

	parent, ok := e.rmap.Take(reply.PID)
	if !ok {
		return nil
	}
	if e.log != nil {
		e.log.Add(annotations.Event{Name: annotations.ReplyMapForwarded, Data: map[string]interface{}{"qid": parent.ID}})
	}

	// Every sub-query ran its remaining pattern suffix to completion
	// before replying, so the merged table already reflects the full
	// suffix regardless of what parent.Step was recorded at scatter time.
	parent.Step = len(parent.PatternGroup.Patterns)
	e.finish(&parent)
	return nil
}

// sendQuery encodes q as a SPARQL_QUERY bundle and sends it via the
// stash-on-refusal path.
func (e *Engine) sendQuery(dstSid, tid int, q *model.Query) {
	e.send(dstSid, tid, wire.Bundle{Kind: wire.KindSparqlQuery, Payload: wire.EncodeQuery(q)})
}

// localRunner adapts Engine to corun.LocalExecutor: run a sub-query's
// step loop to completion without ever scattering. The co-run probe
// never leaves the local shard.
type localRunner struct{ e *Engine }

func (r localRunner) RunToCompletion(q *model.Query) error {
	for !q.IsFinished() {
		if err := r.e.exec.Step(q); err != nil {
			return err
		}
	}
	return nil
}
