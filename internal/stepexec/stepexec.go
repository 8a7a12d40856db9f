// Package stepexec advances a query by one triple pattern against a local
// graph shard, dispatching on the classified kind of the pattern's subject
// and object into one of nine handlers.
package stepexec

import (
	"github.com/araxia/sparqld/internal/graphstore"
	"github.com/araxia/sparqld/internal/idspace"
	"github.com/araxia/sparqld/internal/model"
	"github.com/araxia/sparqld/internal/qerr"
)

// Config carries the feature flags and topology constants the executor
// needs but that live outside any single query.
type Config struct {
	// MtThreshold is the index-striping denominator, equal to the number
	// of engine workers per server.
	MtThreshold int
	// EnableVattr gates whether known->known/known->const carry attribute
	// columns along for the ride.
	EnableVattr bool
	// EnableVersatile gates the unknown-predicate step variants.
	EnableVersatile bool
}

// Executor advances queries against one shard on behalf of one engine
// worker (tid).
type Executor struct {
	shard graphstore.Shard
	tid   int
	cfg   Config
}

// New creates an Executor bound to a shard and a worker id.
func New(shard graphstore.Shard, tid int, cfg Config) *Executor {
	return &Executor{shard: shard, tid: tid, cfg: cfg}
}

// Step advances q by exactly one pattern, replacing q.Result with the
// step's output table and incrementing q.Step on success. Callers must check q.IsFinished() first.
func (e *Executor) Step(q *model.Query) error {
	p := q.CurrentPattern()

	if q.StartsFromIndex(idspace.PredicateID, idspace.TypeID) {
		return e.indexToUnknown(q, p)
	}

	subjKind := idspace.Classify(p.Subject, q.Result.Var2Col)
	objKind := idspace.Classify(p.Object, q.Result.Var2Col)
	predIsVar := idspace.IsVariable(p.Predicate)

	if p.IsAttribute() {
		switch {
		case subjKind == idspace.Const && objKind == idspace.Unknown:
			return e.constToUnknownAttr(q, p)
		case subjKind == idspace.Known && objKind == idspace.Unknown:
			return e.knownToUnknownAttr(q, p)
		default:
			return qerr.New(qerr.UnsupportedPattern, "unsupported attribute pattern kind (%s -> %s)", subjKind, objKind)
		}
	}

	if predIsVar {
		if !e.cfg.EnableVersatile {
			return qerr.New(qerr.UnsupportedFeature, "unknown-predicate steps require enable_versatile")
		}
		if objKind != idspace.Unknown {
			return qerr.New(qerr.UnsupportedPattern, "unknown-predicate pattern requires an unbound object (object %s)", objKind)
		}
		switch subjKind {
		case idspace.Const:
			return e.constUnknownToUnknown(q, p)
		case idspace.Known:
			return e.knownUnknownToUnknown(q, p)
		default:
			return qerr.New(qerr.UnsupportedPattern, "unsupported unknown-predicate pattern starting from %s", subjKind)
		}
	}

	switch {
	case subjKind == idspace.Const && objKind == idspace.Unknown:
		return e.constToUnknown(q, p)
	case subjKind == idspace.Known && objKind == idspace.Unknown:
		return e.knownToUnknown(q, p)
	case subjKind == idspace.Known && objKind == idspace.Known:
		return e.knownToKnown(q, p)
	case subjKind == idspace.Known && objKind == idspace.Const:
		return e.knownToConst(q, p)
	case subjKind == idspace.Const && objKind == idspace.Known:
		return qerr.New(qerr.UnsupportedPattern, "const -> known is not executable (object already bound before subject is matched)")
	default:
		return qerr.New(qerr.UnsupportedPattern, "unsupported pattern starting from %s (object %s)", subjKind, objKind)
	}
}
