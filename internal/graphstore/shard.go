// Package graphstore implements the local graph shard the step executor
// consults.
package graphstore

import (
	"github.com/google/uuid"

	"github.com/araxia/sparqld/internal/model"
)

// Shard is the local-shard interface the step executor drives. Callers
// may rely on a slice returned by GetEdges/GetIndexEdgesLocal only until
// the next call on the same tid; BadgerShard itself opens a new iterator
// and returns a freshly allocated slice on every call.
type Shard interface {
	// GetEdges returns the targets of (vertex, direction, predicate). tid
	// identifies the calling engine worker; a remote-shard implementation
	// may use it to route the lookup over RDMA, but the local badger shard
	// ignores it.
	GetEdges(tid int, vertex int64, direction model.Direction, predicate int64) ([]int64, error)

	// GetIndexEdgesLocal returns every vertex of type/predicate classID
	// present on the LOCAL shard only.
	GetIndexEdgesLocal(tid int, classID int64, direction model.Direction) ([]int64, error)

	// GetVertexAttr returns the attribute value for (vertex, attrID), and
	// false if no value is set.
	GetVertexAttr(tid int, vertex int64, direction model.Direction, attrID int64) (model.AttrValue, bool, error)

	// Assert writes a batch of edges/attributes loaded in bulk.
	Assert(batch Batch) error

	Close() error
}

// Edge is a directed, labeled edge being loaded into a shard.
type Edge struct {
	Subject   int64
	Predicate int64
	Object    int64
}

// Attr is a vertex attribute value being loaded into a shard.
type Attr struct {
	Vertex int64
	AttrID int64
	Value  model.AttrValue
}

// TypeAssertion records that Vertex is an instance of Class (feeds the
// local type index consulted by the index->unknown step).
type TypeAssertion struct {
	Vertex int64
	Class  int64
}

// Batch is a unit of bulk-loaded data. ID identifies the batch for
// load-diagnostic logging (one per shard flush); it plays no role in the
// write itself.
type Batch struct {
	ID        uuid.UUID
	Edges     []Edge
	Attrs     []Attr
	TypeFacts []TypeAssertion
}
