package ingest

import (
	"bufio"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"

	"github.com/araxia/sparqld/internal/graphstore"
	"github.com/araxia/sparqld/internal/model"
)

// ShardOf hash-partitions a vertex id across numShards servers, the same
// xxh3 function the fork-join scatter uses for row partitioning, so a
// vertex's outgoing edges and its own record always land on the shard the
// id hashes to.
func ShardOf(vertex int64, numShards int) int {
	if numShards <= 0 {
		return 0
	}
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(vertex >> (8 * i))
	}
	return int(xxh3.Hash(buf[:]) % uint64(numShards))
}

// Loader streams triples from an N-Triples-shaped reader, interns terms
// through a Dictionary, and assembles a graphstore.Batch per destination
// shard keyed by ShardOf(subject).
type Loader struct {
	dict      *Dictionary
	numShards int
	typeAttr  string // IRI treated as rdf:type, routed to the local type index
	batches   []graphstore.Batch
}

// NewLoader creates a loader targeting numShards destination shards.
// typeAttr names the predicate IRI (e.g. "rdf:type") whose triples are
// routed into the type index rather than the edge index.
func NewLoader(dict *Dictionary, numShards int, typeAttr string) *Loader {
	return &Loader{
		dict:      dict,
		numShards: numShards,
		typeAttr:  typeAttr,
		batches:   make([]graphstore.Batch, numShards),
	}
}

// LoadReader parses every line of r and appends the resulting facts to
// the in-memory per-shard batches. It does not write to storage; call
// Flush to persist.
func (l *Loader) LoadReader(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	n := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		t, ok, err := ParseLine(scanner.Text())
		if err != nil {
			return n, fmt.Errorf("ingest: line %d: %w", lineNo, err)
		}
		if !ok {
			continue
		}
		l.addTriple(t)
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("ingest: scan: %w", err)
	}
	return n, nil
}

func (l *Loader) addTriple(t Triple) {
	subjID := l.dict.Intern(t.Subject)
	shard := ShardOf(subjID, l.numShards)

	if t.Predicate == l.typeAttr && !t.ObjectIsLiteral {
		classID := l.dict.Intern(t.Object)
		l.batches[shard].TypeFacts = append(l.batches[shard].TypeFacts, graphstore.TypeAssertion{
			Vertex: subjID,
			Class:  classID,
		})
		return
	}

	predID := l.dict.Intern(t.Predicate)
	if t.ObjectIsLiteral {
		l.batches[shard].Attrs = append(l.batches[shard].Attrs, graphstore.Attr{
			Vertex: subjID,
			AttrID: predID,
			Value:  model.AttrValueString(t.Object),
		})
		return
	}

	objID := l.dict.Intern(t.Object)
	l.batches[shard].Edges = append(l.batches[shard].Edges, graphstore.Edge{
		Subject:   subjID,
		Predicate: predID,
		Object:    objID,
	})
}

// Flush writes each shard's accumulated batch to its Shard and resets
// the in-memory buffers.
func (l *Loader) Flush(shards []graphstore.Shard) error {
	if len(shards) != l.numShards {
		return fmt.Errorf("ingest: flush: have %d shards, loader configured for %d", len(shards), l.numShards)
	}
	for i, shard := range shards {
		if len(l.batches[i].Edges) == 0 && len(l.batches[i].Attrs) == 0 && len(l.batches[i].TypeFacts) == 0 {
			continue
		}
		batch := l.batches[i]
		batch.ID = uuid.New()
		if err := shard.Assert(batch); err != nil {
			return fmt.Errorf("ingest: flush shard %d (batch %s): %w", i, batch.ID, err)
		}
		l.batches[i] = graphstore.Batch{}
	}
	return nil
}

// NextDictionaryID is the first id a fresh dictionary should assign. It
// is 0, since the core's two fixed selector constants (idspace.PredicateID,
// idspace.TypeID) are negative and never collide with dictionary-assigned
// non-negative ids.
const NextDictionaryID = int64(0)
