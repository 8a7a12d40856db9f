package graphstore

import (
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/araxia/sparqld/internal/idspace"
	"github.com/araxia/sparqld/internal/model"
)

// BadgerShard stores one node's slice of the partitioned graph in a local
// BadgerDB instance: larger memtables and block cache for a read-heavy
// traversal workload, conflict detection disabled since this core never
// runs concurrent read-write transactions against the same shard.
type BadgerShard struct {
	db *badger.DB
}

// OpenBadgerShard opens (creating if absent) a BadgerDB-backed shard at path.
func OpenBadgerShard(path string) (*BadgerShard, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.MemTableSize = 128 << 20
	opts.BlockCacheSize = 256 << 20
	opts.IndexCacheSize = 100 << 20
	opts.DetectConflicts = false
	opts.NumCompactors = 4
	opts.ValueThreshold = 1 << 10

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("graphstore: open badger shard: %w", err)
	}
	return &BadgerShard{db: db}, nil
}

func (s *BadgerShard) Close() error { return s.db.Close() }

// GetEdges returns the targets of (vertex, direction, predicate), in
// ascending target order (badger's native key ordering, see keys.go).
func (s *BadgerShard) GetEdges(_ int, vertex int64, direction model.Direction, predicate int64) ([]int64, error) {
	prefix := prefixOut
	if direction == model.IN {
		prefix = prefixIn
	}
	scanPrefix := edgeScanPrefix(prefix, vertex, predicate)

	var out []int64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(scanPrefix); it.ValidForPrefix(scanPrefix); it.Next() {
			out = append(out, decodeTail(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return out, err
}

// GetIndexEdgesLocal returns every vertex asserted as an instance of
// classID on this shard. The `direction` parameter is accepted for
// interface symmetry with GetEdges; the local type index is direction-less
// (it always maps class -> instances).
func (s *BadgerShard) GetIndexEdgesLocal(_ int, classID int64, _ model.Direction) ([]int64, error) {
	scanPrefix := typeScanPrefix(classID)
	var out []int64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(scanPrefix); it.ValidForPrefix(scanPrefix); it.Next() {
			out = append(out, decodeTail(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return out, err
}

// GetVertexAttr returns the attribute value for (vertex, attrID).
func (s *BadgerShard) GetVertexAttr(_ int, vertex int64, _ model.Direction, attrID int64) (model.AttrValue, bool, error) {
	key := attrKey(vertex, attrID)
	var val model.AttrValue
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(b []byte) error {
			v, derr := decodeAttr(b)
			if derr != nil {
				return derr
			}
			val, found = v, true
			return nil
		})
	})
	return val, found, err
}

// Assert writes a batch of edges, type facts and attributes.
func (s *BadgerShard) Assert(batch Batch) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, e := range batch.Edges {
			if err := txn.Set(edgeKey(prefixOut, e.Subject, e.Predicate, e.Object), nil); err != nil {
				return err
			}
			if err := txn.Set(edgeKey(prefixIn, e.Object, e.Predicate, e.Subject), nil); err != nil {
				return err
			}
			// Every asserted edge also registers its predicate under the
			// PredicateID selector, so the unknown-predicate step variants
			// (stepexec's const/known -> ? -> unknown) can enumerate a
			// vertex's predicates with the same GetEdges call they use for
			// ordinary traversal.
			if err := txn.Set(edgeKey(prefixOut, e.Subject, idspace.PredicateID, e.Predicate), nil); err != nil {
				return err
			}
			if err := txn.Set(edgeKey(prefixIn, e.Object, idspace.PredicateID, e.Predicate), nil); err != nil {
				return err
			}
		}
		for _, t := range batch.TypeFacts {
			if err := txn.Set(typeKey(t.Class, t.Vertex), nil); err != nil {
				return err
			}
		}
		for _, a := range batch.Attrs {
			if err := txn.Set(attrKey(a.Vertex, a.AttrID), encodeAttr(a.Value)); err != nil {
				return err
			}
		}
		return nil
	})
}

// CountIndexLocal counts the instances of classID on this shard without
// fetching their ids, for diagnostics.
func (s *BadgerShard) CountIndexLocal(classID int64) (int64, error) {
	scanPrefix := typeScanPrefix(classID)
	var n int64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(scanPrefix); it.ValidForPrefix(scanPrefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}
