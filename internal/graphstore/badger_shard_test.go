package graphstore

import (
	"testing"

	"github.com/google/uuid"

	"github.com/araxia/sparqld/internal/model"
)

func openTestShard(t *testing.T) *BadgerShard {
	t.Helper()
	shard, err := OpenBadgerShard(t.TempDir())
	if err != nil {
		t.Fatalf("OpenBadgerShard: %v", err)
	}
	t.Cleanup(func() { shard.Close() })
	return shard
}

func TestBadgerShardAssertAndGetEdges(t *testing.T) {
	shard := openTestShard(t)

	batch := Batch{
		ID: uuid.New(),
		Edges: []Edge{
			{Subject: 1, Predicate: 10, Object: 2},
			{Subject: 1, Predicate: 10, Object: 3},
			{Subject: 4, Predicate: 10, Object: 2},
		},
	}
	if err := shard.Assert(batch); err != nil {
		t.Fatalf("Assert: %v", err)
	}

	out, err := shard.GetEdges(0, 1, model.OUT, 10)
	if err != nil {
		t.Fatalf("GetEdges: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("GetEdges(1, OUT, 10) = %v, want 2 targets", out)
	}

	in, err := shard.GetEdges(0, 2, model.IN, 10)
	if err != nil {
		t.Fatalf("GetEdges: %v", err)
	}
	if len(in) != 2 {
		t.Fatalf("GetEdges(2, IN, 10) = %v, want 2 sources", in)
	}
}

func TestBadgerShardTypeIndex(t *testing.T) {
	shard := openTestShard(t)

	batch := Batch{
		TypeFacts: []TypeAssertion{
			{Vertex: 100, Class: 5},
			{Vertex: 101, Class: 5},
			{Vertex: 200, Class: 6},
		},
	}
	if err := shard.Assert(batch); err != nil {
		t.Fatalf("Assert: %v", err)
	}

	members, err := shard.GetIndexEdgesLocal(0, 5, model.OUT)
	if err != nil {
		t.Fatalf("GetIndexEdgesLocal: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("GetIndexEdgesLocal(class 5) = %v, want 2 members", members)
	}

	n, err := shard.CountIndexLocal(6)
	if err != nil {
		t.Fatalf("CountIndexLocal: %v", err)
	}
	if n != 1 {
		t.Fatalf("CountIndexLocal(class 6) = %d, want 1", n)
	}
}

func TestBadgerShardVertexAttr(t *testing.T) {
	shard := openTestShard(t)

	batch := Batch{
		Attrs: []Attr{
			{Vertex: 1, AttrID: 50, Value: model.AttrValueString("alice")},
		},
	}
	if err := shard.Assert(batch); err != nil {
		t.Fatalf("Assert: %v", err)
	}

	val, ok, err := shard.GetVertexAttr(0, 1, model.OUT, 50)
	if err != nil {
		t.Fatalf("GetVertexAttr: %v", err)
	}
	if !ok || !val.Equal(model.AttrValueString("alice")) {
		t.Fatalf("GetVertexAttr = (%v, %v), want (alice, true)", val, ok)
	}

	_, ok, err = shard.GetVertexAttr(0, 1, model.OUT, 999)
	if err != nil {
		t.Fatalf("GetVertexAttr: %v", err)
	}
	if ok {
		t.Fatal("GetVertexAttr should report false for an unset attribute")
	}
}
