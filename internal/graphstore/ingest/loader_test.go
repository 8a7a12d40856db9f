package ingest

import (
	"strings"
	"testing"

	"github.com/araxia/sparqld/internal/graphstore"
	"github.com/araxia/sparqld/internal/model"
)

func TestShardOfDeterministic(t *testing.T) {
	a := ShardOf(12345, 4)
	if a < 0 || a >= 4 {
		t.Fatalf("ShardOf out of range: %d", a)
	}
	if ShardOf(12345, 4) != a {
		t.Fatal("ShardOf should be deterministic")
	}
	if ShardOf(1, 0) != 0 {
		t.Fatal("ShardOf should guard against numShards <= 0")
	}
}

func TestLoaderLoadReaderAndFlush(t *testing.T) {
	input := strings.NewReader(strings.Join([]string{
		`<http://ex/alice> <http://ex/knows> <http://ex/bob> .`,
		`<http://ex/alice> <rdf:type> <http://ex/Person> .`,
		`<http://ex/alice> <http://ex/age> "30" .`,
		``,
		`# a comment line`,
	}, "\n"))

	dict := NewDictionary(NextDictionaryID)
	const numShards = 2
	loader := NewLoader(dict, numShards, "rdf:type")

	n, err := loader.LoadReader(input)
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if n != 3 {
		t.Fatalf("LoadReader parsed %d triples, want 3", n)
	}

	shards := make([]graphstore.Shard, numShards)
	for i := range shards {
		s, err := graphstore.OpenBadgerShard(t.TempDir())
		if err != nil {
			t.Fatalf("OpenBadgerShard: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		shards[i] = s
	}

	if err := loader.Flush(shards); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	aliceID, ok := dict.Lookup("http://ex/alice")
	if !ok {
		t.Fatal("alice should have been interned")
	}
	bobID, ok := dict.Lookup("http://ex/bob")
	if !ok {
		t.Fatal("bob should have been interned")
	}
	personID, ok := dict.Lookup("http://ex/Person")
	if !ok {
		t.Fatal("Person class should have been interned")
	}

	aliceShard := shards[ShardOf(aliceID, numShards)]

	knowsID, ok := dict.Lookup("http://ex/knows")
	if !ok {
		t.Fatal("knows predicate should have been interned")
	}
	edges, err := aliceShard.GetEdges(0, aliceID, model.OUT, knowsID)
	if err != nil {
		t.Fatalf("GetEdges: %v", err)
	}
	if len(edges) != 1 || edges[0] != bobID {
		t.Fatalf("GetEdges(alice, knows) = %v, want [%d]", edges, bobID)
	}

	members, err := aliceShard.GetIndexEdgesLocal(0, personID, model.OUT)
	if err != nil {
		t.Fatalf("GetIndexEdgesLocal: %v", err)
	}
	found := false
	for _, m := range members {
		if m == aliceID {
			found = true
		}
	}
	if !found {
		t.Fatalf("alice should be indexed under Person, got %v", members)
	}

	ageAttrID, _ := dict.Lookup("http://ex/age")
	val, ok, err := aliceShard.GetVertexAttr(0, aliceID, model.OUT, ageAttrID)
	if err != nil {
		t.Fatalf("GetVertexAttr: %v", err)
	}
	if !ok || !val.Equal(model.AttrValueString("30")) {
		t.Fatalf("GetVertexAttr(alice, age) = (%v, %v), want (30, true)", val, ok)
	}
}

func TestLoaderFlushRejectsShardCountMismatch(t *testing.T) {
	loader := NewLoader(NewDictionary(0), 2, "rdf:type")
	err := loader.Flush(make([]graphstore.Shard, 1))
	if err == nil {
		t.Fatal("expected an error when shard count does not match loader configuration")
	}
}
