package graphstore

import "testing"

func TestEdgeKeyHasScanPrefixAsPrefix(t *testing.T) {
	full := edgeKey(prefixOut, 10, 20, 30)
	prefix := edgeScanPrefix(prefixOut, 10, 20)

	if len(full) <= len(prefix) {
		t.Fatal("full key should be strictly longer than its scan prefix")
	}
	for i, b := range prefix {
		if full[i] != b {
			t.Fatalf("byte %d mismatch: full=%x prefix=%x", i, full, prefix)
		}
	}
}

func TestDecodeTailRecoversOther(t *testing.T) {
	key := edgeKey(prefixIn, 1, 2, 999)
	if got := decodeTail(key); got != 999 {
		t.Fatalf("decodeTail = %d, want 999", got)
	}
}

func TestTypeKeyHasScanPrefixAsPrefix(t *testing.T) {
	full := typeKey(42, 7)
	prefix := typeScanPrefix(42)
	if len(full) <= len(prefix) {
		t.Fatal("type key should be strictly longer than its scan prefix")
	}
	for i, b := range prefix {
		if full[i] != b {
			t.Fatalf("byte %d mismatch", i)
		}
	}
	if decodeTail(full) != 7 {
		t.Fatal("decodeTail should recover the vertex id from a type key")
	}
}

func TestAttrKeyDistinctFromEdgeKey(t *testing.T) {
	a := attrKey(1, 2)
	e := edgeKey(prefixOut, 1, 2, 0)
	if a[0] == e[0] {
		t.Fatal("attribute keys and edge keys must not share a prefix byte")
	}
}
