package graphstore

import "encoding/binary"

// Key layout: a one-byte prefix discriminates the four index families a
// directed-edge graph needs: forward edges, reverse edges, the local
// type/predicate index, and vertex attributes.
const (
	prefixOut  byte = 'o' // vertex, predicate, target -> ()
	prefixIn   byte = 'i' // vertex, predicate, source -> ()
	prefixType byte = 't' // classID, vertex -> ()
	prefixAttr byte = 'a' // vertex, attrID -> encoded AttrValue
)

func putUint64(b []byte, v int64) {
	binary.BigEndian.PutUint64(b, uint64(v))
}

func edgeKey(prefix byte, vertex, predicate, other int64) []byte {
	key := make([]byte, 1+8+8+8)
	key[0] = prefix
	putUint64(key[1:9], vertex)
	putUint64(key[9:17], predicate)
	putUint64(key[17:25], other)
	return key
}

func edgeScanPrefix(prefix byte, vertex, predicate int64) []byte {
	key := make([]byte, 1+8+8)
	key[0] = prefix
	putUint64(key[1:9], vertex)
	putUint64(key[9:17], predicate)
	return key
}

func typeKey(classID, vertex int64) []byte {
	key := make([]byte, 1+8+8)
	key[0] = prefixType
	putUint64(key[1:9], classID)
	putUint64(key[9:17], vertex)
	return key
}

func typeScanPrefix(classID int64) []byte {
	key := make([]byte, 1+8)
	key[0] = prefixType
	putUint64(key[1:9], classID)
	return key
}

func attrKey(vertex, attrID int64) []byte {
	key := make([]byte, 1+8+8)
	key[0] = prefixAttr
	putUint64(key[1:9], vertex)
	putUint64(key[9:17], attrID)
	return key
}

func decodeTail(key []byte) int64 {
	return int64(binary.BigEndian.Uint64(key[len(key)-8:]))
}
