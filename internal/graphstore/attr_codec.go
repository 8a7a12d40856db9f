package graphstore

import "github.com/araxia/sparqld/internal/model"

// encodeAttr/decodeAttr delegate to model.AttrValue's wire format so the
// local shard's on-disk attribute encoding and the inter-node wire
// encoding (internal/wire) never drift apart.
func encodeAttr(v model.AttrValue) []byte {
	return v.MarshalBinary()
}

func decodeAttr(b []byte) (model.AttrValue, error) {
	return model.UnmarshalAttrValue(b)
}
