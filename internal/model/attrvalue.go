package model

import (
	"encoding/binary"
	"fmt"
	"math"
)

// AttrValueType tags which field of AttrValue is populated.
type AttrValueType uint8

const (
	AttrInvalid AttrValueType = iota
	AttrInt32
	AttrInt64
	AttrFloat32
	AttrFloat64
	AttrString
)

func (t AttrValueType) String() string {
	switch t {
	case AttrInt32:
		return "int32"
	case AttrInt64:
		return "int64"
	case AttrFloat32:
		return "float32"
	case AttrFloat64:
		return "double"
	case AttrString:
		return "string"
	default:
		return "invalid"
	}
}

// AttrValue is a tagged union of {int32, int64, float32, double, string},
// attached to a vertex under a non-negative attribute predicate id.
type AttrValue struct {
	Type AttrValueType
	I32  int32
	I64  int64
	F32  float32
	F64  float64
	Str  string
}

func AttrValueInt32(v int32) AttrValue    { return AttrValue{Type: AttrInt32, I32: v} }
func AttrValueInt64(v int64) AttrValue    { return AttrValue{Type: AttrInt64, I64: v} }
func AttrValueFloat32(v float32) AttrValue { return AttrValue{Type: AttrFloat32, F32: v} }
func AttrValueFloat64(v float64) AttrValue { return AttrValue{Type: AttrFloat64, F64: v} }
func AttrValueString(v string) AttrValue  { return AttrValue{Type: AttrString, Str: v} }

// Equal reports whether two attribute values have the same type and content.
func (v AttrValue) Equal(other AttrValue) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case AttrInt32:
		return v.I32 == other.I32
	case AttrInt64:
		return v.I64 == other.I64
	case AttrFloat32:
		return v.F32 == other.F32
	case AttrFloat64:
		return v.F64 == other.F64
	case AttrString:
		return v.Str == other.Str
	default:
		return true
	}
}

// MarshalBinary encodes v as a one-byte type tag followed by its fixed-
// or variable-length payload, the wire representation shared by the
// local shard's attribute store and inter-node query messages.
func (v AttrValue) MarshalBinary() []byte {
	switch v.Type {
	case AttrInt32:
		b := make([]byte, 5)
		b[0] = byte(AttrInt32)
		binary.BigEndian.PutUint32(b[1:], uint32(v.I32))
		return b
	case AttrInt64:
		b := make([]byte, 9)
		b[0] = byte(AttrInt64)
		binary.BigEndian.PutUint64(b[1:], uint64(v.I64))
		return b
	case AttrFloat32:
		b := make([]byte, 5)
		b[0] = byte(AttrFloat32)
		binary.BigEndian.PutUint32(b[1:], math.Float32bits(v.F32))
		return b
	case AttrFloat64:
		b := make([]byte, 9)
		b[0] = byte(AttrFloat64)
		binary.BigEndian.PutUint64(b[1:], math.Float64bits(v.F64))
		return b
	case AttrString:
		b := make([]byte, 1+len(v.Str))
		b[0] = byte(AttrString)
		copy(b[1:], v.Str)
		return b
	default:
		return []byte{byte(AttrInvalid)}
	}
}

// UnmarshalAttrValue decodes the format produced by MarshalBinary.
func UnmarshalAttrValue(b []byte) (AttrValue, error) {
	if len(b) == 0 {
		return AttrValue{}, fmt.Errorf("model: empty attribute payload")
	}
	switch AttrValueType(b[0]) {
	case AttrInt32:
		return AttrValueInt32(int32(binary.BigEndian.Uint32(b[1:]))), nil
	case AttrInt64:
		return AttrValueInt64(int64(binary.BigEndian.Uint64(b[1:]))), nil
	case AttrFloat32:
		return AttrValueFloat32(math.Float32frombits(binary.BigEndian.Uint32(b[1:]))), nil
	case AttrFloat64:
		return AttrValueFloat64(math.Float64frombits(binary.BigEndian.Uint64(b[1:]))), nil
	case AttrString:
		return AttrValueString(string(b[1:])), nil
	default:
		return AttrValue{}, fmt.Errorf("model: unknown attribute type tag %d", b[0])
	}
}

func (v AttrValue) String() string {
	switch v.Type {
	case AttrInt32:
		return fmt.Sprintf("%d", v.I32)
	case AttrInt64:
		return fmt.Sprintf("%d", v.I64)
	case AttrFloat32:
		return fmt.Sprintf("%g", v.F32)
	case AttrFloat64:
		return fmt.Sprintf("%g", v.F64)
	case AttrString:
		return v.Str
	default:
		return "<invalid>"
	}
}
