// Package wire implements the little-endian, length-prefixed binary
// framing used for inter-node messages, hand-rolled over encoding/binary
// rather than a generic serialization library since the wire layout is
// an exact fixed format that a generic serializer would fight.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/araxia/sparqld/internal/model"
)

// Bundle kinds.
const (
	KindSparqlQuery byte = 1
	KindDynamicLoad byte = 2
)

// Bundle is the unit exchanged between engine workers: a kind tag plus
// an opaque, kind-specific payload.
type Bundle struct {
	Kind    byte
	Payload []byte
}

// EncodeBundle frames b as {kind u8}{len u32 LE}{payload}.
func EncodeBundle(b Bundle) []byte {
	out := make([]byte, 1+4+len(b.Payload))
	out[0] = b.Kind
	binary.LittleEndian.PutUint32(out[1:5], uint32(len(b.Payload)))
	copy(out[5:], b.Payload)
	return out
}

// DecodeBundle reverses EncodeBundle, returning the bundle and the
// number of bytes consumed from buf.
func DecodeBundle(buf []byte) (Bundle, int, error) {
	if len(buf) < 5 {
		return Bundle{}, 0, fmt.Errorf("wire: truncated bundle header (%d bytes)", len(buf))
	}
	kind := buf[0]
	n := binary.LittleEndian.Uint32(buf[1:5])
	total := 5 + int(n)
	if len(buf) < total {
		return Bundle{}, 0, fmt.Errorf("wire: truncated bundle payload: want %d have %d", n, len(buf)-5)
	}
	payload := make([]byte, n)
	copy(payload, buf[5:total])
	return Bundle{Kind: kind, Payload: payload}, total, nil
}

// a little-endian binary writer/reader pair kept private to this file;
// every Encode*/Decode* function below composes out of these primitives.

type writer struct{ buf []byte }

func (w *writer) u8(v byte)    { w.buf = append(w.buf, v) }
func (w *writer) i64(v int64)  { w.u64(uint64(v)) }
func (w *writer) i32(v int32)  { w.u32(uint32(v)) }
func (w *writer) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}
func (w *writer) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}
func (w *writer) bytes(v []byte) {
	w.u32(uint32(len(v)))
	w.buf = append(w.buf, v...)
}

type reader struct {
	buf []byte
	pos int
}

func (r *reader) u8() (byte, error) {
	if r.pos+1 > len(r.buf) {
		return 0, fmt.Errorf("wire: truncated u8")
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if r.pos+4 > len(r.buf) {
		return 0, fmt.Errorf("wire: truncated u32")
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) i32() (int32, error) {
	v, err := r.u32()
	return int32(v), err
}

func (r *reader) u64() (uint64, error) {
	if r.pos+8 > len(r.buf) {
		return 0, fmt.Errorf("wire: truncated u64")
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *reader) i64() (int64, error) {
	v, err := r.u64()
	return int64(v), err
}

func (r *reader) bytes() ([]byte, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	if r.pos+int(n) > len(r.buf) {
		return nil, fmt.Errorf("wire: truncated byte string (want %d)", n)
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return out, nil
}

// EncodeQuery serializes q into the wire query payload format.
func EncodeQuery(q *model.Query) []byte {
	w := &writer{}
	w.i64(q.ID)
	w.i64(q.PID)
	encodePatternGroup(w, q.PatternGroup)
	w.i32(int32(q.Step))
	w.i32(int32(q.CorunStep))
	w.i32(int32(q.FetchStep))
	w.i64(q.LocalVar)
	encodeResultTable(w, q.Result)

	w.u32(uint32(len(q.Orders)))
	for _, o := range q.Orders {
		w.i64(o.Var)
		if o.Desc {
			w.u8(1)
		} else {
			w.u8(0)
		}
	}
	w.i64(q.Limit)
	w.i64(q.Offset)
	boolByte(w, q.Distinct)
	boolByte(w, q.Silent)

	w.u32(uint32(len(q.RequiredVars)))
	for _, v := range q.RequiredVars {
		w.i64(v)
	}
	return w.buf
}

// DecodeQuery reverses EncodeQuery.
func DecodeQuery(buf []byte) (*model.Query, error) {
	r := &reader{buf: buf}
	q := &model.Query{}

	var err error
	if q.ID, err = r.i64(); err != nil {
		return nil, err
	}
	if q.PID, err = r.i64(); err != nil {
		return nil, err
	}
	if q.PatternGroup, err = decodePatternGroup(r); err != nil {
		return nil, err
	}
	step, err := r.i32()
	if err != nil {
		return nil, err
	}
	q.Step = int(step)
	corunStep, err := r.i32()
	if err != nil {
		return nil, err
	}
	q.CorunStep = int(corunStep)
	fetchStep, err := r.i32()
	if err != nil {
		return nil, err
	}
	q.FetchStep = int(fetchStep)
	if q.LocalVar, err = r.i64(); err != nil {
		return nil, err
	}
	if q.Result, err = decodeResultTable(r); err != nil {
		return nil, err
	}

	numOrders, err := r.u32()
	if err != nil {
		return nil, err
	}
	q.Orders = make([]model.Order, numOrders)
	for i := range q.Orders {
		v, err := r.i64()
		if err != nil {
			return nil, err
		}
		b, err := r.u8()
		if err != nil {
			return nil, err
		}
		q.Orders[i] = model.Order{Var: v, Desc: b != 0}
	}

	if q.Limit, err = r.i64(); err != nil {
		return nil, err
	}
	if q.Offset, err = r.i64(); err != nil {
		return nil, err
	}
	if q.Distinct, err = readBool(r); err != nil {
		return nil, err
	}
	if q.Silent, err = readBool(r); err != nil {
		return nil, err
	}

	numRequired, err := r.u32()
	if err != nil {
		return nil, err
	}
	q.RequiredVars = make([]int64, numRequired)
	for i := range q.RequiredVars {
		if q.RequiredVars[i], err = r.i64(); err != nil {
			return nil, err
		}
	}

	return q, nil
}

func boolByte(w *writer, v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

func readBool(r *reader) (bool, error) {
	b, err := r.u8()
	return b != 0, err
}

func encodePatternGroup(w *writer, g model.PatternGroup) {
	w.u32(uint32(len(g.Patterns)))
	for _, p := range g.Patterns {
		w.i64(p.Subject)
		w.i64(p.Predicate)
		w.u8(byte(p.Direction))
		w.i64(p.Object)
		w.u8(byte(p.PredType))
	}
	w.u32(uint32(len(g.Filters)))
	for _, f := range g.Filters {
		w.bytes([]byte(f.Expr))
	}
	w.u32(uint32(len(g.Unions)))
	for _, u := range g.Unions {
		encodePatternGroup(w, u)
	}
	w.u32(uint32(len(g.Optionals)))
	for _, o := range g.Optionals {
		encodePatternGroup(w, o)
	}
}

func decodePatternGroup(r *reader) (model.PatternGroup, error) {
	var g model.PatternGroup

	numPatterns, err := r.u32()
	if err != nil {
		return g, err
	}
	g.Patterns = make([]model.Pattern, numPatterns)
	for i := range g.Patterns {
		subj, err := r.i64()
		if err != nil {
			return g, err
		}
		pred, err := r.i64()
		if err != nil {
			return g, err
		}
		dir, err := r.u8()
		if err != nil {
			return g, err
		}
		obj, err := r.i64()
		if err != nil {
			return g, err
		}
		predType, err := r.u8()
		if err != nil {
			return g, err
		}
		g.Patterns[i] = model.Pattern{
			Subject:   subj,
			Predicate: pred,
			Direction: model.Direction(dir),
			Object:    obj,
			PredType:  model.PredType(int8(predType)),
		}
	}

	numFilters, err := r.u32()
	if err != nil {
		return g, err
	}
	g.Filters = make([]model.Filter, numFilters)
	for i := range g.Filters {
		b, err := r.bytes()
		if err != nil {
			return g, err
		}
		g.Filters[i] = model.Filter{Expr: string(b)}
	}

	numUnions, err := r.u32()
	if err != nil {
		return g, err
	}
	g.Unions = make([]model.PatternGroup, numUnions)
	for i := range g.Unions {
		if g.Unions[i], err = decodePatternGroup(r); err != nil {
			return g, err
		}
	}

	numOptionals, err := r.u32()
	if err != nil {
		return g, err
	}
	g.Optionals = make([]model.PatternGroup, numOptionals)
	for i := range g.Optionals {
		if g.Optionals[i], err = decodePatternGroup(r); err != nil {
			return g, err
		}
	}

	return g, nil
}

func encodeResultTable(w *writer, t *model.ResultTable) {
	if t == nil {
		t = model.NewResultTable()
	}
	w.i32(int32(t.ColNum))
	w.i32(int32(t.AttrColNum))
	w.i32(int32(t.RowNum))
	boolByte(w, t.Blind)

	for _, row := range t.Rows {
		for _, v := range row {
			w.i64(v)
		}
	}

	hasAttrRows := len(t.AttrRows) > 0
	boolByte(w, hasAttrRows)
	if hasAttrRows {
		for _, row := range t.AttrRows {
			for _, v := range row {
				w.bytes(v.MarshalBinary())
			}
		}
	}

	w.u32(uint32(len(t.Var2Col)))
	for varID, binding := range t.Var2Col {
		w.i64(varID)
		w.i32(int32(binding.Column))
		boolByte(w, binding.IsAttr)
		w.u8(byte(binding.AttrType))
	}
}

func decodeResultTable(r *reader) (*model.ResultTable, error) {
	t := model.NewResultTable()

	colNum, err := r.i32()
	if err != nil {
		return nil, err
	}
	t.ColNum = int(colNum)
	attrColNum, err := r.i32()
	if err != nil {
		return nil, err
	}
	t.AttrColNum = int(attrColNum)
	rowNum, err := r.i32()
	if err != nil {
		return nil, err
	}
	t.RowNum = int(rowNum)
	if t.Blind, err = readBool(r); err != nil {
		return nil, err
	}

	t.Rows = make([][]int64, t.RowNum)
	for i := range t.Rows {
		row := make([]int64, t.ColNum)
		for c := range row {
			if row[c], err = r.i64(); err != nil {
				return nil, err
			}
		}
		t.Rows[i] = row
	}

	hasAttrRows, err := readBool(r)
	if err != nil {
		return nil, err
	}
	if hasAttrRows {
		t.AttrRows = make([][]model.AttrValue, t.RowNum)
		for i := range t.AttrRows {
			row := make([]model.AttrValue, t.AttrColNum)
			for c := range row {
				b, err := r.bytes()
				if err != nil {
					return nil, err
				}
				v, err := model.UnmarshalAttrValue(b)
				if err != nil {
					return nil, err
				}
				row[c] = v
			}
			t.AttrRows[i] = row
		}
	}

	numBindings, err := r.u32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < numBindings; i++ {
		varID, err := r.i64()
		if err != nil {
			return nil, err
		}
		col, err := r.i32()
		if err != nil {
			return nil, err
		}
		isAttr, err := readBool(r)
		if err != nil {
			return nil, err
		}
		attrType, err := r.u8()
		if err != nil {
			return nil, err
		}
		t.Var2Col[varID] = model.VarBinding{
			Column:   int(col),
			IsAttr:   isAttr,
			AttrType: model.AttrValueType(attrType),
		}
	}

	return t, nil
}
