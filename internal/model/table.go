package model

// VarBinding records which column a pattern variable resolves to, and,
// for attribute columns, the value type observed when the column was
// produced.
type VarBinding struct {
	Column   int
	IsAttr   bool
	AttrType AttrValueType
}

// ResultTable is a dense row-major matrix of identifiers paired with a
// parallel matrix of attribute values, plus the variable->column map
// recording which pattern variable resolves to which column.
//
// Invariant: RowNum == len(Rows), except after Clear, which drops the
// row data and keeps RowNum; AttrRows has either 0 rows or RowNum rows.
type ResultTable struct {
	ColNum     int
	AttrColNum int
	RowNum     int
	Rows       [][]int64
	AttrRows   [][]AttrValue
	Var2Col    map[int64]VarBinding
	// Blind, when set, causes the table to be discarded before the final
	// reply is sent to the requestor; only cardinality is preserved.
	Blind bool
}

// NewResultTable returns an empty table ready to receive its first column.
func NewResultTable() *ResultTable {
	return &ResultTable{
		Var2Col: make(map[int64]VarBinding),
	}
}

// Column returns the values of column c across every row (identifier columns
// only; use AttrColumn for attribute columns).
func (t *ResultTable) Column(c int) []int64 {
	out := make([]int64, t.RowNum)
	for i, row := range t.Rows {
		out[i] = row[c]
	}
	return out
}

// AttrColumn returns the values of attribute column c across every row.
func (t *ResultTable) AttrColumn(c int) []AttrValue {
	if len(t.AttrRows) == 0 {
		return nil
	}
	out := make([]AttrValue, t.RowNum)
	for i, row := range t.AttrRows {
		out[i] = row[c]
	}
	return out
}

// BindVar records that varID resolves to identifier column col.
func (t *ResultTable) BindVar(varID int64, col int) {
	t.Var2Col[varID] = VarBinding{Column: col}
}

// BindAttrVar records that varID resolves to attribute column col of type typ.
func (t *ResultTable) BindAttrVar(varID int64, col int, typ AttrValueType) {
	t.Var2Col[varID] = VarBinding{Column: col, IsAttr: true, AttrType: typ}
}

// ColumnOf returns the identifier column bound to varID, and whether it is bound.
func (t *ResultTable) ColumnOf(varID int64) (int, bool) {
	b, ok := t.Var2Col[varID]
	if !ok || b.IsAttr {
		return 0, false
	}
	return b.Column, true
}

// AttrColumnOf returns the attribute column bound to varID, and whether it is bound.
func (t *ResultTable) AttrColumnOf(varID int64) (int, AttrValueType, bool) {
	b, ok := t.Var2Col[varID]
	if !ok || !b.IsAttr {
		return 0, AttrInvalid, false
	}
	return b.Column, b.AttrType, true
}

// AppendRow appends a single row (and its attribute row, if any).
func (t *ResultTable) AppendRow(row []int64, attrRow []AttrValue) {
	t.Rows = append(t.Rows, row)
	if attrRow != nil {
		t.AttrRows = append(t.AttrRows, attrRow)
	}
	t.RowNum++
}

// AppendRowFrom copies row i of src (and its attribute row, if present)
// onto this table. Used when filtering/projecting without mutating src.
func (t *ResultTable) AppendRowFrom(src *ResultTable, i int) {
	row := make([]int64, len(src.Rows[i]))
	copy(row, src.Rows[i])
	var attrRow []AttrValue
	if len(src.AttrRows) > 0 {
		attrRow = make([]AttrValue, len(src.AttrRows[i]))
		copy(attrRow, src.AttrRows[i])
	}
	t.AppendRow(row, attrRow)
}

// AppendTable appends every row of other onto t. Column counts and the
// variable->column map are taken from other verbatim: callers (the reply
// map merging fork-join replies) rely on these being identical across
// sub-queries by construction.
func (t *ResultTable) AppendTable(other *ResultTable) {
	t.ColNum = other.ColNum
	t.AttrColNum = other.AttrColNum
	t.Var2Col = other.Var2Col
	t.Rows = append(t.Rows, other.Rows...)
	t.AttrRows = append(t.AttrRows, other.AttrRows...)
	t.RowNum += other.RowNum
}

// Clear discards row data while leaving column metadata and RowNum intact,
// implementing the Blind contract: the caller only needs cardinality.
func (t *ResultTable) Clear() {
	t.Rows = nil
	t.AttrRows = nil
}

// Clone returns a deep copy of t.
func (t *ResultTable) Clone() *ResultTable {
	out := &ResultTable{
		ColNum:     t.ColNum,
		AttrColNum: t.AttrColNum,
		RowNum:     t.RowNum,
		Blind:      t.Blind,
		Var2Col:    make(map[int64]VarBinding, len(t.Var2Col)),
	}
	for k, v := range t.Var2Col {
		out.Var2Col[k] = v
	}
	out.Rows = make([][]int64, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]int64, len(r))
		copy(row, r)
		out.Rows[i] = row
	}
	out.AttrRows = make([][]AttrValue, len(t.AttrRows))
	for i, r := range t.AttrRows {
		row := make([]AttrValue, len(r))
		copy(row, r)
		out.AttrRows[i] = row
	}
	return out
}
