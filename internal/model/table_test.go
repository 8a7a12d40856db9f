package model

import "testing"

func TestResultTableBindAndAppend(t *testing.T) {
	tbl := NewResultTable()
	tbl.ColNum = 2
	tbl.BindVar(-1, 0)
	tbl.BindAttrVar(-2, 0, AttrString)

	tbl.AppendRow([]int64{10, 20}, []AttrValue{AttrValueString("x")})
	tbl.AppendRow([]int64{30, 40}, []AttrValue{AttrValueString("y")})

	if tbl.RowNum != 2 {
		t.Fatalf("RowNum = %d, want 2", tbl.RowNum)
	}
	if col, ok := tbl.ColumnOf(-1); !ok || col != 0 {
		t.Fatalf("ColumnOf(-1) = (%d, %v), want (0, true)", col, ok)
	}
	if col, typ, ok := tbl.AttrColumnOf(-2); !ok || col != 0 || typ != AttrString {
		t.Fatalf("AttrColumnOf(-2) = (%d, %v, %v)", col, typ, ok)
	}
	if _, ok := tbl.ColumnOf(-2); ok {
		t.Fatal("ColumnOf should not resolve an attribute-bound var")
	}

	vals := tbl.Column(1)
	if len(vals) != 2 || vals[0] != 20 || vals[1] != 40 {
		t.Fatalf("Column(1) = %v", vals)
	}
}

func TestResultTableAppendTable(t *testing.T) {
	a := NewResultTable()
	a.ColNum = 1
	a.BindVar(-1, 0)
	a.AppendRow([]int64{1}, nil)

	b := NewResultTable()
	b.ColNum = 1
	b.BindVar(-1, 0)
	b.AppendRow([]int64{2}, nil)
	b.AppendRow([]int64{3}, nil)

	a.AppendTable(b)

	if a.RowNum != 3 {
		t.Fatalf("RowNum = %d, want 3", a.RowNum)
	}
	if len(a.Rows) != 3 || a.Rows[1][0] != 2 || a.Rows[2][0] != 3 {
		t.Fatalf("Rows after AppendTable = %v", a.Rows)
	}
}

func TestResultTableCloneIsIndependent(t *testing.T) {
	orig := NewResultTable()
	orig.ColNum = 1
	orig.BindVar(-1, 0)
	orig.AppendRow([]int64{5}, nil)

	clone := orig.Clone()
	clone.Rows[0][0] = 99
	clone.Var2Col[-2] = VarBinding{Column: 1}

	if orig.Rows[0][0] != 5 {
		t.Fatal("mutating clone rows affected original")
	}
	if _, ok := orig.Var2Col[-2]; ok {
		t.Fatal("mutating clone Var2Col affected original")
	}
}

func TestResultTableClearPreservesCardinality(t *testing.T) {
	tbl := NewResultTable()
	tbl.ColNum = 1
	tbl.AppendRow([]int64{1}, nil)
	tbl.AppendRow([]int64{2}, nil)
	tbl.Blind = true

	tbl.Clear()

	if tbl.RowNum != 2 {
		t.Fatalf("RowNum after Clear = %d, want 2 preserved", tbl.RowNum)
	}
	if tbl.Rows != nil || tbl.AttrRows != nil {
		t.Fatal("Clear should discard row data")
	}
}
