package stepexec

import (
	"github.com/araxia/sparqld/internal/idspace"
	"github.com/araxia/sparqld/internal/model"
	"github.com/araxia/sparqld/internal/qerr"
)

// indexToUnknown emits the local-shard index entries for a type/predicate
// class, striped by worker index modulo the number of engine workers.
func (e *Executor) indexToUnknown(q *model.Query, p model.Pattern) error {
	ids, err := e.shard.GetIndexEdgesLocal(e.tid, p.Subject, p.Direction)
	if err != nil {
		return err
	}

	table := model.NewResultTable()
	stride := e.cfg.MtThreshold
	if stride <= 0 {
		stride = 1
	}
	for k := e.tid % stride; k < len(ids); k += stride {
		table.AppendRow([]int64{ids[k]}, nil)
	}
	table.ColNum = 1
	table.BindVar(p.Object, 0)

	q.Result = table
	q.Step++
	q.LocalVar = -1
	return nil
}

// constToUnknown emits every target of (subject, direction, predicate) as
// the sole column.
func (e *Executor) constToUnknown(q *model.Query, p model.Pattern) error {
	if q.Result.ColNum != 0 {
		return qerr.New(qerr.UnsupportedPattern, "const -> unknown requires an empty result table (col_num=%d)", q.Result.ColNum)
	}
	targets, err := e.shard.GetEdges(e.tid, p.Subject, p.Direction, p.Predicate)
	if err != nil {
		return err
	}

	table := model.NewResultTable()
	for _, t := range targets {
		table.AppendRow([]int64{t}, nil)
	}
	table.ColNum = 1
	table.BindVar(p.Object, 0)

	q.Result = table
	q.Step++
	return nil
}

// constToUnknownAttr fetches the single attribute value for a constant
// subject.
func (e *Executor) constToUnknownAttr(q *model.Query, p model.Pattern) error {
	if p.Direction != model.OUT {
		return qerr.New(qerr.UnsupportedPattern, "attribute patterns must use direction OUT")
	}
	v, ok, err := e.shard.GetVertexAttr(e.tid, p.Subject, p.Direction, p.Predicate)
	if err != nil {
		return err
	}

	table := model.NewResultTable()
	if ok {
		table.AppendRow(nil, []model.AttrValue{v})
	}
	table.AttrColNum = 1
	table.BindAttrVar(p.Object, 0, v.Type)

	q.Result = table
	q.Step++
	return nil
}

// knownToUnknown looks up targets for each bound subject, appending a new
// column.
func (e *Executor) knownToUnknown(q *model.Query, p model.Pattern) error {
	startCol, ok := q.Result.ColumnOf(p.Subject)
	if !ok {
		return qerr.New(qerr.UnsupportedPattern, "known -> unknown: subject variable is not bound to a column")
	}

	src := q.Result
	out := model.NewResultTable()
	out.Var2Col = cloneVar2Col(src.Var2Col)
	out.ColNum = src.ColNum + 1
	out.AttrColNum = src.AttrColNum

	for i := 0; i < src.RowNum; i++ {
		prevID := src.Rows[i][startCol]
		targets, err := e.shard.GetEdges(e.tid, prevID, p.Direction, p.Predicate)
		if err != nil {
			return err
		}
		for _, t := range targets {
			row := appendCopy(src.Rows[i], t)
			var attrRow []model.AttrValue
			if len(src.AttrRows) > 0 {
				attrRow = append([]model.AttrValue(nil), src.AttrRows[i]...)
			}
			out.AppendRow(row, attrRow)
		}
	}
	out.BindVar(p.Object, src.ColNum)

	q.Result = out
	q.Step++
	return nil
}

// knownToUnknownAttr fetches an attribute value per bound subject,
// dropping rows with no value (direction must be OUT).
func (e *Executor) knownToUnknownAttr(q *model.Query, p model.Pattern) error {
	if p.Direction != model.OUT {
		return qerr.New(qerr.UnsupportedPattern, "attribute patterns must use direction OUT")
	}
	startCol, ok := q.Result.ColumnOf(p.Subject)
	if !ok {
		return qerr.New(qerr.UnsupportedPattern, "known -> unknown (attr): subject variable is not bound to a column")
	}

	src := q.Result
	out := model.NewResultTable()
	out.Var2Col = cloneVar2Col(src.Var2Col)
	out.ColNum = src.ColNum
	out.AttrColNum = src.AttrColNum + 1

	var observedType model.AttrValueType = model.AttrInvalid

	for i := 0; i < src.RowNum; i++ {
		prevID := src.Rows[i][startCol]
		v, has, err := e.shard.GetVertexAttr(e.tid, prevID, p.Direction, p.Predicate)
		if err != nil {
			return err
		}
		if !has {
			continue
		}
		if observedType == model.AttrInvalid {
			observedType = v.Type
		} else if observedType != v.Type {
			return qerr.New(qerr.InconsistentAttrType, "attribute %d observed with mixed types", p.Predicate)
		}

		row := append([]int64(nil), src.Rows[i]...)
		var attrRow []model.AttrValue
		if len(src.AttrRows) > 0 {
			attrRow = append([]model.AttrValue(nil), src.AttrRows[i]...)
		}
		attrRow = append(attrRow, v)
		out.AppendRow(row, attrRow)
	}
	out.BindAttrVar(p.Object, src.AttrColNum, observedType)

	q.Result = out
	q.Step++
	return nil
}

// knownToKnown retains rows iff row[object] appears among targets of
// (row[subject], direction, predicate).
func (e *Executor) knownToKnown(q *model.Query, p model.Pattern) error {
	startCol, ok := q.Result.ColumnOf(p.Subject)
	if !ok {
		return qerr.New(qerr.UnsupportedPattern, "known -> known: subject variable is not bound to a column")
	}
	endCol, ok := q.Result.ColumnOf(p.Object)
	if !ok {
		return qerr.New(qerr.UnsupportedPattern, "known -> known: object variable is not bound to a column")
	}

	src := q.Result
	out := model.NewResultTable()
	out.Var2Col = cloneVar2Col(src.Var2Col)
	out.ColNum = src.ColNum
	out.AttrColNum = src.AttrColNum

	for i := 0; i < src.RowNum; i++ {
		prevID := src.Rows[i][startCol]
		targetID := src.Rows[i][endCol]
		targets, err := e.shard.GetEdges(e.tid, prevID, p.Direction, p.Predicate)
		if err != nil {
			return err
		}
		if contains(targets, targetID) {
			out.AppendRowFrom(src, i)
			if !e.cfg.EnableVattr {
				out.AttrRows = nil
			}
		}
	}
	if !e.cfg.EnableVattr {
		out.AttrColNum = 0
	}

	q.Result = out
	q.Step++
	return nil
}

// knownToConst retains rows iff the pattern's constant object appears
// among targets of (row[subject], direction, predicate).
func (e *Executor) knownToConst(q *model.Query, p model.Pattern) error {
	startCol, ok := q.Result.ColumnOf(p.Subject)
	if !ok {
		return qerr.New(qerr.UnsupportedPattern, "known -> const: subject variable is not bound to a column")
	}

	src := q.Result
	out := model.NewResultTable()
	out.Var2Col = cloneVar2Col(src.Var2Col)
	out.ColNum = src.ColNum
	out.AttrColNum = src.AttrColNum

	for i := 0; i < src.RowNum; i++ {
		prevID := src.Rows[i][startCol]
		targets, err := e.shard.GetEdges(e.tid, prevID, p.Direction, p.Predicate)
		if err != nil {
			return err
		}
		if contains(targets, p.Object) {
			out.AppendRowFrom(src, i)
		}
	}
	if !e.cfg.EnableVattr {
		out.AttrColNum = 0
		out.AttrRows = nil
	}

	q.Result = out
	q.Step++
	return nil
}

// constUnknownToUnknown enumerates predicates of a constant subject, then
// targets of each, emitting a two-column (predicate, object) table.
func (e *Executor) constUnknownToUnknown(q *model.Query, p model.Pattern) error {
	if q.Result.ColNum != 0 {
		return qerr.New(qerr.UnsupportedPattern, "const -> ? -> unknown requires an empty result table")
	}
	preds, err := e.shard.GetEdges(e.tid, p.Subject, p.Direction, idspace.PredicateID)
	if err != nil {
		return err
	}

	table := model.NewResultTable()
	for _, pid := range preds {
		targets, err := e.shard.GetEdges(e.tid, p.Subject, p.Direction, pid)
		if err != nil {
			return err
		}
		for _, t := range targets {
			table.AppendRow([]int64{pid, t}, nil)
		}
	}
	table.ColNum = 2
	predVar, objVar := patternVarNames(p)
	table.BindVar(predVar, 0)
	table.BindVar(objVar, 1)

	q.Result = table
	q.Step++
	return nil
}

// knownUnknownToUnknown is the row-wise generalization of
// constUnknownToUnknown: for each bound subject row, enumerate its
// predicates and their targets.
func (e *Executor) knownUnknownToUnknown(q *model.Query, p model.Pattern) error {
	startCol, ok := q.Result.ColumnOf(p.Subject)
	if !ok {
		return qerr.New(qerr.UnsupportedPattern, "known -> ? -> unknown: subject variable is not bound to a column")
	}

	src := q.Result
	out := model.NewResultTable()
	out.Var2Col = cloneVar2Col(src.Var2Col)
	out.ColNum = src.ColNum + 2

	predVar, objVar := patternVarNames(p)

	for i := 0; i < src.RowNum; i++ {
		prevID := src.Rows[i][startCol]
		preds, err := e.shard.GetEdges(e.tid, prevID, p.Direction, idspace.PredicateID)
		if err != nil {
			return err
		}
		for _, pid := range preds {
			targets, err := e.shard.GetEdges(e.tid, prevID, p.Direction, pid)
			if err != nil {
				return err
			}
			for _, t := range targets {
				row := append([]int64(nil), src.Rows[i]...)
				row = append(row, pid, t)
				out.AppendRow(row, nil)
			}
		}
	}
	out.BindVar(predVar, src.ColNum)
	out.BindVar(objVar, src.ColNum+1)

	q.Result = out
	q.Step++
	return nil
}

// patternVarNames returns the pattern's own predicate and object ids, used
// as the variable keys bound by the unknown-predicate step variants (the
// predicate slot of such a pattern is itself a pattern variable).
func patternVarNames(p model.Pattern) (predVar, objVar int64) {
	return p.Predicate, p.Object
}

func cloneVar2Col(m map[int64]model.VarBinding) map[int64]model.VarBinding {
	out := make(map[int64]model.VarBinding, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func appendCopy(row []int64, extra int64) []int64 {
	out := make([]int64, len(row)+1)
	copy(out, row)
	out[len(row)] = extra
	return out
}

func contains(xs []int64, target int64) bool {
	for _, x := range xs {
		if x == target {
			return true
		}
	}
	return false
}
