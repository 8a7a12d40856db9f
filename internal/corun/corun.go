// Package corun implements the co-run optimizer: a bounded sub-pattern is
// executed locally as a semi-join probe that prunes the current
// intermediate result before the query resumes at fetch_step.
package corun

import (
	"sort"

	"github.com/araxia/sparqld/internal/idspace"
	"github.com/araxia/sparqld/internal/model"
	"github.com/araxia/sparqld/internal/qerr"
)

// LocalExecutor runs a pattern-group sub-query to completion without
// ever scattering, the single capability the co-run probe needs. The
// concrete implementation is the engine's own step loop restricted to
// one shard.
type LocalExecutor interface {
	RunToCompletion(q *model.Query) error
}

// Probe builds the co-run sub-query for q, runs it to completion via
// exec, and prunes q's result table to the rows that survive the
// semi-join. On return q.Step is advanced to q.FetchStep.
func Probe(q *model.Query, exec LocalExecutor) error {
	if q.CorunStep < 0 {
		return nil
	}
	if q.CorunStep >= q.FetchStep || q.FetchStep > len(q.PatternGroup.Patterns) {
		return qerr.New(qerr.UnsupportedPattern, "corun: invalid range [%d, %d)", q.CorunStep, q.FetchStep)
	}

	seedPattern := q.PatternGroup.Patterns[q.CorunStep]
	seedVar := seedPattern.Subject
	seedCol, ok := q.Result.ColumnOf(seedVar)
	if !ok {
		return qerr.New(qerr.UnsupportedPattern, "corun: seed variable is not bound to a column")
	}

	distinct := distinctValues(q.Result, seedCol)

	subPatterns, varMap := remapRange(q.PatternGroup.Patterns[q.CorunStep:q.FetchStep])
	remappedSeedVar := varMap[seedVar]

	sub := &model.Query{
		PatternGroup: model.PatternGroup{Patterns: subPatterns},
		Step:         0,
		CorunStep:    -1,
		FetchStep:    len(subPatterns),
		LocalVar:     -1,
		Result:       model.NewResultTable(),
	}
	for _, v := range distinct {
		sub.Result.AppendRow([]int64{v}, nil)
	}
	sub.Result.ColNum = 1
	sub.Result.BindVar(remappedSeedVar, 0)

	if err := exec.RunToCompletion(sub); err != nil {
		return err
	}

	pruned, err := semiJoin(q.Result, seedCol, sub.Result, remappedSeedVar)
	if err != nil {
		return err
	}

	q.Result = pruned
	q.Step = q.FetchStep
	return nil
}

func distinctValues(t *model.ResultTable, col int) []int64 {
	seen := make(map[int64]struct{}, t.RowNum)
	out := make([]int64, 0, t.RowNum)
	for i := 0; i < t.RowNum; i++ {
		v := t.Rows[i][col]
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// remapRange renames every pattern variable appearing in patterns to a
// dense negative id private to the probe, preserving per-pattern-variable
// identity, and returns the original->remapped map.
func remapRange(patterns []model.Pattern) ([]model.Pattern, map[int64]int64) {
	varMap := make(map[int64]int64)
	next := int64(-1)
	remap := func(id int64) int64 {
		if !idspace.IsVariable(id) {
			return id
		}
		if r, ok := varMap[id]; ok {
			return r
		}
		r := next
		next--
		varMap[id] = r
		return r
	}

	out := make([]model.Pattern, len(patterns))
	for i, p := range patterns {
		out[i] = model.Pattern{
			Subject:   remap(p.Subject),
			Predicate: remap(p.Predicate),
			Direction: p.Direction,
			Object:    remap(p.Object),
			PredType:  p.PredType,
		}
	}
	return out, varMap
}

// semiJoin keeps rows of parent whose value in parentCol appears in
// probe's column bound to probeVar, choosing a hash-join when the probe
// table has at most two columns and a sort + binary-search join
// otherwise.
func semiJoin(parent *model.ResultTable, parentCol int, probe *model.ResultTable, probeVar int64) (*model.ResultTable, error) {
	probeCol, ok := probe.ColumnOf(probeVar)
	if !ok {
		return nil, qerr.New(qerr.UnsupportedPattern, "corun: remapped seed variable did not survive the probe")
	}

	out := model.NewResultTable()
	out.Var2Col = make(map[int64]model.VarBinding, len(parent.Var2Col))
	for k, v := range parent.Var2Col {
		out.Var2Col[k] = v
	}
	out.ColNum = parent.ColNum
	out.AttrColNum = parent.AttrColNum

	if probe.ColNum <= 2 {
		match := make(map[int64]struct{}, probe.RowNum)
		for i := 0; i < probe.RowNum; i++ {
			match[probe.Rows[i][probeCol]] = struct{}{}
		}
		for i := 0; i < parent.RowNum; i++ {
			if _, ok := match[parent.Rows[i][parentCol]]; ok {
				out.AppendRowFrom(parent, i)
			}
		}
		return out, nil
	}

	keys := make([]int64, probe.RowNum)
	for i := 0; i < probe.RowNum; i++ {
		keys[i] = probe.Rows[i][probeCol]
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for i := 0; i < parent.RowNum; i++ {
		v := parent.Rows[i][parentCol]
		idx := sort.Search(len(keys), func(j int) bool { return keys[j] >= v })
		if idx < len(keys) && keys[idx] == v {
			out.AppendRowFrom(parent, i)
		}
	}
	return out, nil
}
