package proxy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/araxia/sparqld/internal/model"
)

// TermResolver resolves a dictionary-assigned id back to its original
// term string, for result rendering. *ingest.Dictionary satisfies this.
type TermResolver interface {
	Term(id, startID int64) (string, bool)
}

// Render formats t as a markdown table: headers come from opts.VarNames
// (falling back to "?v" followed by the negated variable id, so -1
// becomes ?v1) and cell values are resolved
// through resolver when it is non-nil, otherwise printed as raw
// integers. Display is capped at maxPrintRow rows; useColor toggles the
// row-count line's color based on terminal detection.
func Render(t *model.ResultTable, opts QueryOptions, resolver TermResolver, startID int64, maxPrintRow int, useColor bool) string {
	if t == nil || t.RowNum == 0 {
		return "_No rows_"
	}

	vars := orderedVars(t)
	headers := make([]string, len(vars))
	for i, v := range vars {
		if name, ok := opts.VarNames[v]; ok {
			headers[i] = name
		} else {
			headers[i] = fmt.Sprintf("?v%d", -v)
		}
	}

	limit := t.RowNum
	truncated := false
	if maxPrintRow > 0 && maxPrintRow < limit {
		limit = maxPrintRow
		truncated = true
	}

	alignment := make([]tw.Align, len(vars))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	var b strings.Builder
	table := tablewriter.NewTable(&b,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(headers)

	for i := 0; i < limit; i++ {
		row := make([]string, len(vars))
		for j, v := range vars {
			row[j] = cellValue(t, i, v, resolver, startID)
		}
		table.Append(row)
	}
	table.Render()

	count := fmt.Sprintf("%d rows", t.RowNum)
	if truncated {
		count = fmt.Sprintf("%d of %d rows shown", limit, t.RowNum)
	}
	if useColor {
		count = color.New(color.FgGreen).Sprint(count)
	}
	fmt.Fprintf(&b, "\n_%s_\n", count)

	return b.String()
}

// orderedVars returns t's bound variable ids in column order so header
// order matches the projection order a caller built the pattern group in.
func orderedVars(t *model.ResultTable) []int64 {
	vars := make([]int64, 0, len(t.Var2Col))
	for v := range t.Var2Col {
		vars = append(vars, v)
	}
	// Identifier columns first (by column index), then attribute columns.
	less := func(i, j int) bool {
		bi, bj := t.Var2Col[vars[i]], t.Var2Col[vars[j]]
		if bi.IsAttr != bj.IsAttr {
			return !bi.IsAttr
		}
		return bi.Column < bj.Column
	}
	for i := 1; i < len(vars); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			vars[j], vars[j-1] = vars[j-1], vars[j]
		}
	}
	return vars
}

func cellValue(t *model.ResultTable, row int, varID int64, resolver TermResolver, startID int64) string {
	if col, ok := t.ColumnOf(varID); ok {
		id := t.Rows[row][col]
		if resolver != nil {
			if term, ok := resolver.Term(id, startID); ok {
				return term
			}
		}
		return strconv.FormatInt(id, 10)
	}
	if col, _, ok := t.AttrColumnOf(varID); ok {
		return t.AttrRows[row][col].String()
	}
	return ""
}
