// Package model holds the data model shared by every component of the
// distributed query execution core: patterns, pattern groups, result
// tables and the query structure that migrates between engine workers.
package model

// Direction is the orientation of an edge traversal.
type Direction uint8

const (
	// OUT follows edges away from subject (subject --predicate--> object).
	OUT Direction = iota
	// IN follows edges into subject (object --predicate--> subject).
	IN
)

func (d Direction) String() string {
	if d == IN {
		return "IN"
	}
	return "OUT"
}

// PredType discriminates an edge pattern from an attribute pattern whose
// value type is known a priori. Zero means "edge pattern"; any positive
// value names the attribute's runtime value type (see AttrValueType).
type PredType int8

const (
	// PredTypeEdge marks an ordinary edge pattern.
	PredTypeEdge PredType = 0
)

// Pattern is a single triple-pattern step: (subject, predicate, direction, object).
type Pattern struct {
	Subject   int64
	Predicate int64
	Direction Direction
	Object    int64
	PredType  PredType
}

// IsAttribute reports whether this pattern matches a vertex attribute
// rather than an edge.
func (p Pattern) IsAttribute() bool {
	return p.PredType > 0
}

// PatternGroup is an ordered sequence of patterns plus optional
// filter/union/optional sub-groups. This core does not evaluate
// Filters/Unions/Optionals itself but carries them unevaluated so a
// planner layered on top has somewhere to attach them.
type PatternGroup struct {
	Patterns  []Pattern
	Filters   []Filter
	Unions    []PatternGroup
	Optionals []PatternGroup
}

// Filter is an unevaluated boolean expression over bound variables,
// carried but not interpreted by this core.
type Filter struct {
	Expr string
}
