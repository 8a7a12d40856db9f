package model

import "testing"

func pg(patterns ...Pattern) PatternGroup {
	return PatternGroup{Patterns: patterns}
}

func TestQueryIsFinished(t *testing.T) {
	q := &Query{PatternGroup: pg(Pattern{}, Pattern{})}
	if q.IsFinished() {
		t.Fatal("fresh query with 2 patterns should not be finished")
	}
	q.Step = 2
	if !q.IsFinished() {
		t.Fatal("Step == len(Patterns) should be finished")
	}
}

func TestQueryStartsFromIndex(t *testing.T) {
	const predicateID, typeID = int64(-1000), int64(-2000)

	q := &Query{
		PatternGroup: pg(Pattern{Subject: -1, Predicate: predicateID, Object: -2}),
		Result:       NewResultTable(),
	}
	if !q.StartsFromIndex(predicateID, typeID) {
		t.Fatal("step 0, empty table, predicate selector should start from index")
	}

	q.Result.ColNum = 1
	if q.StartsFromIndex(predicateID, typeID) {
		t.Fatal("a bound column should disqualify the index fast path")
	}

	q2 := &Query{
		PatternGroup: pg(Pattern{Subject: -1, Predicate: 7, Object: -2}),
		Result:       NewResultTable(),
	}
	if q2.StartsFromIndex(predicateID, typeID) {
		t.Fatal("an ordinary predicate should not start from index")
	}
}

func TestQueryClone(t *testing.T) {
	q := &Query{
		PatternGroup: pg(Pattern{}),
		Result:       NewResultTable(),
		Orders:       []Order{{Var: -1}},
		RequiredVars: []int64{-1, -2},
	}
	q.Result.AppendRow([]int64{1}, nil)

	clone := q.Clone()
	clone.Orders[0].Var = -99
	clone.RequiredVars[0] = -99
	clone.Result.Rows[0][0] = 99

	if q.Orders[0].Var != -1 {
		t.Fatal("mutating clone Orders affected original")
	}
	if q.RequiredVars[0] != -1 {
		t.Fatal("mutating clone RequiredVars affected original")
	}
	if q.Result.Rows[0][0] != 1 {
		t.Fatal("mutating clone Result affected original")
	}
}
