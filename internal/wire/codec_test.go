package wire

import (
	"testing"

	"github.com/araxia/sparqld/internal/model"
)

func TestBundleRoundTrip(t *testing.T) {
	b := Bundle{Kind: KindSparqlQuery, Payload: []byte("hello")}
	buf := EncodeBundle(b)

	got, n, err := DecodeBundle(buf)
	if err != nil {
		t.Fatalf("DecodeBundle: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d bytes, want %d", n, len(buf))
	}
	if got.Kind != b.Kind || string(got.Payload) != string(b.Payload) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestBundleConcatenatedStream(t *testing.T) {
	b1 := EncodeBundle(Bundle{Kind: KindSparqlQuery, Payload: []byte("a")})
	b2 := EncodeBundle(Bundle{Kind: KindDynamicLoad, Payload: []byte("bb")})
	buf := append(append([]byte(nil), b1...), b2...)

	first, n1, err := DecodeBundle(buf)
	if err != nil {
		t.Fatalf("decode first: %v", err)
	}
	second, n2, err := DecodeBundle(buf[n1:])
	if err != nil {
		t.Fatalf("decode second: %v", err)
	}
	if n1+n2 != len(buf) {
		t.Fatalf("consumed %d+%d, want %d", n1, n2, len(buf))
	}
	if first.Kind != KindSparqlQuery || second.Kind != KindDynamicLoad {
		t.Fatal("decoded bundles out of order")
	}
}

func TestDecodeBundleTruncated(t *testing.T) {
	if _, _, err := DecodeBundle([]byte{1, 2}); err == nil {
		t.Fatal("expected error on truncated header")
	}
	full := EncodeBundle(Bundle{Kind: 1, Payload: []byte("abcd")})
	if _, _, err := DecodeBundle(full[:len(full)-2]); err == nil {
		t.Fatal("expected error on truncated payload")
	}
}

func buildQuery() *model.Query {
	q := &model.Query{
		ID:  100,
		PID: 200,
		PatternGroup: model.PatternGroup{
			Patterns: []model.Pattern{
				{Subject: -1, Predicate: 7, Direction: model.IN, Object: -2, PredType: model.PredTypeEdge},
			},
			Filters: []model.Filter{{Expr: "?x > 3"}},
			Unions: []model.PatternGroup{
				{Patterns: []model.Pattern{{Subject: -3, Predicate: 8, Object: -4}}},
			},
		},
		Step:         1,
		CorunStep:    -1,
		FetchStep:    1,
		LocalVar:     -1,
		Orders:       []model.Order{{Var: -1, Desc: true}},
		Limit:        10,
		Offset:       5,
		Distinct:     true,
		Silent:       false,
		RequiredVars: []int64{-1, -2},
	}
	q.Result = model.NewResultTable()
	q.Result.ColNum = 2
	q.Result.AttrColNum = 1
	q.Result.BindVar(-1, 0)
	q.Result.BindAttrVar(-2, 0, model.AttrString)
	q.Result.AppendRow([]int64{1, 2}, []model.AttrValue{model.AttrValueString("x")})
	q.Result.AppendRow([]int64{3, 4}, []model.AttrValue{model.AttrValueString("y")})
	return q
}

func TestQueryRoundTrip(t *testing.T) {
	q := buildQuery()
	buf := EncodeQuery(q)

	got, err := DecodeQuery(buf)
	if err != nil {
		t.Fatalf("DecodeQuery: %v", err)
	}

	if got.ID != q.ID || got.PID != q.PID || got.Step != q.Step {
		t.Fatalf("scalar fields mismatch: %+v", got)
	}
	if len(got.PatternGroup.Patterns) != 1 || got.PatternGroup.Patterns[0].Predicate != 7 {
		t.Fatalf("pattern mismatch: %+v", got.PatternGroup.Patterns)
	}
	if len(got.PatternGroup.Filters) != 1 || got.PatternGroup.Filters[0].Expr != "?x > 3" {
		t.Fatalf("filter mismatch: %+v", got.PatternGroup.Filters)
	}
	if len(got.PatternGroup.Unions) != 1 {
		t.Fatalf("union mismatch: %+v", got.PatternGroup.Unions)
	}
	if got.Result.RowNum != 2 || got.Result.Rows[1][1] != 4 {
		t.Fatalf("result rows mismatch: %+v", got.Result.Rows)
	}
	if !got.Result.AttrRows[0][0].Equal(model.AttrValueString("x")) {
		t.Fatalf("attr row mismatch: %+v", got.Result.AttrRows)
	}
	col, ok := got.Result.ColumnOf(-1)
	if !ok || col != 0 {
		t.Fatal("Var2Col binding for -1 did not survive the round trip")
	}
	if !got.Distinct || got.Silent {
		t.Fatal("bool flags did not survive the round trip")
	}
	if len(got.Orders) != 1 || !got.Orders[0].Desc {
		t.Fatal("Orders did not survive the round trip")
	}
	if len(got.RequiredVars) != 2 || got.RequiredVars[1] != -2 {
		t.Fatal("RequiredVars did not survive the round trip")
	}
}

func TestDecodeQueryTruncated(t *testing.T) {
	buf := EncodeQuery(buildQuery())
	if _, err := DecodeQuery(buf[:10]); err == nil {
		t.Fatal("expected an error decoding a truncated query payload")
	}
}
