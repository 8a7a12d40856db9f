package idspace

import (
	"testing"

	"github.com/araxia/sparqld/internal/model"
)

func TestIsVariable(t *testing.T) {
	cases := []struct {
		id   int64
		want bool
	}{
		{5, false},
		{0, false},
		{-1, true},
		{-100, true},
		{PredicateID, false},
		{TypeID, false},
	}
	for _, c := range cases {
		if got := IsVariable(c.id); got != c.want {
			t.Errorf("IsVariable(%d) = %v, want %v", c.id, got, c.want)
		}
	}
}

func TestClassify(t *testing.T) {
	bound := map[int64]model.VarBinding{-1: {Column: 0}}

	if got := Classify(42, bound); got != Const {
		t.Errorf("Classify(const) = %v, want Const", got)
	}
	if got := Classify(-1, bound); got != Known {
		t.Errorf("Classify(bound var) = %v, want Known", got)
	}
	if got := Classify(-2, bound); got != Unknown {
		t.Errorf("Classify(unbound var) = %v, want Unknown", got)
	}
	if got := Classify(PredicateID, bound); got != Const {
		t.Errorf("Classify(PredicateID) = %v, want Const", got)
	}
}

func TestKindString(t *testing.T) {
	if Const.String() != "const" || Known.String() != "known" || Unknown.String() != "unknown" {
		t.Fatal("Kind.String() mismatch")
	}
	if Kind(99).String() != "invalid" {
		t.Fatal("Kind.String() should fall back to invalid")
	}
}
