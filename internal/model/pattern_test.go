package model

import "testing"

func TestDirectionString(t *testing.T) {
	if OUT.String() != "OUT" || IN.String() != "IN" {
		t.Fatal("Direction.String mismatch")
	}
}

func TestPatternIsAttribute(t *testing.T) {
	edge := Pattern{PredType: PredTypeEdge}
	if edge.IsAttribute() {
		t.Fatal("PredTypeEdge should not be an attribute pattern")
	}
	attr := Pattern{PredType: PredType(AttrString)}
	if !attr.IsAttribute() {
		t.Fatal("a positive PredType should be an attribute pattern")
	}
}
