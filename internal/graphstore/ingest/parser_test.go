package ingest

import "testing"

func TestParseLineEdge(t *testing.T) {
	tr, ok, err := ParseLine(`<http://ex/alice> <http://ex/knows> <http://ex/bob> .`)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true for a well-formed triple")
	}
	if tr.Subject != "http://ex/alice" || tr.Predicate != "http://ex/knows" || tr.Object != "http://ex/bob" {
		t.Fatalf("unexpected triple: %+v", tr)
	}
	if tr.ObjectIsLiteral {
		t.Fatal("an IRI object should not be marked as a literal")
	}
}

func TestParseLineLiteral(t *testing.T) {
	tr, ok, err := ParseLine(`<http://ex/alice> <http://ex/name> "Alice" .`)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if !ok || !tr.ObjectIsLiteral || tr.Object != "Alice" {
		t.Fatalf("unexpected triple: %+v (ok=%v)", tr, ok)
	}
}

func TestParseLineSkipsBlankAndComment(t *testing.T) {
	for _, line := range []string{"", "   ", "# a comment"} {
		_, ok, err := ParseLine(line)
		if err != nil {
			t.Fatalf("ParseLine(%q): %v", line, err)
		}
		if ok {
			t.Fatalf("ParseLine(%q) should return ok=false", line)
		}
	}
}

func TestParseLineErrors(t *testing.T) {
	cases := []string{
		`not-an-iri <http://ex/p> <http://ex/o> .`,
		`<http://ex/s> <http://ex/p unclosed`,
		`<http://ex/s> <http://ex/p> "unclosed literal`,
	}
	for _, line := range cases {
		if _, _, err := ParseLine(line); err == nil {
			t.Errorf("ParseLine(%q): expected error, got none", line)
		}
	}
}
