package rdf

import (
	"bytes"
	"strings"
	"testing"
)

func TestDecodeNQuads_Triples(t *testing.T) {
	input := `<http://example.org/alice> <http://example.org/name> "Alice" .
<http://example.org/alice> <http://example.org/age> "23"^^<http://www.w3.org/2001/XMLSchema#integer> .
<http://example.org/alice> <http://example.org/label> "Alice"@en .
_:b0 <http://example.org/knows> <http://example.org/alice> <http://example.org/g> .
`
	quads, err := DecodeNQuads(strings.NewReader(input))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(quads) != 4 {
		t.Fatalf("expected 4 quads, got %d", len(quads))
	}

	if quads[0].Subject.Value != "http://example.org/alice" {
		t.Errorf("unexpected subject: %v", quads[0].Subject)
	}
	if quads[0].Object.Kind != KindLiteral || quads[0].Object.Datatype != XSDString {
		t.Errorf("expected plain string literal, got %v", quads[0].Object)
	}
	if quads[0].Graph.Kind != KindDefaultGraph {
		t.Errorf("expected default graph, got %v", quads[0].Graph)
	}

	if quads[1].Object.Datatype != XSDInteger || quads[1].Object.Value != "23" {
		t.Errorf("expected integer literal 23, got %v", quads[1].Object)
	}

	if quads[2].Object.Language != "en" || quads[2].Object.Datatype != RDFLangString {
		t.Errorf("expected lang literal, got %v", quads[2].Object)
	}

	if quads[3].Subject.Kind != KindBlankNode || quads[3].Subject.Value != "b0" {
		t.Errorf("expected blank node subject, got %v", quads[3].Subject)
	}
	if quads[3].Graph.Value != "http://example.org/g" {
		t.Errorf("expected named graph, got %v", quads[3].Graph)
	}
}

func TestDecodeNQuads_CommentsAndBlanks(t *testing.T) {
	input := `# header comment

<http://a> <http://p> "x\n\"y\"" .
`
	quads, err := DecodeNQuads(strings.NewReader(input))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(quads) != 1 {
		t.Fatalf("expected 1 quad, got %d", len(quads))
	}
	if quads[0].Object.Value != "x\n\"y\"" {
		t.Errorf("unescaping failed: %q", quads[0].Object.Value)
	}
}

func TestDecodeNQuads_Errors(t *testing.T) {
	cases := []string{
		`<http://a> "lit" <http://o> .`, // literal predicate
		`<http://a> <http://p> <http://o>`,
		`<http://a <http://p> <http://o> .`,
	}
	for _, input := range cases {
		if _, err := DecodeNQuads(strings.NewReader(input)); err == nil {
			t.Errorf("expected error for %q", input)
		}
	}
}

func TestEncodeNQuads_RoundTrip(t *testing.T) {
	quads := []Quad{
		{
			Subject:   NewNamedNode("http://example.org/s"),
			Predicate: NewNamedNode("http://example.org/p"),
			Object:    NewLangLiteral("hello", "en"),
			Graph:     DefaultGraph(),
		},
		{
			Subject:   NewBlankNode("b1"),
			Predicate: NewNamedNode("http://example.org/p"),
			Object:    NewTypedLiteral("42", XSDInteger),
			Graph:     NewNamedNode("http://example.org/g"),
		},
	}

	var buf bytes.Buffer
	if err := EncodeNQuads(&buf, quads); err != nil {
		t.Fatalf("encode error: %v", err)
	}
	decoded, err := DecodeNQuads(&buf)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(decoded) != len(quads) {
		t.Fatalf("expected %d quads, got %d", len(quads), len(decoded))
	}
	for i := range quads {
		if !decoded[i].Equal(quads[i]) {
			t.Errorf("quad %d mismatch: %v != %v", i, decoded[i], quads[i])
		}
	}
}

func TestQuoteLiteral(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain", `"plain"`},
		{"tab\there", `"tab\there"`},
		{"line\nbreak", `"line\nbreak"`},
		{"cr\rhere", `"cr\rhere"`},
		{`say "hi"`, `"say \"hi\""`},
		{`back\slash`, `"back\\slash"`},
		// Non-ASCII passes through as raw UTF-8.
		{"café", `"café"`},
		{"日本語", `"日本語"`},
		// Remaining control characters use \u form.
		{"bell\x07", `"bell"`},
	}
	for _, tc := range cases {
		if got := quoteLiteral(tc.in); got != tc.want {
			t.Errorf("quoteLiteral(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestEncodeNQuads_EscapedRoundTrip(t *testing.T) {
	quads := []Quad{
		{
			Subject:   NewNamedNode("http://example.org/s"),
			Predicate: NewNamedNode("http://example.org/p"),
			Object:    NewLiteral("line one\nline \"two\"\tcafé"),
			Graph:     DefaultGraph(),
		},
	}
	var buf bytes.Buffer
	if err := EncodeNQuads(&buf, quads); err != nil {
		t.Fatalf("encode error: %v", err)
	}
	decoded, err := DecodeNQuads(&buf)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(decoded) != 1 || !decoded[0].Equal(quads[0]) {
		t.Fatalf("round trip mismatch: %v", decoded)
	}
}

func TestTermEqual(t *testing.T) {
	a := NewLangLiteral("x", "en")
	b := NewLangLiteral("x", "fr")
	if a.Equal(b) {
		t.Error("literals with different language tags must not be equal")
	}
	if !NewNamedNode("http://a").Equal(NewNamedNode("http://a")) {
		t.Error("identical IRIs must be equal")
	}
}
