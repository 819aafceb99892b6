package codec

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/zkrdf/zksparql/rdf"
)

func TestEncodeTerm_Deterministic(t *testing.T) {
	terms := []rdf.Term{
		rdf.NewNamedNode("http://example.org/alice"),
		rdf.NewBlankNode("b0"),
		rdf.NewLiteral("hello"),
		rdf.NewLangLiteral("hello", "en"),
		rdf.NewTypedLiteral("23", rdf.XSDInteger),
		rdf.DefaultGraph(),
	}
	for _, term := range terms {
		a, err := EncodeTerm(term)
		if err != nil {
			t.Fatalf("encode %v: %v", term, err)
		}
		b, err := EncodeTerm(term)
		if err != nil {
			t.Fatalf("encode %v: %v", term, err)
		}
		if !a.Equal(&b) {
			t.Errorf("encoding of %v is not deterministic", term)
		}
	}
}

func TestEncodeTerm_KindSeparation(t *testing.T) {
	iri, err := EncodeTerm(rdf.NewNamedNode("x"))
	if err != nil {
		t.Fatal(err)
	}
	blank, err := EncodeTerm(rdf.NewBlankNode("x"))
	if err != nil {
		t.Fatal(err)
	}
	if iri.Equal(&blank) {
		t.Error("IRI and blank node with same value must encode differently")
	}
}

func TestEncodeTerm_LanguageSeparation(t *testing.T) {
	en, _ := EncodeTerm(rdf.NewLangLiteral("label", "en"))
	fr_, _ := EncodeTerm(rdf.NewLangLiteral("label", "fr"))
	plain, _ := EncodeTerm(rdf.NewLiteral("label"))
	if en.Equal(&fr_) {
		t.Error("different language tags must encode differently")
	}
	if en.Equal(&plain) {
		t.Error("tagged and untagged literals must encode differently")
	}
}

func TestEncodeTerm_Variable(t *testing.T) {
	if _, err := EncodeTerm(rdf.NewVariable("x")); err == nil {
		t.Error("expected error encoding a variable placeholder")
	}
}

func TestLiteralParts_Boolean(t *testing.T) {
	var one, zero fr.Element
	one.SetOne()

	for _, lexical := range []string{"true", "1"} {
		_, numeric, _, _ := LiteralParts(rdf.NewTypedLiteral(lexical, rdf.XSDBoolean))
		if !numeric.Equal(&one) {
			t.Errorf("boolean %q: expected numeric form 1", lexical)
		}
	}
	for _, lexical := range []string{"false", "0"} {
		_, numeric, _, _ := LiteralParts(rdf.NewTypedLiteral(lexical, rdf.XSDBoolean))
		if !numeric.Equal(&zero) {
			t.Errorf("boolean %q: expected numeric form 0", lexical)
		}
	}

	// Malformed boolean keeps the opaque fallback.
	value, numeric, _, _ := LiteralParts(rdf.NewTypedLiteral("yes", rdf.XSDBoolean))
	if !numeric.Equal(&value) {
		t.Error("malformed boolean must fall back to hashed value")
	}
}

func TestLiteralParts_Integer(t *testing.T) {
	_, numeric, _, _ := LiteralParts(rdf.NewTypedLiteral("23", rdf.XSDInteger))
	var want fr.Element
	want.SetUint64(23)
	if !numeric.Equal(&want) {
		t.Errorf("expected numeric form 23, got %s", numeric.String())
	}

	_, negNumeric, _, _ := LiteralParts(rdf.NewTypedLiteral("-5", rdf.XSDInteger))
	var five fr.Element
	five.SetUint64(5)
	five.Neg(&five)
	if !negNumeric.Equal(&five) {
		t.Errorf("expected numeric form -5 in the field, got %s", negNumeric.String())
	}
}

func TestLiteralParts_UnknownDatatypeFallback(t *testing.T) {
	term := rdf.NewTypedLiteral("2024-01-01", "http://www.w3.org/2001/XMLSchema#date")
	value, numeric, _, _ := LiteralParts(term)
	if !numeric.Equal(&value) {
		t.Error("unknown datatype must fall back to hashed lexical value")
	}
}

func TestEncodeTriple_MatchesManualComposition(t *testing.T) {
	triple := rdf.Triple{
		Subject:   rdf.NewNamedNode("http://example.org/s"),
		Predicate: rdf.NewNamedNode("http://example.org/p"),
		Object:    rdf.NewLiteral("o"),
	}
	leaf, err := EncodeTriple(triple)
	if err != nil {
		t.Fatal(err)
	}

	s, _ := EncodeTerm(triple.Subject)
	p, _ := EncodeTerm(triple.Predicate)
	o, _ := EncodeTerm(triple.Object)
	want := hashElements(s, p, o)
	if !leaf.Equal(&want) {
		t.Error("triple leaf does not match component composition")
	}
}

func TestEncodeDataset_AbortsOnBadQuad(t *testing.T) {
	quads := []rdf.Quad{
		{
			Subject:   rdf.NewNamedNode("http://a"),
			Predicate: rdf.NewNamedNode("http://p"),
			Object:    rdf.NewVariable("oops"),
			Graph:     rdf.DefaultGraph(),
		},
	}
	if _, err := EncodeDataset(quads); err == nil {
		t.Error("expected dataset encoding to abort on unencodable term")
	}
}
