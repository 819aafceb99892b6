// Package codec implements the canonical encoding of graph terms into
// BN254 scalar field elements.
//
// The encoding must be reproducible inside a proof circuit, so every
// multi-input hash is MiMC over field elements: the native gnark-crypto
// MiMC here is the exact host-side counterpart of the std/hash/mimc gadget
// the emitted circuits use. Raw strings enter the field through a
// SHA-256 digest reduced modulo the field order; inside the circuit those
// values only ever appear as already-reduced field elements.
package codec

import (
	"crypto/sha256"
	"fmt"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/holiman/uint256"

	"github.com/zkrdf/zksparql/rdf"
)

// Term kind tags bound into every encoding. The values are part of the
// wire format shared with emitted circuits and must never change.
const (
	TagNamedNode    = 0
	TagBlankNode    = 1
	TagLiteral      = 2
	TagVariable     = 3
	TagDefaultGraph = 4
	TagQuad         = 5
)

// TermTag returns the fixed numeric tag for a term kind.
func TermTag(k rdf.TermKind) uint64 {
	switch k {
	case rdf.KindNamedNode:
		return TagNamedNode
	case rdf.KindBlankNode:
		return TagBlankNode
	case rdf.KindLiteral:
		return TagLiteral
	case rdf.KindVariable:
		return TagVariable
	case rdf.KindDefaultGraph:
		return TagDefaultGraph
	default:
		return TagQuad
	}
}

// HashString reduces the SHA-256 digest of s into the scalar field.
func HashString(s string) fr.Element {
	digest := sha256.Sum256([]byte(s))
	v := new(big.Int).SetBytes(digest[:])
	var e fr.Element
	e.SetBigInt(v)
	return e
}

// HashLanguage returns H(language) for a non-empty tag and zero otherwise.
func HashLanguage(lang string) fr.Element {
	var e fr.Element
	if lang == "" {
		return e
	}
	return HashString(lang)
}

// Hash2 is the two-input MiMC compression used for tag binding.
func Hash2(a, b fr.Element) fr.Element {
	return hashElements(a, b)
}

// Hash4 is the four-input MiMC hash used for literal component binding.
func Hash4(a, b, c, d fr.Element) fr.Element {
	return hashElements(a, b, c, d)
}

func hashElements(elems ...fr.Element) fr.Element {
	h := mimc.NewMiMC()
	for _, e := range elems {
		b := e.Bytes()
		h.Write(b[:])
	}
	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return out
}

// LiteralParts decomposes a literal into the four components of its
// encoding preimage: the hashed lexical value, the datatype-aware numeric
// form, the hashed language tag (zero when absent), and the hashed
// datatype IRI.
//
// Unrecognized datatypes deliberately fall back to the hashed lexical
// value for the numeric component; the emitted circuit applies the same
// fallback, so erroring here would break parity.
func LiteralParts(t rdf.Term) (value, numeric, lang, datatype fr.Element) {
	value = HashString(t.Value)
	numeric = literalNumeric(t, value)
	lang = HashLanguage(t.Language)
	datatype = HashString(t.Datatype)
	return value, numeric, lang, datatype
}

func literalNumeric(t rdf.Term, value fr.Element) fr.Element {
	var e fr.Element
	switch t.Datatype {
	case rdf.XSDBoolean:
		switch t.Value {
		case "true", "1":
			e.SetOne()
			return e
		case "false", "0":
			return e
		}
		return value
	case rdf.XSDInteger:
		if n, ok := parseInteger(t.Value); ok {
			return n
		}
		return value
	default:
		return value
	}
}

// parseInteger maps an xsd:integer lexical form into the field. Magnitudes
// are capped at 256 bits; anything wider keeps the opaque fallback.
func parseInteger(s string) (fr.Element, bool) {
	var e fr.Element
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")
	digits = strings.TrimPrefix(digits, "+")
	if digits == "" {
		return e, false
	}
	u, err := uint256.FromDecimal(digits)
	if err != nil {
		return e, false
	}
	e.SetBigInt(u.ToBig())
	if neg {
		e.Neg(&e)
	}
	return e, true
}

// InnerEncoding returns the tag-free body of a term's encoding: hash4 of
// the literal components for literals, the hashed value for everything
// else. Circuits open this body from a hidden input when they need to
// prove a term's kind tag.
func InnerEncoding(t rdf.Term) (fr.Element, error) {
	switch t.Kind {
	case rdf.KindNamedNode, rdf.KindBlankNode:
		return HashString(t.Value), nil
	case rdf.KindLiteral:
		value, numeric, lang, datatype := LiteralParts(t)
		return Hash4(value, numeric, lang, datatype), nil
	case rdf.KindDefaultGraph:
		return HashString(""), nil
	case rdf.KindVariable:
		var zero fr.Element
		return zero, fmt.Errorf("cannot encode variable placeholder ?%s", t.Value)
	default:
		var zero fr.Element
		return zero, fmt.Errorf("cannot encode term kind %s", t.Kind)
	}
}

// EncodeTerm returns the canonical field encoding of a concrete term:
// hash2(kindTag, body).
func EncodeTerm(t rdf.Term) (fr.Element, error) {
	body, err := InnerEncoding(t)
	if err != nil {
		return body, err
	}
	var tag fr.Element
	tag.SetUint64(TermTag(t.Kind))
	return Hash2(tag, body), nil
}

// EncodeTriple returns the Merkle leaf for a triple: the MiMC hash of its
// three term encodings.
func EncodeTriple(t rdf.Triple) (fr.Element, error) {
	s, err := EncodeTerm(t.Subject)
	if err != nil {
		return s, err
	}
	p, err := EncodeTerm(t.Predicate)
	if err != nil {
		return p, err
	}
	o, err := EncodeTerm(t.Object)
	if err != nil {
		return o, err
	}
	return hashElements(s, p, o), nil
}

// EncodeQuad returns the Merkle leaf for a quad: the MiMC hash of its four
// term encodings, the default graph included with its own tag.
func EncodeQuad(q rdf.Quad) (fr.Element, error) {
	s, err := EncodeTerm(q.Subject)
	if err != nil {
		return s, err
	}
	p, err := EncodeTerm(q.Predicate)
	if err != nil {
		return p, err
	}
	o, err := EncodeTerm(q.Object)
	if err != nil {
		return o, err
	}
	g, err := EncodeTerm(q.Graph)
	if err != nil {
		return g, err
	}
	return Hash4(s, p, o, g), nil
}

// EncodeDataset returns the leaves for an ordered quad sequence. Any
// encoding failure aborts the whole batch.
func EncodeDataset(quads []rdf.Quad) ([]fr.Element, error) {
	leaves := make([]fr.Element, len(quads))
	for i, q := range quads {
		leaf, err := EncodeQuad(q)
		if err != nil {
			return nil, fmt.Errorf("quad %d: %w", i, err)
		}
		leaves[i] = leaf
	}
	return leaves, nil
}
