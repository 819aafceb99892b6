// Package rdf provides the graph term data model consumed by the rest of
// the compiler: IRIs, blank nodes, literals, query variables, and quads,
// plus an N-Quads reader/writer for canonical dataset input.
package rdf

import "fmt"

// TermKind identifies the kind of a graph term.
type TermKind int

const (
	KindNamedNode TermKind = iota
	KindBlankNode
	KindLiteral
	KindVariable
	KindDefaultGraph
	KindQuad
)

func (k TermKind) String() string {
	switch k {
	case KindNamedNode:
		return "NamedNode"
	case KindBlankNode:
		return "BlankNode"
	case KindLiteral:
		return "Literal"
	case KindVariable:
		return "Variable"
	case KindDefaultGraph:
		return "DefaultGraph"
	case KindQuad:
		return "Quad"
	default:
		return "?"
	}
}

// Term is an atomic graph value. The zero value is the default graph.
//
// Value holds the IRI string, blank node label, literal lexical form, or
// variable name depending on Kind. Language and Datatype are only
// meaningful for literals.
type Term struct {
	Kind     TermKind
	Value    string
	Language string
	Datatype string
}

// NewNamedNode returns an IRI term.
func NewNamedNode(iri string) Term {
	return Term{Kind: KindNamedNode, Value: iri}
}

// NewBlankNode returns a blank node term with the given label (no "_:" prefix).
func NewBlankNode(label string) Term {
	return Term{Kind: KindBlankNode, Value: label}
}

// NewLiteral returns a plain string literal (datatype xsd:string).
func NewLiteral(value string) Term {
	return Term{Kind: KindLiteral, Value: value, Datatype: XSDString}
}

// NewLangLiteral returns a language-tagged literal (datatype rdf:langString).
func NewLangLiteral(value, language string) Term {
	return Term{Kind: KindLiteral, Value: value, Language: language, Datatype: RDFLangString}
}

// NewTypedLiteral returns a literal with an explicit datatype IRI.
func NewTypedLiteral(value, datatype string) Term {
	return Term{Kind: KindLiteral, Value: value, Datatype: datatype}
}

// NewVariable returns a query variable placeholder (no "?" prefix).
func NewVariable(name string) Term {
	return Term{Kind: KindVariable, Value: name}
}

// DefaultGraph returns the default graph marker term.
func DefaultGraph() Term {
	return Term{Kind: KindDefaultGraph}
}

// IsVariable reports whether the term is a query variable.
func (t Term) IsVariable() bool { return t.Kind == KindVariable }

// IsConcrete reports whether the term denotes a fixed graph value
// (anything other than a variable placeholder).
func (t Term) IsConcrete() bool { return t.Kind != KindVariable }

// Equal reports term equality: same kind, value, language, and datatype.
func (t Term) Equal(o Term) bool {
	return t.Kind == o.Kind && t.Value == o.Value &&
		t.Language == o.Language && t.Datatype == o.Datatype
}

func (t Term) String() string {
	switch t.Kind {
	case KindNamedNode:
		return "<" + t.Value + ">"
	case KindBlankNode:
		return "_:" + t.Value
	case KindLiteral:
		if t.Language != "" {
			return fmt.Sprintf("%q@%s", t.Value, t.Language)
		}
		if t.Datatype != "" && t.Datatype != XSDString {
			return fmt.Sprintf("%q^^<%s>", t.Value, t.Datatype)
		}
		return fmt.Sprintf("%q", t.Value)
	case KindVariable:
		return "?" + t.Value
	case KindDefaultGraph:
		return "DEFAULT"
	default:
		return "?"
	}
}

// Triple is an ordered (subject, predicate, object) tuple.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// Position returns the term at position 0 (subject), 1 (predicate), or 2 (object).
func (t Triple) Position(i int) Term {
	switch i {
	case 0:
		return t.Subject
	case 1:
		return t.Predicate
	default:
		return t.Object
	}
}

func (t Triple) String() string {
	return fmt.Sprintf("%s %s %s .", t.Subject, t.Predicate, t.Object)
}

// Quad is a triple plus a graph term.
type Quad struct {
	Subject   Term
	Predicate Term
	Object    Term
	Graph     Term
}

// Triple returns the quad without its graph component.
func (q Quad) Triple() Triple {
	return Triple{Subject: q.Subject, Predicate: q.Predicate, Object: q.Object}
}

// Position returns the term at position 0..3 (subject, predicate, object, graph).
func (q Quad) Position(i int) Term {
	switch i {
	case 0:
		return q.Subject
	case 1:
		return q.Predicate
	case 2:
		return q.Object
	default:
		return q.Graph
	}
}

// Equal reports component-wise quad equality.
func (q Quad) Equal(o Quad) bool {
	return q.Subject.Equal(o.Subject) && q.Predicate.Equal(o.Predicate) &&
		q.Object.Equal(o.Object) && q.Graph.Equal(o.Graph)
}

func (q Quad) String() string {
	if q.Graph.Kind == KindDefaultGraph {
		return q.Triple().String()
	}
	return fmt.Sprintf("%s %s %s %s .", q.Subject, q.Predicate, q.Object, q.Graph)
}
