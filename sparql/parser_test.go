package sparql

import (
	"errors"
	"testing"

	"github.com/zkrdf/zksparql/rdf"
)

const ageQuery = `
PREFIX foaf: <http://xmlns.com/foaf/0.1/>
SELECT ?person WHERE {
  ?person a foaf:Person ;
          foaf:age ?age .
  FILTER(?age >= 18)
}`

func TestParseBasicSelect(t *testing.T) {
	q, err := Parse(ageQuery)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := q.Root.Variables; len(got) != 1 || got[0] != "person" {
		t.Fatalf("projection = %v, want [person]", got)
	}

	patterns := q.Patterns()
	if len(patterns) != 2 {
		t.Fatalf("got %d patterns, want 2", len(patterns))
	}
	if patterns[0].Predicate.Value != "http://www.w3.org/1999/02/22-rdf-syntax-ns#type" {
		t.Fatalf("a keyword not expanded: %s", patterns[0].Predicate.Value)
	}
	if patterns[1].Predicate.Value != "http://xmlns.com/foaf/0.1/age" {
		t.Fatalf("prefix not expanded: %s", patterns[1].Predicate.Value)
	}
	if !patterns[0].Subject.IsVariable() || patterns[0].Subject.Value != "person" {
		t.Fatalf("subject = %v", patterns[0].Subject)
	}

	filters := q.Filters()
	if len(filters) != 1 {
		t.Fatalf("got %d filters, want 1", len(filters))
	}
	cmp, ok := filters[0].(*CompareExpr)
	if !ok || cmp.Op != ">=" {
		t.Fatalf("filter = %#v, want >= comparison", filters[0])
	}
	rhs, ok := cmp.Right.(*TermExpr)
	if !ok || rhs.Term.Datatype != rdf.XSDInteger || rhs.Term.Value != "18" {
		t.Fatalf("comparison rhs = %#v", cmp.Right)
	}
}

func TestParseObjectList(t *testing.T) {
	q, err := Parse(`
PREFIX ex: <http://example.org/>
SELECT ?s WHERE { ?s ex:knows ex:alice, ex:bob . }`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	patterns := q.Patterns()
	if len(patterns) != 2 {
		t.Fatalf("got %d patterns, want 2", len(patterns))
	}
	if patterns[0].Object.Value != "http://example.org/alice" ||
		patterns[1].Object.Value != "http://example.org/bob" {
		t.Fatalf("object list not expanded: %v", patterns)
	}
	for _, p := range patterns {
		if !p.Subject.Equal(patterns[0].Subject) || !p.Predicate.Equal(patterns[0].Predicate) {
			t.Fatalf("object list changed subject/predicate: %v", p)
		}
	}
}

func TestParseZeroOrOnePath(t *testing.T) {
	q, err := Parse(`
PREFIX ex: <http://example.org/>
SELECT ?s WHERE { ?s ex:nickname? ?n . }`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	patterns := q.Patterns()
	if len(patterns) != 1 {
		t.Fatalf("got %d patterns, want 1", len(patterns))
	}
	if patterns[0].Path != PathZeroOrOne {
		t.Fatalf("path = %v, want zero-or-one", patterns[0].Path)
	}
}

func TestParseBind(t *testing.T) {
	q, err := Parse(`
PREFIX ex: <http://example.org/>
SELECT ?s ?l WHERE {
  ?s ex:label ?label .
  BIND(lang(?label) AS ?l)
}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	extends := q.Extends()
	if len(extends) != 1 {
		t.Fatalf("got %d extends, want 1", len(extends))
	}
	if extends[0].Var != "l" {
		t.Fatalf("bind var = %q", extends[0].Var)
	}
	call, ok := extends[0].Expr.(*CallExpr)
	if !ok || call.Func != "lang" {
		t.Fatalf("bind expr = %#v, want lang call", extends[0].Expr)
	}
}

func TestParseLiterals(t *testing.T) {
	q, err := Parse(`
PREFIX ex: <http://example.org/>
SELECT ?s WHERE {
  ?s ex:name "Alice" ;
     ex:greeting "hello"@fr ;
     ex:age "30"^^<http://www.w3.org/2001/XMLSchema#integer> ;
     ex:active true .
}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	patterns := q.Patterns()
	if len(patterns) != 4 {
		t.Fatalf("got %d patterns, want 4", len(patterns))
	}
	if o := patterns[0].Object; o.Datatype != rdf.XSDString || o.Value != "Alice" {
		t.Fatalf("plain literal = %v", o)
	}
	if o := patterns[1].Object; o.Language != "fr" || o.Datatype != rdf.RDFLangString {
		t.Fatalf("lang literal = %v", o)
	}
	if o := patterns[2].Object; o.Datatype != rdf.XSDInteger || o.Value != "30" {
		t.Fatalf("typed literal = %v", o)
	}
	if o := patterns[3].Object; o.Datatype != rdf.XSDBoolean || o.Value != "true" {
		t.Fatalf("boolean literal = %v", o)
	}
}

func TestParseExpressionPrecedence(t *testing.T) {
	q, err := Parse(`
PREFIX ex: <http://example.org/>
SELECT ?s WHERE {
  ?s ex:p ?o .
  FILTER(isIRI(?o) || isBlank(?o) && !isLiteral(?o))
}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	filters := q.Filters()
	if len(filters) != 1 {
		t.Fatalf("got %d filters, want 1", len(filters))
	}
	// && binds tighter than ||.
	or, ok := filters[0].(*OrExpr)
	if !ok {
		t.Fatalf("top expr = %#v, want ||", filters[0])
	}
	if _, ok := or.Left.(*CallExpr); !ok {
		t.Fatalf("|| left = %#v, want call", or.Left)
	}
	and, ok := or.Right.(*AndExpr)
	if !ok {
		t.Fatalf("|| right = %#v, want &&", or.Right)
	}
	not, ok := and.Right.(*NotExpr)
	if !ok {
		t.Fatalf("&& right = %#v, want !", and.Right)
	}
	if _, ok := not.Inner.(*CallExpr); !ok {
		t.Fatalf("! inner = %#v, want call", not.Inner)
	}
}

func TestParseUnsupported(t *testing.T) {
	cases := []struct {
		name  string
		query string
	}{
		{"optional", `SELECT ?s WHERE { OPTIONAL { ?s ?p ?o } }`},
		{"union", `SELECT ?s WHERE { UNION { ?s a ?t } }`},
		{"distinct", `SELECT DISTINCT ?s WHERE { ?s a ?t }`},
		{"ask", `ASK WHERE { ?s a ?t }`},
		{"limit", `PREFIX ex: <http://example.org/> SELECT ?s WHERE { ?s ex:p ?o . } LIMIT 5`},
		{"variable predicate", `SELECT ?s WHERE { ?s ?p ?o . }`},
		{"unknown function", `PREFIX ex: <http://example.org/> SELECT ?s WHERE { ?s ex:p ?o . FILTER(regex(?o)) }`},
		{"star projection", `SELECT * WHERE { ?s a ?t }`},
	}
	for _, tc := range cases {
		_, err := Parse(tc.query)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if tc.name != "star projection" && !errors.Is(err, ErrUnsupported) {
			t.Fatalf("%s: error %v is not ErrUnsupported", tc.name, err)
		}
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name  string
		query string
	}{
		{"undeclared prefix", `SELECT ?s WHERE { ?s ex:p ?o . }`},
		{"missing where", `SELECT ?s { ?s a ?t }`},
		{"unterminated group", `PREFIX ex: <http://example.org/> SELECT ?s WHERE { ?s ex:p ?o .`},
		{"bind without as", `PREFIX ex: <http://example.org/> SELECT ?s WHERE { BIND(lang(?s) ?l) }`},
		{"trailing garbage", `PREFIX ex: <http://example.org/> SELECT ?s WHERE { ?s ex:p ?o . } garbage`},
	}
	for _, tc := range cases {
		if _, err := Parse(tc.query); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
