package compile

import (
	"errors"
	"testing"

	"github.com/zkrdf/zksparql/sparql"
)

func mustParse(t *testing.T, query string) *sparql.Query {
	t.Helper()
	q, err := sparql.Parse(query)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return q
}

func TestTranslateAgeQuery(t *testing.T) {
	q := mustParse(t, `
PREFIX ex: <http://example.org/>
SELECT ?p WHERE {
  ?p ex:age ?a .
  FILTER(?a >= 18)
}`)
	info, err := Translate(q)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}

	if len(info.Required) != 1 || len(info.Optional) != 0 {
		t.Fatalf("slots = %d required, %d optional", len(info.Required), len(info.Optional))
	}
	if len(info.Binds) != 2 {
		t.Fatalf("binds = %v, want p and a", info.Binds)
	}
	if info.Binds[0].Var != "p" || info.Binds[0].Value.Key() != "input:0:0" {
		t.Fatalf("bind 0 = %v", info.Binds[0])
	}
	if info.Binds[1].Var != "a" || info.Binds[1].Value.Key() != "input:0:2" {
		t.Fatalf("bind 1 = %v", info.Binds[1])
	}

	// Predicate constant pins the slot; the filter adds a geq.
	c := info.Constraint
	if c.Kind != ConstraintAll || len(c.Children) != 2 {
		t.Fatalf("constraint = %s", c)
	}
	if c.Children[0].Kind != ConstraintEqual {
		t.Fatalf("conjunct 0 = %s", c.Children[0])
	}
	geq := c.Children[1]
	if geq.Kind != ConstraintBinary || geq.Op != "geq" {
		t.Fatalf("conjunct 1 = %s", geq)
	}
	if geq.Right.Kind != TermStatic || geq.Right.Static.Value != "18" {
		t.Fatalf("geq threshold = %s", geq.Right)
	}
}

func TestTranslateRepeatedVariable(t *testing.T) {
	q := mustParse(t, `
PREFIX ex: <http://example.org/>
SELECT ?x WHERE {
  ?x ex:knows ?y .
  ?y ex:knows ?x .
}`)
	info, err := Translate(q)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if len(info.Required) != 2 {
		t.Fatalf("slots = %d", len(info.Required))
	}
	// First occurrences bind; repeats constrain.
	if len(info.Binds) != 2 {
		t.Fatalf("binds = %v", info.Binds)
	}
	var repeats int
	for _, c := range info.Constraint.Children {
		if c.Kind == ConstraintEqual && c.Left.Kind == TermVariable {
			repeats++
		}
	}
	if repeats != 2 {
		t.Fatalf("repeat constraints = %d, want 2 (?y at 1:0, ?x at 1:2)", repeats)
	}
}

func TestTranslateZeroOrOnePath(t *testing.T) {
	q := mustParse(t, `
PREFIX ex: <http://example.org/>
SELECT ?s ?n WHERE {
  ?s ex:name ?n .
  ?s ex:nickname? ?n .
}`)
	info, err := Translate(q)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if len(info.Required) != 1 || len(info.Optional) != 1 {
		t.Fatalf("slots = %d required, %d optional", len(info.Required), len(info.Optional))
	}

	var some *Constraint
	for _, c := range info.Constraint.Children {
		if c.Kind == ConstraintSome {
			some = c
		}
	}
	if some == nil {
		t.Fatalf("no disjunction in %s", info.Constraint)
	}
	if len(some.Children) != 2 {
		t.Fatalf("disjunction arity = %d", len(some.Children))
	}
	if some.Children[0].Kind != ConstraintEqual {
		t.Fatalf("zero branch = %s", some.Children[0])
	}
	one := some.Children[1]
	if one.Kind != ConstraintAll || len(one.Children) != 3 {
		t.Fatalf("one branch = %s", one)
	}
	// The optional slot index follows the required ones.
	if one.Children[0].Right.Key() != "input:1:0" {
		t.Fatalf("one branch subject = %s", one.Children[0].Right)
	}
}

func TestTranslateExtend(t *testing.T) {
	q := mustParse(t, `
PREFIX ex: <http://example.org/>
SELECT ?s ?l WHERE {
  ?s ex:label ?label .
  BIND(lang(?label) AS ?l)
}`)
	info, err := Translate(q)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	last := info.Binds[len(info.Binds)-1]
	if last.Var != "l" {
		t.Fatalf("last bind = %v", last)
	}
	if last.Value.Kind != TermComputed || last.Value.Computed != ComputedLang {
		t.Fatalf("bind value = %s", last.Value)
	}
}

func TestTranslateBooleanFilter(t *testing.T) {
	q := mustParse(t, `
PREFIX ex: <http://example.org/>
SELECT ?s WHERE {
  ?s ex:p ?o .
  FILTER(isIRI(?o) || !isBlank(?o))
}`)
	info, err := Translate(q)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	var some *Constraint
	for _, c := range info.Constraint.Children {
		if c.Kind == ConstraintSome {
			some = c
		}
	}
	if some == nil {
		t.Fatalf("no disjunction in %s", info.Constraint)
	}
	if some.Children[0].Kind != ConstraintUnary || some.Children[0].Op != "isiri" {
		t.Fatalf("left disjunct = %s", some.Children[0])
	}
	if some.Children[1].Kind != ConstraintNot {
		t.Fatalf("right disjunct = %s", some.Children[1])
	}
}

func TestTranslateErrors(t *testing.T) {
	cases := []struct {
		name  string
		query string
	}{
		{"geq non-static right", `PREFIX ex: <http://example.org/> SELECT ?s WHERE { ?s ex:a ?x . ?s ex:b ?y . FILTER(?x >= ?y) }`},
		{"geq non-integer right", `PREFIX ex: <http://example.org/> SELECT ?s WHERE { ?s ex:a ?x . FILTER(?x >= "old") }`},
		{"unbound filter variable", `PREFIX ex: <http://example.org/> SELECT ?s WHERE { ?s ex:a ?x . FILTER(?nope >= 18) }`},
		{"lang in boolean position", `PREFIX ex: <http://example.org/> SELECT ?s WHERE { ?s ex:a ?x . FILTER(lang(?x)) }`},
	}
	for _, tc := range cases {
		q := mustParse(t, tc.query)
		if _, err := Translate(q); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestTranslateUnsupportedIsErrUnsupported(t *testing.T) {
	q := mustParse(t, `PREFIX ex: <http://example.org/> SELECT ?s WHERE { ?s ex:a ?x . FILTER(lang(?x)) }`)
	_, err := Translate(q)
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("error %v is not ErrUnsupported", err)
	}
}
