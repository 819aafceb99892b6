package witness

import (
	"errors"
	"testing"

	"github.com/zkrdf/zksparql/authstore"
	"github.com/zkrdf/zksparql/compile"
	"github.com/zkrdf/zksparql/rdf"
)

func testDataset(t *testing.T) *authstore.SignedDataset {
	t.Helper()
	g := rdf.NewNamedNode("http://example.org/g")
	quads := []rdf.Quad{
		{
			Subject:   rdf.NewNamedNode("http://example.org/alice"),
			Predicate: rdf.NewNamedNode("http://example.org/age"),
			Object:    rdf.NewTypedLiteral("23", rdf.XSDInteger),
			Graph:     g,
		},
		{
			Subject:   rdf.NewNamedNode("http://example.org/bob"),
			Predicate: rdf.NewNamedNode("http://example.org/age"),
			Object:    rdf.NewTypedLiteral("10", rdf.XSDInteger),
			Graph:     g,
		},
		{
			Subject:   rdf.NewNamedNode("http://example.org/alice"),
			Predicate: rdf.NewNamedNode("http://example.org/label"),
			Object:    rdf.NewLangLiteral("hello", "en"),
			Graph:     g,
		},
		{
			Subject:   rdf.NewNamedNode("http://example.org/bob"),
			Predicate: rdf.NewNamedNode("http://example.org/label"),
			Object:    rdf.NewLangLiteral("bonjour", "fr"),
			Graph:     g,
		},
	}
	key, err := authstore.GenerateKey()
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	signed, err := authstore.BuildSigned(quads, key)
	if err != nil {
		t.Fatalf("build signed: %v", err)
	}
	return signed
}

func compileFor(t *testing.T, store *authstore.SignedDataset, query string) *compile.Result {
	t.Helper()
	result, err := compile.Compile(query, compile.Options{TreeDepth: store.Tree.Depth()})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return result
}

const ageQuery = `
PREFIX ex: <http://example.org/>
SELECT ?p WHERE {
  ?p ex:age ?a .
  FILTER(?a >= 18)
}`

func TestBinderAgeQuery(t *testing.T) {
	store := testDataset(t)
	result := compileFor(t, store, ageQuery)

	binder, err := NewBinder(store, result.Metadata, result.Query)
	if err != nil {
		t.Fatalf("binder: %v", err)
	}

	var solutions []*Solution
	for sol, err := range binder.Solutions() {
		if err != nil {
			t.Fatalf("solution: %v", err)
		}
		solutions = append(solutions, sol)
	}
	if len(solutions) != 1 {
		t.Fatalf("got %d solutions, want alice only", len(solutions))
	}

	sol := solutions[0]
	if sol.Bindings["p"].Value != "http://example.org/alice" {
		t.Fatalf("bound ?p = %v", sol.Bindings["p"])
	}
	if len(sol.Quads) != 1 || sol.Quads[0].Object.Value != "23" {
		t.Fatalf("slot quads = %v", sol.Quads)
	}

	c := sol.Assignment
	if len(c.Bgp) != 1 || len(c.Variables) != 1 || len(c.Hidden) != 2 {
		t.Fatalf("assignment shape: %d slots, %d vars, %d hidden",
			len(c.Bgp), len(c.Variables), len(c.Hidden))
	}
	if len(c.Bgp[0].Path) != store.Tree.Depth() {
		t.Fatalf("path length %d != depth %d", len(c.Bgp[0].Path), store.Tree.Depth())
	}
	for pos := 0; pos < 4; pos++ {
		if c.Bgp[0].Terms[pos] == nil {
			t.Fatalf("term %d unassigned", pos)
		}
	}
}

func TestBinderMultipleSolutions(t *testing.T) {
	store := testDataset(t)
	result := compileFor(t, store, `
PREFIX ex: <http://example.org/>
SELECT ?p WHERE { ?p ex:age ?a . }`)

	binder, err := NewBinder(store, result.Metadata, result.Query)
	if err != nil {
		t.Fatalf("binder: %v", err)
	}
	var count int
	for _, err := range binder.Solutions() {
		if err != nil {
			t.Fatalf("solution: %v", err)
		}
		count++
	}
	if count != 2 {
		t.Fatalf("got %d solutions, want 2", count)
	}

	// The sequence restarts cleanly.
	count = 0
	for range binder.Solutions() {
		count++
	}
	if count != 2 {
		t.Fatalf("restarted sequence gave %d solutions", count)
	}
}

func TestBinderNoSolutions(t *testing.T) {
	store := testDataset(t)
	result := compileFor(t, store, `
PREFIX ex: <http://example.org/>
SELECT ?p WHERE { ?p ex:nothing ?a . }`)

	binder, err := NewBinder(store, result.Metadata, result.Query)
	if err != nil {
		t.Fatalf("binder: %v", err)
	}
	if _, err := binder.First(); !errors.Is(err, ErrNoSolutions) {
		t.Fatalf("err = %v, want ErrNoSolutions", err)
	}
}

func TestBinderLangFilter(t *testing.T) {
	store := testDataset(t)
	result := compileFor(t, store, `
PREFIX ex: <http://example.org/>
SELECT ?s WHERE {
  ?s ex:label ?label .
  FILTER(lang(?label) = "en")
}`)

	binder, err := NewBinder(store, result.Metadata, result.Query)
	if err != nil {
		t.Fatalf("binder: %v", err)
	}
	sol, err := binder.First()
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if sol.Bindings["s"].Value != "http://example.org/alice" {
		t.Fatalf("bound ?s = %v, want alice (en label)", sol.Bindings["s"])
	}
	if len(sol.Assignment.Hidden) != 1 {
		t.Fatalf("hidden = %d, want the opened value component", len(sol.Assignment.Hidden))
	}
}

func TestBinderLangBind(t *testing.T) {
	store := testDataset(t)
	result := compileFor(t, store, `
PREFIX ex: <http://example.org/>
SELECT ?s ?l WHERE {
  ?s ex:label ?label .
  BIND(lang(?label) AS ?l)
}`)

	binder, err := NewBinder(store, result.Metadata, result.Query)
	if err != nil {
		t.Fatalf("binder: %v", err)
	}
	var langs []string
	for sol, err := range binder.Solutions() {
		if err != nil {
			t.Fatalf("solution: %v", err)
		}
		langs = append(langs, sol.Bindings["l"].Value)
	}
	if len(langs) != 2 || langs[0] != "en" || langs[1] != "fr" {
		t.Fatalf("bound languages = %v", langs)
	}
}

func TestBinderZeroOrOnePath(t *testing.T) {
	store := testDataset(t)
	result := compileFor(t, store, `
PREFIX ex: <http://example.org/>
SELECT ?p WHERE {
  ?p ex:age ?a .
  ?p ex:knows? ?p .
}`)

	binder, err := NewBinder(store, result.Metadata, result.Query)
	if err != nil {
		t.Fatalf("binder: %v", err)
	}
	// No ex:knows quads exist; the zero branch (?p = ?p) holds, so both
	// subjects still match, each with a fallback quad in the optional slot.
	var count int
	for sol, err := range binder.Solutions() {
		if err != nil {
			t.Fatalf("solution: %v", err)
		}
		if len(sol.Quads) != 2 {
			t.Fatalf("slot quads = %d, want required + optional", len(sol.Quads))
		}
		count++
	}
	if count != 2 {
		t.Fatalf("got %d solutions, want 2", count)
	}
}

func TestBinderZeroOrOnePathFreshVariable(t *testing.T) {
	store := testDataset(t)
	result := compileFor(t, store, `
PREFIX ex: <http://example.org/>
SELECT ?p ?t WHERE {
  ?p ex:age ?a .
  ?p ex:knows? ?t .
}`)

	binder, err := NewBinder(store, result.Metadata, result.Query)
	if err != nil {
		t.Fatalf("binder: %v", err)
	}
	// ?t is bound nowhere else; the zero branch binds it to ?p.
	var count int
	for sol, err := range binder.Solutions() {
		if err != nil {
			t.Fatalf("solution: %v", err)
		}
		p, ok := sol.Bindings["p"]
		if !ok {
			t.Fatal("?p unbound")
		}
		target, ok := sol.Bindings["t"]
		if !ok {
			t.Fatal("?t unbound in zero branch")
		}
		if !target.Equal(p) {
			t.Fatalf("bound ?t = %v, want ?p = %v", target, p)
		}
		count++
	}
	if count != 2 {
		t.Fatalf("got %d solutions, want 2", count)
	}
}

func TestBinderDepthMismatch(t *testing.T) {
	store := testDataset(t)
	result, err := compile.Compile(ageQuery, compile.Options{TreeDepth: store.Tree.Depth() + 1})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := NewBinder(store, result.Metadata, result.Query); err == nil {
		t.Fatal("expected depth mismatch error")
	}
}

func TestMatchQuadConflicts(t *testing.T) {
	slot := compile.PatternSlot{
		Subject:   rdf.NewVariable("x"),
		Predicate: rdf.NewNamedNode("http://example.org/knows"),
		Object:    rdf.NewVariable("x"),
	}
	self := rdf.Quad{
		Subject:   rdf.NewNamedNode("http://example.org/a"),
		Predicate: rdf.NewNamedNode("http://example.org/knows"),
		Object:    rdf.NewNamedNode("http://example.org/a"),
		Graph:     rdf.DefaultGraph(),
	}
	other := rdf.Quad{
		Subject:   rdf.NewNamedNode("http://example.org/a"),
		Predicate: rdf.NewNamedNode("http://example.org/knows"),
		Object:    rdf.NewNamedNode("http://example.org/b"),
		Graph:     rdf.DefaultGraph(),
	}
	if _, ok := matchQuad(slot, self, map[string]rdf.Term{}); !ok {
		t.Fatal("self-referential quad should match ?x knows ?x")
	}
	if _, ok := matchQuad(slot, other, map[string]rdf.Term{}); ok {
		t.Fatal("conflicting binding should not match")
	}
}
