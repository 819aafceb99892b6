package compile

import (
	"testing"

	"github.com/zkrdf/zksparql/rdf"
)

func iri(s string) *Term { return Static(rdf.NewNamedNode(s)) }

func lit(s string) *Term { return Static(rdf.NewLiteral(s)) }

func boolLit(v string) *Term { return Static(rdf.NewTypedLiteral(v, rdf.XSDBoolean)) }

func TestOptimizeIdempotent(t *testing.T) {
	cases := []*Constraint{
		EqualOf(Variable("x"), InputRef(0, 0)),
		All(EqualOf(Variable("x"), InputRef(0, 0)), Unary("isiri", Variable("x"))),
		Some(EqualOf(Variable("x"), InputRef(0, 0)), Not(Unary("isblank", Variable("x")))),
		Not(All(EqualOf(Variable("x"), InputRef(0, 0)), EqualOf(Variable("y"), InputRef(0, 2)))),
		EqualOf(iri("http://a"), iri("http://a")),
		All(Bool(true), Bool(true)),
	}
	for i, c := range cases {
		once := Optimize(c)
		twice := Optimize(once)
		if once.Key() != twice.Key() {
			t.Fatalf("case %d: not idempotent:\n  once:  %s\n  twice: %s", i, once, twice)
		}
	}
}

func TestOptimizeDedup(t *testing.T) {
	a := EqualOf(Variable("x"), InputRef(0, 0))
	got := Optimize(All(a, a))
	want := Optimize(a)
	if got.Key() != want.Key() {
		t.Fatalf("All([a,a]) = %s, want %s", got, want)
	}
}

func TestOptimizeDeMorgan(t *testing.T) {
	a := EqualOf(Variable("x"), InputRef(0, 0))
	b := Unary("isiri", Variable("y"))

	got := Optimize(Not(All(a, b)))
	want := Optimize(Some(Not(a), Not(b)))
	if got.Key() != want.Key() {
		t.Fatalf("Not(All(a,b)) = %s, want %s", got, want)
	}

	got = Optimize(Not(Some(a, b)))
	want = Optimize(All(Not(a), Not(b)))
	if got.Key() != want.Key() {
		t.Fatalf("Not(Some(a,b)) = %s, want %s", got, want)
	}
}

func TestOptimizeDoubleNegation(t *testing.T) {
	a := EqualOf(Variable("x"), InputRef(0, 0))
	got := Optimize(Not(Not(a)))
	if got.Key() != a.Key() {
		t.Fatalf("Not(Not(a)) = %s, want %s", got, a)
	}
}

func TestOptimizeSubsumption(t *testing.T) {
	a := EqualOf(Variable("x"), InputRef(0, 0))
	b := Unary("isblank", Variable("y"))
	got := Optimize(All(a, Some(a, b)))
	if got.Key() != a.Key() {
		t.Fatalf("All(a, Some(a,b)) = %s, want %s", got, a)
	}
}

func TestOptimizeShortCircuit(t *testing.T) {
	a := EqualOf(Variable("x"), InputRef(0, 0))

	if got := Optimize(Some(a, Bool(true))); got.Kind != ConstraintBool || !got.Value {
		t.Fatalf("Some(a, true) = %s, want true", got)
	}
	if got := Optimize(All(a, Bool(false))); got.Kind != ConstraintBool || got.Value {
		t.Fatalf("All(a, false) = %s, want false", got)
	}
	// Identity constants drop without short-circuiting.
	if got := Optimize(All(a, Bool(true))); got.Key() != a.Key() {
		t.Fatalf("All(a, true) = %s, want a", got)
	}
	if got := Optimize(Some(a, Bool(false))); got.Key() != a.Key() {
		t.Fatalf("Some(a, false) = %s, want a", got)
	}
}

func TestOptimizeFlattening(t *testing.T) {
	a := EqualOf(Variable("x"), InputRef(0, 0))
	b := EqualOf(Variable("y"), InputRef(0, 1))
	c := EqualOf(Variable("z"), InputRef(0, 2))

	got := Optimize(All(a, All(b, c)))
	if got.Kind != ConstraintAll || len(got.Children) != 3 {
		t.Fatalf("nested All not flattened: %s", got)
	}
}

func TestOptimizeStaticEqual(t *testing.T) {
	if got := Optimize(EqualOf(iri("http://a"), iri("http://a"))); got.Kind != ConstraintBool || !got.Value {
		t.Fatalf("equal statics = %s, want true", got)
	}
	if got := Optimize(EqualOf(iri("http://a"), iri("http://b"))); got.Kind != ConstraintBool || got.Value {
		t.Fatalf("distinct statics = %s, want false", got)
	}
	if got := Optimize(EqualOf(lit("a"), iri("a"))); got.Kind != ConstraintBool || got.Value {
		t.Fatalf("literal vs IRI = %s, want false", got)
	}
}

func TestOptimizeStaticUnary(t *testing.T) {
	if got := Optimize(Unary("isiri", iri("http://a"))); got.Kind != ConstraintBool || !got.Value {
		t.Fatalf("isiri(iri) = %s", got)
	}
	if got := Optimize(Unary("isblank", iri("http://a"))); got.Kind != ConstraintBool || got.Value {
		t.Fatalf("isblank(iri) = %s", got)
	}
	if got := Optimize(Unary("isliteral", lit("a"))); got.Kind != ConstraintBool || !got.Value {
		t.Fatalf("isliteral(lit) = %s", got)
	}
}

func TestOptimizePredicateBoolCollapse(t *testing.T) {
	x := Variable("x")

	got := Optimize(EqualOf(Computed(ComputedIsIRI, x), boolLit("true")))
	want := Unary("isiri", x)
	if got.Key() != want.Key() {
		t.Fatalf("isiri(x) = true collapsed to %s, want %s", got, want)
	}

	got = Optimize(EqualOf(boolLit("false"), Computed(ComputedIsBlank, x)))
	want = Not(Unary("isblank", x))
	if got.Key() != want.Key() {
		t.Fatalf("false = isblank(x) collapsed to %s, want %s", got, want)
	}
}

func TestOptimizeCommutativeKey(t *testing.T) {
	a := EqualOf(Variable("x"), InputRef(0, 0))
	b := Unary("isiri", Variable("y"))
	if All(a, b).Key() != All(b, a).Key() {
		t.Fatal("reordered conjunction keys differ")
	}
	if EqualOf(Variable("x"), InputRef(0, 0)).Key() != EqualOf(InputRef(0, 0), Variable("x")).Key() {
		t.Fatal("swapped equality keys differ")
	}
}
