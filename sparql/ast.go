// Package sparql parses the supported SPARQL SELECT subset into the fixed
// algebra the compiler translates: project, bgp, join, filter, extend,
// plus link and zero-or-one property-path steps. Anything outside the
// subset is rejected at parse time with a named error; this is a
// deliberate grammar restriction.
package sparql

import (
	"errors"
	"fmt"

	"github.com/zkrdf/zksparql/rdf"
)

// ErrUnsupported marks query features outside the compiled subset.
var ErrUnsupported = errors.New("sparql: unsupported feature")

func unsupportedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, fmt.Sprintf(format, args...))
}

// Operator is a node in the query algebra tree.
type Operator interface {
	opNode()
}

// Project selects the output variables. It only appears at the root.
type Project struct {
	Variables []string
	Op        Operator
}

// PathKind identifies the property-path step of a triple pattern.
type PathKind int

const (
	// PathLink is a plain predicate step.
	PathLink PathKind = iota
	// PathZeroOrOne is the `p?` step: subject equals object, or one hop.
	PathZeroOrOne
)

// TriplePattern is a single pattern in a basic graph pattern. Terms may be
// variables; the graph is always the default graph.
type TriplePattern struct {
	Subject   rdf.Term
	Predicate rdf.Term
	Object    rdf.Term
	Path      PathKind
}

func (p TriplePattern) String() string {
	suffix := ""
	if p.Path == PathZeroOrOne {
		suffix = "?"
	}
	return fmt.Sprintf("%s %s%s %s", p.Subject, p.Predicate, suffix, p.Object)
}

// BGP is a conjunction of triple patterns.
type BGP struct {
	Patterns []TriplePattern
}

// Join combines two operands conjunctively.
type Join struct {
	Left  Operator
	Right Operator
}

// Filter restricts the operand's solutions by an expression.
type Filter struct {
	Expr Expr
	Op   Operator
}

// Extend binds a new variable to the value of an expression.
type Extend struct {
	Var  string
	Expr Expr
	Op   Operator
}

func (*Project) opNode() {}
func (*BGP) opNode()     {}
func (*Join) opNode()    {}
func (*Filter) opNode()  {}
func (*Extend) opNode()  {}

// Expr is a node in the supported expression subset.
type Expr interface {
	exprNode()
}

// AndExpr is logical conjunction (&&).
type AndExpr struct {
	Left, Right Expr
}

// OrExpr is logical disjunction (||).
type OrExpr struct {
	Left, Right Expr
}

// NotExpr is logical negation (!).
type NotExpr struct {
	Inner Expr
}

// CompareExpr is a binary comparison; Op is one of "=", "!=", ">=".
type CompareExpr struct {
	Op          string
	Left, Right Expr
}

// CallExpr is a supported builtin; Func is one of "isiri", "isblank",
// "isliteral", "lang" (lower-cased).
type CallExpr struct {
	Func string
	Arg  Expr
}

// TermExpr wraps a term (variable or constant) as an expression.
type TermExpr struct {
	Term rdf.Term
}

func (*AndExpr) exprNode()     {}
func (*OrExpr) exprNode()      {}
func (*NotExpr) exprNode()     {}
func (*CompareExpr) exprNode() {}
func (*CallExpr) exprNode()    {}
func (*TermExpr) exprNode()    {}

// Query is a parsed SELECT query.
type Query struct {
	Text     string
	Prefixes map[string]string
	Root     *Project
}

// Patterns returns every triple pattern in the query, in source order.
func (q *Query) Patterns() []TriplePattern {
	var out []TriplePattern
	collectPatterns(q.Root.Op, &out)
	return out
}

func collectPatterns(op Operator, out *[]TriplePattern) {
	switch n := op.(type) {
	case *BGP:
		*out = append(*out, n.Patterns...)
	case *Join:
		collectPatterns(n.Left, out)
		collectPatterns(n.Right, out)
	case *Filter:
		collectPatterns(n.Op, out)
	case *Extend:
		collectPatterns(n.Op, out)
	case *Project:
		collectPatterns(n.Op, out)
	}
}

// Filters returns every filter expression in the query.
func (q *Query) Filters() []Expr {
	var out []Expr
	collectFilters(q.Root.Op, &out)
	return out
}

func collectFilters(op Operator, out *[]Expr) {
	switch n := op.(type) {
	case *Join:
		collectFilters(n.Left, out)
		collectFilters(n.Right, out)
	case *Filter:
		*out = append(*out, n.Expr)
		collectFilters(n.Op, out)
	case *Extend:
		collectFilters(n.Op, out)
	case *Project:
		collectFilters(n.Op, out)
	}
}

// Extends returns every bind assignment in the query, outermost first.
func (q *Query) Extends() []*Extend {
	var out []*Extend
	collectExtends(q.Root.Op, &out)
	return out
}

func collectExtends(op Operator, out *[]*Extend) {
	switch n := op.(type) {
	case *Join:
		collectExtends(n.Left, out)
		collectExtends(n.Right, out)
	case *Filter:
		collectExtends(n.Op, out)
	case *Extend:
		*out = append(*out, n)
		collectExtends(n.Op, out)
	case *Project:
		collectExtends(n.Op, out)
	}
}
