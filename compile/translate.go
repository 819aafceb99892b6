package compile

import (
	"errors"
	"fmt"

	"github.com/zkrdf/zksparql/rdf"
	"github.com/zkrdf/zksparql/sparql"
)

// ErrUnsupported marks algebra nodes or operators outside the compiled
// subset. A deliberate grammar restriction, reported loudly.
var ErrUnsupported = errors.New("compile: unsupported operation")

func unsupportedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, fmt.Sprintf(format, args...))
}

// translator accumulates slots, binds, and constraints while walking
// the operator tree.
type translator struct {
	info OutInfo
	// seen maps a variable name to the input reference that first
	// bound it. Later occurrences become equality constraints.
	seen map[string]*Term
	// conjuncts collects the top-level constraint list.
	conjuncts []*Constraint
}

// Translate walks the query's operator tree and produces the raw
// constraint graph: input slots, variable binds, and a constraint tree.
func Translate(q *sparql.Query) (*OutInfo, error) {
	if q == nil || q.Root == nil {
		return nil, errors.New("compile: nil query")
	}
	tr := &translator{seen: make(map[string]*Term)}
	tr.info.Projected = append([]string(nil), q.Root.Variables...)

	if err := tr.translateOp(q.Root.Op); err != nil {
		return nil, err
	}

	switch len(tr.conjuncts) {
	case 0:
		tr.info.Constraint = Bool(true)
	case 1:
		tr.info.Constraint = tr.conjuncts[0]
	default:
		tr.info.Constraint = All(tr.conjuncts...)
	}
	return &tr.info, nil
}

func (tr *translator) translateOp(op sparql.Operator) error {
	switch n := op.(type) {
	case *sparql.BGP:
		return tr.translatePatterns(n.Patterns)
	case *sparql.Join:
		if err := tr.translateOp(n.Left); err != nil {
			return err
		}
		return tr.translateOp(n.Right)
	case *sparql.Filter:
		if err := tr.translateOp(n.Op); err != nil {
			return err
		}
		c, err := tr.translateBool(n.Expr)
		if err != nil {
			return err
		}
		tr.conjuncts = append(tr.conjuncts, c)
		return nil
	case *sparql.Extend:
		if err := tr.translateOp(n.Op); err != nil {
			return err
		}
		if _, ok := tr.seen[n.Var]; ok {
			return fmt.Errorf("compile: BIND rebinds variable ?%s", n.Var)
		}
		value, err := tr.translateValue(n.Expr)
		if err != nil {
			return err
		}
		tr.seen[n.Var] = value
		tr.info.Binds = append(tr.info.Binds, Bind{Var: n.Var, Value: value})
		return nil
	case *sparql.Project:
		return unsupportedf("nested projection")
	default:
		return unsupportedf("algebra node %T", op)
	}
}

func (tr *translator) translatePatterns(patterns []sparql.TriplePattern) error {
	// Required slots are numbered first; optional slots follow once the
	// required count is final, so split before assigning indices.
	var required, optional []sparql.TriplePattern
	for _, p := range patterns {
		switch p.Path {
		case sparql.PathLink:
			required = append(required, p)
		case sparql.PathZeroOrOne:
			optional = append(optional, p)
		default:
			return unsupportedf("path kind %v", p.Path)
		}
	}

	for _, p := range required {
		slot := len(tr.info.Required)
		tr.info.Required = append(tr.info.Required, PatternSlot{
			Subject:   p.Subject,
			Predicate: p.Predicate,
			Object:    p.Object,
		})
		for pos, term := range []rdf.Term{p.Subject, p.Predicate, p.Object} {
			if err := tr.bindPosition(term, slot, pos); err != nil {
				return err
			}
		}
	}

	for _, p := range optional {
		if err := tr.translateOptional(p, len(required)+len(tr.info.Optional)); err != nil {
			return err
		}
	}
	return nil
}

// bindPosition handles one position of a required input slot: constants
// pin the slot, first-seen variables bind, repeats constrain.
func (tr *translator) bindPosition(term rdf.Term, slot, pos int) error {
	ref := InputRef(slot, pos)
	switch {
	case term.IsVariable():
		if _, ok := tr.seen[term.Value]; ok {
			tr.conjuncts = append(tr.conjuncts, EqualOf(Variable(term.Value), ref))
			return nil
		}
		tr.seen[term.Value] = ref
		tr.info.Binds = append(tr.info.Binds, Bind{Var: term.Value, Value: ref})
		return nil
	case term.IsConcrete():
		tr.conjuncts = append(tr.conjuncts, EqualOf(Static(term), ref))
		return nil
	default:
		return unsupportedf("term kind %v in pattern position", term.Kind)
	}
}

// translateOptional models a zero-or-one path step as a disjunction:
// either subject and object are equal outright, or an extra input slot
// holds a matching triple for the underlying predicate.
func (tr *translator) translateOptional(p sparql.TriplePattern, slot int) error {
	subj, err := tr.resolveTerm(p.Subject)
	if err != nil {
		return err
	}
	obj, err := tr.resolveTerm(p.Object)
	if err != nil {
		return err
	}
	if !p.Predicate.IsConcrete() {
		return unsupportedf("variable predicate in path step")
	}

	tr.info.Optional = append(tr.info.Optional, PatternSlot{
		Subject:   p.Subject,
		Predicate: p.Predicate,
		Object:    p.Object,
	})

	zero := EqualOf(subj, obj)
	one := All(
		EqualOf(subj, InputRef(slot, 0)),
		EqualOf(Static(p.Predicate), InputRef(slot, 1)),
		EqualOf(obj, InputRef(slot, 2)),
	)
	tr.conjuncts = append(tr.conjuncts, Some(zero, one))
	return nil
}

// resolveTerm maps a pattern term to a constraint-tree term without
// creating new binds. Variables in path steps must be bound elsewhere
// or projected; they resolve to variable references.
func (tr *translator) resolveTerm(term rdf.Term) (*Term, error) {
	switch {
	case term.IsVariable():
		return Variable(term.Value), nil
	case term.IsConcrete():
		return Static(term), nil
	default:
		return nil, unsupportedf("term kind %v in path step", term.Kind)
	}
}

// translateBool translates a filter expression in boolean position.
func (tr *translator) translateBool(e sparql.Expr) (*Constraint, error) {
	switch n := e.(type) {
	case *sparql.AndExpr:
		l, err := tr.translateBool(n.Left)
		if err != nil {
			return nil, err
		}
		r, err := tr.translateBool(n.Right)
		if err != nil {
			return nil, err
		}
		return All(l, r), nil
	case *sparql.OrExpr:
		l, err := tr.translateBool(n.Left)
		if err != nil {
			return nil, err
		}
		r, err := tr.translateBool(n.Right)
		if err != nil {
			return nil, err
		}
		return Some(l, r), nil
	case *sparql.NotExpr:
		inner, err := tr.translateBool(n.Inner)
		if err != nil {
			return nil, err
		}
		return Not(inner), nil
	case *sparql.CompareExpr:
		return tr.translateCompare(n)
	case *sparql.CallExpr:
		arg, err := tr.translateValue(n.Arg)
		if err != nil {
			return nil, err
		}
		switch n.Func {
		case "isiri", "isblank", "isliteral":
			return Unary(n.Func, arg), nil
		default:
			return nil, unsupportedf("function %s in boolean position", n.Func)
		}
	case *sparql.TermExpr:
		if n.Term.Kind == rdf.KindLiteral && n.Term.Datatype == rdf.XSDBoolean {
			return Bool(n.Term.Value == "true" || n.Term.Value == "1"), nil
		}
		return nil, unsupportedf("effective boolean value of %v", n.Term)
	default:
		return nil, unsupportedf("expression %T", e)
	}
}

func (tr *translator) translateCompare(n *sparql.CompareExpr) (*Constraint, error) {
	left, err := tr.translateValue(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := tr.translateValue(n.Right)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "=":
		return EqualOf(left, right), nil
	case "!=":
		return Not(EqualOf(left, right)), nil
	case ">=":
		if right.Kind != TermStatic || right.Static.Datatype != rdf.XSDInteger {
			return nil, unsupportedf(">= requires a static integer right operand, got %s", right)
		}
		return Geq(left, right), nil
	default:
		return nil, unsupportedf("comparison %s", n.Op)
	}
}

// translateValue translates an expression in value position.
func (tr *translator) translateValue(e sparql.Expr) (*Term, error) {
	switch n := e.(type) {
	case *sparql.TermExpr:
		if n.Term.IsVariable() {
			if _, ok := tr.seen[n.Term.Value]; !ok {
				return nil, fmt.Errorf("compile: variable ?%s used before any pattern binds it", n.Term.Value)
			}
			return Variable(n.Term.Value), nil
		}
		return Static(n.Term), nil
	case *sparql.CallExpr:
		arg, err := tr.translateValue(n.Arg)
		if err != nil {
			return nil, err
		}
		switch n.Func {
		case "lang":
			return Computed(ComputedLang, arg), nil
		case "isiri":
			return Computed(ComputedIsIRI, arg), nil
		case "isblank":
			return Computed(ComputedIsBlank, arg), nil
		case "isliteral":
			return Computed(ComputedIsLiteral, arg), nil
		default:
			return nil, unsupportedf("function %s", n.Func)
		}
	default:
		return nil, unsupportedf("expression %T in value position", e)
	}
}
