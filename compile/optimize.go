package compile

import (
	"github.com/zkrdf/zksparql/rdf"
)

// Optimize simplifies a constraint tree by boolean algebra laws,
// constant folding, and subsumption. The result is a new tree; the
// input is never mutated. A ConstraintBool root means the whole tree
// folded to a constant.
func Optimize(c *Constraint) *Constraint {
	switch c.Kind {
	case ConstraintAll, ConstraintSome:
		return optimizeNary(c)
	case ConstraintNot:
		return optimizeNot(c)
	case ConstraintEqual:
		return optimizeEqual(c)
	case ConstraintUnary:
		return optimizeUnary(c)
	case ConstraintBinary, ConstraintBool:
		return c
	default:
		return c
	}
}

func optimizeNary(c *Constraint) *Constraint {
	isAll := c.Kind == ConstraintAll

	var kept []*Constraint
	seen := make(map[string]bool)
	for _, child := range c.Children {
		opt := Optimize(child)
		if opt.Kind == ConstraintBool {
			// true short-circuits a Some, false an All; the other
			// constant is the combinator's identity and is dropped.
			if opt.Value != isAll {
				return Bool(opt.Value)
			}
			continue
		}
		// Associativity: fold same-kind children into the parent.
		if opt.Kind == c.Kind {
			for _, grand := range opt.Children {
				if key := grand.Key(); !seen[key] {
					seen[key] = true
					kept = append(kept, grand)
				}
			}
			continue
		}
		if key := opt.Key(); !seen[key] {
			seen[key] = true
			kept = append(kept, opt)
		}
	}

	// a and (a or b) is a: inside an All, drop any Some child that
	// shares a disjunct with a sibling conjunct.
	if isAll {
		kept = dropSubsumed(kept, seen)
	}

	switch len(kept) {
	case 0:
		return Bool(isAll)
	case 1:
		return kept[0]
	default:
		return &Constraint{Kind: c.Kind, Children: kept}
	}
}

func dropSubsumed(children []*Constraint, seen map[string]bool) []*Constraint {
	out := children[:0]
	for _, child := range children {
		if child.Kind == ConstraintSome {
			subsumed := false
			for _, disjunct := range child.Children {
				if seen[disjunct.Key()] {
					subsumed = true
					break
				}
			}
			if subsumed {
				delete(seen, child.Key())
				continue
			}
		}
		out = append(out, child)
	}
	return out
}

func optimizeNot(c *Constraint) *Constraint {
	switch inner := c.Inner; inner.Kind {
	case ConstraintAll, ConstraintSome:
		// De Morgan: push the negation through and re-optimize.
		flipped := ConstraintSome
		if inner.Kind == ConstraintSome {
			flipped = ConstraintAll
		}
		negated := make([]*Constraint, len(inner.Children))
		for i, child := range inner.Children {
			negated[i] = Not(child)
		}
		return Optimize(&Constraint{Kind: flipped, Children: negated})
	case ConstraintNot:
		return Optimize(inner.Inner)
	default:
		opt := Optimize(inner)
		if opt.Kind == ConstraintBool {
			return Bool(!opt.Value)
		}
		if opt.Kind == ConstraintNot {
			return opt.Inner
		}
		return Not(opt)
	}
}

func optimizeEqual(c *Constraint) *Constraint {
	left, right := c.Left, c.Right

	if left.Kind == TermStatic && right.Kind == TermStatic {
		return Bool(left.Static.Equal(right.Static))
	}

	// A boolean literal compared against a kind predicate collapses to
	// the predicate itself (or its negation); the emitter handles plain
	// Unary nodes but not this indirection.
	if pred, truth, ok := predicateVersusBool(left, right); ok {
		u := Unary(pred.Computed.String(), pred.Input)
		if truth {
			return Optimize(u)
		}
		return Optimize(Not(u))
	}
	return c
}

// predicateVersusBool matches Equal(Computed(pred, x), staticBool) in
// either operand order.
func predicateVersusBool(a, b *Term) (pred *Term, truth bool, ok bool) {
	for _, pair := range [2][2]*Term{{a, b}, {b, a}} {
		p, s := pair[0], pair[1]
		if p.Kind != TermComputed {
			continue
		}
		switch p.Computed {
		case ComputedIsIRI, ComputedIsBlank, ComputedIsLiteral:
		default:
			continue
		}
		if s.Kind != TermStatic || s.Static.Kind != rdf.KindLiteral || s.Static.Datatype != rdf.XSDBoolean {
			continue
		}
		return p, s.Static.Value == "true" || s.Static.Value == "1", true
	}
	return nil, false, false
}

func optimizeUnary(c *Constraint) *Constraint {
	if c.Term.Kind != TermStatic {
		return c
	}
	kind := c.Term.Static.Kind
	switch c.Op {
	case "isiri":
		return Bool(kind == rdf.KindNamedNode)
	case "isblank":
		return Bool(kind == rdf.KindBlankNode)
	case "isliteral":
		return Bool(kind == rdf.KindLiteral)
	default:
		return c
	}
}
