// Package compile lowers a parsed query into a boolean constraint tree
// and emits a gnark circuit that checks the query against a signed,
// Merkle-committed dataset.
package compile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zkrdf/zksparql/rdf"
)

// TermKind identifies the kind of a term inside the constraint tree.
type TermKind int

const (
	// TermVariable is a query variable reference.
	TermVariable TermKind = iota
	// TermInput references one position of an input triple slot.
	TermInput
	// TermStatic is a compile-time-known term.
	TermStatic
	// TermComputed is a unary derived value (isiri, isblank, isliteral, lang).
	TermComputed
	// TermComputedBinary is a binary derived value (reserved).
	TermComputedBinary
	// TermCustom marks a hidden-input decomposition component.
	TermCustom
)

func (k TermKind) String() string {
	switch k {
	case TermVariable:
		return "var"
	case TermInput:
		return "input"
	case TermStatic:
		return "static"
	case TermComputed:
		return "computed"
	case TermComputedBinary:
		return "computed2"
	case TermCustom:
		return "custom"
	default:
		return "?"
	}
}

// ComputedKind identifies a derived-value operator.
type ComputedKind int

const (
	ComputedIsLiteral ComputedKind = iota
	ComputedIsIRI
	ComputedIsBlank
	ComputedLang
	ComputedEqual
)

func (k ComputedKind) String() string {
	switch k {
	case ComputedIsLiteral:
		return "isliteral"
	case ComputedIsIRI:
		return "isiri"
	case ComputedIsBlank:
		return "isblank"
	case ComputedLang:
		return "lang"
	case ComputedEqual:
		return "equal"
	default:
		return "?"
	}
}

// CustomKind identifies a hidden-input decomposition component: the
// opened value hash, the opened language hash, or the decoded numeric
// form of a literal.
type CustomKind int

const (
	CustomLiteralValue CustomKind = iota
	CustomLiteralLang
	CustomNumeric
	CustomInner
)

func (k CustomKind) String() string {
	switch k {
	case CustomLiteralValue:
		return "literal_value"
	case CustomLiteralLang:
		return "literal_lang"
	case CustomNumeric:
		return "numeric"
	case CustomInner:
		return "inner"
	default:
		return "?"
	}
}

// Term is a value node in the constraint tree.
type Term struct {
	Kind TermKind

	Name      string   // TermVariable
	Slot, Pos int      // TermInput
	Static    rdf.Term // TermStatic

	Computed    ComputedKind // TermComputed / TermComputedBinary
	Custom      CustomKind   // TermCustom
	Input       *Term        // TermComputed / TermCustom operand
	Left, Right *Term        // TermComputedBinary operands
}

func Variable(name string) *Term {
	return &Term{Kind: TermVariable, Name: name}
}

func InputRef(slot, pos int) *Term {
	return &Term{Kind: TermInput, Slot: slot, Pos: pos}
}

func Static(t rdf.Term) *Term {
	return &Term{Kind: TermStatic, Static: t}
}

func Computed(kind ComputedKind, input *Term) *Term {
	return &Term{Kind: TermComputed, Computed: kind, Input: input}
}

func Custom(kind CustomKind, input *Term) *Term {
	return &Term{Kind: TermCustom, Custom: kind, Input: input}
}

// Key returns a canonical structural key for deduplication.
func (t *Term) Key() string {
	switch t.Kind {
	case TermVariable:
		return "var:" + t.Name
	case TermInput:
		return fmt.Sprintf("input:%d:%d", t.Slot, t.Pos)
	case TermStatic:
		return "static:" + t.Static.String()
	case TermComputed:
		return fmt.Sprintf("%s(%s)", t.Computed, t.Input.Key())
	case TermComputedBinary:
		return fmt.Sprintf("%s(%s,%s)", t.Computed, t.Left.Key(), t.Right.Key())
	case TermCustom:
		return fmt.Sprintf("%s(%s)", t.Custom, t.Input.Key())
	default:
		return "?"
	}
}

func (t *Term) String() string { return t.Key() }

// ConstraintKind identifies a node in the boolean constraint tree.
type ConstraintKind int

const (
	// ConstraintAll is conjunction; requires >= 2 children after optimization.
	ConstraintAll ConstraintKind = iota
	// ConstraintSome is disjunction; requires >= 2 children after optimization.
	ConstraintSome
	// ConstraintNot is negation.
	ConstraintNot
	// ConstraintEqual asserts two terms encode to the same field element.
	ConstraintEqual
	// ConstraintUnary is a term-kind predicate (isiri, isblank, isliteral).
	ConstraintUnary
	// ConstraintBinary is a numeric comparison; Op is "geq" and the right
	// operand must be a static integer literal.
	ConstraintBinary
	// ConstraintBool is an optimizer-only boolean terminal.
	ConstraintBool
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintAll:
		return "all"
	case ConstraintSome:
		return "some"
	case ConstraintNot:
		return "not"
	case ConstraintEqual:
		return "equal"
	case ConstraintUnary:
		return "unary"
	case ConstraintBinary:
		return "binary"
	case ConstraintBool:
		return "bool"
	default:
		return "?"
	}
}

// Constraint is one node of the boolean constraint tree.
type Constraint struct {
	Kind ConstraintKind

	Children    []*Constraint // All / Some
	Inner       *Constraint   // Not
	Left, Right *Term         // Equal / Binary
	Op          string        // Unary: "isiri"|"isblank"|"isliteral"; Binary: "geq"
	Term        *Term         // Unary operand
	Value       bool          // Bool
}

func All(children ...*Constraint) *Constraint {
	return &Constraint{Kind: ConstraintAll, Children: children}
}

func Some(children ...*Constraint) *Constraint {
	return &Constraint{Kind: ConstraintSome, Children: children}
}

func Not(inner *Constraint) *Constraint {
	return &Constraint{Kind: ConstraintNot, Inner: inner}
}

func EqualOf(left, right *Term) *Constraint {
	return &Constraint{Kind: ConstraintEqual, Left: left, Right: right}
}

func Unary(op string, term *Term) *Constraint {
	return &Constraint{Kind: ConstraintUnary, Op: op, Term: term}
}

func Geq(left, right *Term) *Constraint {
	return &Constraint{Kind: ConstraintBinary, Op: "geq", Left: left, Right: right}
}

func Bool(v bool) *Constraint {
	return &Constraint{Kind: ConstraintBool, Value: v}
}

// Key returns a canonical structural key. Children of commutative nodes
// are keyed independently and sorted, so equivalent reorderings collapse
// to the same key.
func (c *Constraint) Key() string {
	switch c.Kind {
	case ConstraintAll, ConstraintSome:
		keys := make([]string, len(c.Children))
		for i, ch := range c.Children {
			keys[i] = ch.Key()
		}
		sort.Strings(keys)
		return fmt.Sprintf("%s(%s)", c.Kind, strings.Join(keys, ","))
	case ConstraintNot:
		return fmt.Sprintf("not(%s)", c.Inner.Key())
	case ConstraintEqual:
		// Equality is symmetric.
		l, r := c.Left.Key(), c.Right.Key()
		if r < l {
			l, r = r, l
		}
		return fmt.Sprintf("equal(%s,%s)", l, r)
	case ConstraintUnary:
		return fmt.Sprintf("%s(%s)", c.Op, c.Term.Key())
	case ConstraintBinary:
		return fmt.Sprintf("%s(%s,%s)", c.Op, c.Left.Key(), c.Right.Key())
	case ConstraintBool:
		return fmt.Sprintf("bool(%v)", c.Value)
	default:
		return "?"
	}
}

func (c *Constraint) String() string { return c.Key() }

// Bind is a one-shot variable definition, distinct from an Equal
// re-occurrence constraint.
type Bind struct {
	Var   string
	Value *Term
}

// OutInfo is the translator's result: the input slots, variable binds,
// and raw constraint tree for one query.
type OutInfo struct {
	// Required holds one triple pattern per mandatory input slot, in
	// slot order. Optional holds zero-or-one path slots; their global
	// slot indices follow the required ones.
	Required []PatternSlot
	Optional []PatternSlot

	Binds      []Bind
	Constraint *Constraint

	// Projected is the query's output variable list, in order.
	Projected []string
}

// PatternSlot is one compiled input-triple slot.
type PatternSlot struct {
	Subject   rdf.Term
	Predicate rdf.Term
	Object    rdf.Term
}

// NumSlots returns the total input slot count, required plus optional.
func (o *OutInfo) NumSlots() int {
	return len(o.Required) + len(o.Optional)
}
