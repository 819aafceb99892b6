package compile

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/zkrdf/zksparql/codec"
	"github.com/zkrdf/zksparql/rdf"
)

// ErrInvariant marks constraint shapes that only a translator or
// optimizer defect can produce. They abort compilation outright.
var ErrInvariant = errors.New("compile: internal invariant violation")

func invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}

// Emit lowers the optimized constraint tree into an assertion plan plus
// the metadata contract the witness binder consumes. treeDepth fixes the
// Merkle path length the circuit verifies.
func Emit(info *OutInfo, constraint *Constraint, treeDepth int) (*Plan, *Metadata, error) {
	if treeDepth <= 0 {
		return nil, nil, fmt.Errorf("compile: tree depth must be positive, got %d", treeDepth)
	}
	e := &emitter{
		info:      info,
		projected: make(map[string]int),
		inline:    make(map[string]*Term),
		hiddenIdx: make(map[string]int),
		plan:      &Plan{},
	}
	for i, name := range info.Projected {
		e.projected[name] = i
	}
	for _, b := range info.Binds {
		if _, ok := e.projected[b.Var]; !ok {
			e.inline[b.Var] = b.Value
		}
	}

	if err := e.emitBinds(); err != nil {
		return nil, nil, err
	}
	if err := e.emitTop(constraint); err != nil {
		return nil, nil, err
	}

	meta := &Metadata{
		Variables:      append([]string(nil), info.Projected...),
		RequiredInputs: append([]PatternSlot(nil), info.Required...),
		OptionalInputs: append([]PatternSlot(nil), info.Optional...),
		HiddenInputs:   e.hidden,
		TreeDepth:      treeDepth,
	}
	return e.plan, meta, nil
}

type emitter struct {
	info      *OutInfo
	projected map[string]int
	inline    map[string]*Term
	hidden    []HiddenInput
	hiddenIdx map[string]int
	plan      *Plan
}

func (e *emitter) assert(a *Assertion) {
	e.plan.Assertions = append(e.plan.Assertions, a)
}

// hiddenSlot allocates (or reuses) one hidden input for a decomposition
// component of source. The structural-key cache keeps repeated openings
// of the same term on one slot.
func (e *emitter) hiddenSlot(kind CustomKind, source *Term) (int, error) {
	switch source.Kind {
	case TermInput, TermVariable:
	default:
		return 0, invariantf("hidden input source %s must be a slot or variable", source)
	}
	key := fmt.Sprintf("%s(%s)", kind, source.Key())
	if i, ok := e.hiddenIdx[key]; ok {
		return i, nil
	}
	i := len(e.hidden)
	e.hidden = append(e.hidden, HiddenInput{Kind: HiddenComputed, Computed: kind, Source: source})
	e.hiddenIdx[key] = i
	return i, nil
}

// resolve chases non-projected variables through the inline-binding map.
func (e *emitter) resolve(t *Term) (*Term, error) {
	for t.Kind == TermVariable {
		if _, ok := e.projected[t.Name]; ok {
			return t, nil
		}
		next, ok := e.inline[t.Name]
		if !ok {
			return nil, fmt.Errorf("compile: variable ?%s is neither projected nor bound", t.Name)
		}
		t = next
	}
	return t, nil
}

// render maps a directly representable term to a circuit expression.
// Computed terms have no direct representation; callers special-case
// them before rendering.
func (e *emitter) render(t *Term) (*Expr, error) {
	resolved, err := e.resolve(t)
	if err != nil {
		return nil, err
	}
	switch resolved.Kind {
	case TermInput:
		return InputExpr(resolved.Slot, resolved.Pos), nil
	case TermVariable:
		return VarExpr(e.projected[resolved.Name], resolved.Name), nil
	case TermStatic:
		return staticExpr(resolved.Static)
	case TermComputed:
		if resolved.Computed == ComputedLang {
			return nil, invariantf("lang value reached generic rendering")
		}
		return nil, invariantf("computed value %s reached generic rendering", resolved)
	default:
		return nil, invariantf("cannot render term %s", resolved)
	}
}

func staticExpr(t rdf.Term) (*Expr, error) {
	enc, err := codec.EncodeTerm(t)
	if err != nil {
		return nil, err
	}
	return ConstExpr(enc.String()), nil
}

func hashConst(s string) *Expr {
	h := codec.HashString(s)
	return ConstExpr(h.String())
}

func tagConst(tag uint64) *Expr {
	return ConstExpr(strconv.FormatUint(tag, 10))
}

// emitBinds turns projected-variable binds into assertions tying the
// witness-supplied variable encoding to its defining expression.
// Non-projected binds stay inline and produce nothing here.
func (e *emitter) emitBinds() error {
	for _, b := range e.info.Binds {
		idx, ok := e.projected[b.Var]
		if !ok {
			continue
		}
		varExpr := VarExpr(idx, b.Var)
		value, err := e.resolve(b.Value)
		if err != nil {
			return err
		}
		if value.Kind == TermComputed {
			if value.Computed != ComputedLang {
				return unsupportedf("binding ?%s to %s", b.Var, value.Computed)
			}
			if err := e.emitLangEqual(value, Variable(b.Var), "bind ?"+b.Var); err != nil {
				return err
			}
			continue
		}
		rhs, err := e.render(value)
		if err != nil {
			return err
		}
		e.assert(&Assertion{Kind: AssertEqual, A: varExpr, B: rhs, Note: "bind ?" + b.Var})
	}
	return nil
}

// emitTop emits the optimized constraint. A top-level conjunction
// becomes one assertion per conjunct for auditability.
func (e *emitter) emitTop(c *Constraint) error {
	if c.Kind == ConstraintBool {
		if !c.Value {
			return invariantf("unsatisfiable constraint reached emission")
		}
		return nil
	}
	if c.Kind == ConstraintAll {
		if len(c.Children) < 2 {
			return invariantf("conjunction with %d children", len(c.Children))
		}
		for _, child := range c.Children {
			if err := e.emitAssert(child); err != nil {
				return err
			}
		}
		return nil
	}
	return e.emitAssert(c)
}

func (e *emitter) emitAssert(c *Constraint) error {
	switch c.Kind {
	case ConstraintAll:
		if len(c.Children) < 2 {
			return invariantf("conjunction with %d children", len(c.Children))
		}
		for _, child := range c.Children {
			if err := e.emitAssert(child); err != nil {
				return err
			}
		}
		return nil
	case ConstraintEqual:
		return e.emitEqualAssert(c)
	case ConstraintUnary:
		return e.emitUnaryAssert(c)
	case ConstraintBinary:
		return e.emitGeqAssert(c)
	case ConstraintSome, ConstraintNot:
		bit, err := e.emitBool(c)
		if err != nil {
			return err
		}
		e.assert(&Assertion{Kind: AssertTrue, A: bit, Note: c.Kind.String()})
		return nil
	case ConstraintBool:
		if !c.Value {
			return invariantf("unsatisfiable constraint reached emission")
		}
		return nil
	default:
		return invariantf("unknown constraint kind %v", c.Kind)
	}
}

func (e *emitter) emitEqualAssert(c *Constraint) error {
	left, err := e.resolve(c.Left)
	if err != nil {
		return err
	}
	right, err := e.resolve(c.Right)
	if err != nil {
		return err
	}
	if lang, other, ok := langOperand(left, right); ok {
		return e.emitLangEqual(lang, other, "lang equality")
	}
	a, err := e.render(left)
	if err != nil {
		return err
	}
	b, err := e.render(right)
	if err != nil {
		return err
	}
	e.assert(&Assertion{Kind: AssertEqual, A: a, B: b, Note: "equal"})
	return nil
}

func langOperand(a, b *Term) (lang, other *Term, ok bool) {
	if a.Kind == TermComputed && a.Computed == ComputedLang {
		return a, b, true
	}
	if b.Kind == TermComputed && b.Computed == ComputedLang {
		return b, a, true
	}
	return nil, nil, false
}

// emitLangEqual wires the language-tag decomposition. A literal's tag is
// only recoverable by opening its 4-way hash preimage, so a direct
// equality against the opaque encoding would be vacuous. Two shapes:
//
//   - against a static string: open the literal's value component and
//     reassemble its full hash around the known language constant;
//   - against a variable or slot: open both the value and language
//     components, reassemble the literal's hash, and additionally tie
//     the other side to the re-encoded plain-string identity of the
//     opened language.
func (e *emitter) emitLangEqual(lang, other *Term, note string) error {
	source, err := e.resolve(lang.Input)
	if err != nil {
		return err
	}
	commit, err := e.render(source)
	if err != nil {
		return err
	}

	if other.Kind == TermStatic {
		lit := other.Static
		if lit.Kind != rdf.KindLiteral || lit.Datatype != rdf.XSDString || lit.Language != "" {
			return unsupportedf("lang() compared against %v", lit)
		}
		// The reassembled preimage below fixes the rdf:langString
		// datatype, while a plain literal answers "" to lang(). The
		// two sides could never agree on the empty tag.
		if lit.Value == "" {
			return unsupportedf("lang() compared against the empty string")
		}
		vIdx, err := e.hiddenSlot(CustomLiteralValue, source)
		if err != nil {
			return err
		}
		v := HiddenExpr(vIdx)
		// A language-tagged literal's numeric component falls back to
		// its value component, so the preimage is (v, v, lang, dt).
		inner := HashExpr(v, v, hashConst(lit.Value), hashConst(rdf.RDFLangString))
		full := HashExpr(tagConst(codec.TagLiteral), inner)
		e.assert(&Assertion{Kind: AssertEqual, A: commit, B: full, Note: note})
		return nil
	}

	otherExpr, err := e.render(other)
	if err != nil {
		return err
	}
	vIdx, err := e.hiddenSlot(CustomLiteralValue, source)
	if err != nil {
		return err
	}
	gIdx, err := e.hiddenSlot(CustomLiteralLang, source)
	if err != nil {
		return err
	}
	v, g := HiddenExpr(vIdx), HiddenExpr(gIdx)

	inner := HashExpr(v, v, g, hashConst(rdf.RDFLangString))
	full := HashExpr(tagConst(codec.TagLiteral), inner)
	e.assert(&Assertion{Kind: AssertEqual, A: commit, B: full, Note: note})

	// The opened language hash doubles as the value component of the
	// plain-string literal the binding carries.
	zero := ConstExpr("0")
	reInner := HashExpr(g, g, zero, hashConst(rdf.XSDString))
	reFull := HashExpr(tagConst(codec.TagLiteral), reInner)
	e.assert(&Assertion{Kind: AssertEqual, A: otherExpr, B: reFull, Note: note + " (binding)"})
	return nil
}

func (e *emitter) emitUnaryAssert(c *Constraint) error {
	commit, tag, hiddenIdx, err := e.openKind(c)
	if err != nil {
		return err
	}
	full := HashExpr(tagConst(tag), HiddenExpr(hiddenIdx))
	e.assert(&Assertion{Kind: AssertEqual, A: commit, B: full, Note: c.Op})
	return nil
}

// openKind allocates the hidden opening a kind predicate needs and
// returns the term's committed encoding, the asserted tag, and the
// hidden slot for the opened body.
func (e *emitter) openKind(c *Constraint) (*Expr, uint64, int, error) {
	term, err := e.resolve(c.Term)
	if err != nil {
		return nil, 0, 0, err
	}
	var tag uint64
	switch c.Op {
	case "isiri":
		tag = codec.TagNamedNode
	case "isblank":
		tag = codec.TagBlankNode
	case "isliteral":
		tag = codec.TagLiteral
	default:
		return nil, 0, 0, invariantf("unary operator %q", c.Op)
	}
	commit, err := e.render(term)
	if err != nil {
		return nil, 0, 0, err
	}
	idx, err := e.hiddenSlot(CustomInner, term)
	if err != nil {
		return nil, 0, 0, err
	}
	return commit, tag, idx, nil
}

// emitGeqAssert opens the left literal's value and numeric components,
// proves they reassemble the committed hash, then range-compares the
// numeric component against the static threshold.
func (e *emitter) emitGeqAssert(c *Constraint) error {
	if c.Right.Kind != TermStatic || c.Right.Static.Datatype != rdf.XSDInteger {
		return invariantf("geq right operand %s is not a static integer", c.Right)
	}
	left, err := e.resolve(c.Left)
	if err != nil {
		return err
	}
	commit, err := e.render(left)
	if err != nil {
		return err
	}
	vIdx, err := e.hiddenSlot(CustomLiteralValue, left)
	if err != nil {
		return err
	}
	nIdx, err := e.hiddenSlot(CustomNumeric, left)
	if err != nil {
		return err
	}
	v, n := HiddenExpr(vIdx), HiddenExpr(nIdx)

	inner := HashExpr(v, n, ConstExpr("0"), hashConst(rdf.XSDInteger))
	full := HashExpr(tagConst(codec.TagLiteral), inner)
	e.assert(&Assertion{Kind: AssertEqual, A: commit, B: full, Note: "geq opening"})

	threshold, err := integerConst(c.Right.Static)
	if err != nil {
		return err
	}
	e.assert(&Assertion{Kind: AssertLeq, A: threshold, B: n, Note: "geq " + c.Right.Static.Value})
	return nil
}

func integerConst(t rdf.Term) (*Expr, error) {
	_, numeric, _, _ := codec.LiteralParts(t)
	value := codec.HashString(t.Value)
	if numeric.Equal(&value) {
		return nil, fmt.Errorf("compile: %q is not a valid integer threshold", t.Value)
	}
	return ConstExpr(numeric.String()), nil
}

// emitBool lowers a constraint in disjunctive position to a bit-valued
// expression. Hidden-input openings are not available here, so geq and
// lang decompositions are outside the supported grammar in this
// position.
func (e *emitter) emitBool(c *Constraint) (*Expr, error) {
	switch c.Kind {
	case ConstraintEqual:
		left, err := e.resolve(c.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.resolve(c.Right)
		if err != nil {
			return nil, err
		}
		if _, _, ok := langOperand(left, right); ok {
			return nil, unsupportedf("lang equality inside a disjunction")
		}
		a, err := e.render(left)
		if err != nil {
			return nil, err
		}
		b, err := e.render(right)
		if err != nil {
			return nil, err
		}
		return EqBit(a, b), nil
	case ConstraintUnary:
		commit, tag, hiddenIdx, err := e.openKind(c)
		if err != nil {
			return nil, err
		}
		full := HashExpr(tagConst(tag), HiddenExpr(hiddenIdx))
		return EqBit(commit, full), nil
	case ConstraintAll, ConstraintSome:
		if len(c.Children) < 2 {
			return nil, invariantf("%s with %d children", c.Kind, len(c.Children))
		}
		acc, err := e.emitBool(c.Children[0])
		if err != nil {
			return nil, err
		}
		for _, child := range c.Children[1:] {
			bit, err := e.emitBool(child)
			if err != nil {
				return nil, err
			}
			if c.Kind == ConstraintAll {
				acc = AndBit(acc, bit)
			} else {
				acc = OrBit(acc, bit)
			}
		}
		return acc, nil
	case ConstraintNot:
		inner, err := e.emitBool(c.Inner)
		if err != nil {
			return nil, err
		}
		return NotBit(inner), nil
	case ConstraintBinary:
		return nil, unsupportedf("numeric comparison inside a disjunction")
	case ConstraintBool:
		if c.Value {
			return ConstExpr("1"), nil
		}
		return ConstExpr("0"), nil
	default:
		return nil, invariantf("unknown constraint kind %v", c.Kind)
	}
}
