package compile

// The emitter lowers the optimized constraint tree into a Plan: an
// ordered assertion list over a small circuit-level expression language.
// The plan has two consumers with identical semantics: the source
// renderer in program.go and the in-process circuit interpreter in the
// circuits package.

// ExprKind identifies a circuit-level expression node.
type ExprKind int

const (
	// ExprConst is a field constant, held as a decimal string.
	ExprConst ExprKind = iota
	// ExprInput is position Pos of input slot Slot.
	ExprInput
	// ExprVar is projected variable number Index.
	ExprVar
	// ExprHidden is hidden input number Index.
	ExprHidden
	// ExprHash is the MiMC hash of Args.
	ExprHash
	// ExprEqBit is 1 when both args are equal, else 0.
	ExprEqBit
	// ExprAnd and ExprOr combine bit-valued args.
	ExprAnd
	ExprOr
	// ExprNotBit inverts a bit-valued arg.
	ExprNotBit
)

// Expr is a circuit-level expression node.
type Expr struct {
	Kind  ExprKind
	Const string
	Slot  int
	Pos   int
	Index int
	Name  string // variable name, for readability of rendered source
	Args  []*Expr
}

func ConstExpr(dec string) *Expr { return &Expr{Kind: ExprConst, Const: dec} }

func InputExpr(slot, pos int) *Expr { return &Expr{Kind: ExprInput, Slot: slot, Pos: pos} }

func VarExpr(index int, name string) *Expr {
	return &Expr{Kind: ExprVar, Index: index, Name: name}
}

func HiddenExpr(index int) *Expr { return &Expr{Kind: ExprHidden, Index: index} }

func HashExpr(args ...*Expr) *Expr { return &Expr{Kind: ExprHash, Args: args} }

func EqBit(a, b *Expr) *Expr { return &Expr{Kind: ExprEqBit, Args: []*Expr{a, b}} }

func AndBit(a, b *Expr) *Expr { return &Expr{Kind: ExprAnd, Args: []*Expr{a, b}} }

func OrBit(a, b *Expr) *Expr { return &Expr{Kind: ExprOr, Args: []*Expr{a, b}} }

func NotBit(a *Expr) *Expr { return &Expr{Kind: ExprNotBit, Args: []*Expr{a}} }

// AssertKind identifies an assertion statement.
type AssertKind int

const (
	// AssertEqual asserts A == B.
	AssertEqual AssertKind = iota
	// AssertLeq asserts A <= B in the unsigned integer sense.
	AssertLeq
	// AssertTrue asserts the bit-valued A equals 1.
	AssertTrue
)

// Assertion is one emitted circuit statement.
type Assertion struct {
	Kind AssertKind
	A, B *Expr
	// Note is a short human-readable origin tag carried into the
	// rendered source as a comment.
	Note string
}

// Plan is the ordered assertion list for the query-specific part of the
// circuit. Slot membership and root-signature checks are fixed framing
// around it and are not part of the plan.
type Plan struct {
	Assertions []*Assertion
}
