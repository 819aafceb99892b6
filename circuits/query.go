package circuits

import (
	"fmt"

	tedwards "github.com/consensys/gnark-crypto/ecc/twistededwards"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/twistededwards"
	"github.com/consensys/gnark/std/hash/mimc"
	"github.com/consensys/gnark/std/signature/eddsa"

	"github.com/zkrdf/zksparql/compile"
)

// InputTriple is one committed quad slot: the four term encodings plus
// the Merkle path authenticating its leaf.
type InputTriple struct {
	Terms      [4]frontend.Variable
	Path       []frontend.Variable
	Directions []frontend.Variable
}

// QueryCircuit proves a compiled query against a signed dataset. The
// slice lengths are fixed per compiled query; build instances with New
// so template and witness shapes always agree.
type QueryCircuit struct {
	PublicKey eddsa.PublicKey   `gnark:",public"`
	Signature eddsa.Signature   `gnark:",public"`
	Root      frontend.Variable `gnark:",public"`

	Bgp       []InputTriple
	Variables []frontend.Variable
	Hidden    []frontend.Variable

	plan *compile.Plan
}

// New allocates a circuit shaped by the compiled metadata. The plan is
// only needed on the compilation template; witness instances built from
// the same metadata carry a nil plan.
func New(plan *compile.Plan, meta *compile.Metadata) *QueryCircuit {
	c := &QueryCircuit{
		Bgp:       make([]InputTriple, meta.NumSlots()),
		Variables: make([]frontend.Variable, len(meta.Variables)),
		plan:      plan,
	}
	for i := range c.Bgp {
		c.Bgp[i].Path = make([]frontend.Variable, meta.TreeDepth)
		c.Bgp[i].Directions = make([]frontend.Variable, meta.TreeDepth)
	}
	if n := len(meta.HiddenInputs); n > 0 {
		c.Hidden = make([]frontend.Variable, n)
	}
	return c
}

func (c *QueryCircuit) Define(api frontend.API) error {
	curve, err := twistededwards.NewEdCurve(api, tedwards.BN254)
	if err != nil {
		return err
	}
	sigHash, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	if err := eddsa.Verify(curve, c.Signature, c.Root, c.PublicKey, &sigHash); err != nil {
		return err
	}

	for i := range c.Bgp {
		leaf := QuadLeaf(api, c.Bgp[i].Terms)
		VerifyMerklePath(api, leaf, c.Root, c.Bgp[i].Path, c.Bgp[i].Directions)
	}

	if c.plan == nil {
		return fmt.Errorf("circuits: circuit template has no plan")
	}
	for _, a := range c.plan.Assertions {
		if err := c.applyAssertion(api, a); err != nil {
			return err
		}
	}
	return nil
}

func (c *QueryCircuit) applyAssertion(api frontend.API, a *compile.Assertion) error {
	switch a.Kind {
	case compile.AssertEqual:
		lhs, err := c.eval(api, a.A)
		if err != nil {
			return err
		}
		rhs, err := c.eval(api, a.B)
		if err != nil {
			return err
		}
		api.AssertIsEqual(lhs, rhs)
	case compile.AssertLeq:
		lhs, err := c.eval(api, a.A)
		if err != nil {
			return err
		}
		rhs, err := c.eval(api, a.B)
		if err != nil {
			return err
		}
		api.AssertIsLessOrEqual(lhs, rhs)
	case compile.AssertTrue:
		bit, err := c.eval(api, a.A)
		if err != nil {
			return err
		}
		api.AssertIsEqual(bit, 1)
	default:
		return fmt.Errorf("circuits: unknown assertion kind %d", a.Kind)
	}
	return nil
}

func (c *QueryCircuit) eval(api frontend.API, e *compile.Expr) (frontend.Variable, error) {
	switch e.Kind {
	case compile.ExprConst:
		return frontend.Variable(e.Const), nil
	case compile.ExprInput:
		if e.Slot < 0 || e.Slot >= len(c.Bgp) || e.Pos < 0 || e.Pos >= 4 {
			return nil, fmt.Errorf("circuits: input %d:%d out of range", e.Slot, e.Pos)
		}
		return c.Bgp[e.Slot].Terms[e.Pos], nil
	case compile.ExprVar:
		if e.Index < 0 || e.Index >= len(c.Variables) {
			return nil, fmt.Errorf("circuits: variable %d out of range", e.Index)
		}
		return c.Variables[e.Index], nil
	case compile.ExprHidden:
		if e.Index < 0 || e.Index >= len(c.Hidden) {
			return nil, fmt.Errorf("circuits: hidden input %d out of range", e.Index)
		}
		return c.Hidden[e.Index], nil
	case compile.ExprHash:
		args := make([]frontend.Variable, len(e.Args))
		for i, sub := range e.Args {
			v, err := c.eval(api, sub)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return Hash(api, args...), nil
	case compile.ExprEqBit:
		a, err := c.eval(api, e.Args[0])
		if err != nil {
			return nil, err
		}
		b, err := c.eval(api, e.Args[1])
		if err != nil {
			return nil, err
		}
		return api.IsZero(api.Sub(a, b)), nil
	case compile.ExprAnd, compile.ExprOr:
		a, err := c.eval(api, e.Args[0])
		if err != nil {
			return nil, err
		}
		b, err := c.eval(api, e.Args[1])
		if err != nil {
			return nil, err
		}
		if e.Kind == compile.ExprAnd {
			return api.And(a, b), nil
		}
		return api.Or(a, b), nil
	case compile.ExprNotBit:
		a, err := c.eval(api, e.Args[0])
		if err != nil {
			return nil, err
		}
		return api.Sub(1, a), nil
	default:
		return nil, fmt.Errorf("circuits: unknown expression kind %d", e.Kind)
	}
}
