package witness

import (
	"fmt"
	"math/big"

	"github.com/zkrdf/zksparql/rdf"
	"github.com/zkrdf/zksparql/sparql"
)

// evalValue evaluates an expression to a concrete term under bindings.
func evalValue(e sparql.Expr, bind map[string]rdf.Term) (rdf.Term, error) {
	switch n := e.(type) {
	case *sparql.TermExpr:
		if n.Term.IsVariable() {
			t, ok := bind[n.Term.Value]
			if !ok {
				return rdf.Term{}, fmt.Errorf("witness: variable ?%s is unbound", n.Term.Value)
			}
			return t, nil
		}
		return n.Term, nil
	case *sparql.CallExpr:
		arg, err := evalValue(n.Arg, bind)
		if err != nil {
			return rdf.Term{}, err
		}
		switch n.Func {
		case "lang":
			if arg.Kind != rdf.KindLiteral {
				return rdf.Term{}, fmt.Errorf("witness: lang() of non-literal %s", arg)
			}
			return rdf.NewLiteral(arg.Language), nil
		case "isiri":
			return boolTerm(arg.Kind == rdf.KindNamedNode), nil
		case "isblank":
			return boolTerm(arg.Kind == rdf.KindBlankNode), nil
		case "isliteral":
			return boolTerm(arg.Kind == rdf.KindLiteral), nil
		default:
			return rdf.Term{}, fmt.Errorf("witness: unsupported function %s", n.Func)
		}
	default:
		return rdf.Term{}, fmt.Errorf("witness: unsupported value expression %T", e)
	}
}

func boolTerm(v bool) rdf.Term {
	if v {
		return rdf.NewTypedLiteral("true", rdf.XSDBoolean)
	}
	return rdf.NewTypedLiteral("false", rdf.XSDBoolean)
}

// ebv computes the effective boolean value of a filter expression. A
// type mismatch is not an error: the solution simply fails the filter,
// matching what the circuit would conclude.
func ebv(e sparql.Expr, bind map[string]rdf.Term) (bool, error) {
	switch n := e.(type) {
	case *sparql.AndExpr:
		l, err := ebv(n.Left, bind)
		if err != nil || !l {
			return false, err
		}
		return ebv(n.Right, bind)
	case *sparql.OrExpr:
		l, err := ebv(n.Left, bind)
		if err != nil {
			return false, err
		}
		if l {
			return true, nil
		}
		return ebv(n.Right, bind)
	case *sparql.NotExpr:
		inner, err := ebv(n.Inner, bind)
		return !inner, err
	case *sparql.CompareExpr:
		return compare(n, bind)
	case *sparql.CallExpr:
		v, err := evalValue(n, bind)
		if err != nil {
			return false, err
		}
		return v.Datatype == rdf.XSDBoolean && v.Value == "true", nil
	case *sparql.TermExpr:
		v, err := evalValue(n, bind)
		if err != nil {
			return false, err
		}
		return v.Kind == rdf.KindLiteral && v.Datatype == rdf.XSDBoolean &&
			(v.Value == "true" || v.Value == "1"), nil
	default:
		return false, fmt.Errorf("witness: unsupported filter expression %T", e)
	}
}

func compare(n *sparql.CompareExpr, bind map[string]rdf.Term) (bool, error) {
	left, err := evalValue(n.Left, bind)
	if err != nil {
		return false, err
	}
	right, err := evalValue(n.Right, bind)
	if err != nil {
		return false, err
	}
	switch n.Op {
	case "=":
		return left.Equal(right), nil
	case "!=":
		return !left.Equal(right), nil
	case ">=":
		l, lok := integerValue(left)
		r, rok := integerValue(right)
		if !lok || !rok {
			return false, nil
		}
		return l.Cmp(r) >= 0, nil
	default:
		return false, fmt.Errorf("witness: unsupported comparison %s", n.Op)
	}
}

func integerValue(t rdf.Term) (*big.Int, bool) {
	if t.Kind != rdf.KindLiteral || t.Datatype != rdf.XSDInteger {
		return nil, false
	}
	v, ok := new(big.Int).SetString(t.Value, 10)
	return v, ok
}
