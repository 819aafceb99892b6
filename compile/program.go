package compile

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"text/template"
	"unicode"
)

// ProgramOptions configures the rendered circuit source.
type ProgramOptions struct {
	// PackageName is the Go package name for the generated file.
	PackageName string
	// CircuitName is the circuit struct name.
	CircuitName string
}

// RenderProgram serializes a plan into a standalone gnark circuit
// source file. The text is a fixed contract: type declarations first,
// then the authentication framing, then one statement per assertion.
func RenderProgram(plan *Plan, meta *Metadata, opts ProgramOptions) (string, error) {
	if opts.PackageName == "" {
		opts.PackageName = "main"
	}
	if opts.CircuitName == "" {
		opts.CircuitName = "QueryCircuit"
	}

	ctx := &programContext{
		PackageName: opts.PackageName,
		CircuitName: opts.CircuitName,
		NumSlots:    meta.NumSlots(),
		TreeDepth:   meta.TreeDepth,
		NumHidden:   len(meta.HiddenInputs),
	}
	for _, name := range meta.Variables {
		ctx.Variables = append(ctx.Variables, varField{Name: name, GoName: goFieldName(name)})
	}

	w := &stmtWriter{vars: ctx.Variables, hasHidden: ctx.NumHidden > 0}
	for _, a := range plan.Assertions {
		if err := w.writeAssertion(a); err != nil {
			return "", err
		}
	}
	ctx.Statements = w.lines

	var buf bytes.Buffer
	if err := circuitTemplate.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("compile: render circuit: %w", err)
	}
	return buf.String(), nil
}

type programContext struct {
	PackageName string
	CircuitName string
	NumSlots    int
	TreeDepth   int
	NumHidden   int
	Variables   []varField
	Statements  []string
}

type varField struct {
	Name   string
	GoName string
}

var nonIdentRe = regexp.MustCompile(`[^A-Za-z0-9]`)

// goFieldName maps a query variable to an exported struct field name.
func goFieldName(name string) string {
	clean := nonIdentRe.ReplaceAllString(name, "_")
	if clean == "" || unicode.IsDigit(rune(clean[0])) {
		clean = "V" + clean
	}
	return strings.ToUpper(clean[:1]) + clean[1:]
}

// stmtWriter builds the checkBinding body as an ordered statement list,
// allocating temporaries for hash and comparison subexpressions.
type stmtWriter struct {
	vars      []varField
	hasHidden bool
	lines     []string
	tmp       int
}

func (w *stmtWriter) addf(format string, args ...any) {
	w.lines = append(w.lines, fmt.Sprintf(format, args...))
}

func (w *stmtWriter) temp(expr string) string {
	name := fmt.Sprintf("t%d", w.tmp)
	w.tmp++
	w.addf("%s := %s", name, expr)
	return name
}

func (w *stmtWriter) writeAssertion(a *Assertion) error {
	if a.Note != "" {
		w.addf("// %s", a.Note)
	}
	switch a.Kind {
	case AssertEqual:
		lhs, err := w.expr(a.A)
		if err != nil {
			return err
		}
		rhs, err := w.expr(a.B)
		if err != nil {
			return err
		}
		w.addf("api.AssertIsEqual(%s, %s)", lhs, rhs)
	case AssertLeq:
		lhs, err := w.expr(a.A)
		if err != nil {
			return err
		}
		rhs, err := w.expr(a.B)
		if err != nil {
			return err
		}
		w.addf("api.AssertIsLessOrEqual(%s, %s)", lhs, rhs)
	case AssertTrue:
		bit, err := w.expr(a.A)
		if err != nil {
			return err
		}
		w.addf("api.AssertIsEqual(%s, 1)", bit)
	default:
		return fmt.Errorf("compile: unknown assertion kind %d", a.Kind)
	}
	return nil
}

func (w *stmtWriter) expr(e *Expr) (string, error) {
	switch e.Kind {
	case ExprConst:
		return fmt.Sprintf("frontend.Variable(%q)", e.Const), nil
	case ExprInput:
		return fmt.Sprintf("c.Bgp[%d].Terms[%d]", e.Slot, e.Pos), nil
	case ExprVar:
		if e.Index < 0 || e.Index >= len(w.vars) {
			return "", fmt.Errorf("compile: variable index %d out of range", e.Index)
		}
		return "c.Variables." + w.vars[e.Index].GoName, nil
	case ExprHidden:
		if !w.hasHidden {
			return "", fmt.Errorf("compile: hidden reference in a plan without hidden inputs")
		}
		return fmt.Sprintf("c.Hidden[%d]", e.Index), nil
	case ExprHash:
		args := make([]string, len(e.Args))
		for i, sub := range e.Args {
			s, err := w.expr(sub)
			if err != nil {
				return "", err
			}
			args[i] = s
		}
		return w.temp(fmt.Sprintf("hash(api, %s)", strings.Join(args, ", "))), nil
	case ExprEqBit:
		a, err := w.expr(e.Args[0])
		if err != nil {
			return "", err
		}
		b, err := w.expr(e.Args[1])
		if err != nil {
			return "", err
		}
		return w.temp(fmt.Sprintf("api.IsZero(api.Sub(%s, %s))", a, b)), nil
	case ExprAnd, ExprOr:
		a, err := w.expr(e.Args[0])
		if err != nil {
			return "", err
		}
		b, err := w.expr(e.Args[1])
		if err != nil {
			return "", err
		}
		op := "And"
		if e.Kind == ExprOr {
			op = "Or"
		}
		return fmt.Sprintf("api.%s(%s, %s)", op, a, b), nil
	case ExprNotBit:
		a, err := w.expr(e.Args[0])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("api.Sub(1, %s)", a), nil
	default:
		return "", fmt.Errorf("compile: unknown expression kind %d", e.Kind)
	}
}

var circuitTemplate = template.Must(template.New("circuit").Parse(`// Code generated by zksparql. DO NOT EDIT.
package {{.PackageName}}

import (
	tedwards "github.com/consensys/gnark-crypto/ecc/twistededwards"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/twistededwards"
	"github.com/consensys/gnark/std/hash/mimc"
	"github.com/consensys/gnark/std/signature/eddsa"
)

const (
	NumSlots  = {{.NumSlots}}
	TreeDepth = {{.TreeDepth}}
)

// InputTriple is one committed quad: the four term encodings plus the
// Merkle path authenticating its leaf.
type InputTriple struct {
	Terms      [4]frontend.Variable
	Path       [TreeDepth]frontend.Variable
	Directions [TreeDepth]frontend.Variable
}

// Variables holds the encoding of each projected query variable.
type Variables struct {
{{- range .Variables}}
	{{.GoName}} frontend.Variable // ?{{.Name}}
{{- end}}
}

// {{.CircuitName}} proves the query holds on a signed dataset.
type {{.CircuitName}} struct {
	PublicKey eddsa.PublicKey   ` + "`gnark:\",public\"`" + `
	Signature eddsa.Signature   ` + "`gnark:\",public\"`" + `
	Root      frontend.Variable ` + "`gnark:\",public\"`" + `

	Bgp       [NumSlots]InputTriple
	Variables Variables
{{- if .NumHidden}}
	Hidden    [{{.NumHidden}}]frontend.Variable
{{- end}}
}

func hash(api frontend.API, elems ...frontend.Variable) frontend.Variable {
	h, _ := mimc.NewMiMC(api)
	h.Write(elems...)
	return h.Sum()
}

func (c *{{.CircuitName}}) Define(api frontend.API) error {
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

	for i := 0; i < NumSlots; i++ {
		leaf := hash(api, c.Bgp[i].Terms[0], c.Bgp[i].Terms[1], c.Bgp[i].Terms[2], c.Bgp[i].Terms[3])
		node := leaf
		for level := 0; level < TreeDepth; level++ {
			dir := c.Bgp[i].Directions[level]
			api.AssertIsBoolean(dir)
			sibling := c.Bgp[i].Path[level]
			left := api.Select(dir, sibling, node)
			right := api.Select(dir, node, sibling)
			node = hash(api, left, right)
		}
		api.AssertIsEqual(node, c.Root)
	}

	checkBinding(api, c)
	return nil
}

// checkBinding asserts the compiled query constraints.
func checkBinding(api frontend.API, c *{{.CircuitName}}) {
{{- range .Statements}}
	{{.}}
{{- end}}
}
`))
