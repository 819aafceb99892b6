// Package witness re-evaluates a compiled query against a concrete
// signed dataset and assembles per-solution proving inputs matching the
// compiler's metadata contract.
package witness

import (
	"errors"
	"fmt"
	"iter"

	tedwards "github.com/consensys/gnark-crypto/ecc/twistededwards"
	"github.com/consensys/gnark/frontend"

	"github.com/zkrdf/zksparql/authstore"
	"github.com/zkrdf/zksparql/circuits"
	"github.com/zkrdf/zksparql/codec"
	"github.com/zkrdf/zksparql/compile"
	"github.com/zkrdf/zksparql/rdf"
	"github.com/zkrdf/zksparql/sparql"
)

// ErrNoSolutions is returned by First when the query has no match. Zero
// matches is a legitimate evaluation outcome, not a binder defect.
var ErrNoSolutions = errors.New("witness: query has no solutions")

// Solution is one proving-ready match: the concrete bindings, the quads
// occupying the input slots, and the complete witness assignment.
type Solution struct {
	Bindings   map[string]rdf.Term
	Quads      []rdf.Quad
	Assignment *circuits.QueryCircuit
}

// Binder pairs compiled metadata with a signed dataset and the original
// query.
type Binder struct {
	store *authstore.SignedDataset
	meta  *compile.Metadata
	query *sparql.Query
}

// NewBinder validates the contract between metadata and store before
// any solving happens: the circuit's tree depth must match the store's.
func NewBinder(store *authstore.SignedDataset, meta *compile.Metadata, query *sparql.Query) (*Binder, error) {
	if store.Tree.Depth() != meta.TreeDepth {
		return nil, fmt.Errorf("witness: store depth %d does not match compiled depth %d",
			store.Tree.Depth(), meta.TreeDepth)
	}
	return &Binder{store: store, meta: meta, query: query}, nil
}

// Solutions returns a lazy sequence of proving inputs, one per query
// solution. Assembly failures are yielded per solution and do not stop
// the remaining matches. The sequence is restartable: each range starts
// a fresh evaluation.
func (b *Binder) Solutions() iter.Seq2[*Solution, error] {
	return func(yield func(*Solution, error) bool) {
		err := b.solve(func(sol *solution) bool {
			out, err := b.assemble(sol)
			return yield(out, err)
		})
		if err != nil {
			yield(nil, err)
		}
	}
}

// First returns the first solution, or ErrNoSolutions.
func (b *Binder) First() (*Solution, error) {
	for sol, err := range b.Solutions() {
		return sol, err
	}
	return nil, ErrNoSolutions
}

// assemble builds the witness assignment for one solution.
func (b *Binder) assemble(sol *solution) (*Solution, error) {
	c := circuits.New(nil, b.meta)

	c.PublicKey.Assign(tedwards.BN254, b.store.PublicKey.Bytes())
	c.Signature.Assign(tedwards.BN254, b.store.Signature)
	root := b.store.Tree.Root()
	c.Root = root.String()

	if len(sol.quads) != b.meta.NumSlots() {
		return nil, fmt.Errorf("witness: %d matched quads for %d slots", len(sol.quads), b.meta.NumSlots())
	}
	for i, q := range sol.quads {
		for pos, term := range []rdf.Term{q.Subject, q.Predicate, q.Object, q.Graph} {
			enc, err := codec.EncodeTerm(term)
			if err != nil {
				return nil, fmt.Errorf("witness: slot %d: %w", i, err)
			}
			c.Bgp[i].Terms[pos] = enc.String()
		}
		proof, err := b.store.ProofForQuad(q)
		if err != nil {
			return nil, fmt.Errorf("witness: slot %d: %w", i, err)
		}
		for level := range proof.Siblings {
			c.Bgp[i].Path[level] = proof.Siblings[level].String()
			c.Bgp[i].Directions[level] = proof.Directions[level]
		}
	}

	for i, name := range b.meta.Variables {
		term, ok := sol.bindings[name]
		if !ok {
			return nil, fmt.Errorf("witness: projected variable ?%s is unbound in this solution", name)
		}
		enc, err := codec.EncodeTerm(term)
		if err != nil {
			return nil, fmt.Errorf("witness: variable ?%s: %w", name, err)
		}
		c.Variables[i] = enc.String()
	}

	for i, h := range b.meta.HiddenInputs {
		v, err := b.hiddenValue(h, sol)
		if err != nil {
			return nil, fmt.Errorf("witness: hidden input %d: %w", i, err)
		}
		c.Hidden[i] = v
	}

	return &Solution{
		Bindings:   sol.bindings,
		Quads:      sol.quads,
		Assignment: c,
	}, nil
}

// hiddenValue computes one hidden witness value from the solution.
func (b *Binder) hiddenValue(h compile.HiddenInput, sol *solution) (frontend.Variable, error) {
	switch h.Kind {
	case compile.HiddenStatic:
		enc, err := codec.EncodeTerm(h.Static)
		if err != nil {
			return nil, err
		}
		return enc.String(), nil
	case compile.HiddenRef:
		term, err := b.sourceTerm(h.Source, sol)
		if err != nil {
			return nil, err
		}
		enc, err := codec.EncodeTerm(term)
		if err != nil {
			return nil, err
		}
		return enc.String(), nil
	case compile.HiddenComputed:
		term, err := b.sourceTerm(h.Source, sol)
		if err != nil {
			return nil, err
		}
		switch h.Computed {
		case compile.CustomLiteralValue:
			v := codec.HashString(term.Value)
			return v.String(), nil
		case compile.CustomLiteralLang:
			v := codec.HashLanguage(term.Language)
			return v.String(), nil
		case compile.CustomNumeric:
			_, numeric, _, _ := codec.LiteralParts(term)
			return numeric.String(), nil
		case compile.CustomInner:
			v, err := codec.InnerEncoding(term)
			if err != nil {
				return nil, err
			}
			return v.String(), nil
		default:
			return nil, fmt.Errorf("unknown hidden computation %v", h.Computed)
		}
	default:
		return nil, fmt.Errorf("unknown hidden kind %v", h.Kind)
	}
}

// sourceTerm resolves a hidden input's source to the concrete term it
// references in this solution.
func (b *Binder) sourceTerm(src *compile.Term, sol *solution) (rdf.Term, error) {
	switch src.Kind {
	case compile.TermInput:
		if src.Slot < 0 || src.Slot >= len(sol.quads) {
			return rdf.Term{}, fmt.Errorf("slot %d out of range", src.Slot)
		}
		q := sol.quads[src.Slot]
		switch src.Pos {
		case 0:
			return q.Subject, nil
		case 1:
			return q.Predicate, nil
		case 2:
			return q.Object, nil
		case 3:
			return q.Graph, nil
		default:
			return rdf.Term{}, fmt.Errorf("position %d out of range", src.Pos)
		}
	case compile.TermVariable:
		term, ok := sol.bindings[src.Name]
		if !ok {
			return rdf.Term{}, fmt.Errorf("variable ?%s is unbound", src.Name)
		}
		return term, nil
	default:
		return rdf.Term{}, fmt.Errorf("hidden source %s is not a slot or variable", src)
	}
}
