package witness

import (
	"fmt"

	"github.com/zkrdf/zksparql/compile"
	"github.com/zkrdf/zksparql/rdf"
)

// solution is one complete match: variable bindings plus the concrete
// quad occupying each compiled input slot, in slot order.
type solution struct {
	bindings map[string]rdf.Term
	quads    []rdf.Quad
}

func (s *solution) clone() *solution {
	out := &solution{
		bindings: make(map[string]rdf.Term, len(s.bindings)),
		quads:    append([]rdf.Quad(nil), s.quads...),
	}
	for k, v := range s.bindings {
		out.bindings[k] = v
	}
	return out
}

// matchQuad unifies a pattern slot with a concrete quad, extending the
// bindings. Variables act as wildcards; a conflicting binding rejects
// the quad.
func matchQuad(slot compile.PatternSlot, q rdf.Quad, bind map[string]rdf.Term) (map[string]rdf.Term, bool) {
	pairs := [3][2]rdf.Term{
		{slot.Subject, q.Subject},
		{slot.Predicate, q.Predicate},
		{slot.Object, q.Object},
	}
	next := bind
	copied := false
	for _, pair := range pairs {
		pattern, concrete := pair[0], pair[1]
		if !pattern.IsVariable() {
			if !pattern.Equal(concrete) {
				return nil, false
			}
			continue
		}
		if bound, ok := next[pattern.Value]; ok {
			if !bound.Equal(concrete) {
				return nil, false
			}
			continue
		}
		if !copied {
			fresh := make(map[string]rdf.Term, len(next)+1)
			for k, v := range next {
				fresh[k] = v
			}
			next = fresh
			copied = true
		}
		next[pattern.Value] = concrete
	}
	return next, true
}

// solve enumerates all matches of the required slots, then resolves the
// optional slots, applies extends and filters, and yields surviving
// solutions one at a time. Returning false from yield stops the search.
func (b *Binder) solve(yield func(*solution) bool) error {
	var rec func(i int, bind map[string]rdf.Term, quads []rdf.Quad) (bool, error)
	rec = func(i int, bind map[string]rdf.Term, quads []rdf.Quad) (bool, error) {
		if i == len(b.meta.RequiredInputs) {
			return b.finish(bind, quads, yield)
		}
		for _, q := range b.store.Quads {
			next, ok := matchQuad(b.meta.RequiredInputs[i], q, bind)
			if !ok {
				continue
			}
			cont, err := rec(i+1, next, append(quads, q))
			if err != nil || !cont {
				return cont, err
			}
		}
		return true, nil
	}
	_, err := rec(0, make(map[string]rdf.Term), nil)
	return err
}

// finish resolves optional slots and filters for one required-slot
// match, then yields it.
func (b *Binder) finish(bind map[string]rdf.Term, quads []rdf.Quad, yield func(*solution) bool) (bool, error) {
	sol := &solution{bindings: bind, quads: quads}
	sol = sol.clone()

	for _, slot := range b.meta.OptionalInputs {
		matched := false
		for _, q := range b.store.Quads {
			next, ok := matchQuad(slot, q, sol.bindings)
			if !ok {
				continue
			}
			sol.bindings = next
			sol.quads = append(sol.quads, q)
			matched = true
			break
		}
		if matched {
			continue
		}
		// Zero branch: the step only holds if subject and object
		// resolve to the same term. A fresh variable on either end is
		// bound to the other end, per zero-length-path semantics. The
		// slot still needs a real quad for its membership proof; any
		// dataset quad serves.
		subj, sok := resolveSlotTerm(slot.Subject, sol.bindings)
		obj, ook := resolveSlotTerm(slot.Object, sol.bindings)
		switch {
		case sok && !ook && slot.Object.IsVariable():
			sol.bindings[slot.Object.Value] = subj
			obj, ook = subj, true
		case ook && !sok && slot.Subject.IsVariable():
			sol.bindings[slot.Subject.Value] = obj
			subj, sok = obj, true
		}
		if !sok || !ook || !subj.Equal(obj) {
			return true, nil // not a solution; keep searching
		}
		sol.quads = append(sol.quads, b.store.Quads[0])
	}

	for _, ext := range b.query.Extends() {
		if _, ok := sol.bindings[ext.Var]; ok {
			return false, fmt.Errorf("witness: BIND rebinds ?%s", ext.Var)
		}
		v, err := evalValue(ext.Expr, sol.bindings)
		if err != nil {
			return true, nil // binding error skips the solution
		}
		sol.bindings[ext.Var] = v
	}

	for _, f := range b.query.Filters() {
		ok, err := ebv(f, sol.bindings)
		if err != nil {
			return true, nil
		}
		if !ok {
			return true, nil
		}
	}

	return yield(sol), nil
}

func resolveSlotTerm(t rdf.Term, bind map[string]rdf.Term) (rdf.Term, bool) {
	if !t.IsVariable() {
		return t, true
	}
	bound, ok := bind[t.Value]
	return bound, ok
}
