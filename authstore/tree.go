// Package authstore builds the authenticated leaf store: a MiMC Merkle
// tree over encoded quads, per-leaf inclusion proofs, and an EdDSA
// signature over the root that the proof circuit verifies in-circuit.
package authstore

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
)

var ErrEmptyTree = errors.New("authstore: cannot build a tree over zero leaves")

// Direction bit convention, shared with the emitted circuit: 0 means the
// sibling sits to the right of the running hash, 1 means to the left.
const (
	SiblingRight = 0
	SiblingLeft  = 1
)

// Tree is a fixed binary Merkle tree with last-node duplication at odd
// levels. Depth is ceil(log2(len(leaves))).
type Tree struct {
	levels [][]fr.Element
	depth  int
}

// Proof is an inclusion path for a single leaf. Siblings and Directions
// always have length equal to the tree depth.
type Proof struct {
	Leaf       fr.Element
	Index      int
	Siblings   []fr.Element
	Directions []int
}

// BuildTree constructs the tree bottom-up.
func BuildTree(leaves []fr.Element) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}

	level := make([]fr.Element, len(leaves))
	copy(level, leaves)
	if len(level) == 1 {
		// A lone leaf is padded to depth 1 so proof paths are never empty.
		level = append(level, level[0])
	}
	levels := [][]fr.Element{level}

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
			levels[len(levels)-1] = level
		}
		next := make([]fr.Element, len(level)/2)
		for i := range next {
			next[i] = hashPair(level[2*i], level[2*i+1])
		}
		levels = append(levels, next)
		level = next
	}

	return &Tree{levels: levels, depth: len(levels) - 1}, nil
}

// Root returns the tree root.
func (t *Tree) Root() fr.Element {
	return t.levels[len(t.levels)-1][0]
}

// Depth returns the proof path length.
func (t *Tree) Depth() int {
	return t.depth
}

// NumLeaves returns the original leaf count (duplicates excluded from
// indexing are still addressable but callers index the input range).
func (t *Tree) NumLeaves() int {
	return len(t.levels[0])
}

// Proof returns the inclusion path for leaf i.
func (t *Tree) Proof(i int) (*Proof, error) {
	if i < 0 || i >= len(t.levels[0]) {
		return nil, fmt.Errorf("authstore: leaf index %d out of range [0,%d)", i, len(t.levels[0]))
	}

	proof := &Proof{
		Leaf:       t.levels[0][i],
		Index:      i,
		Siblings:   make([]fr.Element, t.depth),
		Directions: make([]int, t.depth),
	}

	idx := i
	for level := 0; level < t.depth; level++ {
		nodes := t.levels[level]
		if idx%2 == 0 {
			sibling := idx + 1
			if sibling >= len(nodes) {
				sibling = idx // duplicated last node
			}
			proof.Siblings[level] = nodes[sibling]
			proof.Directions[level] = SiblingRight
		} else {
			proof.Siblings[level] = nodes[idx-1]
			proof.Directions[level] = SiblingLeft
		}
		idx /= 2
	}

	return proof, nil
}

// VerifyProof recomputes the root from a leaf and its path.
func VerifyProof(root fr.Element, p *Proof) bool {
	running := p.Leaf
	for i, sibling := range p.Siblings {
		if p.Directions[i] == SiblingRight {
			running = hashPair(running, sibling)
		} else {
			running = hashPair(sibling, running)
		}
	}
	return running.Equal(&root)
}

func hashPair(left, right fr.Element) fr.Element {
	h := mimc.NewMiMC()
	lb := left.Bytes()
	rb := right.Bytes()
	h.Write(lb[:])
	h.Write(rb[:])
	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return out
}
