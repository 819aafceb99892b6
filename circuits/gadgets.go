// Package circuits holds the in-process gnark circuit that interprets a
// compiled query plan, plus the shared gadgets it is built from. The
// rendered source a compile.Result carries is the standalone textual
// form of the same circuit; both must stay semantically identical.
package circuits

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
)

// Hash is the in-circuit counterpart of the codec package's MiMC
// hashing: one sponge over the given elements.
func Hash(api frontend.API, elems ...frontend.Variable) frontend.Variable {
	h, _ := mimc.NewMiMC(api)
	h.Write(elems...)
	return h.Sum()
}

// QuadLeaf hashes the four term encodings of a committed quad into its
// Merkle leaf.
func QuadLeaf(api frontend.API, terms [4]frontend.Variable) frontend.Variable {
	return Hash(api, terms[0], terms[1], terms[2], terms[3])
}

// VerifyMerklePath re-derives the root from a leaf along the given
// sibling path. A direction bit of 0 keeps the running hash on the
// left; 1 moves it to the right.
func VerifyMerklePath(api frontend.API, leaf, root frontend.Variable, path, directions []frontend.Variable) {
	node := leaf
	for i := range path {
		dir := directions[i]
		api.AssertIsBoolean(dir)
		left := api.Select(dir, path[i], node)
		right := api.Select(dir, node, path[i])
		node = Hash(api, left, right)
	}
	api.AssertIsEqual(node, root)
}
