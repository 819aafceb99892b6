package authstore

import (
	"fmt"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/zkrdf/zksparql/rdf"
)

func makeLeaves(n int) []fr.Element {
	leaves := make([]fr.Element, n)
	for i := range leaves {
		leaves[i].SetUint64(uint64(i + 1))
	}
	return leaves
}

func TestBuildTree_Empty(t *testing.T) {
	if _, err := BuildTree(nil); err != ErrEmptyTree {
		t.Fatalf("expected ErrEmptyTree, got %v", err)
	}
}

func TestBuildTree_SingleLeaf(t *testing.T) {
	leaves := makeLeaves(1)
	tree, err := BuildTree(leaves)
	if err != nil {
		t.Fatal(err)
	}
	// A lone leaf pads to depth 1 so proof paths stay non-empty.
	if tree.Depth() != 1 {
		t.Errorf("expected depth 1, got %d", tree.Depth())
	}
	proof, err := tree.Proof(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(proof.Siblings) != 1 {
		t.Fatalf("expected 1 sibling, got %d", len(proof.Siblings))
	}
	if !proof.Siblings[0].Equal(&leaves[0]) {
		t.Error("single-leaf sibling must be the duplicated leaf")
	}
	if !VerifyProof(tree.Root(), proof) {
		t.Error("single-leaf proof failed to verify")
	}
}

func TestProofRoundTrip(t *testing.T) {
	for _, n := range []int{2, 3, 4, 5, 7, 8, 13} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			tree, err := BuildTree(makeLeaves(n))
			if err != nil {
				t.Fatal(err)
			}
			for i := 0; i < n; i++ {
				proof, err := tree.Proof(i)
				if err != nil {
					t.Fatalf("proof(%d): %v", i, err)
				}
				if len(proof.Siblings) != tree.Depth() {
					t.Fatalf("proof(%d): expected %d siblings, got %d", i, tree.Depth(), len(proof.Siblings))
				}
				if !VerifyProof(tree.Root(), proof) {
					t.Errorf("proof(%d) failed to verify", i)
				}
			}
		})
	}
}

func TestProofRejectsWrongLeaf(t *testing.T) {
	tree, err := BuildTree(makeLeaves(8))
	if err != nil {
		t.Fatal(err)
	}
	proof, err := tree.Proof(3)
	if err != nil {
		t.Fatal(err)
	}
	proof.Leaf.SetUint64(999)
	if VerifyProof(tree.Root(), proof) {
		t.Error("tampered leaf must not verify")
	}
}

func TestProofOutOfRange(t *testing.T) {
	tree, _ := BuildTree(makeLeaves(4))
	if _, err := tree.Proof(4); err == nil {
		t.Error("expected out-of-range error")
	}
	if _, err := tree.Proof(-1); err == nil {
		t.Error("expected out-of-range error")
	}
}

func exampleQuads() []rdf.Quad {
	var quads []rdf.Quad
	for i := 0; i < 5; i++ {
		quads = append(quads, rdf.Quad{
			Subject:   rdf.NewNamedNode(fmt.Sprintf("http://example.org/s%d", i)),
			Predicate: rdf.NewNamedNode("http://example.org/p"),
			Object:    rdf.NewTypedLiteral(fmt.Sprintf("%d", i), rdf.XSDInteger),
			Graph:     rdf.DefaultGraph(),
		})
	}
	return quads
}

func TestBuildSigned_SignatureRoundTrip(t *testing.T) {
	priv, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	signed, err := BuildSigned(exampleQuads(), priv)
	if err != nil {
		t.Fatal(err)
	}

	ok, err := signed.VerifyRootSignature(&priv.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("signature must verify with the signing key")
	}

	other, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	ok, _ = signed.VerifyRootSignature(&other.PublicKey)
	if ok {
		t.Error("signature must not verify with a different key")
	}
}

func TestProofForQuad(t *testing.T) {
	priv, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	quads := exampleQuads()
	signed, err := BuildSigned(quads, priv)
	if err != nil {
		t.Fatal(err)
	}

	proof, err := signed.ProofForQuad(quads[2])
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyProof(signed.Tree.Root(), proof) {
		t.Error("quad proof failed to verify")
	}

	missing := quads[0]
	missing.Object = rdf.NewLiteral("not-there")
	if _, err := signed.ProofForQuad(missing); err == nil {
		t.Error("expected error for quad outside the dataset")
	}
}
