package authstore

import (
	"crypto/rand"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/google/uuid"

	"github.com/zkrdf/zksparql/codec"
	"github.com/zkrdf/zksparql/rdf"
)

// SignedDataset is the published artifact of an authenticated-store build:
// the Merkle tree over the encoded quads plus an EdDSA signature binding
// the root to the signing authority. Builds are all-or-nothing; no partial
// state is ever returned.
type SignedDataset struct {
	ID        uuid.UUID
	Quads     []rdf.Quad
	Tree      *Tree
	Signature []byte
	PublicKey eddsa.PublicKey
}

// GenerateKey creates a fresh EdDSA keypair on the BN254 twisted Edwards
// curve, the scheme the emitted circuit verifies natively.
func GenerateKey() (*eddsa.PrivateKey, error) {
	return eddsa.GenerateKey(rand.Reader)
}

// BuildSigned encodes the quads into leaves, builds the tree, and signs
// the root with MiMC as the signature hash.
func BuildSigned(quads []rdf.Quad, priv *eddsa.PrivateKey) (*SignedDataset, error) {
	leaves, err := codec.EncodeDataset(quads)
	if err != nil {
		return nil, fmt.Errorf("authstore: encode leaves: %w", err)
	}

	tree, err := BuildTree(leaves)
	if err != nil {
		return nil, err
	}

	root := tree.Root()
	rootBytes := root.Bytes()
	sig, err := priv.Sign(rootBytes[:], mimc.NewMiMC())
	if err != nil {
		return nil, fmt.Errorf("authstore: sign root: %w", err)
	}

	return &SignedDataset{
		ID:        uuid.New(),
		Quads:     quads,
		Tree:      tree,
		Signature: sig,
		PublicKey: priv.PublicKey,
	}, nil
}

// VerifyRootSignature checks the stored signature against a public key.
func (d *SignedDataset) VerifyRootSignature(pub *eddsa.PublicKey) (bool, error) {
	root := d.Tree.Root()
	rootBytes := root.Bytes()
	return pub.Verify(d.Signature, rootBytes[:], mimc.NewMiMC())
}

// ProofForQuad locates a quad in the dataset and returns its inclusion
// proof. The quad must match exactly.
func (d *SignedDataset) ProofForQuad(q rdf.Quad) (*Proof, error) {
	for i, candidate := range d.Quads {
		if candidate.Equal(q) {
			return d.Tree.Proof(i)
		}
	}
	return nil, fmt.Errorf("authstore: quad not in dataset: %s", q)
}
