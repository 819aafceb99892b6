package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/zkrdf/zksparql/authstore"
	"github.com/zkrdf/zksparql/store"
)

type leafProof struct {
	Quad       string   `json:"quad"`
	Leaf       string   `json:"leaf"`
	Index      int      `json:"index"`
	Siblings   []string `json:"siblings"`
	Directions []int    `json:"directions"`
}

type signReport struct {
	ID        string      `json:"id"`
	Quads     int         `json:"quads"`
	Depth     int         `json:"depth"`
	Root      string      `json:"root"`
	Signature string      `json:"signature"`
	PublicKey string      `json:"public_key"`
	Proofs    []leafProof `json:"proofs,omitempty"`
}

func signCmd(args []string) error {
	fs := flag.NewFlagSet("sign", flag.ExitOnError)
	keyPath := fs.String("key", "signer.key", "Private key file from keygen")
	output := fs.String("output", "", "Output file for the signed artifact (default stdout)")
	dbPath := fs.String("db", "", "Also persist the quads to a SQLite database")
	withProofs := fs.Bool("proofs", false, "Include per-quad inclusion proofs in the artifact")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: zksparql sign <dataset.nq> [options]

Build the Merkle tree over a dataset, sign its root, and emit the
signed artifact a verifier needs.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("dataset file required")
	}

	quads, err := readDataset(fs.Arg(0))
	if err != nil {
		return err
	}
	priv, err := authstore.LoadKey(*keyPath)
	if err != nil {
		return err
	}

	signed, err := authstore.BuildSigned(quads, priv)
	if err != nil {
		return err
	}

	if *dbPath != "" {
		db, err := store.OpenSQLite(*dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Add(quads...); err != nil {
			return fmt.Errorf("persist quads: %w", err)
		}
	}

	root := signed.Tree.Root()
	report := signReport{
		ID:        signed.ID.String(),
		Quads:     len(signed.Quads),
		Depth:     signed.Tree.Depth(),
		Root:      root.String(),
		Signature: hex.EncodeToString(signed.Signature),
		PublicKey: hex.EncodeToString(signed.PublicKey.Bytes()),
	}
	if *withProofs {
		for i, quad := range signed.Quads {
			proof, err := signed.Tree.Proof(i)
			if err != nil {
				return fmt.Errorf("proof for quad %d: %w", i, err)
			}
			lp := leafProof{
				Quad:       quad.String(),
				Leaf:       proof.Leaf.String(),
				Index:      proof.Index,
				Directions: proof.Directions,
				Siblings:   make([]string, len(proof.Siblings)),
			}
			for j, sib := range proof.Siblings {
				lp.Siblings[j] = sib.String()
			}
			report.Proofs = append(report.Proofs, lp)
		}
	}
	return writeReport(*output, report)
}
