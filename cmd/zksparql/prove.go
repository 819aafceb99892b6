package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/zkrdf/zksparql/authstore"
	"github.com/zkrdf/zksparql/compile"
	"github.com/zkrdf/zksparql/prover"
	"github.com/zkrdf/zksparql/witness"
)

func proveCmd(args []string) error {
	fs := flag.NewFlagSet("prove", flag.ExitOnError)
	keyPath := fs.String("key", "signer.key", "Private key file from keygen")
	output := fs.String("output", "", "Output file for the proofs (default stdout)")
	all := fs.Bool("all", false, "Prove every solution instead of the first")
	workers := fs.Int("workers", 4, "Concurrent proving workers with --all")
	keyDir := fs.String("keys", "", "Directory to persist the circuit and Groth16 keys")
	verbose := fs.Bool("verbose", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: zksparql prove <query.rq> <dataset.nq> [options]

Compile the query, sign the dataset, and generate Groth16 proofs that
its solutions satisfy the query without revealing the dataset.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		fs.Usage()
		return fmt.Errorf("query and dataset files required")
	}

	log := newLogger(*verbose)

	queryText, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read query: %w", err)
	}
	quads, err := readDataset(fs.Arg(1))
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

	result, err := compile.Compile(string(queryText), compile.Options{
		TreeDepth: signed.Tree.Depth(),
		Logger:    log,
	})
	if err != nil {
		return err
	}

	p := prover.New(log)
	cc, err := p.Register("query", result.Plan, result.Metadata)
	if err != nil {
		return err
	}
	if *keyDir != "" {
		if err := cc.SaveTo(*keyDir); err != nil {
			return err
		}
	}

	binder, err := witness.NewBinder(signed, result.Metadata, result.Query)
	if err != nil {
		return err
	}

	var proofs []*prover.Proof
	if *all {
		results, err := p.ProveAll("query", binder, *workers)
		if err != nil {
			return err
		}
		for _, res := range results {
			if res.Error != nil {
				return res.Error
			}
			proofs = append(proofs, res.Proof)
		}
	} else {
		sol, err := binder.First()
		if err != nil {
			return err
		}
		proof, err := p.Prove("query", sol)
		if err != nil {
			return err
		}
		proofs = append(proofs, proof)
	}

	wires := make([]prover.ProofWire, 0, len(proofs))
	for _, proof := range proofs {
		if err := p.Verify(proof); err != nil {
			return fmt.Errorf("proof %s failed verification: %w", proof.ID, err)
		}
		wire, err := prover.Wire(proof)
		if err != nil {
			return err
		}
		wires = append(wires, wire)
	}

	return writeReport(*output, map[string]any{"proofs": wires})
}
