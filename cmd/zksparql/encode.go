package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/zkrdf/zksparql/authstore"
	"github.com/zkrdf/zksparql/codec"
	"github.com/zkrdf/zksparql/rdf"
)

type encodeReport struct {
	Count  int      `json:"count"`
	Depth  int      `json:"depth"`
	Root   string   `json:"root"`
	Leaves []string `json:"leaves"`
}

func encodeCmd(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	output := fs.String("output", "", "Output file for the encoding report (default stdout)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: zksparql encode <dataset.nq> [options]

Encode each quad of an N-Quads dataset into its field-element leaf and
report the Merkle root the signed dataset would commit to.

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

	leaves, err := codec.EncodeDataset(quads)
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	tree, err := authstore.BuildTree(leaves)
	if err != nil {
		return fmt.Errorf("build tree: %w", err)
	}

	root := tree.Root()
	report := encodeReport{
		Count:  len(leaves),
		Depth:  tree.Depth(),
		Root:   root.String(),
		Leaves: make([]string, len(leaves)),
	}
	for i, leaf := range leaves {
		report.Leaves[i] = leaf.String()
	}

	return writeReport(*output, report)
}

func readDataset(path string) ([]rdf.Quad, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	quads, err := rdf.DecodeNQuads(f)
	if err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	if len(quads) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}
	return quads, nil
}

func writeReport(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
