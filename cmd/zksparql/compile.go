package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zkrdf/zksparql/compile"
)

func compileCmd(args []string) error {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	out := fs.String("out", ".", "Output directory for circuit.go and metadata.json")
	depth := fs.Int("depth", 16, "Merkle tree depth the circuit verifies against")
	pkg := fs.String("package", "main", "Package name for the generated circuit")
	name := fs.String("circuit", "QueryCircuit", "Type name for the generated circuit")
	verbose := fs.Bool("verbose", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: zksparql compile <query.rq> [options]

Compile a SPARQL query into a gnark circuit definition plus the JSON
metadata the witness binder needs.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("query file required")
	}

	queryText, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read query: %w", err)
	}

	result, err := compile.Compile(string(queryText), compile.Options{
		PackageName: *pkg,
		CircuitName: *name,
		TreeDepth:   *depth,
		Logger:      newLogger(*verbose),
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	circuitPath := filepath.Join(*out, "circuit.go")
	if err := os.WriteFile(circuitPath, []byte(result.Program), 0o644); err != nil {
		return fmt.Errorf("write circuit: %w", err)
	}

	meta, err := json.MarshalIndent(result.Metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	metaPath := filepath.Join(*out, "metadata.json")
	if err := os.WriteFile(metaPath, meta, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	fmt.Println(result.Summary())
	fmt.Printf("Wrote %s and %s\n", circuitPath, metaPath)
	return nil
}
