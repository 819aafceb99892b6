package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var run func([]string) error
	switch command {
	case "compile":
		run = compileCmd
	case "encode":
		run = encodeCmd
	case "keygen":
		run = keygenCmd
	case "sign":
		run = signCmd
	case "solve":
		run = solveCmd
	case "prove":
		run = proveCmd
	case "serve":
		run = serveCmd
	case "help", "-h", "--help":
		printUsage()
		return
	case "version", "-v", "--version":
		fmt.Println("zksparql version 0.1.0")
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err := run(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func printUsage() {
	fmt.Println(`zksparql - compile SPARQL queries into zero-knowledge circuits

Usage:
  zksparql <command> [options]

Commands:
  compile    Compile a query into a gnark circuit and witness metadata
  encode     Encode an N-Quads dataset into field-element leaves
  keygen     Generate an EdDSA signing keypair
  sign       Build and sign the Merkle tree over a dataset
  solve      Enumerate query solutions over a dataset (no proving)
  prove      Generate Groth16 proofs for query solutions
  serve      Run the HTTP prover service
  help       Show this help message
  version    Show version information

Examples:
  # Compile a query
  zksparql compile query.rq --out build/

  # Sign a dataset
  zksparql keygen --out signer.key
  zksparql sign dataset.nq --key signer.key --output signed.json

  # Prove every solution
  zksparql prove query.rq dataset.nq --key signer.key --all --output proofs.json

For command-specific help, run:
  zksparql <command> --help`)
}
