package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/zkrdf/zksparql/authstore"
	"github.com/zkrdf/zksparql/prover"
)

func serveCmd(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":8080", "Listen address")
	keyPath := fs.String("key", "signer.key", "Private key file from keygen")
	verbose := fs.Bool("verbose", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: zksparql serve <dataset.nq> [options]

Run the HTTP prover service over a signed dataset. Queries are
registered with POST /queries/{name} and proved with POST /prove/{name}.

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

	log := newLogger(*verbose)

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

	svc := prover.NewService(prover.New(log), signed, log)
	log.Info().
		Str("addr", *addr).
		Str("dataset", signed.ID.String()).
		Int("quads", len(signed.Quads)).
		Msg("prover service listening")
	return http.ListenAndServe(*addr, svc.Handler())
}
