package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/zkrdf/zksparql/authstore"
)

func keygenCmd(args []string) error {
	fs := flag.NewFlagSet("keygen", flag.ExitOnError)
	out := fs.String("out", "signer.key", "Output file for the private key")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: zksparql keygen [options]

Generate an EdDSA keypair on the BN254 twisted Edwards curve for
dataset signing.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	priv, err := authstore.GenerateKey()
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}
	if err := authstore.SaveKey(*out, priv); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", *out)
	fmt.Printf("Public key: %s\n", hex.EncodeToString(priv.PublicKey.Bytes()))
	return nil
}
