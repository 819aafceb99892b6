package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"

	"github.com/zkrdf/zksparql/authstore"
	"github.com/zkrdf/zksparql/compile"
	"github.com/zkrdf/zksparql/witness"
)

func solveCmd(args []string) error {
	fs := flag.NewFlagSet("solve", flag.ExitOnError)
	keyPath := fs.String("key", "", "Private key file (a throwaway key is generated if omitted)")
	output := fs.String("output", "", "Write per-solution circuit inputs as JSON")
	verbose := fs.Bool("verbose", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: zksparql solve <query.rq> <dataset.nq> [options]

Enumerate the query's solutions over the dataset without proving,
printing each solution's variable bindings. With --output, the
assembled circuit inputs for every solution are written as JSON.

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

	queryText, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read query: %w", err)
	}
	quads, err := readDataset(fs.Arg(1))
	if err != nil {
		return err
	}

	priv, err := loadOrGenerateKey(*keyPath)
	if err != nil {
		return err
	}
	signed, err := authstore.BuildSigned(quads, priv)
	if err != nil {
		return err
	}

	result, err := compile.Compile(string(queryText), compile.Options{
		TreeDepth: signed.Tree.Depth(),
		Logger:    newLogger(*verbose),
	})
	if err != nil {
		return err
	}

	binder, err := witness.NewBinder(signed, result.Metadata, result.Query)
	if err != nil {
		return err
	}

	count := 0
	var wires []solutionWire
	for sol, err := range binder.Solutions() {
		if err != nil {
			return err
		}
		count++
		fmt.Printf("solution %d:\n", count)
		for _, name := range result.Metadata.Variables {
			fmt.Printf("  ?%s = %s\n", name, sol.Bindings[name])
		}
		if *output != "" {
			wires = append(wires, wireSolution(sol))
		}
	}
	if count == 0 {
		fmt.Println("no solutions")
	}
	if *output != "" {
		return writeReport(*output, map[string]any{"solutions": wires})
	}
	return nil
}

type slotWire struct {
	Terms      [4]string `json:"terms"`
	Path       []string  `json:"path"`
	Directions []string  `json:"directions"`
}

type solutionWire struct {
	Bindings  map[string]string `json:"bindings"`
	Quads     []string          `json:"quads"`
	Root      string            `json:"root"`
	Bgp       []slotWire        `json:"bgp"`
	Variables []string          `json:"variables"`
	Hidden    []string          `json:"hidden,omitempty"`
}

// wireSolution renders an assembled assignment as strings; every
// circuit input the binder fills is either a decimal field element or a
// direction bit.
func wireSolution(sol *witness.Solution) solutionWire {
	a := sol.Assignment
	wire := solutionWire{
		Bindings:  make(map[string]string, len(sol.Bindings)),
		Root:      fmt.Sprint(a.Root),
		Quads:     make([]string, len(sol.Quads)),
		Bgp:       make([]slotWire, len(a.Bgp)),
		Variables: make([]string, len(a.Variables)),
		Hidden:    make([]string, len(a.Hidden)),
	}
	for name, term := range sol.Bindings {
		wire.Bindings[name] = term.String()
	}
	for i, quad := range sol.Quads {
		wire.Quads[i] = quad.String()
	}
	for i, slot := range a.Bgp {
		var sw slotWire
		for j, term := range slot.Terms {
			sw.Terms[j] = fmt.Sprint(term)
		}
		sw.Path = make([]string, len(slot.Path))
		for j, node := range slot.Path {
			sw.Path[j] = fmt.Sprint(node)
		}
		sw.Directions = make([]string, len(slot.Directions))
		for j, dir := range slot.Directions {
			sw.Directions[j] = fmt.Sprint(dir)
		}
		wire.Bgp[i] = sw
	}
	for i, v := range a.Variables {
		wire.Variables[i] = fmt.Sprint(v)
	}
	for i, h := range a.Hidden {
		wire.Hidden[i] = fmt.Sprint(h)
	}
	return wire
}

func loadOrGenerateKey(path string) (*eddsa.PrivateKey, error) {
	if path == "" {
		return authstore.GenerateKey()
	}
	return authstore.LoadKey(path)
}
