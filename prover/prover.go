// Package prover manages Groth16 setup, proof generation, and
// verification for compiled query circuits, including a worker pool for
// proving many solutions of the same query concurrently.
package prover

import (
	"fmt"
	"sync"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	gnarkwitness "github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zkrdf/zksparql/circuits"
	"github.com/zkrdf/zksparql/compile"
	"github.com/zkrdf/zksparql/rdf"
	"github.com/zkrdf/zksparql/witness"
)

// Prover holds compiled query circuits and their keys.
type Prover struct {
	mu       sync.RWMutex
	circuits map[string]*CompiledQuery
	curve    ecc.ID
	log      zerolog.Logger
}

// CompiledQuery is a query circuit after R1CS compilation and trusted
// setup, ready to prove witnesses against.
type CompiledQuery struct {
	Name         string
	Plan         *compile.Plan
	Meta         *compile.Metadata
	CS           constraint.ConstraintSystem
	ProvingKey   groth16.ProvingKey
	VerifyingKey groth16.VerifyingKey
	Constraints  int
	PublicVars   int
	PrivateVars  int
}

// Proof is a Groth16 proof for one query solution, together with the
// public witness needed to verify it.
type Proof struct {
	ID            uuid.UUID
	QueryName     string
	Bindings      map[string]rdf.Term
	Proof         groth16.Proof
	PublicWitness gnarkwitness.Witness
	Duration      time.Duration
}

// New returns a prover over BN254.
func New(logger zerolog.Logger) *Prover {
	return &Prover{
		circuits: make(map[string]*CompiledQuery),
		curve:    ecc.BN254,
		log:      logger,
	}
}

// Register compiles the query circuit to R1CS, runs trusted setup, and
// stores the result under name.
func (p *Prover) Register(name string, plan *compile.Plan, meta *compile.Metadata) (*CompiledQuery, error) {
	circuit := circuits.New(plan, meta)

	start := time.Now()
	cs, err := frontend.Compile(p.curve.ScalarField(), r1cs.NewBuilder, circuit)
	if err != nil {
		return nil, fmt.Errorf("circuit compilation failed: %w", err)
	}

	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return nil, fmt.Errorf("setup failed: %w", err)
	}

	cc := &CompiledQuery{
		Name:         name,
		Plan:         plan,
		Meta:         meta,
		CS:           cs,
		ProvingKey:   pk,
		VerifyingKey: vk,
		Constraints:  cs.GetNbConstraints(),
		PublicVars:   cs.GetNbPublicVariables(),
		PrivateVars:  cs.GetNbSecretVariables(),
	}
	p.Store(name, cc)

	p.log.Info().
		Str("query", name).
		Int("constraints", cc.Constraints).
		Dur("elapsed", time.Since(start)).
		Msg("query circuit registered")
	return cc, nil
}

// Store registers a pre-compiled circuit, e.g. one loaded from disk.
func (p *Prover) Store(name string, cc *CompiledQuery) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.circuits[name] = cc
}

// Get returns a compiled query by name.
func (p *Prover) Get(name string) (*CompiledQuery, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cc, ok := p.circuits[name]
	return cc, ok
}

// List returns all registered query names.
func (p *Prover) List() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.circuits))
	for name := range p.circuits {
		names = append(names, name)
	}
	return names
}

// Prove generates a proof that the solution satisfies the named query
// over its signed dataset.
func (p *Prover) Prove(name string, sol *witness.Solution) (*Proof, error) {
	cc, ok := p.Get(name)
	if !ok {
		return nil, fmt.Errorf("query %q not registered", name)
	}

	start := time.Now()
	w, err := frontend.NewWitness(sol.Assignment, p.curve.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("witness creation failed: %w", err)
	}

	proof, err := groth16.Prove(cc.CS, cc.ProvingKey, w)
	if err != nil {
		return nil, fmt.Errorf("proof generation failed: %w", err)
	}

	public, err := w.Public()
	if err != nil {
		return nil, fmt.Errorf("public witness extraction failed: %w", err)
	}

	out := &Proof{
		ID:            uuid.New(),
		QueryName:     name,
		Bindings:      sol.Bindings,
		Proof:         proof,
		PublicWitness: public,
		Duration:      time.Since(start),
	}
	p.log.Debug().
		Str("query", name).
		Str("proof", out.ID.String()).
		Dur("elapsed", out.Duration).
		Msg("proof generated")
	return out, nil
}

// Verify checks a proof against the named query's verifying key.
func (p *Prover) Verify(proof *Proof) error {
	cc, ok := p.Get(proof.QueryName)
	if !ok {
		return fmt.Errorf("query %q not registered", proof.QueryName)
	}
	return groth16.Verify(proof.Proof, cc.VerifyingKey, proof.PublicWitness)
}
