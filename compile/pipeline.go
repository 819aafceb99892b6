package compile

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/zkrdf/zksparql/sparql"
)

// ErrUnsatisfiable is returned when the optimizer resolves the whole
// constraint tree to false: no dataset can satisfy the query.
var ErrUnsatisfiable = errors.New("compile: query is unsatisfiable")

// Options configures one compile invocation.
type Options struct {
	// PackageName and CircuitName shape the rendered source.
	PackageName string
	CircuitName string
	// TreeDepth is the Merkle depth the circuit verifies; it must match
	// the authenticated store the proofs will come from.
	TreeDepth int
	// Logger receives compile diagnostics. The zero value is silent.
	Logger zerolog.Logger
}

// Result holds the full compilation output.
type Result struct {
	Query      *sparql.Query
	Info       *OutInfo
	Raw        *Constraint // pre-optimization
	Constraint *Constraint // post-optimization
	Plan       *Plan
	Metadata   *Metadata
	Program    string

	// Trivial is set when the optimizer removed every filtering
	// constraint; the proof then only asserts membership and bindings.
	Trivial bool
}

// Compile runs the full pipeline: parse, translate, optimize, emit,
// render.
func Compile(queryText string, opts Options) (*Result, error) {
	query, err := sparql.Parse(queryText)
	if err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}
	return CompileQuery(query, opts)
}

// CompileQuery compiles an already-parsed query.
func CompileQuery(query *sparql.Query, opts Options) (*Result, error) {
	info, err := Translate(query)
	if err != nil {
		return nil, err
	}

	result := &Result{Query: query, Info: info, Raw: info.Constraint}
	result.Constraint = Optimize(info.Constraint)

	if result.Constraint.Kind == ConstraintBool {
		if !result.Constraint.Value {
			return nil, ErrUnsatisfiable
		}
		result.Trivial = true
		opts.Logger.Warn().
			Int("slots", info.NumSlots()).
			Msg("query has no filtering constraints; proof asserts membership and bindings only")
	}

	plan, meta, err := Emit(info, result.Constraint, opts.TreeDepth)
	if err != nil {
		return nil, err
	}
	result.Plan = plan
	result.Metadata = meta

	program, err := RenderProgram(plan, meta, ProgramOptions{
		PackageName: opts.PackageName,
		CircuitName: opts.CircuitName,
	})
	if err != nil {
		return nil, err
	}
	result.Program = program

	opts.Logger.Debug().
		Int("required", len(info.Required)).
		Int("optional", len(info.Optional)).
		Int("hidden", len(meta.HiddenInputs)).
		Int("assertions", len(plan.Assertions)).
		Msg("query compiled")
	return result, nil
}

// Summary returns a human-readable compilation report.
func (r *Result) Summary() string {
	return fmt.Sprintf(`Query Compilation Summary
=========================
Projected Variables: %d
Required Inputs:     %d
Optional Inputs:     %d
Hidden Inputs:       %d
Assertions:          %d
Tree Depth:          %d
Trivial:             %v
Program:             %d bytes`,
		len(r.Metadata.Variables),
		len(r.Metadata.RequiredInputs),
		len(r.Metadata.OptionalInputs),
		len(r.Metadata.HiddenInputs),
		len(r.Plan.Assertions),
		r.Metadata.TreeDepth,
		r.Trivial,
		len(r.Program),
	)
}
