package prover

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zkrdf/zksparql/authstore"
	"github.com/zkrdf/zksparql/cache"
	"github.com/zkrdf/zksparql/compile"
	"github.com/zkrdf/zksparql/witness"
)

// Service is the HTTP surface of the prover: it compiles queries
// against a signed dataset, generates proofs for their solutions, and
// reports circuit statistics.
type Service struct {
	prover  *Prover
	dataset *authstore.SignedDataset
	log     zerolog.Logger
	started time.Time

	mu       sync.RWMutex
	queries  map[string]*compile.Result
	compiled *cache.CompileCache
}

// NewService creates a prover service bound to one signed dataset.
func NewService(prover *Prover, dataset *authstore.SignedDataset, logger zerolog.Logger) *Service {
	return &Service{
		prover:   prover,
		dataset:  dataset,
		log:      logger,
		started:  time.Now(),
		queries:  make(map[string]*compile.Result),
		compiled: cache.New(256),
	}
}

// Prover returns the underlying prover.
func (s *Service) Prover() *Prover {
	return s.prover
}

// Handler returns the HTTP handler for the service.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /queries", s.handleListQueries)
	mux.HandleFunc("GET /queries/{name}", s.handleQueryInfo)
	mux.HandleFunc("POST /queries/{name}", s.handleRegister)
	mux.HandleFunc("POST /prove/{name}", s.handleProve)

	return mux
}

// HealthResponse is the response for the health endpoint.
type HealthResponse struct {
	Status  string   `json:"status"`
	Uptime  string   `json:"uptime"`
	Dataset string   `json:"dataset"`
	Queries []string `json:"queries"`
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Uptime:  time.Since(s.started).String(),
		Dataset: s.dataset.ID.String(),
		Queries: s.prover.List(),
	}
	writeJSON(w, http.StatusOK, resp)
}

// QueryInfo describes a registered query circuit.
type QueryInfo struct {
	Name        string   `json:"name"`
	Query       string   `json:"query"`
	Variables   []string `json:"variables"`
	Constraints int      `json:"constraints"`
	PublicVars  int      `json:"public_vars"`
	PrivateVars int      `json:"private_vars"`
}

func (s *Service) queryInfo(name string) (QueryInfo, bool) {
	cc, ok := s.prover.Get(name)
	if !ok {
		return QueryInfo{}, false
	}
	info := QueryInfo{
		Name:        name,
		Constraints: cc.Constraints,
		PublicVars:  cc.PublicVars,
		PrivateVars: cc.PrivateVars,
	}
	if cc.Meta != nil {
		info.Variables = cc.Meta.Variables
	}
	s.mu.RLock()
	if res, ok := s.queries[name]; ok {
		info.Query = res.Query.Text
	}
	s.mu.RUnlock()
	return info, true
}

func (s *Service) handleListQueries(w http.ResponseWriter, r *http.Request) {
	names := s.prover.List()
	infos := make([]QueryInfo, 0, len(names))
	for _, name := range names {
		if info, ok := s.queryInfo(name); ok {
			infos = append(infos, info)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"queries": infos})
}

func (s *Service) handleQueryInfo(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	info, ok := s.queryInfo(name)
	if !ok {
		http.Error(w, fmt.Sprintf("query %q not found", name), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// RegisterRequest carries the query text to compile.
type RegisterRequest struct {
	Query string `json:"query"`
}

func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	result, err := s.compiled.Compile(req.Query, compile.Options{
		TreeDepth: s.dataset.Tree.Depth(),
		Logger:    s.log,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := s.prover.Register(name, result.Plan, result.Metadata); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	s.queries[name] = result
	s.mu.Unlock()

	info, _ := s.queryInfo(name)
	writeJSON(w, http.StatusCreated, info)
}

// ProveRequest selects how many solutions to prove.
type ProveRequest struct {
	All     bool `json:"all"`
	Workers int  `json:"workers"`
}

// ProofWire is the JSON form of a proof.
type ProofWire struct {
	ID            string            `json:"id"`
	Query         string            `json:"query"`
	Bindings      map[string]string `json:"bindings"`
	Proof         string            `json:"proof"`
	PublicWitness string            `json:"public_witness"`
	ProofTimeMs   int64             `json:"proof_time_ms"`
}

// ProveResponse is the response from proof generation.
type ProveResponse struct {
	Proofs []ProofWire `json:"proofs,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func (s *Service) handleProve(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	cc, ok := s.prover.Get(name)
	if !ok {
		http.Error(w, fmt.Sprintf("query %q not found", name), http.StatusNotFound)
		return
	}
	s.mu.RLock()
	result, ok := s.queries[name]
	s.mu.RUnlock()
	if !ok {
		http.Error(w, fmt.Sprintf("query %q has no source registered", name), http.StatusNotFound)
		return
	}

	var req ProveRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
	}

	binder, err := witness.NewBinder(s.dataset, cc.Meta, result.Query)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ProveResponse{Error: err.Error()})
		return
	}

	var proofs []*Proof
	if req.All {
		results, err := s.prover.ProveAll(name, binder, req.Workers)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ProveResponse{Error: err.Error()})
			return
		}
		for _, res := range results {
			if res.Error != nil {
				writeJSON(w, http.StatusInternalServerError, ProveResponse{Error: res.Error.Error()})
				return
			}
			proofs = append(proofs, res.Proof)
		}
	} else {
		sol, err := binder.First()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ProveResponse{Error: err.Error()})
			return
		}
		proof, err := s.prover.Prove(name, sol)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, ProveResponse{Error: err.Error()})
			return
		}
		proofs = append(proofs, proof)
	}

	resp := ProveResponse{Proofs: make([]ProofWire, 0, len(proofs))}
	for _, p := range proofs {
		wire, err := Wire(p)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, ProveResponse{Error: err.Error()})
			return
		}
		resp.Proofs = append(resp.Proofs, wire)
	}

	s.log.Info().
		Str("query", name).
		Int("proofs", len(resp.Proofs)).
		Msg("proofs served")
	writeJSON(w, http.StatusOK, resp)
}

// Wire converts a proof to its JSON-friendly form.
func Wire(p *Proof) (ProofWire, error) {
	var proofBuf, publicBuf bytes.Buffer
	if _, err := p.Proof.WriteTo(&proofBuf); err != nil {
		return ProofWire{}, fmt.Errorf("marshal proof: %w", err)
	}
	if _, err := p.PublicWitness.WriteTo(&publicBuf); err != nil {
		return ProofWire{}, fmt.Errorf("marshal public witness: %w", err)
	}

	bindings := make(map[string]string, len(p.Bindings))
	for name, term := range p.Bindings {
		bindings[name] = term.String()
	}
	return ProofWire{
		ID:            p.ID.String(),
		Query:         p.QueryName,
		Bindings:      bindings,
		Proof:         hex.EncodeToString(proofBuf.Bytes()),
		PublicWitness: hex.EncodeToString(publicBuf.Bytes()),
		ProofTimeMs:   p.Duration.Milliseconds(),
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
