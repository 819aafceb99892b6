package prover

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/zkrdf/zksparql/witness"
)

// ProofJob is one solution to prove.
type ProofJob struct {
	ID        uuid.UUID
	QueryName string
	Solution  *witness.Solution
}

// ProofJobResult pairs a job with its proof or error.
type ProofJobResult struct {
	ID    uuid.UUID
	Proof *Proof
	Error error
}

// ProveAll proves every solution the binder yields, using up to
// maxWorkers concurrent provers. Results preserve solution order. A
// binder enumeration error aborts the run.
func (p *Prover) ProveAll(name string, binder *witness.Binder, maxWorkers int) ([]ProofJobResult, error) {
	var jobs []ProofJob
	for sol, err := range binder.Solutions() {
		if err != nil {
			return nil, fmt.Errorf("enumerate solutions: %w", err)
		}
		jobs = append(jobs, ProofJob{ID: uuid.New(), QueryName: name, Solution: sol})
	}
	return p.ProveParallel(jobs, maxWorkers), nil
}

// ProveParallel generates proofs for the given jobs concurrently.
// Results are returned in the same order as the input jobs.
func (p *Prover) ProveParallel(jobs []ProofJob, maxWorkers int) []ProofJobResult {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	type indexed struct {
		pos int
		job ProofJob
	}
	jobChan := make(chan indexed, len(jobs))
	results := make([]ProofJobResult, len(jobs))

	var wg sync.WaitGroup
	var mu sync.Mutex
	for range maxWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for in := range jobChan {
				proof, err := p.Prove(in.job.QueryName, in.job.Solution)
				mu.Lock()
				results[in.pos] = ProofJobResult{ID: in.job.ID, Proof: proof, Error: err}
				mu.Unlock()
			}
		}()
	}

	for i, job := range jobs {
		jobChan <- indexed{pos: i, job: job}
	}
	close(jobChan)
	wg.Wait()

	return results
}

// ProofPool is a worker pool for continuous proving.
type ProofPool struct {
	prover     *Prover
	jobs       chan ProofJob
	results    chan ProofJobResult
	numWorkers int
	wg         sync.WaitGroup
	closed     bool
	mu         sync.Mutex
}

// NewProofPool starts numWorkers proving goroutines over the prover.
func NewProofPool(prover *Prover, numWorkers int) *ProofPool {
	if numWorkers <= 0 {
		numWorkers = 4
	}

	pool := &ProofPool{
		prover:     prover,
		jobs:       make(chan ProofJob, numWorkers*2),
		results:    make(chan ProofJobResult, numWorkers*2),
		numWorkers: numWorkers,
	}
	for range numWorkers {
		pool.wg.Add(1)
		go pool.worker()
	}
	return pool
}

func (pool *ProofPool) worker() {
	defer pool.wg.Done()
	for job := range pool.jobs {
		proof, err := pool.prover.Prove(job.QueryName, job.Solution)
		pool.results <- ProofJobResult{ID: job.ID, Proof: proof, Error: err}
	}
}

// Submit adds a proof job to the pool.
func (pool *ProofPool) Submit(job ProofJob) error {
	pool.mu.Lock()
	if pool.closed {
		pool.mu.Unlock()
		return fmt.Errorf("pool is closed")
	}
	pool.mu.Unlock()

	pool.jobs <- job
	return nil
}

// Results returns the channel proof results are delivered on.
func (pool *ProofPool) Results() <-chan ProofJobResult {
	return pool.results
}

// Close drains the pool and closes the results channel.
func (pool *ProofPool) Close() {
	pool.mu.Lock()
	pool.closed = true
	pool.mu.Unlock()

	close(pool.jobs)
	pool.wg.Wait()
	close(pool.results)
}

// NumWorkers returns the pool's worker count.
func (pool *ProofPool) NumWorkers() int {
	return pool.numWorkers
}
