// Package store provides quad storage backends feeding the dataset
// signing and witness binding layers: an in-memory store for tests and
// one-shot CLI runs, and a SQLite store for persistent datasets.
package store

import (
	"sync"

	"github.com/zkrdf/zksparql/rdf"
)

// Wildcard matches any term in a Find pattern.
var Wildcard = rdf.NewVariable("")

// Pattern is a quad template for Find. Variable terms match anything.
type Pattern struct {
	Subject   rdf.Term
	Predicate rdf.Term
	Object    rdf.Term
	Graph     rdf.Term
}

// Matches reports whether the quad satisfies every concrete position of
// the pattern.
func (p Pattern) Matches(q rdf.Quad) bool {
	for i, t := range []rdf.Term{p.Subject, p.Predicate, p.Object, p.Graph} {
		if t.IsVariable() {
			continue
		}
		if !t.Equal(q.Position(i)) {
			return false
		}
	}
	return true
}

// Store is a quad collection. Implementations must tolerate duplicate
// Add calls; a quad is stored at most once.
type Store interface {
	Add(quads ...rdf.Quad) error
	Find(pattern Pattern) ([]rdf.Quad, error)
	All() ([]rdf.Quad, error)
	Len() (int, error)
	Close() error
}

// MemoryStore keeps quads in insertion order in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	quads []rdf.Quad
}

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Add(quads ...rdf.Quad) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range quads {
		if m.contains(q) {
			continue
		}
		m.quads = append(m.quads, q)
	}
	return nil
}

func (m *MemoryStore) contains(q rdf.Quad) bool {
	for _, have := range m.quads {
		if have.Equal(q) {
			return true
		}
	}
	return false
}

func (m *MemoryStore) Find(pattern Pattern) ([]rdf.Quad, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []rdf.Quad
	for _, q := range m.quads {
		if pattern.Matches(q) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *MemoryStore) All() ([]rdf.Quad, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]rdf.Quad, len(m.quads))
	copy(out, m.quads)
	return out, nil
}

func (m *MemoryStore) Len() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.quads), nil
}

func (m *MemoryStore) Close() error { return nil }
