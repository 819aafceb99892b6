package cache

import (
	"testing"

	"github.com/zkrdf/zksparql/compile"
)

const testQuery = `
PREFIX ex: <http://example.org/>
SELECT ?p WHERE { ?p ex:age ?a . }`

func testOpts() compile.Options {
	return compile.Options{TreeDepth: 4}
}

func TestNewCache(t *testing.T) {
	c := New(100)
	if c.Size() != 0 {
		t.Error("new cache should be empty")
	}
}

func TestCacheHit(t *testing.T) {
	c := New(10)

	first, err := c.Compile(testQuery, testOpts())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	second, err := c.Compile(testQuery, testOpts())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if first != second {
		t.Error("expected cached result on second compile")
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("stats = %+v, want 1 hit / 1 miss", stats)
	}
}

func TestCacheKeySensitivity(t *testing.T) {
	c := New(10)

	a, err := c.Compile(testQuery, compile.Options{TreeDepth: 4})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	b, err := c.Compile(testQuery, compile.Options{TreeDepth: 8})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if a == b {
		t.Error("different tree depths must not share a cache entry")
	}
	if a.Metadata.TreeDepth == b.Metadata.TreeDepth {
		t.Error("results should reflect their respective depths")
	}
}

func TestCacheErrorNotCached(t *testing.T) {
	c := New(10)

	if _, err := c.Compile("SELECT nonsense", testOpts()); err == nil {
		t.Fatal("expected parse error")
	}
	if c.Size() != 0 {
		t.Error("failed compilations must not be cached")
	}
}

func TestCacheEviction(t *testing.T) {
	c := New(1)

	if _, err := c.Compile(testQuery, compile.Options{TreeDepth: 4}); err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := c.Compile(testQuery, compile.Options{TreeDepth: 8}); err != nil {
		t.Fatalf("compile: %v", err)
	}

	stats := c.Stats()
	if stats.Size != 1 {
		t.Errorf("size = %d, want 1", stats.Size)
	}
	if stats.Evictions != 1 {
		t.Errorf("evictions = %d, want 1", stats.Evictions)
	}
}

func TestCacheClear(t *testing.T) {
	c := New(10)
	if _, err := c.Compile(testQuery, testOpts()); err != nil {
		t.Fatalf("compile: %v", err)
	}
	c.Clear()
	if c.Size() != 0 {
		t.Error("cache should be empty after Clear")
	}
}
