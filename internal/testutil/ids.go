package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDGenerator hands out predictable IDs for tests.
//
// Production code uses random UUIDs for run IDs; tests that snapshot or
// compare persisted runs need stable IDs instead. The generator returns
// "<prefix>-0001", "<prefix>-0002", and so on.
//
// Thread-safety: NextID is safe for concurrent use.
type SequentialIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDGenerator creates a generator with the given prefix.
// An empty prefix defaults to "test".
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "test"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// NextID returns the next ID in sequence.
func (g *SequentialIDGenerator) NextID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
