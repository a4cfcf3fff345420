package testutil

import (
	"fmt"
	"sync"
)

// SequenceGenerator issues predictable command ids: "<prefix>-000001",
// "<prefix>-000002", and so on.
//
// Scenario runs use it so golden traces do not depend on UUID randomness.
// Unlike engine.FixedGenerator it never runs out, and unlike UUIDs its
// output can be reset so a scenario replays with identical ids.
//
// Thread-safety: SequenceGenerator is safe for concurrent use.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int64
}

// NewSequenceGenerator creates a generator. An empty prefix becomes "cmd".
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "cmd"
	}
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next id.
//
// Implements engine.CommandIDGenerator.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%06d", g.prefix, g.n)
}

// Reset restarts the sequence at 1.
func (g *SequenceGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
