package interp

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is one entry in the interpreter's output list. Builtins never
// touch the surrounding system; emit and spawn only append events here,
// so the whole effect surface of a run is observable and replayable from
// the result bundle.
type Event struct {
	// ID uniquely identifies the event across runs.
	ID string `json:"id"`

	// Type is "emit" or "spawn_proposal".
	Type string `json:"type"`

	// Signal names the emitted signal (emit events).
	Signal string `json:"signal,omitempty"`

	// Agent and Task describe a proposed sub-agent (spawn events).
	Agent string `json:"agent,omitempty"`
	Task  string `json:"task,omitempty"`

	// Data is the emit payload, JSON-encoded via the value codec.
	Data any `json:"data,omitempty"`

	// Seq is the event's position in emission order, starting at 1.
	Seq int `json:"seq"`

	// Timestamp is the interpreter clock reading at emission.
	Timestamp time.Time `json:"timestamp"`
}

// EventIDGenerator produces unique event IDs.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type EventIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 event IDs.
//
// UUIDv7 embeds a timestamp in the most significant bits, so event IDs
// sort by creation time, which keeps persisted output logs scannable.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined IDs for deterministic tests and
// golden trace comparison.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns IDs in order.
//
// Example:
//
//	gen := NewFixedGenerator("ev-1", "ev-2")
//	gen.Generate() // "ev-1"
//	gen.Generate() // "ev-2"
//	gen.Generate() // "ev-3" (synthesized once the list is exhausted)
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined ID, synthesizing "ev-N" once
// the provided list runs out so long scenarios stay deterministic.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.idx++
	if g.idx <= len(g.ids) {
		return g.ids[g.idx-1]
	}
	return fmt.Sprintf("ev-%d", g.idx)
}
