// Package verify statically checks parsed programs without executing
// them. It produces a report with exactly three independent proofs:
// termination, core immutability, and genesis presence.
//
// The checks are syntactic and conservative. Termination only accepts
// loop collections that are visibly bounded in the source, and the
// recursion check matches call names against their defining context
// only, so mutual recursion through two differently named functions is
// not detected. Verification is advisory: the interpreter never
// consults a report before running, and a violation is data for the
// caller, never a raised error.
package verify

import (
	"fmt"
	"strings"

	"github.com/roach88/sigil/internal/ast"
	"github.com/roach88/sigil/internal/lexer"
)

// Status is a proof's judgment.
type Status string

const (
	StatusProven    Status = "PROVEN"
	StatusViolation Status = "VIOLATION"
	StatusUnknown   Status = "UNKNOWN"
)

// Proof is one property's verdict with supporting evidence. On
// violation, Counterexample describes the first failing construct and
// Pos points at it when a source position is available.
type Proof struct {
	Property       string   `json:"property"`
	Status         Status   `json:"status"`
	Evidence       string   `json:"evidence"`
	Details        []string `json:"details,omitempty"`
	Counterexample string   `json:"counterexample,omitempty"`

	Pos    lexer.Pos `json:"-"`
	HasPos bool      `json:"-"`
}

// Report aggregates the three proofs. Proofs always has exactly three
// entries, in the order termination, core-immutability,
// genesis-presence, regardless of individual outcomes.
type Report struct {
	Proofs []Proof `json:"proofs"`
}

// AllProven reports whether every proof has status PROVEN.
func (r *Report) AllProven() bool {
	for _, p := range r.Proofs {
		if p.Status != StatusProven {
			return false
		}
	}
	return true
}

// Overall returns PROVEN when all proofs hold, otherwise the status of
// the first non-proven proof.
func (r *Report) Overall() Status {
	for _, p := range r.Proofs {
		if p.Status != StatusProven {
			return p.Status
		}
	}
	return StatusProven
}

// Summary renders the report as a short human-readable block, one line
// per proof, with detail lines indented under their proof.
func (r *Report) Summary() string {
	var b strings.Builder
	for _, p := range r.Proofs {
		fmt.Fprintf(&b, "%-20s %s", p.Property, p.Status)
		if p.Status == StatusViolation && p.Counterexample != "" {
			fmt.Fprintf(&b, "  %s", p.Counterexample)
			if p.HasPos {
				fmt.Fprintf(&b, " at %s", p.Pos)
			}
		} else if p.Evidence != "" {
			fmt.Fprintf(&b, "  %s", p.Evidence)
		}
		b.WriteByte('\n')
		for _, d := range p.Details {
			fmt.Fprintf(&b, "  %s\n", d)
		}
	}
	fmt.Fprintf(&b, "overall: %s\n", r.Overall())
	return b.String()
}

// Verify checks a parsed program and returns the three-proof report.
// It never executes the program and never returns an error; violations
// are recorded in the report.
func Verify(prog *ast.Program) *Report {
	return &Report{
		Proofs: []Proof{
			proveTermination(prog),
			proveImmutability(prog),
			proveGenesis(prog),
		},
	}
}
