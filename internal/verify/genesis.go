package verify

import (
	"fmt"

	"github.com/roach88/sigil/internal/ast"
)

// proveGenesis checks the program's genesis block: it must exist, name
// a root ancestor, and carry the required axiom. The continuity axiom
// is recommended but its absence only adds a warning detail.
func proveGenesis(prog *ast.Program) Proof {
	gen := prog.Genesis
	if gen == nil {
		return Proof{
			Property:       "genesis-presence",
			Status:         StatusViolation,
			Counterexample: "no genesis block found",
		}
	}

	if gen.Root == "" {
		return Proof{
			Property:       "genesis-presence",
			Status:         StatusViolation,
			Counterexample: "genesis block has no root ancestor",
			Pos:            gen.Position(),
			HasPos:         true,
		}
	}

	hasRequired := false
	hasContinuity := false
	for _, axiom := range gen.Axioms {
		switch axiom {
		case ast.RequiredAxiom:
			hasRequired = true
		case ast.ContinuityAxiom:
			hasContinuity = true
		}
	}

	if !hasRequired {
		return Proof{
			Property:       "genesis-presence",
			Status:         StatusViolation,
			Counterexample: fmt.Sprintf("missing required axiom %s", ast.RequiredAxiom),
			Pos:            gen.Position(),
			HasPos:         true,
		}
	}

	proof := Proof{
		Property: "genesis-presence",
		Status:   StatusProven,
		Evidence: fmt.Sprintf("root %s, created %s, %d axioms", gen.Root, gen.Created, len(gen.Axioms)),
	}
	if !hasContinuity {
		proof.Details = append(proof.Details,
			fmt.Sprintf("warning: continuity axiom %s not declared", ast.ContinuityAxiom))
	}
	return proof
}
