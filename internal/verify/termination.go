package verify

import (
	"fmt"

	"github.com/roach88/sigil/internal/ast"
)

// boundedBuiltins are the calls known to return finite collections.
var boundedBuiltins = map[string]bool{
	"keys":   true,
	"values": true,
	"items":  true,
	"load":   true,
}

// boundedIdentifiers are names that always resolve to bounded stores.
var boundedIdentifiers = map[string]bool{
	"⧬":      true,
	"memory": true,
	"cache":  true,
}

type terminationWalker struct {
	depth    int
	maxDepth int
	failing  *Proof
}

// proveTermination checks that every loop ranges over a syntactically
// bounded collection and that no function calls itself by name. The
// first violation wins; with none, the proof cites the deepest loop
// nesting observed.
func proveTermination(prog *ast.Program) Proof {
	w := &terminationWalker{}
	for _, block := range prog.Blocks {
		w.walk(block, "")
		if w.failing != nil {
			return *w.failing
		}
	}

	return Proof{
		Property: "termination",
		Status:   StatusProven,
		Evidence: fmt.Sprintf("all loops bounded, max nesting depth %d", w.maxDepth),
	}
}

// walk descends the tree carrying the name of the enclosing Definition,
// so a call back to that name inside its own body reads as recursion.
func (w *terminationWalker) walk(node ast.Node, defName string) {
	if w.failing != nil || node == nil {
		return
	}

	switch n := node.(type) {
	case *ast.Definition:
		w.walk(n.Body, n.Name)

	case *ast.ForEach:
		if !boundedCollection(n.Collection) {
			w.failing = &Proof{
				Property:       "termination",
				Status:         StatusViolation,
				Counterexample: "loop over unbounded collection",
				Pos:            n.Position(),
				HasPos:         true,
			}
			return
		}
		w.depth++
		if w.depth > w.maxDepth {
			w.maxDepth = w.depth
		}
		w.walk(n.Body, defName)
		w.depth--
		w.walk(n.Collection, defName)

	case *ast.FunctionCall:
		if defName != "" && n.Name == defName {
			w.failing = &Proof{
				Property:       "termination",
				Status:         StatusViolation,
				Counterexample: fmt.Sprintf("unrestricted recursion in %q", defName),
				Pos:            n.Position(),
				HasPos:         true,
			}
			return
		}
		w.walk(n.Callee, defName)
		for _, arg := range n.Args {
			w.walk(arg, defName)
		}

	case *ast.Conditional:
		w.walk(n.Condition, defName)
		w.walk(n.Then, defName)
		w.walk(n.Else, defName)

	case *ast.Sequence:
		for _, stmt := range n.Statements {
			w.walk(stmt, defName)
		}

	case *ast.Lambda:
		w.walk(n.Body, defName)

	case *ast.BinaryOp:
		w.walk(n.Left, defName)
		w.walk(n.Right, defName)

	case *ast.UnaryOp:
		w.walk(n.Operand, defName)

	case *ast.PropertyAccess:
		w.walk(n.Object, defName)

	case *ast.ObjectLiteral:
		for _, key := range n.Keys {
			w.walk(n.Entries[key], defName)
		}

	case *ast.ArrayLiteral:
		for _, item := range n.Items {
			w.walk(item, defName)
		}
	}
}

// boundedCollection reports whether a loop collection is visibly
// finite: a literal, a known bounded store, a bounded builtin call, or
// a property read (bounded because records are finite). Anything else
// is conservatively unbounded.
func boundedCollection(node ast.Node) bool {
	switch n := node.(type) {
	case *ast.ArrayLiteral, *ast.ObjectLiteral, *ast.Literal:
		return true
	case *ast.Identifier:
		return boundedIdentifiers[n.Name]
	case *ast.FunctionCall:
		return boundedBuiltins[n.Name]
	case *ast.PropertyAccess:
		return true
	default:
		return false
	}
}
