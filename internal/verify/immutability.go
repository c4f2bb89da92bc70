package verify

import (
	"fmt"

	"github.com/roach88/sigil/internal/ast"
)

// protectedNames are the core symbols no program may write to or
// rebind, in glyph and word form.
var protectedNames = map[string]bool{
	"self":      true,
	"core":      true,
	"chain":     true,
	"memory":    true,
	"genesis":   true,
	"axioms":    true,
	"⊙":         true,
	"⛓":         true,
	"⧬":         true,
	"⊙.core":    true,
	"⛓.genesis": true,
}

// mutatingCalls are builtin-shaped call names whose arguments are
// written through, so a protected reference passed to one is a write.
var mutatingCalls = map[string]bool{
	"modify": true,
	"update": true,
	"set":    true,
	"delete": true,
}

// proveImmutability scans every block for write-shaped constructs
// targeting a protected core symbol. Definitions count both when the
// bound name is protected and when the body is a bare protected
// identifier, which would alias the core value under a new name.
func proveImmutability(prog *ast.Program) Proof {
	for _, block := range prog.Blocks {
		if p := findCoreWrite(block); p != nil {
			return *p
		}
	}
	return Proof{
		Property: "core-immutability",
		Status:   StatusProven,
		Evidence: "no writes to protected core symbols",
	}
}

func findCoreWrite(node ast.Node) *Proof {
	if node == nil {
		return nil
	}

	switch n := node.(type) {
	case *ast.Definition:
		if protectedNames[n.Name] {
			return coreWriteViolation(n.Name, n)
		}
		if id, ok := n.Body.(*ast.Identifier); ok && protectedNames[id.Name] {
			return coreWriteViolation(id.Name, n)
		}
		return findCoreWrite(n.Body)

	case *ast.BinaryOp:
		if n.Operator == "≡" {
			if name, ok := protectedTarget(n.Left); ok {
				return coreWriteViolation(name, n)
			}
		}
		if p := findCoreWrite(n.Left); p != nil {
			return p
		}
		return findCoreWrite(n.Right)

	case *ast.UnaryOp:
		if n.Operator == "⊖" {
			if name, ok := protectedTarget(n.Operand); ok {
				return coreWriteViolation(name, n)
			}
		}
		return findCoreWrite(n.Operand)

	case *ast.Conditional:
		if p := findCoreWrite(n.Condition); p != nil {
			return p
		}
		if p := findCoreWrite(n.Then); p != nil {
			return p
		}
		return findCoreWrite(n.Else)

	case *ast.ForEach:
		if p := findCoreWrite(n.Collection); p != nil {
			return p
		}
		return findCoreWrite(n.Body)

	case *ast.Sequence:
		for _, stmt := range n.Statements {
			if p := findCoreWrite(stmt); p != nil {
				return p
			}
		}
		return nil

	case *ast.Lambda:
		return findCoreWrite(n.Body)

	case *ast.FunctionCall:
		if mutatingCalls[n.Name] {
			for _, arg := range n.Args {
				if name, ok := protectedTarget(arg); ok {
					return coreWriteViolation(name, n)
				}
			}
		}
		if p := findCoreWrite(n.Callee); p != nil {
			return p
		}
		for _, arg := range n.Args {
			if p := findCoreWrite(arg); p != nil {
				return p
			}
		}
		return nil

	case *ast.PropertyAccess:
		return findCoreWrite(n.Object)

	case *ast.ObjectLiteral:
		for _, key := range n.Keys {
			if p := findCoreWrite(n.Entries[key]); p != nil {
				return p
			}
		}
		return nil

	case *ast.ArrayLiteral:
		for _, item := range n.Items {
			if p := findCoreWrite(item); p != nil {
				return p
			}
		}
		return nil

	default:
		return nil
	}
}

// protectedTarget resolves a write target and reports the protected
// name it reaches, if any. A dotted chain is checked prefix by prefix,
// so a write into ⊙.core.identity still counts as a write to ⊙.core.
func protectedTarget(node ast.Node) (string, bool) {
	name, ok := writeTarget(node)
	if !ok {
		return "", false
	}
	if protectedNames[name] {
		return name, true
	}
	for i := len(name) - 1; i > 0; i-- {
		if name[i] == '.' && protectedNames[name[:i]] {
			return name[:i], true
		}
	}
	return "", false
}

// writeTarget resolves an expression down to a dotted name when it is
// an identifier or a chain of property accesses rooted at one.
func writeTarget(node ast.Node) (string, bool) {
	switch n := node.(type) {
	case *ast.Identifier:
		return n.Name, true
	case *ast.PropertyAccess:
		base, ok := writeTarget(n.Object)
		if !ok {
			return "", false
		}
		return base + "." + n.Property, true
	default:
		return "", false
	}
}

func coreWriteViolation(name string, node ast.Node) *Proof {
	return &Proof{
		Property:       "core-immutability",
		Status:         StatusViolation,
		Counterexample: fmt.Sprintf("write to protected symbol %q", name),
		Pos:            node.Position(),
		HasPos:         true,
	}
}
