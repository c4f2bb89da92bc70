// Package ast defines the sigil abstract syntax tree.
//
// The node set is closed and sealed: every variant implements Node through
// a private marker method, so consumers can switch exhaustively over the
// known variants instead of branching on runtime type names. The tree is
// strict - each node is owned by exactly one parent, and nothing holds
// back-edges. Every node carries the source position it was parsed at for
// diagnostics.
package ast

import "github.com/roach88/sigil/internal/lexer"

// Node is the sealed interface over all AST variants.
type Node interface {
	node() // Sealed - only this package's types implement it
	Position() lexer.Pos
}

// Pos embeds a source position into a node. All variants include it.
type Pos struct {
	At lexer.Pos
}

// Position returns the node's source position.
func (p Pos) Position() lexer.Pos { return p.At }

// Program is the root node, owned by the caller. Genesis is optional.
type Program struct {
	Pos
	Genesis *GenesisBlock
	Blocks  []Node
}

func (*Program) node() {}

// GenesisBlock is the fixed-shape configuration record at the head of a
// program. Parsed once and treated as immutable for the program's lifetime.
type GenesisBlock struct {
	Pos
	Root        string
	Created     string
	LangCreated string
	Author      string
	Axioms      []string
	Origin      []string
}

func (*GenesisBlock) node() {}

// Definition binds a typed name: ⊕type:name ≡ body.
type Definition struct {
	Pos
	TypeName string
	Name     string
	Body     Node
}

func (*Definition) node() {}

// Conditional evaluates exactly one branch: ⸮(cond)⟿ then ⫶ else.
// Else may be nil.
type Conditional struct {
	Pos
	Condition Node
	Then      Node
	Else      Node
}

func (*Conditional) node() {}

// ForEach iterates a collection: ∀var∋collection⟿ body.
type ForEach struct {
	Pos
	Variable   string
	Collection Node
	Body       Node
}

func (*ForEach) node() {}

// Sequence is an explicit statement list. The parser expresses sequencing
// through the ⫶ binary operator, but the variant is part of the closed set
// and the interpreter evaluates it.
type Sequence struct {
	Pos
	Statements []Node
}

func (*Sequence) node() {}

// FunctionCall applies a callee to arguments. Name is set when the callee
// is a bare identifier (the common case, and the one builtin dispatch and
// recursion detection key on); Callee carries the full expression for
// chained forms such as ⧬.new(...).
type FunctionCall struct {
	Pos
	Name   string
	Callee Node
	Args   []Node
}

func (*FunctionCall) node() {}

// Lambda is a function literal: λ(params)⟿ body. Never executed at
// definition time.
type Lambda struct {
	Pos
	Params []string
	Body   Node
}

func (*Lambda) node() {}

// PropertyAccess reads a named field: object.prop.
type PropertyAccess struct {
	Pos
	Object   Node
	Property string
}

func (*PropertyAccess) node() {}

// BinaryOp applies a glyph operator to two operands. Operator holds the
// glyph text (≡ ⟿ ⊃ ∋ ⫶).
type BinaryOp struct {
	Pos
	Left     Node
	Operator string
	Right    Node
}

func (*BinaryOp) node() {}

// UnaryOp applies a prefix glyph (¬) or the persist operator (⟼).
type UnaryOp struct {
	Pos
	Operator string
	Operand  Node
}

func (*UnaryOp) node() {}

// Literal is a string, integer, float, or boolean constant.
type Literal struct {
	Pos
	Value any
}

func (*Literal) node() {}

// Identifier is a name reference, including reserved glyph names.
type Identifier struct {
	Pos
	Name string
}

func (*Identifier) node() {}

// ObjectLiteral is a { key: value, ... } record. Keys keeps source order
// so evaluation and serialization stay deterministic.
type ObjectLiteral struct {
	Pos
	Keys    []string
	Entries map[string]Node
}

func (*ObjectLiteral) node() {}

// ArrayLiteral is a ⟨item, ...⟩ list.
type ArrayLiteral struct {
	Pos
	Items []Node
}

func (*ArrayLiteral) node() {}
