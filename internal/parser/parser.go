// Package parser builds a sigil AST from a token sequence.
//
// The parser is a plain recursive descent over the grammar:
//
//	Program     := [GenesisBlock] Block*
//	GenesisBlock:= ⛓ . genesis ≡ { field : value (,)* }
//	Block       := Definition | Conditional | ForEach | Persist | Expression
//	Definition  := ⊕ TypeTag : name ≡ (ObjectLiteral | Expression)
//	Conditional := (⸮|if) ( Expression ) ⟿ Block [⫶ Block]
//	ForEach     := (∀|for) name (∋|in) Unary ⟿ Block
//	Persist     := ⟼ Expression
//	Expression  := Unary ((⟿|≡|⊃|∋|⫶) Unary)*   left-associative
//	Unary       := [¬] Call
//	Call        := Primary (( args ) | . name)*
//
// It fails at the first token that cannot continue the current production
// and never partially consumes input: a Program comes back whole or not at
// all. Comments and newlines are filtered before parsing since the grammar
// is not newline-sensitive.
package parser

import (
	"fmt"
	"strings"

	"github.com/roach88/sigil/internal/ast"
	"github.com/roach88/sigil/internal/lexer"
)

// ParseError reports the first token that does not fit the grammar.
type ParseError struct {
	Message string
	Pos     lexer.Pos
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s: %s", e.Pos, e.Message)
}

// Parser consumes a filtered token stream. Not safe for reuse.
type Parser struct {
	tokens []lexer.Token
	pos    int

	// stopSeq suppresses ⫶ in the binary operator loop while parsing a
	// conditional's then-branch, so the ⫶ binds as the else separator
	// instead of a sequence expression. Bracketed subexpressions clear
	// it, since brackets delimit their own extent.
	stopSeq bool
}

// New creates a Parser, filtering comment and newline tokens.
func New(tokens []lexer.Token) *Parser {
	filtered := make([]lexer.Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Kind == lexer.KindComment || t.Kind == lexer.KindNewline {
			continue
		}
		filtered = append(filtered, t)
	}
	return &Parser{tokens: filtered}
}

// Parse tokenizes and parses source text in one step.
func Parse(source string) (*ast.Program, error) {
	tokens, err := lexer.Tokenize(source)
	if err != nil {
		return nil, err
	}
	return New(tokens).Parse()
}

// Parse consumes the whole stream and returns the Program.
func (p *Parser) Parse() (prog *ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(*ParseError)
			if !ok {
				panic(r)
			}
			prog, err = nil, pe
		}
	}()

	prog = &ast.Program{Pos: ast.Pos{At: lexer.Pos{Line: 1, Column: 1}}}

	if p.match(lexer.KindNexus) && p.peek(1).Kind == lexer.KindDot {
		prog.Genesis = p.parseGenesis()
	}

	for !p.match(lexer.KindEOF) {
		prog.Blocks = append(prog.Blocks, p.parseBlock())
	}

	return prog, nil
}

func (p *Parser) peek(offset int) lexer.Token {
	idx := p.pos + offset
	if idx < len(p.tokens) {
		return p.tokens[idx]
	}
	return p.tokens[len(p.tokens)-1] // EOF
}

func (p *Parser) advance() lexer.Token {
	tok := p.peek(0)
	if tok.Kind != lexer.KindEOF {
		p.pos++
	}
	return tok
}

func (p *Parser) match(kinds ...lexer.Kind) bool {
	cur := p.peek(0).Kind
	for _, k := range kinds {
		if cur == k {
			return true
		}
	}
	return false
}

// expect consumes a token of one of the given kinds or fails the parse.
func (p *Parser) expect(kinds ...lexer.Kind) lexer.Token {
	if !p.match(kinds...) {
		tok := p.peek(0)
		want := ""
		for i, k := range kinds {
			if i > 0 {
				want += " or "
			}
			want += k.String()
		}
		p.fail(tok, "expected %s, got %s", want, tok.Kind)
	}
	return p.advance()
}

// fail aborts the parse at the given token. Parse converts the panic into
// a *ParseError; no error recovery is attempted.
func (p *Parser) fail(tok lexer.Token, format string, args ...any) {
	panic(&ParseError{Message: fmt.Sprintf(format, args...), Pos: tok.Pos})
}

// parseGenesis parses ⛓.genesis ≡ { ... }. Recognized fields are mapped
// onto the GenesisBlock record; unrecognized keys are parsed and dropped.
func (p *Parser) parseGenesis() *ast.GenesisBlock {
	tok := p.advance() // ⛓
	gen := &ast.GenesisBlock{Pos: ast.Pos{At: tok.Pos}}

	p.expect(lexer.KindDot)
	p.expect(lexer.KindGenesis)
	p.expect(lexer.KindEquals)
	p.expect(lexer.KindLBrace)

	for !p.match(lexer.KindRBrace, lexer.KindEOF) {
		key := p.expect(lexer.KindIdentifier, lexer.KindString).Text
		p.expect(lexer.KindColon)
		value := p.parseExpression()

		switch {
		case key == "root":
			gen.Root = literalString(value)
		case key == "created":
			gen.Created = literalString(value)
		case key == "lang.created":
			gen.LangCreated = literalString(value)
		case key == "author":
			gen.Author = literalString(value)
		case key == "axioms":
			gen.Axioms = literalList(value)
		case key == "origin" || strings.HasSuffix(key, ".origin"):
			gen.Origin = literalList(value)
		default:
			// Unrecognized genesis keys are ignored, not rejected.
		}

		if p.match(lexer.KindComma) {
			p.advance()
		}
	}

	p.expect(lexer.KindRBrace)
	return gen
}

func (p *Parser) parseBlock() ast.Node {
	switch p.peek(0).Kind {
	case lexer.KindCreate:
		return p.parseDefinition()
	case lexer.KindConditional, lexer.KindIf:
		return p.parseConditional()
	case lexer.KindForall, lexer.KindFor:
		return p.parseForEach()
	case lexer.KindPersist:
		return p.parsePersist()
	default:
		return p.parseExpression()
	}
}

// parseDefinition parses ⊕type:name ≡ body. The type tag may be a type
// glyph, the skill/agent keywords, or any identifier.
func (p *Parser) parseDefinition() *ast.Definition {
	tok := p.advance() // ⊕
	def := &ast.Definition{Pos: ast.Pos{At: tok.Pos}}

	if p.match(lexer.KindForma, lexer.KindMem, lexer.KindNexus,
		lexer.KindSol, lexer.KindAqua, lexer.KindSkill, lexer.KindAgent,
		lexer.KindDef) {
		def.TypeName = p.advance().Text
	} else {
		def.TypeName = p.expect(lexer.KindIdentifier).Text
	}

	p.expect(lexer.KindColon)
	def.Name = p.expect(lexer.KindIdentifier).Text
	p.expect(lexer.KindEquals)

	if p.match(lexer.KindLBrace) {
		def.Body = p.parseObject()
	} else {
		def.Body = p.parseExpression()
	}
	return def
}

// parseConditional parses ⸮(cond)⟿ then [⫶ else].
func (p *Parser) parseConditional() *ast.Conditional {
	tok := p.advance() // ⸮ or if
	cond := &ast.Conditional{Pos: ast.Pos{At: tok.Pos}}

	p.expect(lexer.KindLParen)
	cond.Condition = p.grouped(p.parseExpression)
	p.expect(lexer.KindRParen)
	p.expect(lexer.KindFlow)

	saved := p.stopSeq
	p.stopSeq = true
	cond.Then = p.parseBlock()
	p.stopSeq = saved

	if p.match(lexer.KindSequence) {
		p.advance()
		cond.Else = p.parseBlock()
	}
	return cond
}

// grouped parses a bracketed subexpression with sequence suppression
// cleared: a ⫶ inside brackets is an ordinary sequence operator.
func (p *Parser) grouped(parse func() ast.Node) ast.Node {
	saved := p.stopSeq
	p.stopSeq = false
	node := parse()
	p.stopSeq = saved
	return node
}

// parseForEach parses ∀var∋collection⟿ body. The keyword form uses
// for ... in instead of the glyphs.
func (p *Parser) parseForEach() *ast.ForEach {
	tok := p.advance() // ∀ or for
	fe := &ast.ForEach{Pos: ast.Pos{At: tok.Pos}}

	fe.Variable = p.expect(lexer.KindIdentifier).Text
	p.expect(lexer.KindHas, lexer.KindIn)
	// The collection is a unary expression: parsing a full binary tier
	// here would swallow the ⟿ that separates it from the body.
	// Parenthesize to loop over a binary expression.
	fe.Collection = p.parseUnary()
	p.expect(lexer.KindFlow)
	fe.Body = p.parseBlock()

	return fe
}

func (p *Parser) parsePersist() *ast.UnaryOp {
	tok := p.advance() // ⟼
	return &ast.UnaryOp{
		Pos:      ast.Pos{At: tok.Pos},
		Operator: "⟼",
		Operand:  p.parseExpression(),
	}
}

func (p *Parser) parseExpression() ast.Node {
	return p.parseBinary()
}

// parseBinary parses the single left-associative precedence tier over
// ⟿ ≡ ⊃ ∋ ⫶.
func (p *Parser) parseBinary() ast.Node {
	left := p.parseUnary()

	for p.match(lexer.KindFlow, lexer.KindEquals, lexer.KindContains,
		lexer.KindHas, lexer.KindSequence) {
		if p.stopSeq && p.match(lexer.KindSequence) {
			break
		}
		op := p.advance()
		right := p.parseUnary()
		left = &ast.BinaryOp{
			Pos:      ast.Pos{At: op.Pos},
			Left:     left,
			Operator: op.Text,
			Right:    right,
		}
	}
	return left
}

func (p *Parser) parseUnary() ast.Node {
	if p.match(lexer.KindNot) {
		op := p.advance()
		return &ast.UnaryOp{
			Pos:      ast.Pos{At: op.Pos},
			Operator: "¬",
			Operand:  p.parseUnary(),
		}
	}
	if p.match(lexer.KindDelete) {
		op := p.advance()
		return &ast.UnaryOp{
			Pos:      ast.Pos{At: op.Pos},
			Operator: "⊖",
			Operand:  p.parseUnary(),
		}
	}
	return p.parseCall()
}

// parseCall parses call and property-access suffixes.
func (p *Parser) parseCall() ast.Node {
	expr := p.parsePrimary()

	for {
		switch {
		case p.match(lexer.KindLParen):
			expr = p.parseFunctionCall(expr)
		case p.match(lexer.KindDot):
			p.advance()
			prop := p.expect(lexer.KindIdentifier, lexer.KindNew, lexer.KindGenesis).Text
			expr = &ast.PropertyAccess{
				Pos:      ast.Pos{At: expr.Position()},
				Object:   expr,
				Property: prop,
			}
		default:
			return expr
		}
	}
}

func (p *Parser) parseFunctionCall(callee ast.Node) *ast.FunctionCall {
	p.expect(lexer.KindLParen)
	call := &ast.FunctionCall{
		Pos:    ast.Pos{At: callee.Position()},
		Callee: callee,
	}
	if id, ok := callee.(*ast.Identifier); ok {
		call.Name = id.Name
	}

	if !p.match(lexer.KindRParen) {
		call.Args = append(call.Args, p.grouped(p.parseExpression))
		for p.match(lexer.KindComma) {
			p.advance()
			call.Args = append(call.Args, p.grouped(p.parseExpression))
		}
	}

	p.expect(lexer.KindRParen)
	return call
}

func (p *Parser) parsePrimary() ast.Node {
	tok := p.peek(0)

	switch tok.Kind {
	case lexer.KindLambda:
		return p.parseLambda()

	case lexer.KindLBrace:
		return p.parseObject()

	case lexer.KindLAngle:
		return p.parseArray()

	case lexer.KindLParen:
		p.advance()
		expr := p.grouped(p.parseExpression)
		p.expect(lexer.KindRParen)
		return expr

	case lexer.KindString:
		p.advance()
		return &ast.Literal{Pos: ast.Pos{At: tok.Pos}, Value: tok.Text}

	case lexer.KindInt:
		p.advance()
		return &ast.Literal{Pos: ast.Pos{At: tok.Pos}, Value: tok.Int}

	case lexer.KindFloat:
		p.advance()
		return &ast.Literal{Pos: ast.Pos{At: tok.Pos}, Value: tok.Float}

	case lexer.KindTrue:
		p.advance()
		return &ast.Literal{Pos: ast.Pos{At: tok.Pos}, Value: true}

	case lexer.KindFalse:
		p.advance()
		return &ast.Literal{Pos: ast.Pos{At: tok.Pos}, Value: false}

	case lexer.KindForma, lexer.KindMem, lexer.KindNexus, lexer.KindSol,
		lexer.KindAqua, lexer.KindNow, lexer.KindVerify, lexer.KindError:
		// Reserved glyphs evaluate as identifiers.
		p.advance()
		return &ast.Identifier{Pos: ast.Pos{At: tok.Pos}, Name: tok.Text}

	case lexer.KindIdentifier,
		lexer.KindNew, lexer.KindSkill, lexer.KindAgent, lexer.KindDef, lexer.KindOn:
		// A few keywords double as plain names in expression position,
		// notably new(...) for the construction builtin.
		p.advance()
		return &ast.Identifier{Pos: ast.Pos{At: tok.Pos}, Name: tok.Text}

	default:
		p.fail(tok, "unexpected token %s in expression", tok.Kind)
		return nil // unreachable
	}
}

func (p *Parser) parseLambda() *ast.Lambda {
	tok := p.advance() // λ
	lam := &ast.Lambda{Pos: ast.Pos{At: tok.Pos}}

	p.expect(lexer.KindLParen)
	if !p.match(lexer.KindRParen) {
		lam.Params = append(lam.Params, p.expect(lexer.KindIdentifier).Text)
		for p.match(lexer.KindComma) {
			p.advance()
			lam.Params = append(lam.Params, p.expect(lexer.KindIdentifier).Text)
		}
	}
	p.expect(lexer.KindRParen)
	p.expect(lexer.KindFlow)
	lam.Body = p.parseBlock()

	return lam
}

// parseObject parses { key: value, ... }. Keys may be identifiers or
// strings; source order is preserved.
func (p *Parser) parseObject() *ast.ObjectLiteral {
	tok := p.expect(lexer.KindLBrace)
	obj := &ast.ObjectLiteral{
		Pos:     ast.Pos{At: tok.Pos},
		Entries: make(map[string]ast.Node),
	}

	for !p.match(lexer.KindRBrace, lexer.KindEOF) {
		key := p.expect(lexer.KindIdentifier, lexer.KindString).Text
		p.expect(lexer.KindColon)
		value := p.grouped(p.parseExpression)

		if _, dup := obj.Entries[key]; !dup {
			obj.Keys = append(obj.Keys, key)
		}
		obj.Entries[key] = value

		if p.match(lexer.KindComma) {
			p.advance()
		}
	}

	p.expect(lexer.KindRBrace)
	return obj
}

func (p *Parser) parseArray() *ast.ArrayLiteral {
	tok := p.expect(lexer.KindLAngle)
	arr := &ast.ArrayLiteral{Pos: ast.Pos{At: tok.Pos}}

	if !p.match(lexer.KindRAngle) {
		arr.Items = append(arr.Items, p.grouped(p.parseExpression))
		for p.match(lexer.KindComma) {
			p.advance()
			arr.Items = append(arr.Items, p.grouped(p.parseExpression))
		}
	}

	p.expect(lexer.KindRAngle)
	return arr
}

// literalString renders a genesis field value as a string. Identifiers
// and scalar literals are accepted; anything else yields "".
func literalString(node ast.Node) string {
	switch n := node.(type) {
	case *ast.Literal:
		return fmt.Sprintf("%v", n.Value)
	case *ast.Identifier:
		return n.Name
	default:
		return ""
	}
}

// literalList flattens an array literal of strings/identifiers.
func literalList(node ast.Node) []string {
	arr, ok := node.(*ast.ArrayLiteral)
	if !ok {
		return nil
	}
	items := make([]string, 0, len(arr.Items))
	for _, it := range arr.Items {
		items = append(items, literalString(it))
	}
	return items
}
