package lexer

import "fmt"

// Kind identifies a token class. The set is closed: the lexer never
// produces a kind outside this table.
type Kind int

const (
	// Operators
	KindCreate      Kind = iota // ⊕
	KindDelete                  // ⊖
	KindFlow                    // ⟿
	KindPersist                 // ⟼
	KindEquals                  // ≡
	KindConditional             // ⸮
	KindForall                  // ∀
	KindExists                  // ∃
	KindNot                     // ¬
	KindSequence                // ⫶
	KindContains                // ⊃
	KindHas                     // ∋ (doubles as the membership marker)
	KindEternal                 // ∞

	// Type glyphs
	KindForma // ◈
	KindMem   // ⧬
	KindNexus // ⛓
	KindSol   // ⊙
	KindAqua  // 〰

	// Modifier glyphs
	KindNow       // ⊛
	KindPast      // ◁
	KindFuture    // ▷
	KindApprox    // ≋
	KindPotential // ◇
	KindActual    // ◆

	// Structure
	KindLBrace // {
	KindRBrace // }
	KindLParen // (
	KindRParen // )
	KindLAngle // ⟨
	KindRAngle // ⟩
	KindColon  // :
	KindComma  // ,
	KindDot    // .
	KindVerify // ✓
	KindError  // ⍼
	KindLambda // λ

	// Literals
	KindIdentifier
	KindString
	KindInt
	KindFloat

	// Keywords
	KindGenesis
	KindSkill
	KindAgent
	KindDef
	KindIf
	KindFor
	KindIn
	KindOn
	KindNew
	KindTrue
	KindFalse

	KindComment
	KindNewline
	KindEOF
)

var kindNames = map[Kind]string{
	KindCreate:      "CREATE",
	KindDelete:      "DELETE",
	KindFlow:        "FLOW",
	KindPersist:     "PERSIST",
	KindEquals:      "EQUALS",
	KindConditional: "CONDITIONAL",
	KindForall:      "FORALL",
	KindExists:      "EXISTS",
	KindNot:         "NOT",
	KindSequence:    "SEQUENCE",
	KindContains:    "CONTAINS",
	KindHas:         "HAS",
	KindEternal:     "ETERNAL",
	KindForma:       "FORMA",
	KindMem:         "MEM",
	KindNexus:       "NEXUS",
	KindSol:         "SOL",
	KindAqua:        "AQUA",
	KindNow:         "NOW",
	KindPast:        "PAST",
	KindFuture:      "FUTURE",
	KindApprox:      "APPROX",
	KindPotential:   "POTENTIAL",
	KindActual:      "ACTUAL",
	KindLBrace:      "LBRACE",
	KindRBrace:      "RBRACE",
	KindLParen:      "LPAREN",
	KindRParen:      "RPAREN",
	KindLAngle:      "LANGLE",
	KindRAngle:      "RANGLE",
	KindColon:       "COLON",
	KindComma:       "COMMA",
	KindDot:         "DOT",
	KindVerify:      "VERIFY",
	KindError:       "ERROR",
	KindLambda:      "LAMBDA",
	KindIdentifier:  "IDENTIFIER",
	KindString:      "STRING",
	KindInt:         "INT",
	KindFloat:       "FLOAT",
	KindGenesis:     "GENESIS",
	KindSkill:       "SKILL",
	KindAgent:       "AGENT",
	KindDef:         "DEF",
	KindIf:          "IF",
	KindFor:         "FOR",
	KindIn:          "IN",
	KindOn:          "ON",
	KindNew:         "NEW",
	KindTrue:        "TRUE",
	KindFalse:       "FALSE",
	KindComment:     "COMMENT",
	KindNewline:     "NEWLINE",
	KindEOF:         "EOF",
}

// String returns the token kind name for diagnostics.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Pos is a source position (1-based line and column).
type Pos struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// String formats the position as "L<line>:C<column>".
func (p Pos) String() string {
	return fmt.Sprintf("L%d:C%d", p.Line, p.Column)
}

// Token is an immutable lexeme with its source position.
//
// Text holds the raw lexeme (glyph, identifier, keyword, comment body).
// For string tokens, Text holds the unescaped content. Int and Float carry
// the parsed numeric value for KindInt and KindFloat respectively.
type Token struct {
	Kind  Kind
	Text  string
	Int   int64
	Float float64
	Pos   Pos
}

// String formats the token for the --tokens debug dump.
func (t Token) String() string {
	switch t.Kind {
	case KindInt:
		return fmt.Sprintf("%s(%d) %s", t.Kind, t.Int, t.Pos)
	case KindFloat:
		return fmt.Sprintf("%s(%g) %s", t.Kind, t.Float, t.Pos)
	case KindEOF:
		return fmt.Sprintf("%s %s", t.Kind, t.Pos)
	default:
		return fmt.Sprintf("%s(%q) %s", t.Kind, t.Text, t.Pos)
	}
}

// glyphs maps each single-character symbolic operator to its kind.
// The table is closed: adding a glyph is a language change.
var glyphs = map[rune]Kind{
	'⊕': KindCreate,
	'⊖': KindDelete,
	'⟿': KindFlow,
	'⟼': KindPersist,
	'≡': KindEquals,
	'⸮': KindConditional,
	'∀': KindForall,
	'∃': KindExists,
	'¬': KindNot,
	'⫶': KindSequence,
	'⊃': KindContains,
	'∋': KindHas,
	'∞': KindEternal,
	'◈': KindForma,
	'⧬': KindMem,
	'⛓': KindNexus,
	'⊙': KindSol,
	'〰': KindAqua,
	'⊛': KindNow,
	'◁': KindPast,
	'▷': KindFuture,
	'≋': KindApprox,
	'◇': KindPotential,
	'◆': KindActual,
	'{': KindLBrace,
	'}': KindRBrace,
	'(': KindLParen,
	')': KindRParen,
	'⟨': KindLAngle,
	'⟩': KindRAngle,
	':': KindColon,
	',': KindComma,
	'.': KindDot,
	'✓': KindVerify,
	'⍼': KindError,
	'λ': KindLambda,
}

var keywords = map[string]Kind{
	"genesis": KindGenesis,
	"skill":   KindSkill,
	"agent":   KindAgent,
	"def":     KindDef,
	"if":      KindIf,
	"for":     KindFor,
	"in":      KindIn,
	"on":      KindOn,
	"new":     KindNew,
	"true":    KindTrue,
	"false":   KindFalse,
}
