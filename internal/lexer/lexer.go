// Package lexer converts sigil source text into an ordered token sequence.
//
// The lexer recognizes a closed table of single-character glyph operators,
// free-form identifiers and dotted paths, quoted string literals with
// backslash escapes, integer and decimal numeric literals, and //-comments.
// Newlines are emitted as tokens; the grammar is not newline-sensitive, so
// the parser filters them out along with comments.
//
// Characters outside the token tables are silently skipped. This is a
// documented permissiveness gap, not a recovery strategy: rejecting them
// would change the set of accepted programs.
package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// LexerError reports a malformed token, carrying the position where the
// token began.
type LexerError struct {
	Message string
	Pos     Pos
}

// Error implements the error interface.
func (e *LexerError) Error() string {
	return fmt.Sprintf("lexer error at %s: %s", e.Pos, e.Message)
}

// Lexer tokenizes a single source text. Not safe for reuse; create one
// per input.
type Lexer struct {
	src    []rune
	pos    int
	line   int
	column int
	tokens []Token
}

// New creates a Lexer over UTF-8 source text. Input is NFC-normalized
// first, so an identifier typed with combining marks and one typed with
// precomposed characters lex to the same name.
func New(source string) *Lexer {
	return &Lexer{
		src:    []rune(norm.NFC.String(source)),
		line:   1,
		column: 1,
	}
}

// Tokenize scans the entire source and returns the token sequence,
// always terminated by an EOF token. The only failure mode is an
// unterminated string literal.
//
// Tokenizing the same input twice yields identical sequences.
func Tokenize(source string) ([]Token, error) {
	return New(source).Tokenize()
}

// Tokenize scans the entire source. See the package-level Tokenize.
func (l *Lexer) Tokenize() ([]Token, error) {
	for l.pos < len(l.src) {
		l.skipBlank()
		if l.pos >= len(l.src) {
			break
		}

		start := l.here()
		ch := l.peek(0)

		if ch == '\n' {
			l.advance()
			l.emit(Token{Kind: KindNewline, Text: "\n", Pos: start})
			continue
		}

		if ch == '/' && l.peek(1) == '/' {
			l.emit(Token{Kind: KindComment, Text: l.readComment(), Pos: start})
			continue
		}

		if ch == '"' || ch == '\'' {
			text, err := l.readString()
			if err != nil {
				return nil, err
			}
			l.emit(Token{Kind: KindString, Text: text, Pos: start})
			continue
		}

		if unicode.IsDigit(ch) {
			tok := l.readNumber()
			tok.Pos = start
			l.emit(tok)
			continue
		}

		if kind, ok := glyphs[ch]; ok {
			l.advance()
			l.emit(Token{Kind: kind, Text: string(ch), Pos: start})
			continue
		}

		if unicode.IsLetter(ch) || ch == '_' {
			word := l.readIdentifier()
			kind := KindIdentifier
			if kw, ok := keywords[word]; ok {
				kind = kw
			}
			l.emit(Token{Kind: kind, Text: word, Pos: start})
			continue
		}

		// Unknown character: skip silently (permissiveness gap).
		l.advance()
	}

	l.emit(Token{Kind: KindEOF, Pos: l.here()})
	return l.tokens, nil
}

func (l *Lexer) emit(t Token) {
	l.tokens = append(l.tokens, t)
}

func (l *Lexer) here() Pos {
	return Pos{Line: l.line, Column: l.column}
}

// peek returns the rune at pos+offset, or 0 past the end.
func (l *Lexer) peek(offset int) rune {
	idx := l.pos + offset
	if idx < len(l.src) {
		return l.src[idx]
	}
	return 0
}

// advance consumes one rune, tracking line and column.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	ch := l.src[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

// skipBlank skips spaces, tabs and carriage returns, not newlines.
func (l *Lexer) skipBlank() {
	for {
		switch l.peek(0) {
		case ' ', '\t', '\r':
			l.advance()
		default:
			return
		}
	}
}

// readString consumes a quoted string, handling \n \t \\ and the matching
// quote escape. An unterminated string is the lexer's one hard failure.
func (l *Lexer) readString() (string, error) {
	start := l.here()
	quote := l.advance()

	var sb strings.Builder
	for l.pos < len(l.src) && l.peek(0) != quote {
		ch := l.advance()
		if ch == '\\' && l.pos < len(l.src) {
			esc := l.advance()
			switch esc {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case '\\':
				sb.WriteRune('\\')
			case quote:
				sb.WriteRune(quote)
			default:
				// Unknown escape passes through verbatim.
				sb.WriteRune('\\')
				sb.WriteRune(esc)
			}
			continue
		}
		sb.WriteRune(ch)
	}

	if l.pos >= len(l.src) {
		return "", &LexerError{Message: "unterminated string", Pos: start}
	}
	l.advance() // closing quote
	return sb.String(), nil
}

// readIdentifier consumes letters, digits, underscores, hyphens and dots,
// so dotted paths like "on.read" lex as a single identifier.
func (l *Lexer) readIdentifier() string {
	var sb strings.Builder
	for {
		ch := l.peek(0)
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' || ch == '-' || ch == '.' {
			sb.WriteRune(l.advance())
			continue
		}
		return sb.String()
	}
}

// readNumber consumes digits and decimal points. A decimal point
// classifies the literal as a float, otherwise it is an int.
func (l *Lexer) readNumber() Token {
	var sb strings.Builder
	for {
		ch := l.peek(0)
		if unicode.IsDigit(ch) || ch == '.' {
			sb.WriteRune(l.advance())
			continue
		}
		break
	}

	text := sb.String()
	if strings.Contains(text, ".") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			// Multiple dots ("1.2.3") cannot parse as a float; keep the
			// leading numeric prefix instead of rejecting, matching the
			// lexer's permissive posture.
			f = 0
		}
		return Token{Kind: KindFloat, Text: text, Float: f}
	}

	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		n = 0
	}
	return Token{Kind: KindInt, Text: text, Int: n}
}

// readComment consumes a // comment through end of line and returns the
// trimmed body.
func (l *Lexer) readComment() string {
	l.advance() // first /
	l.advance() // second /
	var sb strings.Builder
	for l.pos < len(l.src) && l.peek(0) != '\n' {
		sb.WriteRune(l.advance())
	}
	return strings.TrimSpace(sb.String())
}
