package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/sigil/internal/ast"
	"github.com/roach88/sigil/internal/interp"
	"github.com/roach88/sigil/internal/lexer"
	"github.com/roach88/sigil/internal/parser"
)

// loadProgram reads, lexes and parses a source file. Missing files are
// command errors; lexer and parser diagnostics map to the syntax exit
// code and carry their source position in the message.
func loadProgram(path string) (*ast.Program, []lexer.Token, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to read source", err)
	}

	tokens, err := lexer.New(string(src)).Tokenize()
	if err != nil {
		return nil, nil, WrapExitError(ExitSyntaxError, "lex error", err)
	}

	prog, err := parser.New(tokens).Parse()
	if err != nil {
		return nil, tokens, WrapExitError(ExitSyntaxError, "parse error", err)
	}

	return prog, tokens, nil
}

// diagnostic renders a one-line error with its source position when the
// underlying lexer/parser/runtime error carries one.
func diagnostic(err error) string {
	var lexErr *lexer.LexerError
	if errors.As(err, &lexErr) {
		return fmt.Sprintf("✗ %s at %s", lexErr.Message, lexErr.Pos)
	}
	var parseErr *parser.ParseError
	if errors.As(err, &parseErr) {
		return fmt.Sprintf("✗ %s at %s", parseErr.Message, parseErr.Pos)
	}
	var runErr *interp.RuntimeError
	if errors.As(err, &runErr) {
		if runErr.HasPos {
			return fmt.Sprintf("✗ [%s] %s at %s", runErr.Code, runErr.Message, runErr.Pos)
		}
		return fmt.Sprintf("✗ [%s] %s", runErr.Code, runErr.Message)
	}
	return fmt.Sprintf("✗ %v", err)
}
