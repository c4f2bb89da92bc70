package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	Tokens bool
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Check a sigil program's syntax",
		Long: `Lex and parse a source file, reporting the first diagnostic with
its position. With --tokens the full token stream is dumped, which is
the fastest way to see how the lexer reads an unfamiliar glyph.

Example:
  sigil parse program.sgl
  sigil parse program.sgl --tokens`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Tokens, "tokens", false, "dump the token stream")

	return cmd
}

func runParse(opts *ParseOptions, path string, cmd *cobra.Command) error {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	prog, tokens, err := loadProgram(path)

	// The token dump is useful even when parsing failed, as long as the
	// lexer got through.
	if opts.Tokens && tokens != nil {
		for _, tok := range tokens {
			fmt.Fprintln(cmd.OutOrStdout(), tok)
		}
	}

	if err != nil {
		fmt.Fprintln(out.GetErrWriter(), diagnostic(err))
		return err
	}

	genesis := "absent"
	if prog.Genesis != nil {
		genesis = "present"
	}
	return out.Success(fmt.Sprintf("✓ parsed %d blocks, genesis %s", len(prog.Blocks), genesis))
}
