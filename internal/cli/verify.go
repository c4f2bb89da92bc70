package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sigil/internal/verify"
)

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "Statically verify a sigil program",
		Long: `Run the three static proofs (termination, core immutability,
genesis presence) over a program without executing it.

Exits 0 when all proofs hold and 4 when any does not; the report is
printed either way.

Example:
  sigil verify program.sgl
  sigil verify program.sgl --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runVerify(opts *RootOptions, path string, cmd *cobra.Command) error {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	prog, _, err := loadProgram(path)
	if err != nil {
		fmt.Fprintln(out.GetErrWriter(), diagnostic(err))
		return err
	}

	report := verify.Verify(prog)

	if opts.Format == "json" {
		if err := out.Success(report); err != nil {
			return err
		}
	} else {
		fmt.Fprint(cmd.OutOrStdout(), report.Summary())
	}

	if !report.AllProven() {
		return NewExitError(ExitVerifyFailure, "verification failed")
	}
	return nil
}
