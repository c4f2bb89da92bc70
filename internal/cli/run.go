package cli

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/sigil/internal/interp"
	"github.com/roach88/sigil/internal/store"
	"github.com/roach88/sigil/internal/verify"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Limits   string
	Verify   bool

	// IDGenerator allows overriding the event ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator interp.EventIDGenerator

	// Now allows overriding the clock (for testing).
	Now func() time.Time
}

// RunSummary is the structured payload printed after a successful run.
type RunSummary struct {
	GenesisValid bool           `json:"genesis_valid"`
	Iterations   int            `json:"iterations"`
	ElapsedSecs  float64        `json:"elapsed_seconds"`
	Outputs      map[string]int `json:"outputs"`
	Logs         []string       `json:"logs,omitempty"`
	Result       any            `json:"result,omitempty"`
	Memory       any            `json:"memory,omitempty"`
}

func (s RunSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "genesis valid: %v\n", s.GenesisValid)
	fmt.Fprintf(&b, "iterations:    %d\n", s.Iterations)
	fmt.Fprintf(&b, "elapsed:       %.3fs\n", s.ElapsedSecs)
	if len(s.Outputs) == 0 {
		b.WriteString("outputs:       none")
	} else {
		b.WriteString("outputs:      ")
		for _, kind := range sortedKinds(s.Outputs) {
			fmt.Fprintf(&b, " %d %s", s.Outputs[kind], kind)
		}
	}
	return b.String()
}

func sortedKinds(m map[string]int) []string {
	kinds := make([]string, 0, len(m))
	for k := range m {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Execute a sigil program",
		Long: `Execute a sigil source file under hard resource limits.

Prints a short execution summary, or the full structured result with
--verbose. With --db, the Memory store is loaded from the database
before the run and the final snapshot is saved back after. With
--verify, the static verifier runs first and the program is not
executed unless all three proofs hold.

Example:
  sigil run program.sgl
  sigil run program.sgl --db ./memory.db --verbose
  sigil run program.sgl --verify --limits limits.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgram(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database for Memory persistence")
	cmd.Flags().StringVar(&opts.Limits, "limits", "", "path to YAML limits file")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "verify the program before executing")

	return cmd
}

func runProgram(opts *RunOptions, path string, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	limits := interp.DefaultLimits()
	if opts.Limits != "" {
		var err error
		limits, err = interp.LoadLimits(opts.Limits)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load limits", err)
		}
	}

	prog, _, err := loadProgram(path)
	if err != nil {
		fmt.Fprintln(out.GetErrWriter(), diagnostic(err))
		return err
	}

	if opts.Verify {
		report := verify.Verify(prog)
		if !report.AllProven() {
			_ = out.Error("VERIFICATION_FAILED", "program not proven safe", report.Proofs)
			return NewExitError(ExitVerifyFailure, "verification failed")
		}
		slog.Debug("verification passed")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	idGen := opts.IDGenerator
	if idGen == nil {
		idGen = interp.UUIDv7Generator{}
	}

	interpOpts := []interp.Option{
		interp.WithNow(now),
		interp.WithEventIDs(idGen),
	}

	var st *store.Store
	if opts.Database != "" {
		slog.Debug("opening database", "path", opts.Database)
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()

		mem, err := st.LoadMemory(ctx, limits.MaxMemoryEntries, now)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load memory", err)
		}
		interpOpts = append(interpOpts, interp.WithMemory(mem))
		slog.Debug("memory loaded", "entries", mem.Len())
	}

	in := interp.New(limits, interpOpts...)
	result, execErr := in.Execute(prog)

	// Partial results are saved even when the run failed, so the next
	// run observes every mutation made before the failure point.
	if st != nil {
		if saveErr := st.SaveMemory(ctx, in.Memory()); saveErr != nil {
			slog.Error("failed to save memory", "error", saveErr)
			if execErr == nil {
				return WrapExitError(ExitCommandError, "failed to save memory", saveErr)
			}
		}
	}

	if execErr != nil {
		fmt.Fprintln(out.GetErrWriter(), diagnostic(execErr))
		slog.Debug("partial results",
			"outputs", len(result.Outputs),
			"logs", len(result.Logs),
			"iterations", result.Iterations)
		return WrapExitError(ExitFailure, "execution failed", execErr)
	}

	return out.Success(buildSummary(result, opts.Verbose))
}

// buildSummary condenses a result into the printable payload. Verbose
// mode includes logs, the final value, and the Memory snapshot.
func buildSummary(result *interp.Result, verbose bool) RunSummary {
	outputs := make(map[string]int)
	for _, ev := range result.Outputs {
		outputs[ev.Type]++
	}

	summary := RunSummary{
		GenesisValid: result.GenesisValid,
		Iterations:   result.Iterations,
		ElapsedSecs:  result.Elapsed.Seconds(),
		Outputs:      outputs,
	}
	if verbose {
		summary.Logs = result.Logs
		summary.Result = interp.ToJSONValue(result.Value)
		summary.Memory = interp.ToJSONValue(result.Memory)
	}
	return summary
}
