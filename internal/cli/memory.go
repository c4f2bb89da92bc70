package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/sigil/internal/interp"
	"github.com/roach88/sigil/internal/store"
)

// MemoryOptions holds flags for the memory command.
type MemoryOptions struct {
	*RootOptions
	Database string
}

// NewMemoryCommand creates the memory command.
func NewMemoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MemoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect the persisted Memory snapshot",
		Long: `Print the Memory entries persisted in a database, one key per
line with its value and TTL.

Example:
  sigil memory --db ./memory.db
  sigil memory --db ./memory.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMemory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runMemory(opts *MemoryOptions, cmd *cobra.Command) error {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Snapshot inspection has no run limits; load without a cap.
	mem, err := st.LoadMemory(ctx, int(^uint(0)>>1), time.Now)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load memory", err)
	}

	if opts.Format == "json" {
		return out.Success(interp.ToJSONValue(mem.Snapshot()))
	}

	keys := mem.Keys()
	if len(keys) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "memory empty")
		return nil
	}
	for _, key := range keys {
		v, _ := mem.Get(key)
		if ttl := mem.TTL(key); ttl > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s (ttl %gs)\n", key, interp.ToString(v), ttl)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, interp.ToString(v))
		}
	}
	return nil
}
