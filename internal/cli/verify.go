package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Resolve the log twice and check both passes agree",
		Long: `Re-read the connection log and run the chain resolver twice over it. Both
passes must produce identical chains, effective state and duplicate reports.

Exit codes:
  0 - Resolution is deterministic
  1 - The two passes differ
  2 - Command error (database not found, etc.)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, cmd)
		},
	}
}

func runVerify(opts *RootOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	a, err := openApp(opts, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	v, err := a.svc.Verify(context.Background())
	if err != nil {
		return out.Fail("failed to verify", err)
	}

	if !v.Deterministic {
		_ = out.Error("E_DETERMINISM", "determinism verification failed", nil)
		exitErr := NewExitError(ExitFailure, "determinism verification failed")
		exitErr.reported = true
		return exitErr
	}

	return out.Emit(v, func(w io.Writer) {
		fmt.Fprintf(w, "✓ chain resolution is deterministic (%d events)\n", v.Events)
		fmt.Fprintf(w, "digest %s\n", v.Digest)
	})
}
