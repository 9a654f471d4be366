package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// PruneOptions holds flags for the prune command.
type PruneOptions struct {
	*RootOptions
	Reason  string
	Yes     bool
	Confirm int
}

// PruneResult is the outcome of the prune command.
type PruneResult struct {
	Removed int      `json:"removed"`
	Parts   []string `json:"parts"`
	Token   string   `json:"token,omitempty"`
}

// NewPruneCommand creates the prune command.
func NewPruneCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PruneOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete superseded duplicate scans",
		Long: `Delete rows that no longer affect any chain: for each part, every row
except its most recent one and any row that names a connection target.

The command first lists what it would delete and then asks for two
confirmations: the number of rows, then the word "delete". For scripted use,
pass --yes together with --confirm set to the expected row count. Every
removed row is written to the audit log with the given reason.

Exit codes:
  0 - Pruned (or nothing to prune)
  1 - Aborted, confirmation mismatch, or the log changed meanwhile
  2 - Command error (database not found, etc.)

Examples:
  parttrack prune --reason "re-scan cleanup"
  parttrack prune --reason "nightly" --yes --confirm 12`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrune(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Reason, "reason", "", "why the rows are being removed (required, written to the audit log)")
	_ = cmd.MarkFlagRequired("reason")
	cmd.Flags().BoolVar(&opts.Yes, "yes", false, "skip interactive prompts (requires --confirm)")
	cmd.Flags().IntVar(&opts.Confirm, "confirm", -1, "expected number of rows to delete, used with --yes")

	return cmd
}

func runPrune(opts *PruneOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	ctx := context.Background()

	if opts.Yes && opts.Confirm < 0 {
		return NewExitError(ExitFailure, "--yes requires --confirm N")
	}

	a, err := openApp(opts.RootOptions, appOptions{audit: true})
	if err != nil {
		return err
	}
	defer a.Close()

	plan, err := a.svc.PlanPrune(ctx)
	if err != nil {
		return out.Fail("failed to plan prune", err)
	}

	if plan.Count() == 0 {
		return out.Emit(PruneResult{Removed: 0, Parts: []string{}}, func(w io.Writer) {
			fmt.Fprintln(w, "Nothing to prune.")
		})
	}

	prompt := out.GetErrWriter()
	fmt.Fprintf(prompt, "%d superseded row(s) across %d part(s):\n", plan.Count(), len(plan.Parts))
	for _, r := range plan.Rows {
		fmt.Fprintf(prompt, "  row %d %s [%s]\n", r.ID, r.PartNumber, r.Status)
	}

	if opts.Yes {
		if opts.Confirm != plan.Count() {
			return NewExitError(ExitFailure,
				fmt.Sprintf("--confirm %d does not match %d row(s) to delete", opts.Confirm, plan.Count()))
		}
	} else if err := confirmInteractive(cmd.InOrStdin(), prompt, plan.Count()); err != nil {
		return err
	}

	report, err := a.svc.ExecutePrune(ctx, plan.Token, opts.Reason)
	if err != nil {
		return out.Fail("prune failed", err)
	}

	result := PruneResult{Removed: report.Count(), Parts: report.Parts, Token: plan.Token}
	return out.Emit(result, func(w io.Writer) {
		fmt.Fprintf(w, "Removed %d row(s) from %d part(s). Audit: %s\n",
			result.Removed, len(result.Parts), a.cfg.AuditLog)
	})
}

// confirmInteractive asks for the row count and then the word "delete".
func confirmInteractive(in io.Reader, prompt io.Writer, count int) error {
	reader := bufio.NewReader(in)

	fmt.Fprintf(prompt, "Type the number of rows to delete (%d) to continue: ", count)
	answer, _ := reader.ReadString('\n')
	if n, err := strconv.Atoi(strings.TrimSpace(answer)); err != nil || n != count {
		return NewExitError(ExitFailure, "prune aborted: row count not confirmed")
	}

	fmt.Fprint(prompt, `Type "delete" to remove them permanently: `)
	answer, _ = reader.ReadString('\n')
	if strings.TrimSpace(answer) != "delete" {
		return NewExitError(ExitFailure, "prune aborted")
	}
	return nil
}
