package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/parttrack/internal/event"
)

// ChainsOptions holds flags for the chains command.
type ChainsOptions struct {
	*RootOptions
	Part string
}

// NewChainsCommand creates the chains command.
func NewChainsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ChainsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "chains",
		Short: "Show the current assembly chains",
		Long: `Rebuild the assembly chains from the full connection log. With --part,
only chains containing a part whose number contains the given text are shown.

Examples:
  parttrack chains
  parttrack chains --part LNA00001
  parttrack chains --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChains(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Part, "part", "", "only chains containing this part")

	return cmd
}

func runChains(opts *ChainsOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	a, err := openApp(opts.RootOptions, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	set, err := a.svc.BuildChains(context.Background(), opts.Part)
	if err != nil {
		return out.Fail("failed to build chains", err)
	}

	return out.Emit(set, func(w io.Writer) {
		if len(set.Chains) == 0 {
			fmt.Fprintln(w, "No chains found.")
			return
		}
		fmt.Fprintf(w, "%d chain(s)\n", len(set.Chains))
		for i, c := range set.Chains {
			labels := make([]string, len(c))
			for j, p := range c {
				if k, ok := set.Kinds[p]; ok {
					labels[j] = fmt.Sprintf("%s[%s]", p, k)
				} else {
					labels[j] = p
				}
			}
			fmt.Fprintf(w, "  %d. %s\n", i+1, strings.Join(labels, " -> "))
		}
		if opts.Verbose && len(set.Loops) > 0 {
			fmt.Fprintf(w, "%d loop(s) closed during traversal\n", len(set.Loops))
			for _, l := range set.Loops {
				fmt.Fprintf(w, "  %s\n", strings.Join(l.Parts, " -> "))
			}
		}
	})
}

// NewDuplicatesCommand creates the duplicates command.
func NewDuplicatesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicates",
		Short: "List parts scanned more than once",
		Long: `Show every raw record of parts that appear more than once in the log.
This is diagnostic only: chains always use each part's latest scan.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDuplicates(rootOpts, cmd)
		},
	}
}

func runDuplicates(opts *RootOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	a, err := openApp(opts, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	dups, err := a.svc.DuplicateReport(context.Background())
	if err != nil {
		return out.Fail("failed to build duplicate report", err)
	}

	return out.Emit(map[string]interface{}{"duplicates": dups}, func(w io.Writer) {
		if len(dups) == 0 {
			fmt.Fprintln(w, "No duplicate scans.")
			return
		}
		partList := make([]string, 0, len(dups))
		for p := range dups {
			partList = append(partList, p)
		}
		sort.Strings(partList)
		for _, p := range partList {
			fmt.Fprintf(w, "%s (%d scans)\n", p, len(dups[p]))
			for _, r := range dups[p] {
				fmt.Fprintf(w, "  %s\n", describeRecord(r))
			}
		}
	})
}

func describeRecord(r event.Record) string {
	target := r.ConnectedTo
	if target == "" {
		target = "(none)"
	}
	return fmt.Sprintf("%s -> %s [%s]", r.ScanTime.Format(time.RFC3339), target, r.Status)
}
