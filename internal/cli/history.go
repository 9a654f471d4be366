package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history PART",
		Short: "Show every scan mentioning PART",
		Long: `List every row of the connection log where PART is either the scanned
part or the connection target, oldest first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, cmd, args[0])
		},
	}
}

func runHistory(opts *RootOptions, cmd *cobra.Command, part string) error {
	out := opts.formatter(cmd)

	a, err := openApp(opts, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	events, err := a.svc.History(context.Background(), part)
	if err != nil {
		return out.Fail("failed to load history", err)
	}

	return out.Emit(map[string]interface{}{"events": events}, func(w io.Writer) {
		for _, e := range events {
			target := e.ConnectedTo
			if target == "" {
				target = "(none)"
			}
			fmt.Fprintf(w, "%s  row %-5d %s -> %s [%s]\n",
				e.ScanTime.Format(time.RFC3339), e.ID, e.PartNumber, target, e.Status)
		}
	})
}

// NewLastUpdateCommand creates the last-update command.
func NewLastUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "last-update",
		Short:         "Show the time of the most recent scan",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLastUpdate(rootOpts, cmd)
		},
	}
}

func runLastUpdate(opts *RootOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	a, err := openApp(opts, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	ts, err := a.svc.LastUpdateTimestamp(context.Background())
	if err != nil {
		return out.Fail("failed to read last update", err)
	}

	return out.Emit(map[string]interface{}{"last_update": ts}, func(w io.Writer) {
		if ts == nil {
			fmt.Fprintln(w, "No scans recorded.")
			return
		}
		fmt.Fprintln(w, ts.Format(time.RFC3339))
	})
}
