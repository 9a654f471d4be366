package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/parttrack/internal/event"
	"github.com/roach88/parttrack/internal/tracker"
)

// ConnectOptions holds flags for the connect command.
type ConnectOptions struct {
	*RootOptions
	PartType           string
	Polarization       string
	TargetType         string
	TargetPolarization string
	ScanTime           string
	TargetScanTime     string
}

// NewConnectCommand creates the connect command.
func NewConnectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConnectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "connect PART TARGET",
		Short: "Record that PART is connected to TARGET",
		Long: `Record one connection scan. Part numbers are normalized and validated
against the part catalog before anything is written.

Exit codes:
  0 - Connection recorded
  1 - Rejected (invalid part number, illegal ordering, conflict)
  2 - Command error (database or config problem)

Examples:
  parttrack connect ANT00001 LNA00001 --polarization E
  parttrack connect LNA00001 COAX00001 --scan-time 2025-03-01T12:00:00Z`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConnect(opts, cmd, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.PartType, "type", "", "declared type of PART (checked against its number)")
	cmd.Flags().StringVar(&opts.Polarization, "polarization", "", "polarization of PART")
	cmd.Flags().StringVar(&opts.TargetType, "target-type", "", "declared type of TARGET")
	cmd.Flags().StringVar(&opts.TargetPolarization, "target-polarization", "", "polarization of TARGET")
	cmd.Flags().StringVar(&opts.ScanTime, "scan-time", "", "scan time (RFC 3339, default now)")
	cmd.Flags().StringVar(&opts.TargetScanTime, "target-scan-time", "", "scan time of TARGET (RFC 3339)")

	return cmd
}

func runConnect(opts *ConnectOptions, cmd *cobra.Command, part, target string) error {
	out := opts.formatter(cmd)

	scanTime, err := parseOptionalTime(opts.ScanTime)
	if err != nil {
		return WrapExitError(ExitFailure, "invalid --scan-time", err)
	}
	targetScanTime, err := parseOptionalTime(opts.TargetScanTime)
	if err != nil {
		return WrapExitError(ExitFailure, "invalid --target-scan-time", err)
	}

	a, err := openApp(opts.RootOptions, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	rows, err := a.svc.RecordConnection(context.Background(), tracker.ConnectRequest{
		Part:               part,
		PartType:           opts.PartType,
		Polarization:       opts.Polarization,
		Target:             target,
		TargetType:         opts.TargetType,
		TargetPolarization: opts.TargetPolarization,
		ScanTime:           scanTime,
		TargetScanTime:     targetScanTime,
	})
	if err != nil {
		return out.Fail("connect failed", err)
	}

	return out.Emit(map[string]interface{}{"events": rows}, func(w io.Writer) {
		printRows(w, "Connected", rows)
	})
}

// parseOptionalTime parses an RFC 3339 timestamp; empty means nil.
func parseOptionalTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

func printRows(w io.Writer, verb string, rows []event.ConnectionEvent) {
	for _, r := range rows {
		target := r.ConnectedTo
		if target == "" {
			target = "(none)"
		}
		fmt.Fprintf(w, "%s %s -> %s at %s (row %d)\n",
			verb, r.PartNumber, target, r.ScanTime.Format(time.RFC3339), r.ID)
	}
}
