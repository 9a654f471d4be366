package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/parttrack/internal/tracker"
)

// DisconnectOptions holds flags for the disconnect command.
type DisconnectOptions struct {
	*RootOptions
	Target   string
	ScanTime string
}

// NewDisconnectCommand creates the disconnect command.
func NewDisconnectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DisconnectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "disconnect PART",
		Short: "Record that PART no longer has an outgoing connection",
		Long: `Record a disconnection scan. The part ends any chain it is in until it is
connected again. Repeating a disconnection is harmless.

Examples:
  parttrack disconnect LNA00001
  parttrack disconnect LNA00001 --target COAX00001`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDisconnect(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Target, "target", "", "part being disconnected from (kept for history)")
	cmd.Flags().StringVar(&opts.ScanTime, "scan-time", "", "scan time (RFC 3339, default now)")

	return cmd
}

func runDisconnect(opts *DisconnectOptions, cmd *cobra.Command, part string) error {
	out := opts.formatter(cmd)

	scanTime, err := parseOptionalTime(opts.ScanTime)
	if err != nil {
		return WrapExitError(ExitFailure, "invalid --scan-time", err)
	}

	a, err := openApp(opts.RootOptions, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	rows, err := a.svc.RecordDisconnection(context.Background(), tracker.DisconnectRequest{
		Part:     part,
		Target:   opts.Target,
		ScanTime: scanTime,
	})
	if err != nil {
		return out.Fail("disconnect failed", err)
	}

	return out.Emit(map[string]interface{}{"events": rows}, func(w io.Writer) {
		printRows(w, "Disconnected", rows)
	})
}
