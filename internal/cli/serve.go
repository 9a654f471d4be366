package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/parttrack/internal/web"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and Prometheus metrics",
		Long: `Start the HTTP server. It runs until interrupted and then shuts down
gracefully. The server is disabled when interfaces.web is false.

Examples:
  parttrack serve
  parttrack serve --addr :9090`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides config)")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions) error {
	metrics := web.NewMetrics()

	a, err := openApp(opts.RootOptions, appOptions{observer: metrics})
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.cfg.Interfaces.Web {
		return NewExitError(ExitCommandError, "web interface is disabled in config (interfaces.web)")
	}

	httpCfg := a.cfg.HTTP
	if opts.Addr != "" {
		httpCfg.Addr = opts.Addr
	}

	server := web.NewServer(a.svc, metrics, httpCfg, a.logger)
	if err := server.Run(ctx); err != nil {
		return WrapExitError(ExitCommandError, "server failed", err)
	}
	return nil
}
