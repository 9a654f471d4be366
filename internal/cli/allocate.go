package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/parttrack/internal/label"
	"github.com/roach88/parttrack/internal/parts"
)

// AllocateOptions holds flags for the allocate command.
type AllocateOptions struct {
	*RootOptions
	Kind     string
	Count    int
	Labels   bool
	LabelDir string
}

// AllocatedPart is one allocated part in command output.
type AllocatedPart struct {
	parts.Part
	Label string `json:"label,omitempty"`
}

// NewAllocateCommand creates the allocate command.
func NewAllocateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AllocateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Reserve new part numbers",
		Long: `Reserve COUNT new part numbers of the given type. Numbers are never handed
out twice. With --labels a PNG label is written for each new part.

Examples:
  parttrack allocate --type ANTENNA --count 4
  parttrack allocate --type snap --count 1 --labels --label-dir ./labels`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAllocate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "type", "", "part type (ANTENNA, LNA, COAX, BACKBOARD, SNAP)")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().IntVar(&opts.Count, "count", 1, "number of part numbers to reserve")
	cmd.Flags().BoolVar(&opts.Labels, "labels", false, "render a PNG label for each part")
	cmd.Flags().StringVar(&opts.LabelDir, "label-dir", "", "label output directory (default from config)")

	return cmd
}

func runAllocate(opts *AllocateOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	a, err := openApp(opts.RootOptions, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	allocated, err := a.svc.AllocateParts(context.Background(), opts.Kind, opts.Count)
	if err != nil {
		return out.Fail("allocation failed", err)
	}

	result := make([]AllocatedPart, len(allocated))
	for i, p := range allocated {
		result[i] = AllocatedPart{Part: p}
	}

	if opts.Labels {
		dir := opts.LabelDir
		if dir == "" {
			dir = a.cfg.LabelDir
		}
		renderer := label.NewPNGRenderer()
		for i := range result {
			path, err := label.RenderFile(renderer, dir, result[i].Part)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to write label", err)
			}
			result[i].Label = path
			out.VerboseLog("wrote %s", path)
		}
	}

	return out.Emit(map[string]interface{}{"parts": result}, func(w io.Writer) {
		for _, p := range result {
			if p.Label != "" {
				fmt.Fprintf(w, "%s\t%s\n", p.Number, p.Label)
			} else {
				fmt.Fprintln(w, p.Number)
			}
		}
	})
}
