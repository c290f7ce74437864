package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dialoguegraph/pkg/graph"
	"github.com/matzehuels/dialoguegraph/pkg/pipeline"
)

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	output   string   // output file (single format) or base path (multiple)
	formats  []string // dot, svg, pdf, png, json
	detailed bool     // prefix labels with node ID and type
	pinned   bool     // keep editor positions
	scale    float64  // PNG zoom
	noCache  bool
	refresh  bool
}

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var formatsStr string
	opts := exportOpts{scale: 1}

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export a dialogue as a diagram (dot, svg, pdf, png) or normalized JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			return c.runExport(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, pdf, png, json (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label nodes with their ID and type")
	cmd.Flags().BoolVar(&opts.pinned, "pinned", false, "place nodes at their editor positions")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG zoom factor")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when cached")

	return cmd
}

func (c *CLI) runExport(ctx context.Context, input string, opts *exportOpts) error {
	logger := loggerFromContext(ctx)

	doc, err := graph.ReadFile(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spin := newSpinnerWithContext(ctx, "Rendering dialogue...")
	spin.Start()
	prog := newProgress(logger)
	result, err := runner.Execute(ctx, doc, pipeline.Options{
		Formats:  opts.formats,
		Detailed: opts.detailed,
		Pinned:   opts.pinned,
		Scale:    opts.scale,
		Refresh:  opts.refresh,
		Logger:   logger,
	})
	if err != nil {
		if spin.Cancelled() {
			spin.Stop()
			return ctx.Err()
		}
		spin.StopWithError("Export failed")
		return err
	}
	spin.Stop()
	prog.done(fmt.Sprintf("Exported %d nodes", result.Stats.NodeCount))

	base := basePath(opts.output, input)
	printSuccess("Exported %s", filepath.Base(input))
	for _, format := range opts.formats {
		path := base + "." + format
		if len(opts.formats) == 1 && opts.output != "" {
			path = opts.output
		}
		if path == input {
			return fmt.Errorf("refusing to overwrite input %s", input)
		}
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return err
		}
		printFile(path)
	}
	printStats(result)
	return nil
}
