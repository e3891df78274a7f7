package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	mio "github.com/matzehuels/chunkmaze/pkg/io"
	"github.com/matzehuels/chunkmaze/pkg/pipeline"
)

// renderCommand creates the render command for drawing an exported layout.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [layout.json]",
		Short: "Render an exported layout to dot, svg or txt",
		Long: `Render an exported layout to dot, svg or txt.

The render command takes a layout.json file (produced by 'generate -f json')
and draws it again without regrowing the level. The layout carries every chunk
pose and spawn, so this step is purely about drawing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if output == "" && !(len(opts.Formats) == 1 && opts.Formats[0] == pipeline.FormatTXT) {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0]))
			}
			return c.runRender(cmd.Context(), args[0], opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): txt (default), dot, svg, json (comma-separated)")
	cmd.Flags().IntVar(&opts.Width, "width", 0, "txt plan width in characters")
	cmd.Flags().IntVar(&opts.Height, "height", 0, "txt plan height in characters")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "annotate dot/svg nodes with pose and socket counts")

	return cmd
}

// runRender loads the layout and renders it through the runner's artifact cache.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string) error {
	layout, err := mio.ImportJSON(input)
	if err != nil {
		return fmt.Errorf("load layout %s: %w", input, err)
	}
	logger := loggerFromContext(ctx)
	logger.Debug("Loaded layout", "path", input, "chunks", len(layout.Chunks), "round", layout.Round)

	runner, err := c.newRunner(ctx, opts)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()

	artifacts, _, cacheHit, err := runner.RenderWithCacheInfo(ctx, layout, opts)
	if err != nil {
		spinner.StopWithError("Rendering failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Rendered %d artifact(s)", len(artifacts)))

	printStats(len(layout.Chunks), len(layout.DeadEnds), cacheHit)
	return c.writeArtifacts(artifacts, opts.Formats, output)
}
