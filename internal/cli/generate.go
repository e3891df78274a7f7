package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/chunkmaze/pkg/archive"
	"github.com/matzehuels/chunkmaze/pkg/pipeline"
)

// generateFlags holds flag values that are applied over the options file
// only when set on the command line.
type generateFlags struct {
	formats string
	output  string
	count   int
	limit   int
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		flags generateFlags
		opts  pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Grow a level and write it as json, dot, svg or txt",
		Long: `Grow a level from the template catalog and write the requested artifacts.

Without --output, a txt plan is printed to stdout and other formats are
written next to the working directory as maze.<format>. With --count, a batch
of levels is generated with consecutive seeds.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := c.loadOptions()
			if err != nil {
				return err
			}
			merged := mergeFlags(cmd, base, opts)
			if cmd.Flags().Changed("format") || len(merged.Formats) == 0 {
				merged.Formats = parseFormats(flags.formats)
			}
			if err := pipeline.ValidateFormats(merged.Formats); err != nil {
				return err
			}
			return c.runGenerate(cmd.Context(), merged, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "output format(s): txt (default), json, dot, svg (comma-separated)")
	cmd.Flags().IntVarP(&flags.count, "count", "n", 1, "number of levels to generate with consecutive seeds")
	cmd.Flags().IntVar(&flags.limit, "parallel", pipeline.DefaultBatchLimit, "concurrent generations in a batch")

	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "template catalog file (.toml, .yaml, .json); default is built in")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed (0 picks one)")
	cmd.Flags().IntVarP(&opts.Budget, "budget", "b", 0, "chunk budget of the first pass")
	cmd.Flags().IntVar(&opts.BudgetStep, "step", 0, "budget growth per regeneration")
	cmd.Flags().IntVarP(&opts.Rounds, "rounds", "r", 0, "regenerations after the first pass")
	cmd.Flags().IntVar(&opts.Batteries, "batteries", 0, "batteries to scatter over dead ends")
	cmd.Flags().IntVar(&opts.SelectAttempts, "attempts", 0, "candidate draws for exit and enemy selection")
	cmd.Flags().Float64Var(&opts.OverlapMargin, "margin", 0, "collision margin between chunk volumes")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail when exit or enemy selection is exhausted")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore cached layouts and artifacts")
	cmd.Flags().IntVar(&opts.Width, "width", 0, "txt plan width in characters")
	cmd.Flags().IntVar(&opts.Height, "height", 0, "txt plan height in characters")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "annotate dot/svg nodes with pose and socket counts")
	cmd.Flags().StringVar(&opts.Archive, "archive", "", "archive runs to memory, sqlite:<path> or a mongodb:// URI")

	return cmd
}

// mergeFlags applies every flag the user set explicitly over base.
func mergeFlags(cmd *cobra.Command, base, flags pipeline.Options) pipeline.Options {
	set := cmd.Flags().Changed
	if set("catalog") {
		base.Catalog = flags.Catalog
	}
	if set("seed") {
		base.Seed = flags.Seed
	}
	if set("budget") {
		base.Budget = flags.Budget
	}
	if set("step") {
		base.BudgetStep = flags.BudgetStep
	}
	if set("rounds") {
		base.Rounds = flags.Rounds
	}
	if set("batteries") {
		base.Batteries = flags.Batteries
	}
	if set("attempts") {
		base.SelectAttempts = flags.SelectAttempts
	}
	if set("margin") {
		base.OverlapMargin = flags.OverlapMargin
	}
	if set("strict") {
		base.Strict = flags.Strict
	}
	if set("refresh") {
		base.Refresh = flags.Refresh
	}
	if set("width") {
		base.Width = flags.Width
	}
	if set("height") {
		base.Height = flags.Height
	}
	if set("detailed") {
		base.Detailed = flags.Detailed
	}
	if set("archive") {
		base.Archive = flags.Archive
	}
	return base
}

// runGenerate executes the pipeline once or as a batch and writes the results.
func (c *CLI) runGenerate(ctx context.Context, opts pipeline.Options, flags generateFlags) error {
	if flags.count < 1 {
		return fmt.Errorf("--count must be at least 1")
	}

	logger := loggerFromContext(ctx)
	logger.Debug("Generating", "count", flags.count, "seed", opts.Seed, "budget", opts.Budget)

	runner, err := c.newRunner(ctx, opts)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(logger)

	msg := "Growing level..."
	if flags.count > 1 {
		msg = fmt.Sprintf("Growing %d levels...", flags.count)
	}
	spinner := newSpinnerWithContext(ctx, msg)
	spinner.Start()

	var results []*pipeline.Result
	if flags.count == 1 {
		var res *pipeline.Result
		res, err = runner.Execute(ctx, opts)
		if res != nil {
			results = []*pipeline.Result{res}
		}
	} else {
		results, err = runner.Batch(ctx, opts, flags.count, flags.limit)
	}
	if err != nil {
		spinner.StopWithError("Generation failed")
		return fmt.Errorf("generate: %w", err)
	}
	if opts.Archive != "" {
		spinner.Update("Archiving runs...")
		if err := c.archiveResults(ctx, opts.Archive, results); err != nil {
			spinner.StopWithError("Archiving failed")
			return err
		}
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Generated %d level(s)", len(results)))
	if opts.Archive != "" {
		printInfo("Archived %d run(s)", len(results))
	}

	for i, res := range results {
		base := flags.output
		if len(results) > 1 {
			base = batchBase(flags.output, i)
		}
		printSuccess("Level %s (seed %d)", StyleHighlight.Render(res.ID), res.Layout.Seed)
		printStats(res.Stats.Chunks, res.Stats.DeadEnds, res.CacheInfo.LayoutHit && res.CacheInfo.RenderHit)
		for _, a := range res.Layout.Anomalies {
			printWarning("%s", a)
		}
		if err := c.writeArtifacts(res.Artifacts, opts.Formats, base); err != nil {
			return err
		}
	}

	if len(results) == 1 && !opts.Wants(pipeline.FormatJSON) {
		printNextStep("Export the layout for later rendering", appName+" generate -f json -o level")
	}
	return nil
}

// archiveResults stores every result in the archive named by dsn.
func (c *CLI) archiveResults(ctx context.Context, dsn string, results []*pipeline.Result) error {
	store, err := archive.Open(ctx, dsn)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer store.Close()

	for _, res := range results {
		run, err := archive.NewRun(res.Layout)
		if err != nil {
			return err
		}
		if err := store.Put(ctx, run); err != nil {
			return fmt.Errorf("archive %s: %w", res.ID, err)
		}
	}
	return nil
}

// batchBase returns the base path for the i-th level of a batch.
func batchBase(output string, i int) string {
	if output == "" {
		output = "maze"
	}
	return fmt.Sprintf("%s-%03d", stripFormatExt(output), i+1)
}

// stripFormatExt removes a known format extension from path.
func stripFormatExt(path string) string {
	ext := filepath.Ext(path)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(path, ext)
	}
	return path
}

// writeArtifacts writes artifacts in the requested order. A lone txt artifact
// without an output path goes to stdout.
func (c *CLI) writeArtifacts(artifacts map[string][]byte, formats []string, output string) error {
	if output == "" && len(formats) == 1 && formats[0] == pipeline.FormatTXT {
		_, err := c.Out.Write(artifacts[pipeline.FormatTXT])
		return err
	}

	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		path := artifactPath(output, format, len(formats))
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// artifactPath derives the file name for one format. A single format keeps
// an explicit output name as given.
func artifactPath(output, format string, n int) string {
	if output == "" {
		return "maze." + format
	}
	if n == 1 && filepath.Ext(output) != "" {
		return output
	}
	return stripFormatExt(output) + "." + format
}
