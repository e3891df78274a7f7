package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/chunkmaze/pkg/buildinfo"
	"github.com/matzehuels/chunkmaze/pkg/cache"
	"github.com/matzehuels/chunkmaze/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "chunkmaze"

	// configFile is looked up in the working directory when --config is unset.
	configFile = "chunkmaze.toml"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command output (rendered text, tables, paths).
	Out io.Writer

	configPath string
	noCache    bool
	redisAddr  string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Chunkmaze grows procedural levels from prefab chunks",
		Long:         `Chunkmaze assembles levels from a catalog of room and corridor templates, joining them socket to socket until a budget is spent, then places an exit, an enemy, batteries and the player.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "options file (default: ./"+configFile+" if present)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the layout and artifact cache")
	root.PersistentFlags().StringVar(&c.redisAddr, "redis", "", "use a Redis cache at this address instead of the file cache")

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.catalogCommand())
	root.AddCommand(c.playCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Options & Runner Factory
// =============================================================================

// loadOptions reads the options file named by --config, or ./chunkmaze.toml
// when it exists. Flags are applied on top by each command.
func (c *CLI) loadOptions() (pipeline.Options, error) {
	path := c.configPath
	if path == "" {
		if _, err := os.Stat(configFile); err != nil {
			return pipeline.Options{}, nil
		}
		path = configFile
	}
	c.Logger.Debug("Loading options", "path", path)
	opts, err := pipeline.LoadOptions(path)
	if err != nil {
		return pipeline.Options{}, err
	}
	if c.redisAddr == "" {
		c.redisAddr = opts.RedisAddr
	}
	return opts, nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, opts pipeline.Options) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, opts)
	if err != nil {
		return nil, err
	}
	if cache.IsNull(ch) {
		c.Logger.Debug("Caching disabled")
	}
	return pipeline.NewRunner(ch, nil, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, opts pipeline.Options) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	if c.redisAddr != "" {
		c.Logger.Debug("Using Redis cache", "addr", c.redisAddr)
		return cache.NewRedisCache(ctx, c.redisAddr, "", 0)
	}
	dir := opts.CacheDir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/chunkmaze/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatTXT}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
