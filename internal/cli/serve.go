package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/chunkmaze/pkg/archive"
	"github.com/matzehuels/chunkmaze/pkg/pipeline"
	"github.com/matzehuels/chunkmaze/pkg/server"
)

// serveCommand creates the HTTP API command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr        string
		maxSessions int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the generation API over HTTP and WebSocket",
		Long: `Serve the generation API.

Levels are created with POST /v1/mazes, regrown with POST /v1/mazes/{id}/regenerate
and drawn with GET /v1/mazes/{id}/{format}. GET /v1/stream follows a generation
event by event over a WebSocket. Runs are archived to the store named by
--archive (or the archive key of the options file).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.loadOptions()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("archive") {
				opts.Archive, _ = cmd.Flags().GetString("archive")
			}
			if cmd.Flags().Changed("catalog") {
				opts.Catalog, _ = cmd.Flags().GetString("catalog")
			}
			return c.runServe(cmd.Context(), addr, maxSessions, opts)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().IntVar(&maxSessions, "max-sessions", server.DefaultMaxSessions, "live sessions kept for regeneration")
	cmd.Flags().String("archive", "", "archive runs to memory, sqlite:<path> or a mongodb:// URI")
	cmd.Flags().String("catalog", "", "template catalog file (.toml, .yaml, .json); default is built in")

	return cmd
}

// runServe wires the runner, catalog and archive into the server and blocks
// until ctx is cancelled.
func (c *CLI) runServe(ctx context.Context, addr string, maxSessions int, opts pipeline.Options) error {
	runner, err := c.newRunner(ctx, opts)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	lib, _, err := runner.LoadCatalog(ctx, opts)
	if err != nil {
		return err
	}

	store, err := archive.Open(ctx, opts.Archive)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer store.Close()

	srv := server.New(runner, lib, store,
		server.WithLogger(c.Logger),
		server.WithMaxSessions(maxSessions),
		server.WithDefaults(opts))

	archiveName := opts.Archive
	if archiveName == "" {
		archiveName = "memory"
	}
	catalogName := opts.Catalog
	if catalogName == "" {
		catalogName = "built in"
	}
	printSuccess("Listening on %s", StyleHighlight.Render(addr))
	printKeyValue("Catalog", fmt.Sprintf("%s (%d templates)", catalogName, lib.Len()))
	printKeyValue("Archive", archiveName)
	printKeyValue("Sessions", fmt.Sprint(maxSessions))
	return srv.ListenAndServe(ctx, addr)
}
