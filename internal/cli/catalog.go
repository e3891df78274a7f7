package cli

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/chunkmaze/pkg/catalog"
)

// catalogCommand creates the catalog command group.
func (c *CLI) catalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect, validate and scaffold template catalogs",
	}

	cmd.AddCommand(c.catalogValidateCommand())
	cmd.AddCommand(c.catalogShowCommand())
	cmd.AddCommand(c.catalogInitCommand())
	cmd.AddCommand(c.catalogSchemaCommand())

	return cmd
}

// catalogValidateCommand creates the "catalog validate" subcommand.
func (c *CLI) catalogValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file...]",
		Short: "Check catalog files against the schema and template rules",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed int
			for _, path := range args {
				lib, err := catalog.Load(path)
				if err != nil {
					printError("%s: %v", path, err)
					failed++
					continue
				}
				printSuccess("%s: %d reusable, %d single-use", path, len(lib.Reusable), len(lib.SingleUse))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d catalog(s) invalid", failed, len(args))
			}
			return nil
		},
	}
}

// catalogShowCommand creates the "catalog show" subcommand.
func (c *CLI) catalogShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [file]",
		Short: "List the templates of a catalog (default: built in)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib := catalog.Default()
			source := "built-in catalog"
			if len(args) == 1 {
				var err error
				if lib, err = catalog.Load(args[0]); err != nil {
					return err
				}
				source = args[0]
			}
			fmt.Fprintln(c.Out, StyleTitle.Render(source))
			fmt.Fprintln(c.Out, catalogTable(lib))
			return nil
		},
	}
}

// catalogTable renders one row per template.
func catalogTable(lib *catalog.Library) string {
	var rows [][]string
	add := func(kind string, ts []catalog.Template) {
		for _, t := range ts {
			var markers []string
			for _, p := range t.Points {
				if p.Marker != "" && !slices.Contains(markers, p.Marker) {
					markers = append(markers, p.Marker)
				}
			}
			he := t.Volume.HalfExtents
			size := fmt.Sprintf("%g×%g×%g", 2*he.X, 2*he.Y, 2*he.Z)
			marker := strings.Join(markers, ", ")
			if marker == "" {
				marker = "—"
			}
			rows = append(rows, []string{t.ID, kind, size, fmt.Sprint(len(t.Points)), marker})
		}
	}
	add("reusable", lib.Reusable)
	add("single-use", lib.SingleUse)

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(colorWhite).Padding(0, 1)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Template", "Kind", "Size", "Sockets", "Markers").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle.Padding(0, 1)
			}
			if col == 1 && rows[row][1] == "single-use" {
				return cellStyle.Foreground(colorYellow)
			}
			return cellStyle
		}).
		String()
}

// catalogInitCommand creates the "catalog init" subcommand.
func (c *CLI) catalogInitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write the built-in catalog as a starting point (.toml, .yaml or .json)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "catalog.toml"
			if len(args) == 1 {
				path = args[0]
			}
			format, err := catalog.FormatFromPath(path)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := catalog.Encode(f, catalog.Default(), format); err != nil {
				f.Close()
				return fmt.Errorf("encode catalog: %w", err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			printSuccess("Wrote catalog")
			printFile(path)
			printNextStep("Grow a level from it", appName+" generate --catalog "+path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// catalogSchemaCommand creates the "catalog schema" subcommand.
func (c *CLI) catalogSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema catalog files are checked against",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := io.WriteString(c.Out, catalog.Schema())
			return err
		},
	}
}
