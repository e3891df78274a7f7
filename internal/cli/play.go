package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	mio "github.com/matzehuels/chunkmaze/pkg/io"
	"github.com/matzehuels/chunkmaze/pkg/pipeline"
	"github.com/matzehuels/chunkmaze/pkg/render"
)

// Play view styles
var (
	playWallStyle    = lipgloss.NewStyle().Foreground(colorGray)
	playFloorStyle   = lipgloss.NewStyle().Foreground(colorDim)
	playExitStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	playEnemyStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	playPlayerStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	playBatteryStyle = lipgloss.NewStyle().Foreground(colorYellow)
	playStatusStyle  = lipgloss.NewStyle().Foreground(colorGray)
)

// playCommand creates the interactive viewer command.
func (c *CLI) playCommand() *cobra.Command {
	var opts pipeline.Options

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Explore a level interactively and regrow it in place",
		Long: `Explore a level interactively.

The level is drawn as a floor plan. Press r to regenerate it with a larger
budget, the way a finished level is replaced by the next one, and q to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := c.loadOptions()
			if err != nil {
				return err
			}
			return c.runPlay(cmd.Context(), mergeFlags(cmd, base, opts))
		},
	}

	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "template catalog file (.toml, .yaml, .json); default is built in")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed (0 picks one)")
	cmd.Flags().IntVarP(&opts.Budget, "budget", "b", 0, "chunk budget of the first pass")
	cmd.Flags().IntVar(&opts.BudgetStep, "step", 0, "budget growth per regeneration")
	cmd.Flags().IntVar(&opts.Batteries, "batteries", 0, "batteries to scatter over dead ends")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail when exit or enemy selection is exhausted")

	return cmd
}

// runPlay grows the first level and hands the session to the viewer.
func (c *CLI) runPlay(ctx context.Context, opts pipeline.Options) error {
	runner := pipeline.NewRunner(nil, nil, c.Logger)
	lib, _, err := runner.LoadCatalog(ctx, opts)
	if err != nil {
		return err
	}

	// The viewer owns the terminal, so generator logs are dropped.
	session, err := pipeline.NewSession(lib, opts, nil)
	if err != nil {
		return err
	}
	layout, err := session.Generate(ctx)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	model := NewPlayModel(ctx, session, layout)
	final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(PlayModel); ok && m.Layout != nil {
		printInfo("Last level: round %d, %d chunks, seed %d", m.Layout.Round, len(m.Layout.Chunks), m.Layout.Seed)
	}
	return nil
}

// =============================================================================
// PlayModel - Interactive level viewer
// =============================================================================

// regenerator is the part of a pipeline session the viewer drives.
type regenerator interface {
	Regenerate(ctx context.Context) (*mio.Layout, error)
}

// regeneratedMsg carries the result of a regeneration.
type regeneratedMsg struct {
	layout *mio.Layout
	err    error
}

// PlayModel is the bubbletea model for the level viewer.
type PlayModel struct {
	Layout *mio.Layout
	Width  int
	Height int
	Busy   bool
	Err    error

	ctx     context.Context
	session regenerator
}

// NewPlayModel creates a viewer showing layout.
func NewPlayModel(ctx context.Context, session regenerator, layout *mio.Layout) PlayModel {
	return PlayModel{
		Layout:  layout,
		Width:   pipeline.DefaultWidth,
		Height:  pipeline.DefaultHeight,
		ctx:     ctx,
		session: session,
	}
}

func (m PlayModel) Init() tea.Cmd {
	return nil
}

func (m PlayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r", "n":
			if m.Busy {
				return m, nil
			}
			m.Busy = true
			m.Err = nil
			return m, m.regenerate()
		}
	case regeneratedMsg:
		m.Busy = false
		if msg.layout != nil {
			m.Layout = msg.layout
		}
		m.Err = msg.err
	case tea.WindowSizeMsg:
		m.Width = max(msg.Width, 2)
		m.Height = max(msg.Height-3, 2)
	}
	return m, nil
}

func (m PlayModel) regenerate() tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		l, err := session.Regenerate(ctx)
		return regeneratedMsg{layout: l, err: err}
	}
}

func (m PlayModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Chunkmaze"))
	b.WriteString(" ")
	b.WriteString(playStatusStyle.Render(m.status()))
	b.WriteString("\n")

	if m.Layout != nil {
		b.WriteString(colorPlan(render.ASCII(m.Layout, m.Width, m.Height)))
	}
	b.WriteString("\n")

	switch {
	case m.Err != nil:
		b.WriteString(StyleWarning.Render(m.Err.Error()))
	case m.Busy:
		b.WriteString(StyleDim.Render("regenerating…"))
	default:
		b.WriteString(StyleDim.Render("r regenerate  q quit"))
	}
	return b.String()
}

// status summarizes the shown level on one line.
func (m PlayModel) status() string {
	l := m.Layout
	if l == nil {
		return ""
	}
	exit := "no exit"
	if l.ExitMarked {
		exit = "exit marked"
	}
	return fmt.Sprintf("round %d · budget %d · %d chunks · %d dead ends · %s · seed %d",
		l.Round, l.Budget, len(l.Chunks), len(l.DeadEnds), exit, l.Seed)
}

// colorPlan styles the glyphs of a plain floor plan.
func colorPlan(plan string) string {
	var b strings.Builder
	for _, r := range plan {
		switch r {
		case render.GlyphWall:
			b.WriteString(playWallStyle.Render(string(r)))
		case render.GlyphFloor, render.GlyphDeadEnd:
			b.WriteString(playFloorStyle.Render(string(r)))
		case render.GlyphExit:
			b.WriteString(playExitStyle.Render(string(r)))
		case render.GlyphEnemy:
			b.WriteString(playEnemyStyle.Render(string(r)))
		case render.GlyphPlayer:
			b.WriteString(playPlayerStyle.Render(string(r)))
		case render.GlyphBattery:
			b.WriteString(playBatteryStyle.Render(string(r)))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
