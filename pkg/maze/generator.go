package maze

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/chunkmaze/pkg/catalog"
	errs "github.com/matzehuels/chunkmaze/pkg/errors"
	"github.com/matzehuels/chunkmaze/pkg/geom"
	"github.com/matzehuels/chunkmaze/pkg/observability"
	"github.com/matzehuels/chunkmaze/pkg/oracle"
	"github.com/matzehuels/chunkmaze/pkg/scene"
)

// Report summarizes a finished pass.
type Report struct {
	Maze      *Maze
	Selection Selection
	// Exit is the marker decorated as the exit, if any.
	Exit      scene.Handle
	Enemy     scene.Handle
	Batteries []scene.Handle
	Player    scene.Handle
	// Round is 0 for the first generation and counts regenerations after that.
	Round  int
	Budget int
	// Anomalies are the tolerated failures of the pass: exhausted selections
	// and skipped spawns.
	Anomalies []error
	Duration  time.Duration
}

// Option configures a [Generator].
type Option func(*Generator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option { return func(g *Generator) { g.logger = l } }

// WithHooks overrides the globally registered generation hooks.
func WithHooks(h observability.GenerationHooks) Option { return func(g *Generator) { g.hooks = h } }

// WithRand replaces the seeded random source.
func WithRand(r Rand) Option { return func(g *Generator) { g.rng = r } }

// WithNavBaker sets the navigation baker. By default the scene is used if it
// implements [scene.NavBaker]; otherwise baking is a no-op.
func WithNavBaker(b scene.NavBaker) Option { return func(g *Generator) { g.baker = b } }

type drawable struct {
	tmpl      *catalog.Template
	singleUse bool
}

// Generator owns the level of one scene across generations.
type Generator struct {
	cfg    Config
	scene  scene.Scene
	oracle oracle.Oracle
	baker  scene.NavBaker
	rng    Rand
	logger *log.Logger
	hooks  observability.GenerationHooks

	budget int
	round  int
	root   scene.Handle

	maze      *Maze
	pool      []drawable
	exit      scene.Handle
	enemy     scene.Handle
	batteries []scene.Handle
	player    scene.Handle
	selection Selection
	anomalies []error
}

// NewGenerator validates cfg and returns a generator building into sc.
// A nil oracle defaults to [oracle.SAT].
func NewGenerator(cfg Config, sc scene.Scene, o oracle.Oracle, opts ...Option) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "no scene to build into")
	}
	if o == nil {
		o = oracle.SAT{}
	}
	g := &Generator{
		cfg:    cfg,
		scene:  sc,
		oracle: o,
		budget: cfg.DepthBudget,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = NewRand(cfg.Seed)
	}
	if g.logger == nil {
		g.logger = log.New(io.Discard)
	}
	if g.baker == nil {
		if b, ok := sc.(scene.NavBaker); ok {
			g.baker = b
		} else {
			g.baker = scene.BakerFunc(func() {})
		}
	}
	return g, nil
}

// Config returns the generator's configuration.
func (g *Generator) Config() Config { return g.cfg }

// Budget returns the depth budget the next pass will use.
func (g *Generator) Budget() int { return g.budget }

// Round returns the number of regenerations performed.
func (g *Generator) Round() int { return g.round }

// Maze returns the current level, or nil before the first pass.
func (g *Generator) Maze() *Maze { return g.maze }

func (g *Generator) events() observability.GenerationHooks {
	if g.hooks != nil {
		return g.hooks
	}
	return observability.Generation()
}

// Generate runs a first-time pass: grow, bake, select, then spawn batteries
// and the player. A player already present in the scene is reused.
//
// The returned error is non-nil only in strict selection mode, when the exit
// or enemy search was exhausted; the report is complete either way.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	start := time.Now()
	g.teardown()
	g.anomalies = nil

	g.Grow(ctx, g.budget)
	g.baker.Bake()
	err := g.selectAndMark(ctx)
	g.Populate(ctx, true)

	rep := g.report(time.Since(start))
	g.logger.Info("generated maze",
		"chunks", len(rep.Maze.Chunks),
		"depth", rep.Maze.Depth,
		"budget", rep.Budget,
		"dead_ends", len(rep.Maze.DeadEnds),
		"duration", rep.Duration)
	return rep, err
}

// Regenerate destroys the current level along with the enemy and batteries
// spawned for it, raises the budget by the configured step and runs a new
// pass. The existing player is moved to the anchor with its controller
// disabled around the move; it is never recreated.
func (g *Generator) Regenerate(ctx context.Context) (*Report, error) {
	start := time.Now()
	g.teardown()
	g.anomalies = nil
	g.budget += g.cfg.BudgetStep
	g.round++

	g.Grow(ctx, g.budget)
	g.baker.Bake()
	err := g.selectAndMark(ctx)
	g.repositionPlayer()
	g.Populate(ctx, false)

	rep := g.report(time.Since(start))
	g.logger.Info("regenerated maze",
		"round", g.round,
		"chunks", len(rep.Maze.Chunks),
		"depth", rep.Maze.Depth,
		"budget", rep.Budget,
		"duration", rep.Duration)
	return rep, err
}

func (g *Generator) repositionPlayer() {
	h, ok := g.scene.Find(scene.KindPlayer)
	if !ok {
		g.logger.Warn("no player to reposition")
		g.player = ""
		return
	}
	g.player = h
	g.scene.SetControllerEnabled(h, false)
	g.scene.Move(h, g.cfg.PlayerAnchor)
	g.scene.SetControllerEnabled(h, true)
}

// teardown destroys everything the previous pass spawned except the player
// and the maze root.
func (g *Generator) teardown() {
	if g.maze != nil {
		for _, c := range g.maze.Chunks {
			if c.Handle != "" {
				g.scene.Destroy(c.Handle)
			}
		}
	}
	if g.enemy != "" {
		g.scene.Destroy(g.enemy)
	}
	for _, b := range g.batteries {
		g.scene.Destroy(b)
	}
	g.maze = nil
	g.exit = ""
	g.enemy = ""
	g.batteries = nil
	g.selection = Selection{}
}

func (g *Generator) anomaly(err error) {
	g.anomalies = append(g.anomalies, err)
}

func (g *Generator) report(d time.Duration) *Report {
	return &Report{
		Maze:      g.maze,
		Selection: g.selection,
		Exit:      g.exit,
		Enemy:     g.enemy,
		Batteries: append([]scene.Handle(nil), g.batteries...),
		Player:    g.player,
		Round:     g.round,
		Budget:    g.budget,
		Anomalies: append([]error(nil), g.anomalies...),
		Duration:  d,
	}
}

// world maps a root-frame pose to the world.
func (g *Generator) world(p geom.Pose) geom.Pose {
	return g.cfg.Root.Compose(p)
}
