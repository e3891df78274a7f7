// Package pipeline provides the generate → render pipeline for chunkmaze.
//
// This package implements the complete catalog → generate → render pipeline
// that is used by the CLI and the HTTP API. By centralizing this logic,
// both entry points share defaults, caching and output formats.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Catalog: Load the template library from a file, or use the built-in one
//  2. Generate: Grow a maze, select exit and enemy, spawn actors, and run
//     any extra regeneration rounds
//  3. Render: Produce output in the requested formats (json, dot, svg, txt)
//
// Generated layouts and rendered artifacts are cached. A layout is keyed by
// the library hash and every option that influences growth, so a seeded run
// is computed once.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Seed:    7,
//	    Budget:  12,
//	    Formats: []string{"svg", "txt"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(string(result.Artifacts["txt"]))
//
// For interactive use, a [Session] keeps the generator and its scene alive
// between regenerations:
//
//	s, err := pipeline.NewSession(lib, opts, logger)
//	layout, err := s.Generate(ctx)
//	layout, err = s.Regenerate(ctx) // budget grows by opts.BudgetStep
package pipeline

import (
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/chunkmaze/pkg/cache"
	"github.com/matzehuels/chunkmaze/pkg/catalog"
	errs "github.com/matzehuels/chunkmaze/pkg/errors"
	mio "github.com/matzehuels/chunkmaze/pkg/io"
	"github.com/matzehuels/chunkmaze/pkg/maze"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultWidth is the default floor plan width in characters.
	DefaultWidth = 80

	// DefaultHeight is the default floor plan height in characters.
	DefaultHeight = 32

	// DefaultBatchLimit bounds the number of concurrent generations in a batch.
	DefaultBatchLimit = 4

	// MaxRounds caps extra regeneration rounds per run.
	MaxRounds = 20
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatTXT  = "txt"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatTXT:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports TOML config files and JSON API requests.
type Options struct {
	// Catalog options
	Catalog string `toml:"catalog" json:"-"` // template library path; empty uses the built-in library

	// Generation options
	Seed           uint64  `toml:"seed" json:"seed,omitempty"` // zero picks a random seed
	Budget         int     `toml:"budget" json:"budget,omitempty"`
	BudgetStep     int     `toml:"budget_step" json:"budget_step,omitempty"`
	Rounds         int     `toml:"rounds" json:"rounds,omitempty"` // regenerations after the first pass
	OverlapMargin  float64 `toml:"overlap_margin" json:"overlap_margin,omitempty"`
	SelectAttempts int     `toml:"select_attempts" json:"select_attempts,omitempty"`
	Batteries      int     `toml:"batteries" json:"batteries,omitempty"`
	Strict         bool    `toml:"strict" json:"strict,omitempty"`
	Refresh        bool    `toml:"-" json:"refresh,omitempty"`

	// Render options
	Formats  []string `toml:"formats" json:"formats,omitempty"`
	Width    int      `toml:"width" json:"width,omitempty"`
	Height   int      `toml:"height" json:"height,omitempty"`
	Detailed bool     `toml:"detailed" json:"detailed,omitempty"`

	// Backend options (config file only)
	CacheDir  string `toml:"cache_dir" json:"-"`
	RedisAddr string `toml:"redis_addr" json:"-"`
	Archive   string `toml:"archive" json:"-"`

	// Runtime options (not serialized)
	Logger *log.Logger `toml:"-" json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// ID identifies the run in archives and API responses.
	ID string

	// Layout is the generated level.
	Layout *mio.Layout

	// LayoutHash is the content hash of the layout JSON.
	LayoutHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Chunks       int
	DeadEnds     int
	Anomalies    int
	GenerateTime time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errs.New(errs.ErrCodeInvalidFormat, "invalid format: %q (must be one of: json, dot, svg, txt)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// LoadOptions reads options from a TOML config file.
func LoadOptions(path string) (Options, error) {
	var o Options
	md, err := toml.DecodeFile(path, &o)
	if err != nil {
		return Options{}, errs.Wrap(errs.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Options{}, errs.New(errs.ErrCodeInvalidConfig, "config %s: unknown key %q", path, undecoded[0].String())
	}
	return o, nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForGenerate(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForGenerate checks generation fields and applies their defaults.
// A zero seed is replaced by a random one so the run can be replayed.
func (o *Options) ValidateForGenerate() error {
	if o.Seed == 0 {
		o.Seed = rand.Uint64() | 1
	}
	if o.Budget == 0 {
		o.Budget = maze.DefaultDepthBudget
	}
	if o.BudgetStep == 0 {
		o.BudgetStep = maze.DefaultBudgetStep
	}
	if o.OverlapMargin == 0 {
		o.OverlapMargin = maze.DefaultOverlapMargin
	}
	if o.SelectAttempts == 0 {
		o.SelectAttempts = maze.DefaultSelectAttempts
	}
	if o.Batteries == 0 {
		o.Batteries = maze.DefaultBatteries
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	switch {
	case o.Budget < 0:
		return errs.New(errs.ErrCodeInvalidConfig, "budget must not be negative, got %d", o.Budget)
	case o.Rounds < 0 || o.Rounds > MaxRounds:
		return errs.New(errs.ErrCodeInvalidConfig, "rounds must be in [0, %d], got %d", MaxRounds, o.Rounds)
	case o.Batteries < 0:
		return errs.New(errs.ErrCodeInvalidConfig, "batteries must not be negative, got %d", o.Batteries)
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatTXT}
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if o.Width < 2 || o.Height < 2 {
		return errs.New(errs.ErrCodeInvalidConfig, "floor plan must be at least 2x2, got %dx%d", o.Width, o.Height)
	}
	return ValidateFormats(o.Formats)
}

// Wants reports whether format was requested.
func (o *Options) Wants(format string) bool {
	return slices.Contains(o.Formats, format)
}

// GeneratorConfig maps the options onto a generator configuration for lib.
func (o *Options) GeneratorConfig(lib *catalog.Library) maze.Config {
	cfg := maze.DefaultConfig(lib)
	cfg.Seed = o.Seed
	cfg.DepthBudget = o.Budget
	cfg.BudgetStep = o.BudgetStep
	cfg.OverlapMargin = o.OverlapMargin
	cfg.SelectAttempts = o.SelectAttempts
	cfg.Batteries = o.Batteries
	cfg.StrictSelection = o.Strict
	return cfg
}

// LayoutKeyOpts returns cache key options for generation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Seed:           o.Seed,
		Budget:         o.Budget,
		BudgetStep:     o.BudgetStep,
		Rounds:         o.Rounds,
		OverlapMargin:  o.OverlapMargin,
		SelectAttempts: o.SelectAttempts,
		Batteries:      o.Batteries,
		Strict:         o.Strict,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case FormatTXT:
		k.Width, k.Height = o.Width, o.Height
	case FormatDOT, FormatSVG:
		k.Detailed = o.Detailed
	}
	return k
}

// String summarizes the options for log lines.
func (o *Options) String() string {
	return fmt.Sprintf("seed=%d budget=%d rounds=%d", o.Seed, o.Budget, o.Rounds)
}
