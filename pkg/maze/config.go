package maze

import (
	"github.com/matzehuels/chunkmaze/pkg/catalog"
	errs "github.com/matzehuels/chunkmaze/pkg/errors"
	"github.com/matzehuels/chunkmaze/pkg/geom"
	"github.com/matzehuels/chunkmaze/pkg/scene"
)

// Defaults used by [DefaultConfig].
const (
	DefaultDepthBudget    = 10
	DefaultBudgetStep     = 5
	DefaultOverlapMargin  = 1.0
	DefaultSelectAttempts = 100
	DefaultBatteries      = 3
	DefaultBatterySpread  = 4.0
	DefaultSpawnHeight    = 1.0
)

// Assets names the prefabs spawned around the level. An empty name means the
// asset is missing; the corresponding spawn is skipped and reported.
type Assets struct {
	Player  string
	Enemy   string
	Battery string
}

// Config is the immutable configuration of a [Generator].
type Config struct {
	Library *catalog.Library

	// DepthBudget is the initial number of placements allowed per pass.
	DepthBudget int
	// BudgetStep is added to the budget by every regeneration.
	BudgetStep int
	// OverlapMargin is the minimum penetration depth that rejects a placement.
	OverlapMargin float64
	// SelectAttempts bounds each of the exit and enemy socket searches.
	SelectAttempts int

	Batteries     int
	BatterySpread float64
	SpawnHeight   float64
	// PlayerAnchor is where regeneration moves the existing player.
	PlayerAnchor geom.Vec3

	// Root is the world pose of the maze root.
	Root geom.Pose

	Assets    Assets
	ExitStyle scene.ExitStyle

	// StrictSelection skips the exit or enemy step when its search is
	// exhausted instead of using the last candidate drawn.
	StrictSelection bool

	// Seed seeds the default random source. Zero seeds from the clock.
	Seed uint64
}

// DefaultConfig returns the stock configuration over lib.
func DefaultConfig(lib *catalog.Library) Config {
	return Config{
		Library:        lib,
		DepthBudget:    DefaultDepthBudget,
		BudgetStep:     DefaultBudgetStep,
		OverlapMargin:  DefaultOverlapMargin,
		SelectAttempts: DefaultSelectAttempts,
		Batteries:      DefaultBatteries,
		BatterySpread:  DefaultBatterySpread,
		SpawnHeight:    DefaultSpawnHeight,
		PlayerAnchor:   geom.V(0, DefaultSpawnHeight, 0),
		Assets:         Assets{Player: "player", Enemy: "enemy", Battery: "battery"},
		ExitStyle:      scene.DefaultExitStyle(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Library == nil {
		return errs.New(errs.ErrCodeInvalidConfig, "no template library")
	}
	if err := c.Library.Validate(); err != nil {
		return err
	}
	switch {
	case c.DepthBudget < 0:
		return errs.New(errs.ErrCodeInvalidConfig, "depth budget must be >= 0, got %d", c.DepthBudget)
	case c.BudgetStep < 0:
		return errs.New(errs.ErrCodeInvalidConfig, "budget step must be >= 0, got %d", c.BudgetStep)
	case c.OverlapMargin < 0:
		return errs.New(errs.ErrCodeInvalidConfig, "overlap margin must be >= 0, got %v", c.OverlapMargin)
	case c.SelectAttempts < 1:
		return errs.New(errs.ErrCodeInvalidConfig, "select attempts must be >= 1, got %d", c.SelectAttempts)
	case c.Batteries < 0:
		return errs.New(errs.ErrCodeInvalidConfig, "battery count must be >= 0, got %d", c.Batteries)
	case c.BatterySpread < 0:
		return errs.New(errs.ErrCodeInvalidConfig, "battery spread must be >= 0, got %v", c.BatterySpread)
	}
	return nil
}
