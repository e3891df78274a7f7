// Package scene defines the world the maze generator builds into.
//
// The generator never touches engine state directly. It asks a [Scene] to
// instantiate chunks, dead-end markers and actors, to tear them down on
// regeneration and to decorate the chosen exit. Navigation baking goes
// through the separate [NavBaker] so that engines can bake asynchronously.
//
// [Memory] is an in-process implementation used by the CLI, the HTTP API and
// tests. It records every object with its pose and parent so that a finished
// level can be inspected, rendered or archived.
package scene

import "github.com/matzehuels/chunkmaze/pkg/geom"

// Kind classifies scene objects.
type Kind string

const (
	KindRoot    Kind = "root"
	KindChunk   Kind = "chunk"
	KindMarker  Kind = "marker"
	KindPlayer  Kind = "player"
	KindEnemy   Kind = "enemy"
	KindBattery Kind = "battery"
)

// Handle identifies an instantiated object. The zero Handle means none.
type Handle string

// Object describes something to instantiate.
type Object struct {
	Kind Kind
	// Asset is the template ID for chunks, the marker name for markers and
	// the asset name for actors.
	Asset string
	// Pose is the world pose.
	Pose   geom.Pose
	Parent Handle
	Active bool
}

// ExitStyle describes how the exit marker is dressed: the material swapped
// onto it and the point light attached to it. The light takes its colour
// from the material's emission and sits at LightOffset in the marker frame.
// Implementations also attach a trigger volume sized to the marker and the
// behaviour that ends the level on player contact.
type ExitStyle struct {
	Material       string    `json:"material"`
	LightRange     float64   `json:"light_range"`
	LightIntensity float64   `json:"light_intensity"`
	LightOffset    geom.Vec3 `json:"light_offset"`
}

// DefaultExitStyle returns the stock exit dressing.
func DefaultExitStyle() ExitStyle {
	return ExitStyle{
		Material:       "exit_glow",
		LightRange:     20,
		LightIntensity: 20,
		LightOffset:    geom.Forward.Scale(0.5),
	}
}

// Scene mutates the world.
type Scene interface {
	// Instantiate creates obj and returns its handle.
	Instantiate(obj Object) Handle
	// Destroy removes h and everything parented to it. Unknown handles are ignored.
	Destroy(h Handle)
	SetParent(h, parent Handle)
	SetActive(h Handle, active bool)
	// Find returns the first live object of the given kind.
	Find(kind Kind) (Handle, bool)
	// Move teleports h to a world position.
	Move(h Handle, pos geom.Vec3)
	// SetControllerEnabled toggles the movement controller of an actor.
	SetControllerEnabled(h Handle, enabled bool)
	// DecorateExit turns the marker h into the level exit.
	DecorateExit(h Handle, style ExitStyle)
}

// NavBaker builds the navigation mesh for the current level. It is invoked
// once per pass after growth and its result is not consumed.
type NavBaker interface {
	Bake()
}

// BakerFunc adapts a function to [NavBaker].
type BakerFunc func()

func (f BakerFunc) Bake() { f() }
