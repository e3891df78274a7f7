package maze

import (
	"context"
	"testing"

	"github.com/matzehuels/chunkmaze/pkg/catalog"
	"github.com/matzehuels/chunkmaze/pkg/geom"
	"github.com/matzehuels/chunkmaze/pkg/observability"
	"github.com/matzehuels/chunkmaze/pkg/oracle"
	"github.com/matzehuels/chunkmaze/pkg/scene"
)

var roomBox = geom.Box{Center: geom.V(0, 2, 0), HalfExtents: geom.V(5, 2, 5)}

func socket(name string, x, z float64, marker string) catalog.PointSpec {
	pos := geom.V(x, 0, z)
	return catalog.PointSpec{Name: name, Position: pos, Offset: catalog.DefaultOffset(pos), Marker: marker}
}

// hub is a square room with four symmetric, capped sockets.
func hub() catalog.Template {
	return catalog.Template{
		ID:     "hub",
		Volume: roomBox,
		Points: []catalog.PointSpec{
			socket("east", 5, 0, "door_east"),
			socket("west", -5, 0, "door_west"),
			socket("north", 0, 5, "door_north"),
			socket("south", 0, -5, "door_south"),
		},
	}
}

func hubLibrary() *catalog.Library {
	return &catalog.Library{Reusable: []catalog.Template{hub()}}
}

func newGenerator(t *testing.T, cfg Config, o oracle.Oracle, opts ...Option) (*Generator, *scene.Memory) {
	t.Helper()
	sc := scene.NewMemory()
	g, err := NewGenerator(cfg, sc, o, opts...)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return g, sc
}

func seededConfig(lib *catalog.Library, budget int, seed uint64) Config {
	cfg := DefaultConfig(lib)
	cfg.DepthBudget = budget
	cfg.Seed = seed
	return cfg
}

// scriptedRand replays IntN results in order and returns 0 once the script
// runs out. Float64 always returns 0.5.
type scriptedRand struct {
	ints []int
}

func (r *scriptedRand) IntN(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

func (r *scriptedRand) Float64() float64 { return 0.5 }

// recordingHooks collects generation events.
type recordingHooks struct {
	observability.NoopGenerationHooks
	placements []string
	deadEnds   int
	selections map[string]int
	exhausted  map[string]bool
}

func newRecordingHooks() *recordingHooks {
	return &recordingHooks{selections: map[string]int{}, exhausted: map[string]bool{}}
}

func (h *recordingHooks) OnPlacement(_ context.Context, _ int, id string, _ geom.Pose) {
	h.placements = append(h.placements, id)
}

func (h *recordingHooks) OnDeadEnd(context.Context, int, int, geom.Vec3) { h.deadEnds++ }

func (h *recordingHooks) OnSelection(_ context.Context, role string, attempts int, exhausted bool) {
	h.selections[role] = attempts
	h.exhausted[role] = exhausted
}
