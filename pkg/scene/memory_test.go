package scene

import (
	"testing"

	"github.com/matzehuels/chunkmaze/pkg/geom"
)

func TestMemoryDestroyCascades(t *testing.T) {
	m := NewMemory()
	chunk := m.Instantiate(Object{Kind: KindChunk, Asset: "cross"})
	marker := m.Instantiate(Object{Kind: KindMarker, Asset: "door_east", Parent: chunk, Active: true})
	other := m.Instantiate(Object{Kind: KindChunk, Asset: "tee"})

	m.Destroy(chunk)

	if _, ok := m.Get(marker); ok {
		t.Error("marker survived its chunk")
	}
	if _, ok := m.Get(other); !ok {
		t.Error("unrelated chunk destroyed")
	}
	if got := m.Count(KindChunk); got != 1 {
		t.Errorf("Count(chunk) = %d, want 1", got)
	}

	m.Destroy("missing")
}

func TestMemoryReparentedSubtree(t *testing.T) {
	m := NewMemory()
	a := m.Instantiate(Object{Kind: KindBattery})
	root := m.Instantiate(Object{Kind: KindChunk})
	m.SetParent(a, root)

	m.Destroy(root)
	if len(m.Entries()) != 0 {
		t.Errorf("entries left: %+v", m.Entries())
	}
}

func TestMemoryFindAndMove(t *testing.T) {
	m := NewMemory()
	if _, ok := m.Find(KindPlayer); ok {
		t.Fatal("Find on empty scene succeeded")
	}

	p := m.Instantiate(Object{Kind: KindPlayer, Asset: "player", Pose: geom.Pose{Position: geom.V(3, 1, 3)}})
	h, ok := m.Find(KindPlayer)
	if !ok || h != p {
		t.Fatalf("Find = %v, %v", h, ok)
	}

	m.Move(p, geom.V(0, 1, 0))
	e, _ := m.Get(p)
	if e.Pose.Position != geom.V(0, 1, 0) {
		t.Errorf("position = %+v", e.Pose.Position)
	}
	if !e.ControllerEnabled {
		t.Error("actors start with their controller enabled")
	}
}

func TestMemoryEvents(t *testing.T) {
	m := NewMemory()
	m.Record(true)
	p := m.Instantiate(Object{Kind: KindPlayer})
	m.SetControllerEnabled(p, false)
	m.Move(p, geom.Zero)
	m.SetControllerEnabled(p, true)
	m.Bake()

	want := []string{"instantiate", "controller_off", "move", "controller_on", "bake"}
	got := m.Events()
	if len(got) != len(want) {
		t.Fatalf("events = %+v", got)
	}
	for i, op := range want {
		if got[i].Op != op {
			t.Errorf("event %d = %q, want %q", i, got[i].Op, op)
		}
	}
	if m.Bakes() != 1 {
		t.Errorf("Bakes() = %d", m.Bakes())
	}
}

func TestMemoryDecorateExit(t *testing.T) {
	m := NewMemory()
	h := m.Instantiate(Object{Kind: KindMarker, Active: true})
	m.DecorateExit(h, DefaultExitStyle())

	e, _ := m.Get(h)
	if e.Exit == nil {
		t.Fatal("exit style not recorded")
	}
	if e.Exit.LightRange != 20 || e.Exit.LightIntensity != 20 || e.Exit.LightOffset != geom.V(0, 0, 0.5) {
		t.Errorf("exit style = %+v", *e.Exit)
	}
}

func TestBakerFunc(t *testing.T) {
	n := 0
	var b NavBaker = BakerFunc(func() { n++ })
	b.Bake()
	if n != 1 {
		t.Errorf("calls = %d", n)
	}
}
