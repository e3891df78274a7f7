package maze

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/matzehuels/chunkmaze/pkg/catalog"
	errs "github.com/matzehuels/chunkmaze/pkg/errors"
	"github.com/matzehuels/chunkmaze/pkg/geom"
	"github.com/matzehuels/chunkmaze/pkg/oracle"
	"github.com/matzehuels/chunkmaze/pkg/scene"
)

// probeScene records how many chunks exist when the first chunk of a pass is
// instantiated.
type probeScene struct {
	*scene.Memory
	armed  bool
	counts []int
}

func (p *probeScene) Instantiate(obj scene.Object) scene.Handle {
	if p.armed && obj.Kind == scene.KindChunk {
		p.counts = append(p.counts, p.Count(scene.KindChunk))
		p.armed = false
	}
	return p.Memory.Instantiate(obj)
}

func TestNewGeneratorValidates(t *testing.T) {
	tests := []struct {
		name string
		cfg  func() Config
	}{
		{"nil library", func() Config { return DefaultConfig(nil) }},
		{"empty library", func() Config { return DefaultConfig(&catalog.Library{}) }},
		{"negative budget", func() Config { c := DefaultConfig(hubLibrary()); c.DepthBudget = -1; return c }},
		{"zero attempts", func() Config { c := DefaultConfig(hubLibrary()); c.SelectAttempts = 0; return c }},
		{"negative margin", func() Config { c := DefaultConfig(hubLibrary()); c.OverlapMargin = -1; return c }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGenerator(tt.cfg(), scene.NewMemory(), nil); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := NewGenerator(DefaultConfig(hubLibrary()), nil, nil); !errs.Is(err, errs.ErrCodeInvalidConfig) {
		t.Errorf("nil scene error = %v", err)
	}
}

func TestGenerate(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		g, sc := newGenerator(t, seededConfig(hubLibrary(), 10, seed), oracle.SAT{})
		rep, err := g.Generate(context.Background())
		if err != nil {
			t.Fatalf("seed %d: Generate: %v", seed, err)
		}

		if sc.Bakes() != 1 {
			t.Errorf("seed %d: bakes = %d", seed, sc.Bakes())
		}
		if sc.Count(scene.KindPlayer) != 1 || sc.Count(scene.KindEnemy) != 1 || sc.Count(scene.KindBattery) != DefaultBatteries {
			t.Errorf("seed %d: player=%d enemy=%d batteries=%d", seed,
				sc.Count(scene.KindPlayer), sc.Count(scene.KindEnemy), sc.Count(scene.KindBattery))
		}

		player, _ := sc.Get(rep.Player)
		if want := geom.V(0, DefaultSpawnHeight, 0); player.Pose.Position != want {
			t.Errorf("seed %d: player at %+v, want %+v", seed, player.Pose.Position, want)
		}

		enemy, _ := sc.Get(rep.Enemy)
		if enemy.Parent != g.root {
			t.Errorf("seed %d: enemy not parented to the maze root", seed)
		}
		if want := rep.Maze.PointPosition(rep.Selection.Enemy); enemy.Pose.Position != want {
			t.Errorf("seed %d: enemy at %+v, want socket position %+v", seed, enemy.Pose.Position, want)
		}

		exitOK := true
		for _, a := range rep.Anomalies {
			var ex *SelectionExhaustedError
			if errors.As(a, &ex) && ex.Role == RoleExit {
				exitOK = false
			}
		}
		if exitOK {
			if !rep.Maze.Point(rep.Selection.Exit).IsOpenDeadEnd() {
				t.Errorf("seed %d: exit %s is not an open dead end", seed, rep.Selection.Exit)
			}
			marker, _ := sc.Get(rep.Exit)
			if marker.Exit == nil || marker.Exit.LightRange != 20 {
				t.Errorf("seed %d: exit marker not decorated: %+v", seed, marker)
			}
		}

		for _, b := range rep.Batteries {
			e, _ := sc.Get(b)
			if !nearSomeChunk(rep.Maze, e.Pose.Position, DefaultBatterySpread, DefaultSpawnHeight) {
				t.Errorf("seed %d: battery at %+v is outside every chunk's spread", seed, e.Pose.Position)
			}
		}
	}
}

func nearSomeChunk(m *Maze, p geom.Vec3, spread, height float64) bool {
	for _, c := range m.Chunks {
		d := p.Sub(c.Pose.Position)
		if math.Abs(d.X) <= spread && math.Abs(d.Z) <= spread && math.Abs(d.Y-height) < 1e-9 {
			return true
		}
	}
	return false
}

func TestGenerateSelectionFallback(t *testing.T) {
	g, sc := newGenerator(t, seededConfig(unmarkedLibrary(), 5, 3), oracle.SAT{})
	rep, err := g.Generate(context.Background())
	if err != nil {
		t.Fatalf("lenient mode returned %v", err)
	}
	if len(rep.Anomalies) != 1 || !errs.Is(rep.Anomalies[0], errs.ErrCodeSelectionExhausted) {
		t.Fatalf("anomalies = %v", rep.Anomalies)
	}
	if rep.Selection.ExitAttempts != DefaultSelectAttempts {
		t.Errorf("exit attempts = %d", rep.Selection.ExitAttempts)
	}
	if rep.Exit != "" {
		t.Error("a socket without marker cannot be dressed as exit")
	}
	if sc.Count(scene.KindEnemy) != 1 {
		t.Error("enemy should still spawn")
	}
}

func TestGenerateStrictSelection(t *testing.T) {
	cfg := seededConfig(hubLibrary(), 0, 3)
	cfg.StrictSelection = true
	g, sc := newGenerator(t, cfg, oracle.SAT{})

	rep, err := g.Generate(context.Background())
	if !errs.Is(err, errs.ErrCodeSelectionExhausted) {
		t.Fatalf("error = %v, want SELECTION_EXHAUSTED", err)
	}
	if rep == nil || rep.Enemy != "" || sc.Count(scene.KindEnemy) != 0 {
		t.Error("strict mode must skip the enemy spawn")
	}
	if rep.Exit == "" {
		t.Error("exit selection succeeded and should be marked")
	}
	if sc.Count(scene.KindPlayer) != 1 {
		t.Error("population must still run")
	}
}

func TestGenerateMissingAssets(t *testing.T) {
	cfg := seededConfig(hubLibrary(), 4, 3)
	cfg.Assets = Assets{}
	g, sc := newGenerator(t, cfg, oracle.SAT{})

	rep, err := g.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	missing := 0
	for _, a := range rep.Anomalies {
		if errs.Is(a, errs.ErrCodeMissingAsset) {
			missing++
		}
	}
	if missing != 3 {
		t.Errorf("missing asset anomalies = %d, want 3 (enemy, battery, player): %v", missing, rep.Anomalies)
	}
	for _, k := range []scene.Kind{scene.KindPlayer, scene.KindEnemy, scene.KindBattery} {
		if n := sc.Count(k); n != 0 {
			t.Errorf("%s count = %d", k, n)
		}
	}
	if len(rep.Maze.Chunks) == 0 {
		t.Error("generation aborted")
	}
}

func TestRegenerate(t *testing.T) {
	sc := &probeScene{Memory: scene.NewMemory()}
	g, err := NewGenerator(seededConfig(catalog.Default(), 10, 8), sc, oracle.SAT{})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	first, err := g.Generate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	sc.Move(first.Player, geom.V(40, 1, 40))

	for i, wantBudget := range []int{15, 20} {
		sc.Record(true)
		sc.armed = true
		rep, err := g.Regenerate(ctx)
		if err != nil {
			t.Fatalf("Regenerate %d: %v", i, err)
		}

		if rep.Budget != wantBudget || rep.Maze.Budget != wantBudget || g.Budget() != wantBudget {
			t.Errorf("round %d: budget = %d, want %d", i+1, rep.Budget, wantBudget)
		}
		if rep.Round != i+1 {
			t.Errorf("round = %d, want %d", rep.Round, i+1)
		}
		if got := sc.counts[len(sc.counts)-1]; got != 0 {
			t.Errorf("round %d: %d chunks alive when growth started", i+1, got)
		}
		if sc.Count(scene.KindChunk) != len(rep.Maze.Chunks) {
			t.Errorf("round %d: scene has %d chunks, maze %d", i+1, sc.Count(scene.KindChunk), len(rep.Maze.Chunks))
		}

		if rep.Player != first.Player || sc.Count(scene.KindPlayer) != 1 {
			t.Errorf("round %d: player recreated", i+1)
		}
		p, _ := sc.Get(rep.Player)
		if p.Pose.Position != geom.V(0, 1, 0) || !p.ControllerEnabled {
			t.Errorf("round %d: player = %+v", i+1, p)
		}

		if sc.Count(scene.KindBattery) != DefaultBatteries {
			t.Errorf("round %d: batteries = %d", i+1, sc.Count(scene.KindBattery))
		}
		if sc.Count(scene.KindEnemy) != 1 {
			t.Errorf("round %d: enemies = %d", i+1, sc.Count(scene.KindEnemy))
		}

		var ops []string
		for _, e := range sc.Events() {
			if e.Handle == rep.Player {
				ops = append(ops, e.Op)
			}
		}
		want := []string{"controller_off", "move", "controller_on"}
		if len(ops) != len(want) {
			t.Fatalf("round %d: player ops = %v", i+1, ops)
		}
		for j := range want {
			if ops[j] != want[j] {
				t.Errorf("round %d: player ops = %v, want %v", i+1, ops, want)
			}
		}
		sc.Record(false)
	}

	if sc.Bakes() != 3 {
		t.Errorf("bakes = %d, want 3", sc.Bakes())
	}
	if sc.Count(scene.KindRoot) != 1 {
		t.Errorf("maze roots = %d, want 1", sc.Count(scene.KindRoot))
	}
}

func TestRegenerateWithoutPlayer(t *testing.T) {
	cfg := seededConfig(hubLibrary(), 2, 4)
	g, sc := newGenerator(t, cfg, oracle.SAT{})
	rep, err := g.Regenerate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Player != "" || sc.Count(scene.KindPlayer) != 0 {
		t.Error("regeneration must not spawn a player")
	}
	if rep.Budget != 2+DefaultBudgetStep {
		t.Errorf("budget = %d", rep.Budget)
	}
}
