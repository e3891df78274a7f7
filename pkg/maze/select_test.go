package maze

import (
	"context"
	"errors"
	"testing"

	"github.com/matzehuels/chunkmaze/pkg/catalog"
	errs "github.com/matzehuels/chunkmaze/pkg/errors"
	"github.com/matzehuels/chunkmaze/pkg/oracle"
)

func unmarkedLibrary() *catalog.Library {
	t := hub()
	t.ID = "bare"
	for i := range t.Points {
		t.Points[i].Marker = ""
	}
	return &catalog.Library{Reusable: []catalog.Template{t}}
}

func TestSelectExitEligible(t *testing.T) {
	g, _ := newGenerator(t, seededConfig(hubLibrary(), 0, 1), oracle.SAT{})
	g.Grow(context.Background(), 0)

	ref, attempts, err := g.SelectExit(context.Background())
	if err != nil {
		t.Fatalf("SelectExit: %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 when every socket is an open dead end", attempts)
	}
	if !g.Maze().Point(ref).IsOpenDeadEnd() {
		t.Errorf("exit %s is not an open dead end", ref)
	}
}

func TestSelectExhaustsAtCap(t *testing.T) {
	tests := []struct {
		name   string
		lib    *catalog.Library
		limit  int
		role   Role
		search func(*Generator, context.Context) (PointRef, int, error)
	}{
		{"exit without markers", unmarkedLibrary(), DefaultSelectAttempts, RoleExit, (*Generator).SelectExit},
		{"exit small cap", unmarkedLibrary(), 7, RoleExit, (*Generator).SelectExit},
		{"enemy all capped", hubLibrary(), DefaultSelectAttempts, RoleEnemy, (*Generator).SelectEnemy},
		{"enemy single attempt", hubLibrary(), 1, RoleEnemy, (*Generator).SelectEnemy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hooks := newRecordingHooks()
			cfg := seededConfig(tt.lib, 0, 9)
			cfg.SelectAttempts = tt.limit
			g, _ := newGenerator(t, cfg, oracle.SAT{}, WithHooks(hooks))
			g.Grow(context.Background(), 0)

			ref, attempts, err := tt.search(g, context.Background())
			if attempts != tt.limit {
				t.Errorf("attempts = %d, want %d", attempts, tt.limit)
			}

			var ex *SelectionExhaustedError
			if !errors.As(err, &ex) {
				t.Fatalf("error = %v, want *SelectionExhaustedError", err)
			}
			if ex.Role != tt.role || ex.Attempts != tt.limit || ex.Candidate != ref {
				t.Errorf("error = %+v", ex)
			}
			if !errs.Is(err, errs.ErrCodeSelectionExhausted) {
				t.Errorf("code = %q", errs.GetCode(err))
			}
			if !hooks.exhausted[string(tt.role)] || hooks.selections[string(tt.role)] != tt.limit {
				t.Errorf("hooks = %v / %v", hooks.selections, hooks.exhausted)
			}
		})
	}
}

func TestSelectJoinsErrors(t *testing.T) {
	g, _ := newGenerator(t, seededConfig(hubLibrary(), 0, 2), oracle.SAT{})
	g.Grow(context.Background(), 0)

	sel, err := g.Select(context.Background())
	if sel.ExitAttempts != 1 {
		t.Errorf("exit attempts = %d", sel.ExitAttempts)
	}
	if sel.EnemyAttempts != DefaultSelectAttempts {
		t.Errorf("enemy attempts = %d", sel.EnemyAttempts)
	}
	var ex *SelectionExhaustedError
	if !errors.As(err, &ex) || ex.Role != RoleEnemy {
		t.Errorf("error = %v, want enemy exhaustion", err)
	}
}

func TestSelectEnemyAvoidsOpenDeadEnds(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		g, _ := newGenerator(t, seededConfig(catalog.Default(), 15, seed), oracle.SAT{})
		g.Grow(context.Background(), 15)

		ref, _, err := g.SelectEnemy(context.Background())
		if err != nil {
			continue
		}
		if g.Maze().Point(ref).IsOpenDeadEnd() {
			t.Errorf("seed %d: enemy socket %s is an open dead end", seed, ref)
		}
	}
}
