package maze

import (
	"context"
	"errors"

	"github.com/matzehuels/chunkmaze/pkg/geom"
	"github.com/matzehuels/chunkmaze/pkg/scene"
)

// Selection is the outcome of the exit and enemy socket searches.
type Selection struct {
	Exit          PointRef `json:"exit"`
	Enemy         PointRef `json:"enemy"`
	ExitAttempts  int      `json:"exit_attempts"`
	EnemyAttempts int      `json:"enemy_attempts"`
}

// SelectExit searches for an exit socket: one whose dead-end marker is still
// active. It draws a random chunk and then a random socket on it, at most
// SelectAttempts times. On exhaustion it returns the last candidate together
// with a *SelectionExhaustedError.
func (g *Generator) SelectExit(ctx context.Context) (PointRef, int, error) {
	return g.search(ctx, RoleExit, (*ConnectionPoint).IsOpenDeadEnd)
}

// SelectEnemy searches for an enemy socket: any socket that is not an open
// dead end. Exhaustion is reported as for [Generator.SelectExit].
func (g *Generator) SelectEnemy(ctx context.Context) (PointRef, int, error) {
	return g.search(ctx, RoleEnemy, func(p *ConnectionPoint) bool { return !p.IsOpenDeadEnd() })
}

// Select runs both searches. The error joins any exhaustion errors.
func (g *Generator) Select(ctx context.Context) (Selection, error) {
	exit, exitN, exitErr := g.SelectExit(ctx)
	enemy, enemyN, enemyErr := g.SelectEnemy(ctx)
	sel := Selection{Exit: exit, Enemy: enemy, ExitAttempts: exitN, EnemyAttempts: enemyN}
	return sel, errors.Join(exitErr, enemyErr)
}

func (g *Generator) search(ctx context.Context, role Role, eligible func(*ConnectionPoint) bool) (PointRef, int, error) {
	m := g.maze
	var ref PointRef
	for attempts := 1; ; attempts++ {
		ref.Chunk = g.rng.IntN(len(m.Chunks))
		ref.Point = g.rng.IntN(len(m.Chunks[ref.Chunk].Points))
		if eligible(m.Point(ref)) {
			g.events().OnSelection(ctx, string(role), attempts, false)
			return ref, attempts, nil
		}
		if attempts >= g.cfg.SelectAttempts {
			g.events().OnSelection(ctx, string(role), attempts, true)
			return ref, attempts, &SelectionExhaustedError{Role: role, Attempts: attempts, Candidate: ref}
		}
	}
}

// selectAndMark applies the selection policy: exhausted searches are
// recorded as anomalies and, unless StrictSelection is set, the last
// candidate is used anyway. The enemy is spawned before the exit is marked.
func (g *Generator) selectAndMark(ctx context.Context) error {
	var strict []error

	exit, exitN, exitErr := g.SelectExit(ctx)
	enemy, enemyN, enemyErr := g.SelectEnemy(ctx)
	g.selection = Selection{Exit: exit, Enemy: enemy, ExitAttempts: exitN, EnemyAttempts: enemyN}

	useExit, useEnemy := true, true
	for _, r := range []struct {
		err error
		use *bool
	}{{exitErr, &useExit}, {enemyErr, &useEnemy}} {
		if r.err == nil {
			continue
		}
		g.anomaly(r.err)
		if g.cfg.StrictSelection {
			*r.use = false
			strict = append(strict, r.err)
			g.logger.Warn("selection exhausted, skipping", "err", r.err)
		} else {
			g.logger.Warn("selection exhausted, using last candidate", "err", r.err)
		}
	}

	if useEnemy {
		if h, err := g.SpawnEnemy(ctx, enemy); err != nil {
			g.anomaly(err)
		} else {
			g.enemy = h
		}
	}
	if useExit {
		g.exit = g.MarkExit(ctx, exit)
	}
	return errors.Join(strict...)
}

// SpawnEnemy instantiates the enemy at the socket's world position and
// parents it to the maze root.
func (g *Generator) SpawnEnemy(ctx context.Context, ref PointRef) (scene.Handle, error) {
	if g.cfg.Assets.Enemy == "" {
		err := &MissingAssetError{Kind: "enemy"}
		g.logger.Error("enemy asset not assigned")
		return "", err
	}
	at := g.cfg.Root.Apply(g.maze.PointPosition(ref))
	h := g.scene.Instantiate(scene.Object{
		Kind:   scene.KindEnemy,
		Asset:  g.cfg.Assets.Enemy,
		Pose:   geom.Pose{Position: at},
		Active: true,
	})
	g.scene.SetParent(h, g.root)
	g.logger.Debug("spawned enemy", "socket", ref, "at", at)
	return h, nil
}

// MarkExit dresses the socket's marker as the exit and returns the marker
// handle. A socket without an instantiated marker cannot be dressed; it is
// logged and the empty handle returned.
func (g *Generator) MarkExit(ctx context.Context, ref PointRef) scene.Handle {
	p := g.maze.Point(ref)
	if p.Marker == nil || p.Marker.Handle == "" {
		g.logger.Warn("exit socket has no marker", "socket", ref)
		return ""
	}
	g.scene.DecorateExit(p.Marker.Handle, g.cfg.ExitStyle)
	g.logger.Debug("marked exit", "socket", ref, "marker", p.Marker.Name)
	return p.Marker.Handle
}
