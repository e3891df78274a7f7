package maze

import (
	"context"

	"github.com/matzehuels/chunkmaze/pkg/geom"
	"github.com/matzehuels/chunkmaze/pkg/scene"
)

// Populate spawns the configured number of batteries around random chunks
// and, when spawnPlayer is set, the player above the first chunk. Each
// battery lands at the chunk origin plus a uniform offset within
// ±BatterySpread on X and Z and SpawnHeight on Y. There is no reachability
// or overlap check.
//
// A player already present in the scene is kept instead of spawning a
// second one.
func (g *Generator) Populate(ctx context.Context, spawnPlayer bool) {
	m := g.maze
	g.batteries = nil

	if g.cfg.Batteries > 0 {
		if g.cfg.Assets.Battery == "" {
			g.anomaly(&MissingAssetError{Kind: "battery"})
			g.logger.Error("battery asset not assigned")
		} else {
			s := g.cfg.BatterySpread
			for range g.cfg.Batteries {
				c := &m.Chunks[g.rng.IntN(len(m.Chunks))]
				off := geom.V(uniform(g.rng, -s, s), g.cfg.SpawnHeight, uniform(g.rng, -s, s))
				h := g.scene.Instantiate(scene.Object{
					Kind:   scene.KindBattery,
					Asset:  g.cfg.Assets.Battery,
					Pose:   geom.Pose{Position: g.cfg.Root.Apply(c.Pose.Position.Add(off))},
					Active: true,
				})
				g.batteries = append(g.batteries, h)
			}
		}
	}

	if !spawnPlayer {
		return
	}
	if h, ok := g.scene.Find(scene.KindPlayer); ok {
		g.logger.Debug("player already present")
		g.player = h
		return
	}
	if g.cfg.Assets.Player == "" {
		g.anomaly(&MissingAssetError{Kind: "player"})
		g.logger.Error("player asset not assigned")
		return
	}
	at := g.cfg.Root.Apply(m.Chunks[0].Pose.Position.Add(geom.V(0, g.cfg.SpawnHeight, 0)))
	g.player = g.scene.Instantiate(scene.Object{
		Kind:   scene.KindPlayer,
		Asset:  g.cfg.Assets.Player,
		Pose:   geom.Pose{Position: at},
		Active: true,
	})
	g.logger.Debug("spawned player", "at", at)
}
