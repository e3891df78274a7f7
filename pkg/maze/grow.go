package maze

import (
	"context"
	"time"

	"github.com/matzehuels/chunkmaze/pkg/catalog"
	"github.com/matzehuels/chunkmaze/pkg/geom"
	"github.com/matzehuels/chunkmaze/pkg/oracle"
	"github.com/matzehuels/chunkmaze/pkg/scene"
)

// rotations are the yaw candidates tried for every placement.
var rotations = [4]float64{0, 90, 180, 270}

// Grow discards the current level and grows a new one with the given depth
// budget. It seeds a random reusable template at the root origin and extends
// random frontier sockets until the frontier is empty or the budget is spent.
func (g *Generator) Grow(ctx context.Context, budget int) *Maze {
	start := time.Now()
	if g.maze != nil {
		g.teardown()
	}
	g.ensureRoot()

	m := newMaze(budget)
	g.maze = m
	g.resetPool()

	lib := g.cfg.Library
	seed := &lib.Reusable[g.rng.IntN(len(lib.Reusable))]
	ci := g.place(seed, false, geom.Pose{})
	for pi := range m.Chunks[ci].Points {
		m.Frontier.Add(PointRef{Chunk: ci, Point: pi})
	}
	g.instantiate(ci)

	hooks := g.events()
	hooks.OnGrowStart(ctx, budget)
	g.logger.Debug("seeded maze", "template", seed.ID, "sockets", m.Frontier.Len(), "budget", budget)

	for m.Frontier.Len() > 0 && m.Depth < budget {
		ref := m.Frontier.Pop(g.rng)
		if g.TryConnect(ctx, ref) {
			m.Depth++
			last := &m.Chunks[len(m.Chunks)-1]
			hooks.OnPlacement(ctx, m.Depth, last.TemplateID, last.Pose)
			continue
		}
		m.DeadEnds = append(m.DeadEnds, ref)
		at := g.cfg.Root.Apply(m.PointPosition(ref))
		g.logger.Debug("dead end", "socket", ref, "at", at)
		hooks.OnDeadEnd(ctx, ref.Chunk, ref.Point, at)
	}

	if m.Depth >= budget {
		g.logger.Info("reached depth budget", "budget", budget, "open", m.Frontier.Len())
	}
	hooks.OnGrowComplete(ctx, m.Depth, len(m.Chunks), m.Frontier.Len(), time.Since(start))
	return m
}

// TryConnect attempts to mate a new chunk to the socket ref. It draws a
// template and one of its sockets, aligns that socket's offset with the
// target and tries the four quarter turns about the target in random order.
// The first rotation with no rejecting overlap is committed. When every
// rotation is rejected nothing is changed and TryConnect returns false.
//
// ref must already be removed from the frontier.
func (g *Generator) TryConnect(ctx context.Context, ref PointRef) bool {
	m := g.maze
	di := g.rng.IntN(len(g.pool))
	d := g.pool[di]

	target := m.Target(ref)
	mate := g.rng.IntN(len(d.tmpl.Points))
	alignment := target.Sub(d.tmpl.Points[mate].Offset)

	order := rotations
	shuffle(g.rng, order[:])

	for _, deg := range order {
		pose := geom.Pose{Position: alignment}.RotateAround(target, deg)
		if g.collides(d.tmpl.Volume, pose) {
			continue
		}
		g.commit(ref, di, mate, pose)
		return true
	}
	return false
}

// collides reports whether a chunk with volume vol at pose would overlap any
// placed chunk by at least the margin.
func (g *Generator) collides(vol geom.Box, pose geom.Pose) bool {
	for i := range g.maze.Chunks {
		c := &g.maze.Chunks[i]
		contact := g.oracle.Overlap(vol, pose, c.Volume, c.Pose)
		if oracle.Rejects(contact, g.cfg.OverlapMargin) {
			return true
		}
	}
	return false
}

func (g *Generator) commit(target PointRef, di, mate int, pose geom.Pose) {
	m := g.maze
	d := g.pool[di]
	ci := g.place(d.tmpl, d.singleUse, pose)

	mated := PointRef{Chunk: ci, Point: mate}
	tp, mp := m.Point(target), m.Point(mated)
	tp.Consumed, mp.Consumed = true, true
	tp.Link, mp.Link = &mated, &target

	// The target's own marker decides whether the link is capped: a socket
	// without a marker leaves the mating marker alone.
	if tp.Marker != nil {
		tp.Marker.Active = false
		if tp.Marker.Handle != "" {
			g.scene.SetActive(tp.Marker.Handle, false)
		}
		if mp.Marker != nil {
			mp.Marker.Active = false
		}
	}

	for pi := range m.Chunks[ci].Points {
		if pi != mate {
			m.Frontier.Add(PointRef{Chunk: ci, Point: pi})
		}
	}

	if d.singleUse {
		g.pool = append(g.pool[:di], g.pool[di+1:]...)
		g.logger.Debug("consumed single-use template", "template", d.tmpl.ID, "pool", len(g.pool))
	}

	g.instantiate(ci)
}

// place appends an instance of t to the arena and returns its index. Markers
// start active.
func (g *Generator) place(t *catalog.Template, singleUse bool, pose geom.Pose) int {
	c := ChunkInstance{
		TemplateID: t.ID,
		SingleUse:  singleUse,
		Pose:       pose,
		Volume:     t.Volume,
		Points:     make([]ConnectionPoint, len(t.Points)),
	}
	for i, p := range t.Points {
		c.Points[i] = ConnectionPoint{Name: p.Name, Position: p.Position, Offset: p.Offset}
		if p.Marker != "" {
			c.Points[i].Marker = &Marker{Name: p.Marker, Active: true}
		}
	}
	g.maze.Chunks = append(g.maze.Chunks, c)
	return len(g.maze.Chunks) - 1
}

// instantiate materializes chunk ci and its markers in the scene.
func (g *Generator) instantiate(ci int) {
	c := &g.maze.Chunks[ci]
	wp := g.world(c.Pose)
	c.Handle = g.scene.Instantiate(scene.Object{Kind: scene.KindChunk, Asset: c.TemplateID, Pose: wp, Active: true})
	g.scene.SetParent(c.Handle, g.root)

	for i := range c.Points {
		p := &c.Points[i]
		if p.Marker == nil {
			continue
		}
		p.Marker.Handle = g.scene.Instantiate(scene.Object{
			Kind:   scene.KindMarker,
			Asset:  p.Marker.Name,
			Pose:   wp.Compose(geom.Pose{Position: p.Position}),
			Parent: c.Handle,
			Active: p.Marker.Active,
		})
	}
}

func (g *Generator) ensureRoot() {
	if g.root != "" {
		return
	}
	g.root = g.scene.Instantiate(scene.Object{Kind: scene.KindRoot, Asset: "maze", Pose: g.cfg.Root, Active: true})
}

func (g *Generator) resetPool() {
	lib := g.cfg.Library
	g.pool = make([]drawable, 0, lib.Len())
	for i := range lib.Reusable {
		g.pool = append(g.pool, drawable{tmpl: &lib.Reusable[i]})
	}
	for i := range lib.SingleUse {
		g.pool = append(g.pool, drawable{tmpl: &lib.SingleUse[i], singleUse: true})
	}
}
