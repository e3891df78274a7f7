package render

import (
	"math"
	"strings"

	"github.com/matzehuels/chunkmaze/pkg/geom"
	"github.com/matzehuels/chunkmaze/pkg/io"
	"github.com/matzehuels/chunkmaze/pkg/scene"
)

// Floor plan glyphs.
const (
	GlyphEmpty   = ' '
	GlyphWall    = '#'
	GlyphFloor   = '.'
	GlyphDeadEnd = '+'
	GlyphExit    = 'E'
	GlyphEnemy   = '!'
	GlyphPlayer  = '@'
	GlyphBattery = '*'
)

type rect struct{ minX, maxX, minZ, maxZ float64 }

// footprint projects a posed box onto the XZ plane.
func footprint(c io.Chunk) rect {
	pose := geom.Pose{Position: c.Position, Yaw: c.Yaw}
	center := pose.Apply(c.Volume.Center)
	ax := pose.ApplyVector(geom.V(c.Volume.HalfExtents.X, 0, 0))
	az := pose.ApplyVector(geom.V(0, 0, c.Volume.HalfExtents.Z))
	hx := math.Abs(ax.X) + math.Abs(az.X)
	hz := math.Abs(ax.Z) + math.Abs(az.Z)
	return rect{center.X - hx, center.X + hx, center.Z - hz, center.Z + hz}
}

type grid struct {
	w, h   int
	cells  [][]rune
	bounds rect
	sx, sz float64
}

func (g *grid) col(x float64) int {
	return clamp(int(math.Round((x-g.bounds.minX)*g.sx)), 0, g.w-1)
}

// row maps +Z to the top of the plan.
func (g *grid) row(z float64) int {
	return clamp(int(math.Round((g.bounds.maxZ-z)*g.sz)), 0, g.h-1)
}

func (g *grid) set(p geom.Vec3, r rune) { g.cells[g.row(p.Z)][g.col(p.X)] = r }

func clamp(v, lo, hi int) int { return max(lo, min(v, hi)) }

// ASCII draws a top-down floor plan of the layout into a w×h character grid,
// north up. Chunk footprints are outlined with walls. Linked sockets open
// the wall into a doorway, open dead ends show as '+', and the exit,
// enemy, player and batteries are drawn on top.
func ASCII(l *io.Layout, w, h int) string {
	if w < 2 || h < 2 || len(l.Chunks) == 0 {
		return ""
	}

	rects := make([]rect, len(l.Chunks))
	b := rect{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	for i, c := range l.Chunks {
		r := footprint(c)
		rects[i] = r
		b.minX, b.maxX = min(b.minX, r.minX), max(b.maxX, r.maxX)
		b.minZ, b.maxZ = min(b.minZ, r.minZ), max(b.maxZ, r.maxZ)
	}

	g := &grid{w: w, h: h, bounds: b, cells: make([][]rune, h)}
	for i := range g.cells {
		g.cells[i] = []rune(strings.Repeat(string(GlyphEmpty), w))
	}
	if span := b.maxX - b.minX; span > 0 {
		g.sx = float64(w-1) / span
	}
	if span := b.maxZ - b.minZ; span > 0 {
		g.sz = float64(h-1) / span
	}

	// Floors first, then walls, so shared walls stay solid.
	for _, r := range rects {
		for y := g.row(r.maxZ); y <= g.row(r.minZ); y++ {
			for x := g.col(r.minX); x <= g.col(r.maxX); x++ {
				g.cells[y][x] = GlyphFloor
			}
		}
	}
	for _, r := range rects {
		top, bottom := g.row(r.maxZ), g.row(r.minZ)
		left, right := g.col(r.minX), g.col(r.maxX)
		for x := left; x <= right; x++ {
			g.cells[top][x] = GlyphWall
			g.cells[bottom][x] = GlyphWall
		}
		for y := top; y <= bottom; y++ {
			g.cells[y][left] = GlyphWall
			g.cells[y][right] = GlyphWall
		}
	}

	for _, c := range l.Chunks {
		for _, p := range c.Points {
			switch {
			case p.MarkerActive:
				g.set(p.World, GlyphDeadEnd)
			case p.Link != nil:
				g.set(p.World, GlyphFloor)
			}
		}
	}

	if l.ExitMarked {
		g.set(l.Chunks[l.Selection.Exit.Chunk].Points[l.Selection.Exit.Point].World, GlyphExit)
	}
	for _, s := range l.Spawns {
		switch s.Kind {
		case scene.KindBattery:
			g.set(s.Position, GlyphBattery)
		case scene.KindEnemy:
			g.set(s.Position, GlyphEnemy)
		}
	}
	for _, s := range l.Spawns {
		if s.Kind == scene.KindPlayer {
			g.set(s.Position, GlyphPlayer)
		}
	}

	var sb strings.Builder
	for i, line := range g.cells {
		sb.WriteString(strings.TrimRight(string(line), string(GlyphEmpty)))
		if i < len(g.cells)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
