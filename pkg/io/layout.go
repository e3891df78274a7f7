package io

import (
	"fmt"

	"github.com/matzehuels/chunkmaze/pkg/geom"
	"github.com/matzehuels/chunkmaze/pkg/maze"
	"github.com/matzehuels/chunkmaze/pkg/scene"
)

// Layout is a serializable snapshot of a generated level.
type Layout struct {
	ID         string          `json:"id,omitempty"`
	Seed       uint64          `json:"seed"`
	Round      int             `json:"round"`
	Budget     int             `json:"budget"`
	Depth      int             `json:"depth"`
	Chunks     []Chunk         `json:"chunks"`
	Links      []Link          `json:"links"`
	Frontier   []maze.PointRef `json:"frontier,omitempty"`
	DeadEnds   []maze.PointRef `json:"dead_ends,omitempty"`
	Selection  maze.Selection  `json:"selection"`
	ExitMarked bool            `json:"exit_marked"`
	Spawns     []Spawn         `json:"spawns,omitempty"`
	Anomalies  []string        `json:"anomalies,omitempty"`
}

// Chunk is a placed chunk.
type Chunk struct {
	Index     int       `json:"index"`
	Template  string    `json:"template"`
	SingleUse bool      `json:"single_use,omitempty"`
	Position  geom.Vec3 `json:"position"`
	Yaw       float64   `json:"yaw"`
	Volume    geom.Box  `json:"volume"`
	Points    []Point   `json:"points"`
}

// Point is a socket on a placed chunk.
type Point struct {
	Name         string         `json:"name"`
	Position     geom.Vec3      `json:"position"`
	World        geom.Vec3      `json:"world"`
	Marker       string         `json:"marker,omitempty"`
	MarkerActive bool           `json:"marker_active,omitempty"`
	Consumed     bool           `json:"consumed,omitempty"`
	Link         *maze.PointRef `json:"link,omitempty"`
}

// Link connects two sockets. From is the socket that was extended.
type Link struct {
	From maze.PointRef `json:"from"`
	To   maze.PointRef `json:"to"`
}

// Spawn is an actor placed after growth.
type Spawn struct {
	Kind     scene.Kind `json:"kind"`
	Asset    string     `json:"asset"`
	Position geom.Vec3  `json:"position"`
}

// EntryLookup resolves scene handles. *scene.Memory satisfies it.
type EntryLookup interface {
	Get(h scene.Handle) (scene.Entry, bool)
}

// FromReport snapshots a generator report. Spawns are resolved through
// lookup, which may be nil to omit them.
func FromReport(rep *maze.Report, seed uint64, lookup EntryLookup) *Layout {
	m := rep.Maze
	l := &Layout{
		Seed:       seed,
		Round:      rep.Round,
		Budget:     rep.Budget,
		Depth:      m.Depth,
		Chunks:     make([]Chunk, len(m.Chunks)),
		Links:      []Link{},
		Frontier:   m.Frontier.Refs(),
		DeadEnds:   append([]maze.PointRef(nil), m.DeadEnds...),
		Selection:  rep.Selection,
		ExitMarked: rep.Exit != "",
	}

	for ci, c := range m.Chunks {
		ch := Chunk{
			Index:     ci,
			Template:  c.TemplateID,
			SingleUse: c.SingleUse,
			Position:  c.Pose.Position,
			Yaw:       c.Pose.Yaw,
			Volume:    c.Volume,
			Points:    make([]Point, len(c.Points)),
		}
		for pi, p := range c.Points {
			ref := maze.PointRef{Chunk: ci, Point: pi}
			pt := Point{
				Name:     p.Name,
				Position: p.Position,
				World:    m.PointPosition(ref),
				Consumed: p.Consumed,
			}
			if p.Marker != nil {
				pt.Marker = p.Marker.Name
				pt.MarkerActive = p.Marker.Active
			}
			if p.Link != nil {
				link := *p.Link
				pt.Link = &link
				// Each link is stored once, from the older chunk.
				if link.Chunk > ci {
					l.Links = append(l.Links, Link{From: ref, To: link})
				}
			}
			ch.Points[pi] = pt
		}
		l.Chunks[ci] = ch
	}

	if lookup != nil {
		handles := append([]scene.Handle{rep.Player, rep.Enemy}, rep.Batteries...)
		for _, h := range handles {
			if h == "" {
				continue
			}
			if e, ok := lookup.Get(h); ok {
				l.Spawns = append(l.Spawns, Spawn{Kind: e.Kind, Asset: e.Asset, Position: e.Pose.Position})
			}
		}
	}

	for _, a := range rep.Anomalies {
		l.Anomalies = append(l.Anomalies, a.Error())
	}
	return l
}

// Validate checks that every socket reference resolves.
func (l *Layout) Validate() error {
	check := func(what string, r maze.PointRef) error {
		if r.Chunk < 0 || r.Chunk >= len(l.Chunks) {
			return fmt.Errorf("%s %s: unknown chunk", what, r)
		}
		if r.Point < 0 || r.Point >= len(l.Chunks[r.Chunk].Points) {
			return fmt.Errorf("%s %s: unknown socket", what, r)
		}
		return nil
	}

	if len(l.Chunks) == 0 {
		return fmt.Errorf("layout has no chunks")
	}
	for i, c := range l.Chunks {
		if c.Index != i {
			return fmt.Errorf("chunk %d has index %d", i, c.Index)
		}
		for pi, p := range c.Points {
			if p.Link != nil {
				if err := check(fmt.Sprintf("link of %d/%d", i, pi), *p.Link); err != nil {
					return err
				}
			}
		}
	}
	for _, k := range l.Links {
		if err := check("link", k.From); err != nil {
			return err
		}
		if err := check("link", k.To); err != nil {
			return err
		}
	}
	for _, r := range l.Frontier {
		if err := check("frontier", r); err != nil {
			return err
		}
	}
	for _, r := range l.DeadEnds {
		if err := check("dead end", r); err != nil {
			return err
		}
	}
	if err := check("exit", l.Selection.Exit); err != nil {
		return err
	}
	return check("enemy", l.Selection.Enemy)
}
