package maze

import (
	"fmt"

	"github.com/matzehuels/chunkmaze/pkg/geom"
	"github.com/matzehuels/chunkmaze/pkg/scene"
)

// PointRef addresses a socket by chunk index and socket index. Indices are
// stable for the lifetime of a pass.
type PointRef struct {
	Chunk int `json:"chunk"`
	Point int `json:"point"`
}

func (r PointRef) String() string { return fmt.Sprintf("%d/%d", r.Chunk, r.Point) }

// Marker is the dead-end cap of a socket. Active means the cap is shown and
// the socket is still an open dead end; inactive means the socket was
// connected through.
type Marker struct {
	Name   string
	Active bool
	Handle scene.Handle
}

// ConnectionPoint is a socket on a placed chunk. Position and Offset are in
// the chunk frame.
type ConnectionPoint struct {
	Name     string
	Position geom.Vec3
	Offset   geom.Vec3
	Marker   *Marker
	Consumed bool
	// Link is the socket on the other side once connected.
	Link *PointRef
}

// IsOpenDeadEnd reports whether the socket has a marker that is still active.
func (p *ConnectionPoint) IsOpenDeadEnd() bool {
	return p.Marker != nil && p.Marker.Active
}

// ChunkInstance is a placed template.
type ChunkInstance struct {
	TemplateID string
	SingleUse  bool
	Pose       geom.Pose
	Volume     geom.Box
	Points     []ConnectionPoint
	Handle     scene.Handle
}

// Maze is the arena of placed chunks for one pass.
type Maze struct {
	Chunks   []ChunkInstance
	Frontier Frontier
	// Depth counts successful placements after the seed chunk.
	Depth  int
	Budget int
	// DeadEnds are the sockets that were drawn but could not be extended.
	DeadEnds []PointRef
}

func newMaze(budget int) *Maze {
	return &Maze{Budget: budget}
}

// Point returns the socket ref points at.
func (m *Maze) Point(ref PointRef) *ConnectionPoint {
	return &m.Chunks[ref.Chunk].Points[ref.Point]
}

// PointPosition returns the socket position in the root frame.
func (m *Maze) PointPosition(ref PointRef) geom.Vec3 {
	c := &m.Chunks[ref.Chunk]
	return c.Pose.Apply(c.Points[ref.Point].Position)
}

// Target returns the root-frame position a neighbour's mating offset must
// land on to connect to ref.
func (m *Maze) Target(ref PointRef) geom.Vec3 {
	c := &m.Chunks[ref.Chunk]
	p := &c.Points[ref.Point]
	return c.Pose.Apply(p.Position).Add(c.Pose.ApplyVector(p.Offset))
}

// Sockets returns the number of sockets across all chunks.
func (m *Maze) Sockets() int {
	n := 0
	for i := range m.Chunks {
		n += len(m.Chunks[i].Points)
	}
	return n
}

// OpenDeadEnds returns every socket whose marker is still active.
func (m *Maze) OpenDeadEnds() []PointRef {
	var out []PointRef
	for ci := range m.Chunks {
		for pi := range m.Chunks[ci].Points {
			if m.Chunks[ci].Points[pi].IsOpenDeadEnd() {
				out = append(out, PointRef{Chunk: ci, Point: pi})
			}
		}
	}
	return out
}
