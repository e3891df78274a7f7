package oracle

import (
	"math"

	"github.com/matzehuels/chunkmaze/pkg/geom"
)

// SAT is an exact separating-axis overlap test for boxes rotated only about
// the vertical axis. For such boxes the candidate separating axes are the two
// horizontal face normals of each box plus the vertical axis; edge-edge cross
// products add nothing new.
//
// Boxes that merely touch (zero depth on some axis) are not overlapping.
type SAT struct{}

var _ Oracle = SAT{}

// Overlap implements [Oracle].
func (SAT) Overlap(a geom.Box, pa geom.Pose, b geom.Box, pb geom.Pose) Contact {
	if a.IsZero() || b.IsZero() {
		return Contact{}
	}

	ca := pa.Apply(a.Center)
	cb := pb.Apply(b.Center)
	delta := ca.Sub(cb)

	ax, az := a.Axes(pa)
	bx, bz := b.Axes(pb)
	axes := [...]geom.Vec3{geom.Up, ax, az, bx, bz}

	best := math.Inf(1)
	var dir geom.Vec3
	for _, axis := range axes {
		ra := radius(a.HalfExtents, ax, az, axis)
		rb := radius(b.HalfExtents, bx, bz, axis)
		d := delta.Dot(axis)
		depth := ra + rb - math.Abs(d)
		if depth <= 0 {
			return Contact{}
		}
		if depth < best {
			best = depth
			dir = axis
			if d < 0 {
				dir = axis.Scale(-1)
			}
		}
	}

	return Contact{Overlapped: true, Direction: dir, Distance: best}
}

// radius is the half-length of the box's projection onto axis.
func radius(h, x, z, axis geom.Vec3) float64 {
	return h.X*math.Abs(x.Dot(axis)) + h.Y*math.Abs(axis.Y) + h.Z*math.Abs(z.Dot(axis))
}
