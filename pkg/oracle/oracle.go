// Package oracle answers the one geometric question the maze generator asks:
// do two posed collision volumes overlap, and how deep is the overlap?
//
// The generator only depends on the [Oracle] interface. [SAT] is an exact
// separating-axis implementation for the yaw-rotated boxes produced by
// [geom.Pose]; engine-backed penetration tests can satisfy the same interface.
package oracle

import "github.com/matzehuels/chunkmaze/pkg/geom"

// Contact is the result of an overlap query.
type Contact struct {
	// Overlapped reports whether the volumes interpenetrate.
	Overlapped bool

	// Direction is the unit vector along which the first volume must move
	// to separate from the second. Zero when Overlapped is false.
	Direction geom.Vec3

	// Distance is the penetration depth along Direction.
	Distance float64
}

// Oracle reports overlap between two posed volumes. Implementations must be
// side-effect free.
type Oracle interface {
	Overlap(a geom.Box, pa geom.Pose, b geom.Box, pb geom.Pose) Contact
}

// Func adapts an ordinary function to the [Oracle] interface.
type Func func(a geom.Box, pa geom.Pose, b geom.Box, pb geom.Pose) Contact

// Overlap calls f.
func (f Func) Overlap(a geom.Box, pa geom.Pose, b geom.Box, pb geom.Pose) Contact {
	return f(a, pa, b, pb)
}

// Never is an oracle that never reports overlap.
var Never = Func(func(geom.Box, geom.Pose, geom.Box, geom.Pose) Contact {
	return Contact{}
})

// Always returns an oracle that reports every pair as overlapping by depth.
func Always(depth float64) Oracle {
	return Func(func(geom.Box, geom.Pose, geom.Box, geom.Pose) Contact {
		return Contact{Overlapped: true, Direction: geom.Up, Distance: depth}
	})
}

// Rejects reports whether c blocks a placement under the given margin.
// Contacts shallower than margin are treated as seam noise.
func Rejects(c Contact, margin float64) bool {
	return c.Overlapped && c.Distance >= margin
}
