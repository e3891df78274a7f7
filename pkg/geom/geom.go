// Package geom provides the small amount of 3D math the maze generator needs:
// vectors, yaw-only poses and box-shaped collision volumes.
//
// All rotations are about the vertical +Y axis. A positive yaw of 90 degrees
// maps +X onto -Z, matching the left-handed convention used by most game
// engines. Quarter turns are computed exactly so that chunk seams placed at
// 0/90/180/270 degrees land on identical coordinates.
package geom

import (
	"encoding/json"
	"math"
)

// Vec3 is a float64 3D vector.
type Vec3 struct {
	X, Y, Z float64
}

// Zero is the origin.
var Zero = Vec3{}

// Up is the unit vertical axis all yaw rotations are taken about.
var Up = Vec3{Y: 1}

// Forward is the unit +Z axis.
var Forward = Vec3{Z: 1}

// V returns the vector (x, y, z).
func V(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Len() float64 { return math.Sqrt(v.Dot(v)) }

// Normalize returns v scaled to unit length, or the zero vector if v is zero.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// RotateY rotates v about +Y by deg degrees.
func (v Vec3) RotateY(deg float64) Vec3 {
	s, c := sincos(deg)
	return Vec3{
		X: v.X*c + v.Z*s,
		Y: v.Y,
		Z: -v.X*s + v.Z*c,
	}
}

// ApproxEqual reports whether every component of v and o differs by at most eps.
func (v Vec3) ApproxEqual(o Vec3, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps && math.Abs(v.Z-o.Z) <= eps
}

// MarshalJSON encodes v as a three-element array.
func (v Vec3) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{v.X, v.Y, v.Z})
}

// UnmarshalJSON decodes a three-element array.
func (v *Vec3) UnmarshalJSON(data []byte) error {
	var a [3]float64
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*v = Vec3{X: a[0], Y: a[1], Z: a[2]}
	return nil
}

// sincos snaps multiples of 90 degrees to exact values.
func sincos(deg float64) (float64, float64) {
	d := NormalizeYaw(deg)
	switch d {
	case 0:
		return 0, 1
	case 90:
		return 1, 0
	case 180:
		return 0, -1
	case 270:
		return -1, 0
	}
	r := d * math.Pi / 180
	return math.Sin(r), math.Cos(r)
}

// NormalizeYaw maps deg into [0, 360).
func NormalizeYaw(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// Pose is a rigid transform restricted to a translation and a yaw.
// The zero value is the identity.
type Pose struct {
	Position Vec3
	Yaw      float64 // degrees about +Y, normalized to [0, 360)
}

// Apply maps a point from the pose's local frame into the parent frame.
func (p Pose) Apply(local Vec3) Vec3 {
	return p.Position.Add(local.RotateY(p.Yaw))
}

// ApplyVector maps a direction from the local frame into the parent frame.
// Unlike Apply, it ignores the translation.
func (p Pose) ApplyVector(local Vec3) Vec3 {
	return local.RotateY(p.Yaw)
}

// Compose returns the pose of child expressed in p's parent frame.
func (p Pose) Compose(child Pose) Pose {
	return Pose{
		Position: p.Apply(child.Position),
		Yaw:      NormalizeYaw(p.Yaw + child.Yaw),
	}
}

// RotateAround rotates the pose about a vertical axis through pivot.
// Both the position and the orientation turn by deg.
func (p Pose) RotateAround(pivot Vec3, deg float64) Pose {
	return Pose{
		Position: pivot.Add(p.Position.Sub(pivot).RotateY(deg)),
		Yaw:      NormalizeYaw(p.Yaw + deg),
	}
}

// Box is an axis-aligned box in its owner's local frame. Once the owner is
// posed the box becomes oriented by the owner's yaw.
type Box struct {
	Center      Vec3 `json:"center"`
	HalfExtents Vec3 `json:"half_extents"`
}

// IsZero reports whether the box has no volume.
func (b Box) IsZero() bool {
	return b.HalfExtents.X <= 0 || b.HalfExtents.Y <= 0 || b.HalfExtents.Z <= 0
}

// Axes returns the box's local X and Z axes in the parent frame for pose p.
func (b Box) Axes(p Pose) (x, z Vec3) {
	return p.ApplyVector(Vec3{X: 1}), p.ApplyVector(Vec3{Z: 1})
}
