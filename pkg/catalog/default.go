package catalog

import "github.com/matzehuels/chunkmaze/pkg/geom"

// RoomHalfSize is the half width of the built-in rooms on X and Z.
const RoomHalfSize = 5

// corridorHalfWidth keeps a corridor turned sideways against a doorway at
// least 1.5 units inside its neighbour, so only the facing rotation fits.
const corridorHalfWidth = 4

var (
	roomVolume     = geom.Box{Center: geom.V(0, 2, 0), HalfExtents: geom.V(RoomHalfSize, 2, RoomHalfSize)}
	corridorVolume = geom.Box{Center: geom.V(0, 2, 0), HalfExtents: geom.V(RoomHalfSize, 2, corridorHalfWidth)}
)

func socket(name string, x, z float64) PointSpec {
	pos := geom.V(x, 0, z)
	return PointSpec{Name: name, Position: pos, Offset: DefaultOffset(pos), Marker: "door_" + name}
}

var (
	east  = socket("east", RoomHalfSize, 0)
	west  = socket("west", -RoomHalfSize, 0)
	north = socket("north", 0, RoomHalfSize)
	south = socket("south", 0, -RoomHalfSize)
)

// Default returns the built-in library: four-way, three-way, corner,
// corridor and cap rooms that can be reused freely, plus a single-use vault.
// Every socket carries a door marker so dead ends are capped.
func Default() *Library {
	return &Library{
		Reusable: []Template{
			{ID: "cross", Volume: roomVolume, Points: []PointSpec{east, west, north, south}},
			{ID: "tee", Volume: roomVolume, Points: []PointSpec{east, west, north}},
			{ID: "corner", Volume: roomVolume, Points: []PointSpec{east, north}},
			{ID: "corridor", Volume: corridorVolume, Points: []PointSpec{east, west}},
			{ID: "cap", Volume: roomVolume, Points: []PointSpec{west}},
		},
		SingleUse: []Template{
			{ID: "vault", Volume: roomVolume, Points: []PointSpec{west}},
		},
	}
}
