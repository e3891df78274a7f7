package oracle

import (
	"math"
	"testing"

	"github.com/matzehuels/chunkmaze/pkg/geom"
)

func unitRoom(half float64) geom.Box {
	return geom.Box{HalfExtents: geom.V(half, 2, half)}
}

func TestSATOverlap(t *testing.T) {
	room := unitRoom(5)

	tests := []struct {
		name       string
		pb         geom.Pose
		overlapped bool
		distance   float64
	}{
		{"identical", geom.Pose{}, true, 4},
		{"touching seam", geom.Pose{Position: geom.V(10, 0, 0)}, false, 0},
		{"separated", geom.Pose{Position: geom.V(12, 0, 0)}, false, 0},
		{"shallow", geom.Pose{Position: geom.V(9.5, 0, 0)}, true, 0.5},
		{"deep", geom.Pose{Position: geom.V(7, 0, 0)}, true, 3},
		{"rotated deep", geom.Pose{Position: geom.V(0, 0, 6), Yaw: 90}, true, 4},
		{"stacked above", geom.Pose{Position: geom.V(0, 4, 0)}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := SAT{}.Overlap(room, geom.Pose{}, room, tt.pb)
			if c.Overlapped != tt.overlapped {
				t.Fatalf("Overlapped = %v, want %v", c.Overlapped, tt.overlapped)
			}
			if math.Abs(c.Distance-tt.distance) > 1e-9 {
				t.Errorf("Distance = %v, want %v", c.Distance, tt.distance)
			}
		})
	}
}

func TestSATDirectionSeparatesFirstVolume(t *testing.T) {
	room := unitRoom(5)
	c := SAT{}.Overlap(room, geom.Pose{}, room, geom.Pose{Position: geom.V(8, 0, 0)})
	if !c.Overlapped {
		t.Fatal("expected overlap")
	}
	if c.Direction != geom.V(-1, 0, 0) {
		t.Errorf("Direction = %+v, want -X", c.Direction)
	}
}

func TestSATRotatedThinBoxes(t *testing.T) {
	// A corridor along X and one turned 45 degrees that misses its end.
	corridor := geom.Box{HalfExtents: geom.V(5, 1, 1)}
	other := SAT{}.Overlap(corridor, geom.Pose{}, corridor, geom.Pose{Position: geom.V(0, 0, 4.5), Yaw: 45})
	if !other.Overlapped {
		t.Error("diagonal corridor should cross the straight one")
	}

	miss := SAT{}.Overlap(corridor, geom.Pose{}, corridor, geom.Pose{Position: geom.V(0, 0, 10), Yaw: 45})
	if miss.Overlapped {
		t.Error("far diagonal corridor should not overlap")
	}
}

func TestSATZeroVolume(t *testing.T) {
	c := SAT{}.Overlap(geom.Box{}, geom.Pose{}, unitRoom(5), geom.Pose{})
	if c.Overlapped {
		t.Error("zero-volume box should never overlap")
	}
}

func TestRejects(t *testing.T) {
	tests := []struct {
		c    Contact
		want bool
	}{
		{Contact{}, false},
		{Contact{Overlapped: true, Distance: 0.99}, false},
		{Contact{Overlapped: true, Distance: 1}, true},
		{Contact{Overlapped: true, Distance: 3}, true},
	}
	for _, tt := range tests {
		if got := Rejects(tt.c, 1); got != tt.want {
			t.Errorf("Rejects(%+v) = %v, want %v", tt.c, got, tt.want)
		}
	}
}

func TestAlwaysAndNever(t *testing.T) {
	b := unitRoom(1)
	if Never.Overlap(b, geom.Pose{}, b, geom.Pose{}).Overlapped {
		t.Error("Never reported overlap")
	}
	if c := Always(2).Overlap(b, geom.Pose{}, b, geom.Pose{}); !c.Overlapped || c.Distance != 2 {
		t.Errorf("Always(2) = %+v", c)
	}
}
