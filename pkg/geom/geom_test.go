package geom

import (
	"encoding/json"
	"math"
	"testing"
)

func TestRotateYQuarterTurns(t *testing.T) {
	tests := []struct {
		deg  float64
		want Vec3
	}{
		{0, V(1, 0, 0)},
		{90, V(0, 0, -1)},
		{180, V(-1, 0, 0)},
		{270, V(0, 0, 1)},
		{360, V(1, 0, 0)},
		{-90, V(0, 0, 1)},
	}

	for _, tt := range tests {
		got := V(1, 0, 0).RotateY(tt.deg)
		if got != tt.want {
			t.Errorf("RotateY(%v) = %+v, want %+v", tt.deg, got, tt.want)
		}
	}
}

func TestRotateYPreservesLength(t *testing.T) {
	v := V(3, 2, -4)
	got := v.RotateY(37).Len()
	if math.Abs(got-v.Len()) > 1e-9 {
		t.Errorf("length changed: %v -> %v", v.Len(), got)
	}
}

func TestNormalizeYaw(t *testing.T) {
	tests := map[float64]float64{0: 0, 90: 90, 360: 0, 450: 90, -90: 270, -720: 0}
	for in, want := range tests {
		if got := NormalizeYaw(in); got != want {
			t.Errorf("NormalizeYaw(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestPoseRotateAroundKeepsPivot(t *testing.T) {
	pivot := V(5, 0, 0)
	p := Pose{Position: V(10, 0, 0)}

	for _, deg := range []float64{0, 90, 180, 270} {
		r := p.RotateAround(pivot, deg)
		dist := r.Position.Sub(pivot).Len()
		if math.Abs(dist-5) > 1e-9 {
			t.Errorf("deg %v: distance to pivot = %v, want 5", deg, dist)
		}
		if r.Yaw != deg {
			t.Errorf("deg %v: yaw = %v", deg, r.Yaw)
		}
	}

	if got := p.RotateAround(pivot, 180).Position; got != V(0, 0, 0) {
		t.Errorf("180 about pivot = %+v, want origin", got)
	}
}

func TestPoseApply(t *testing.T) {
	p := Pose{Position: V(1, 0, 1), Yaw: 90}
	if got := p.Apply(V(2, 0, 0)); got != V(1, 0, -1) {
		t.Errorf("Apply = %+v", got)
	}
	if got := p.ApplyVector(V(2, 0, 0)); got != V(0, 0, -2) {
		t.Errorf("ApplyVector = %+v", got)
	}
}

func TestPoseCompose(t *testing.T) {
	root := Pose{Position: V(10, 0, 0), Yaw: 90}
	child := Pose{Position: V(1, 0, 0), Yaw: 90}
	got := root.Compose(child)
	if !got.Position.ApproxEqual(V(10, 0, -1), 1e-12) || got.Yaw != 180 {
		t.Errorf("Compose = %+v", got)
	}
}

func TestBoxIsZero(t *testing.T) {
	if !(Box{}).IsZero() {
		t.Error("empty box should be zero")
	}
	if (Box{HalfExtents: V(1, 1, 1)}).IsZero() {
		t.Error("unit box should not be zero")
	}
}

func TestVec3JSON(t *testing.T) {
	data, err := json.Marshal(V(1, 2.5, -3))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[1,2.5,-3]" {
		t.Errorf("Marshal = %s", data)
	}

	var v Vec3
	if err := json.Unmarshal([]byte("[4,5,6]"), &v); err != nil {
		t.Fatal(err)
	}
	if v != V(4, 5, 6) {
		t.Errorf("Unmarshal = %+v", v)
	}
}
