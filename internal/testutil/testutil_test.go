package testutil

import (
	"image"
	"testing"

	"github.com/banshee-data/vesseltrace/internal/vessel/registry"
)

func TestSquare(t *testing.T) {
	t.Parallel()

	c := Square(2, 3, 4)
	if len(c) != 4 {
		t.Fatalf("len = %d, want 4", len(c))
	}
	if got, want := c.Bounds(), image.Rect(2, 3, 7, 8); got != want {
		t.Errorf("bounds = %v, want %v", got, want)
	}
}

func TestFillBranch(t *testing.T) {
	t.Parallel()

	reg := registry.New(10, 10)
	id := FillBranch(t, reg, 3, 7, Square(0, 0, 2))
	if got := reg.Branch(id).Length; got != 5 {
		t.Errorf("length = %d, want 5", got)
	}
	if got := TotalAreas(reg); got != 5 {
		t.Errorf("TotalAreas = %d, want 5", got)
	}
	AssertRegistryConsistent(t, reg)
}

func TestStraightTube(t *testing.T) {
	t.Parallel()

	vol := StraightTube(10, 2, 5)
	if vol.Depth() != 10 {
		t.Fatalf("depth = %d, want 10", vol.Depth())
	}
	if vol.Slice(3).At(20, 20) != 200 {
		t.Error("tube missing at depth 3")
	}
	if vol.Slice(6).At(20, 20) != 0 {
		t.Error("tube present outside its span")
	}
}
