// Package testutil provides shared test fixtures for the vessel packages.
//
// This package centralises registry and phantom builders so that the
// tracing, post-pass, rendering and storage tests describe their inputs
// the same way.
package testutil

import (
	"testing"

	"github.com/banshee-data/vesseltrace/internal/vessel/geometry"
	"github.com/banshee-data/vesseltrace/internal/vessel/registry"
	"github.com/banshee-data/vesseltrace/internal/vessel/volume"
)

// Square returns the four-corner contour of an axis-aligned square with
// its top-left corner at (x,y).
func Square(x, y, side int) geometry.Contour {
	return geometry.Contour{{X: x, Y: y}, {X: x + side, Y: y}, {X: x + side, Y: y + side}, {X: x, Y: y + side}}
}

// FillBranch creates a root branch owning contour c at every depth in
// [lo, hi], committed from hi down.
func FillBranch(t *testing.T, reg *registry.Registry, lo, hi int, c geometry.Contour) registry.BranchID {
	t.Helper()
	b := reg.NewBranch(registry.NoParent, false)
	for d := hi; d >= lo; d-- {
		if err := reg.AddArea(d, b.ID, c, false); err != nil {
			t.Fatalf("AddArea(%d, %d): %v", d, b.ID, err)
		}
	}
	return b.ID
}

// TotalAreas counts the areas on every depth level.
func TotalAreas(reg *registry.Registry) int {
	n := 0
	for d := 0; d < reg.Depth(); d++ {
		n += len(reg.AreasAt(d))
	}
	return n
}

// StraightTube returns a 40×40×depth phantom holding one vertical tube of
// radius 5 and intensity 200 centred on (20,20), spanning depths from..to.
func StraightTube(depth, from, to int) *volume.Volume {
	c := geometry.PointF{X: 20, Y: 20}
	return volume.Phantom(40, 40, depth, volume.Tube{
		From: c, To: c, FromDepth: from, ToDepth: to, Radius: 5, Intensity: 200,
	})
}

// AssertRegistryConsistent checks that every live branch's length equals
// the number of areas it owns, that no branch owns two areas at one depth
// and that no area belongs to a removed branch.
func AssertRegistryConsistent(t *testing.T, reg *registry.Registry) {
	t.Helper()
	counts := map[registry.BranchID]int{}
	for d := 0; d < reg.Depth(); d++ {
		seen := map[registry.BranchID]bool{}
		for _, a := range reg.AreasAt(d) {
			if seen[a.Branch] {
				t.Errorf("branch %d has two areas at depth %d", a.Branch, d)
			}
			seen[a.Branch] = true
			counts[a.Branch]++
		}
	}
	for _, id := range reg.Live() {
		if got, want := counts[id], reg.Branch(id).Length; got != want {
			t.Errorf("branch %d owns %d areas, length is %d", id, got, want)
		}
		delete(counts, id)
	}
	for id, n := range counts {
		t.Errorf("%d areas owned by removed branch %d", n, id)
	}
}
