package registry

import (
	"errors"
	"testing"

	"github.com/banshee-data/vesseltrace/internal/vessel/geometry"
)

func square(x, y int) geometry.Contour {
	return geometry.Contour{{X: x, Y: y}, {X: x + 2, Y: y}, {X: x + 2, Y: y + 2}, {X: x, Y: y + 2}}
}

func TestNewBranchIDs(t *testing.T) {
	r := New(5, 10)
	a := r.NewBranch(NoParent, false)
	b := r.NewBranch(a.ID, false)
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("ids = %d, %d; want 1, 2", a.ID, b.ID)
	}

	r.RemoveBranch(b.ID)
	c := r.NewBranch(a.ID, false)
	if c.ID != 3 {
		t.Errorf("id after removal = %d, want 3 (ids are never reused)", c.ID)
	}
	if r.Branch(b.ID) != nil {
		t.Error("removed branch still reachable")
	}

	live := r.Live()
	if len(live) != 2 || live[0] != 1 || live[1] != 3 {
		t.Errorf("Live() = %v, want [1 3]", live)
	}
}

func TestNewBranchIntensityHistory(t *testing.T) {
	r := New(5, 10)
	root := r.NewBranch(NoParent, false)
	root.Intensity.Add(100)
	root.Intensity.Add(200)

	child := r.NewBranch(root.ID, false)
	if got := child.Intensity.Average(); got != 150 {
		t.Errorf("child intensity = %v, want inherited 150", got)
	}
	child.Intensity.Add(600)
	if got := root.Intensity.Average(); got != 150 {
		t.Errorf("parent intensity changed to %v after child update", got)
	}

	rev := r.NewBranch(root.ID, true)
	if rev.Intensity.Len() != 0 {
		t.Errorf("reverse branch inherited %d intensity samples", rev.Intensity.Len())
	}
}

func TestAreasAndLength(t *testing.T) {
	r := New(4, 10)
	b := r.NewBranch(NoParent, false)

	for d := 3; d >= 1; d-- {
		if err := r.AddArea(d, b.ID, square(d, d), false); err != nil {
			t.Fatalf("AddArea(%d): %v", d, err)
		}
	}
	if b.Length != 3 {
		t.Errorf("Length = %d, want 3", b.Length)
	}

	if !r.RemoveArea(2, b.ID) {
		t.Fatal("RemoveArea reported nothing removed")
	}
	if b.Length != 2 {
		t.Errorf("Length after RemoveArea = %d, want 2", b.Length)
	}
	if r.RemoveArea(2, b.ID) {
		t.Error("second RemoveArea at same depth should find nothing")
	}

	if err := r.AddArea(4, b.ID, square(0, 0), false); !errors.Is(err, ErrDepthOutOfRange) {
		t.Errorf("AddArea beyond depth: err = %v, want ErrDepthOutOfRange", err)
	}
	if err := r.AddArea(0, 99, square(0, 0), false); !errors.Is(err, ErrUnknownBranch) {
		t.Errorf("AddArea for unknown branch: err = %v, want ErrUnknownBranch", err)
	}
}

func TestTrajectoryStopsAtFirstGap(t *testing.T) {
	r := New(8, 10)
	b := r.NewBranch(NoParent, false)
	for _, d := range []int{6, 5, 4, 1} {
		if err := r.AddArea(d, b.ID, square(d, 0), d == 5); err != nil {
			t.Fatal(err)
		}
	}

	areas, offset := r.Trajectory(b.ID)
	if offset != 6 {
		t.Errorf("offset = %d, want 6", offset)
	}
	if len(areas) != 3 {
		t.Fatalf("len(areas) = %d, want 3", len(areas))
	}
	if !areas[1].Predicted {
		t.Error("areas[1] should be the predicted area at depth 5")
	}
	if areas[2].Contour[0].X != 4 {
		t.Errorf("areas[2] starts at x=%d, want area from depth 4", areas[2].Contour[0].X)
	}

	if got := r.StartDepth(b.ID); got != 6 {
		t.Errorf("StartDepth = %d, want 6", got)
	}
	last, ok := r.LastArea(b.ID)
	if !ok || last.Contour[0].X != 1 {
		t.Errorf("LastArea = %+v, want the area at depth 1", last)
	}

	empty := r.NewBranch(NoParent, false)
	if areas, offset := r.Trajectory(empty.ID); areas != nil || offset != 0 {
		t.Errorf("Trajectory(empty) = %v, %d", areas, offset)
	}
	if got := r.StartDepth(empty.ID); got != -1 {
		t.Errorf("StartDepth(empty) = %d, want -1", got)
	}
}

func TestRemoveBranchPurgesAllDepths(t *testing.T) {
	r := New(6, 10)
	a := r.NewBranch(NoParent, false)
	b := r.NewBranch(NoParent, false)
	for _, d := range []int{5, 4, 2} {
		_ = r.AddArea(d, a.ID, square(0, 0), false)
		_ = r.AddArea(d, b.ID, square(5, 5), false)
	}

	r.RemoveBranch(a.ID)
	for d := 0; d < r.Depth(); d++ {
		for _, area := range r.AreasAt(d) {
			if area.Branch == a.ID {
				t.Errorf("depth %d still holds an area of removed branch", d)
			}
		}
	}
	if got := len(r.AreasAt(4)); got != 1 {
		t.Errorf("depth 4 has %d areas, want 1", got)
	}
}

func TestDerive(t *testing.T) {
	r := New(3, 10)
	a := r.NewBranch(NoParent, false)
	b := r.NewBranch(a.ID, false)
	_ = r.AddArea(2, a.ID, square(0, 0), false)
	_ = r.AddArea(1, b.ID, square(0, 0), false)
	r.RemoveBranch(b.ID)
	r.AddOverlay(0, square(1, 1))
	r.AddLabel(0, geometry.Point{X: 1, Y: 1}, "1.00,3.00,200.00")

	d := r.Derive()
	if d.Depth() != 3 {
		t.Errorf("Depth() = %d, want 3", d.Depth())
	}
	if got := d.Live(); len(got) != 1 || got[0] != a.ID {
		t.Errorf("Live() = %v, want [%d]", got, a.ID)
	}
	if d.Branch(a.ID).Length != 0 || len(d.AreasAt(2)) != 0 {
		t.Error("derived registry should hold no areas")
	}
	if len(d.Overlay(0)) != 0 || len(d.Labels()) != 0 {
		t.Error("derived registry should not carry diagnostics")
	}
	if next := d.NewBranch(NoParent, false); next.ID != 3 {
		t.Errorf("next id in derived registry = %d, want 3", next.ID)
	}
	if r.Branch(a.ID).Length != 1 {
		t.Error("Derive modified its source")
	}
}

func TestRestore(t *testing.T) {
	r := New(2, 10)
	if _, err := r.Restore(4, NoParent, false); err != nil {
		t.Fatal(err)
	}
	r.RaiseLastID(7)
	if next := r.NewBranch(NoParent, false); next.ID != 8 {
		t.Errorf("NewBranch after restore = %d, want 8", next.ID)
	}
	if r.Branch(2) != nil {
		t.Error("unused id below a restored id should be empty")
	}
	if _, err := r.Restore(0, NoParent, false); !errors.Is(err, ErrUnknownBranch) {
		t.Errorf("Restore(0): err = %v", err)
	}
}

func TestOverlayAndTargets(t *testing.T) {
	r := New(2, 10)
	r.AddOverlay(1, square(0, 0))
	r.AddOverlay(5, square(0, 0)) // ignored
	if got := r.Overlay(1); len(got) != 1 || got[0].Branch != OverlayID {
		t.Errorf("Overlay(1) = %+v", got)
	}

	b := r.NewBranch(NoParent, false)
	r.SetTarget(b.ID, geometry.Point{X: 4, Y: 2})
	if p, ok := r.Target(b.ID); !ok || p != (geometry.Point{X: 4, Y: 2}) {
		t.Errorf("Target = %v, %v", p, ok)
	}
	if _, ok := r.Target(42); ok {
		t.Error("Target of unknown branch should report false")
	}
}
