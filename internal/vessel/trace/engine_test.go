package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/vesseltrace/internal/testutil"
	"github.com/banshee-data/vesseltrace/internal/vessel/geometry"
	"github.com/banshee-data/vesseltrace/internal/vessel/registry"
	"github.com/banshee-data/vesseltrace/internal/vessel/volume"
)

type recorder struct {
	created, halted, commits, depths int
	triggered, confirmed, rejected   int
}

func (r *recorder) BranchCreated(registry.BranchID, registry.BranchID, int) { r.created++ }
func (r *recorder) BranchHalted(registry.BranchID, int, bool) { r.halted++ }
func (r *recorder) AreaCommitted(registry.BranchID, int, bool) { r.commits++ }
func (r *recorder) SplitTriggered(registry.BranchID, registry.BranchID, int) {
	r.triggered++
}
func (r *recorder) SplitResolved(_, _ registry.BranchID, ok bool) {
	if ok {
		r.confirmed++
	} else {
		r.rejected++
	}
}
func (r *recorder) DepthCompleted(int, int) { r.depths++ }

func TestEngine_StraightTube(t *testing.T) {
	t.Parallel()

	e := NewEngine(testutil.StraightTube(100, 0, 99), geometry.Planar{}, DefaultConfig())
	rec := &recorder{}
	e.SetObserver(rec)

	id, err := e.Seed(99, geometry.Point{X: 20, Y: 20})
	require.NoError(t, err)
	require.NoError(t, e.Run(context.Background()))

	reg := e.Registry()
	require.Equal(t, []registry.BranchID{id}, reg.Live())
	assert.Equal(t, 100, reg.Branch(id).Length)
	assert.Equal(t, halted, e.Pointer(id))

	areas, offset := reg.Trajectory(id)
	assert.Len(t, areas, 100)
	assert.Equal(t, 99, offset)
	for _, a := range areas {
		assert.False(t, a.Predicted)
	}

	st := e.Stats()
	assert.Zero(t, st.SplitsTriggered)
	assert.Equal(t, 100, st.AreasCommitted)
	assert.Zero(t, st.BranchesDeleted)

	assert.Equal(t, 1, rec.created)
	assert.Equal(t, 100, rec.commits)
	assert.Equal(t, 100, rec.depths)
	assert.Len(t, reg.Labels(), 100)
	testutil.AssertRegistryConsistent(t, reg)
}

func TestEngine_StopDepthInclusive(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.StopDepth = 50
	e := NewEngine(testutil.StraightTube(100, 0, 99), geometry.Planar{}, cfg)
	id, err := e.Seed(99, geometry.Point{X: 20, Y: 20})
	require.NoError(t, err)
	require.NoError(t, e.Run(context.Background()))

	assert.Equal(t, 50, e.Registry().Branch(id).Length)
	assert.Equal(t, halted, e.Pointer(id), "open branches are halted at the stop depth")
	_, ok := e.Registry().AreaOf(50, id)
	assert.True(t, ok, "stop depth itself is explored")
	assert.Equal(t, 1, e.Stats().BranchesHalted)
}

func TestEngine_MinLengthAppliesAtVolumeEnd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		depth     int
		stopDepth int
		wantLive  bool
	}{
		{"short tube reaching depth 0", 10, 0, false},
		{"short run to stop depth", 100, 90, false},
		{"long tube reaching depth 0", 25, 0, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			cfg.StopDepth = tt.stopDepth
			e := NewEngine(testutil.StraightTube(tt.depth, 0, tt.depth-1), geometry.Planar{}, cfg)
			rec := &recorder{}
			e.SetObserver(rec)
			id, err := e.Seed(tt.depth-1, geometry.Point{X: 20, Y: 20})
			require.NoError(t, err)
			require.NoError(t, e.Run(context.Background()))

			assert.Equal(t, halted, e.Pointer(id))
			assert.Equal(t, 1, rec.halted)
			if tt.wantLive {
				assert.Equal(t, []registry.BranchID{id}, e.Registry().Live())
				assert.Zero(t, e.Stats().BranchesDeleted)
			} else {
				assert.Empty(t, e.Registry().Live())
				assert.Equal(t, 1, e.Stats().BranchesDeleted)
			}
			testutil.AssertRegistryConsistent(t, e.Registry())
		})
	}
}

func TestEngine_HaltAndDelete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		tubeFrom    int
		wantLive    bool
		wantLength  int
		wantDeleted int
	}{
		{"short branch deleted", 90, false, 0, 1},
		{"long branch kept", 70, true, 30, 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := NewEngine(testutil.StraightTube(100, tt.tubeFrom, 99), geometry.Planar{}, DefaultConfig())
			id, err := e.Seed(99, geometry.Point{X: 20, Y: 20})
			require.NoError(t, err)
			require.NoError(t, e.Run(context.Background()))

			b := e.Registry().Branch(id)
			if tt.wantLive {
				require.NotNil(t, b)
				assert.Equal(t, tt.wantLength, b.Length)
			} else {
				assert.Nil(t, b)
				for d := 0; d < 100; d++ {
					assert.Empty(t, e.Registry().AreasAt(d))
				}
			}
			assert.Equal(t, halted, e.Pointer(id))
			assert.Equal(t, tt.wantDeleted, e.Stats().BranchesDeleted)
			assert.Equal(t, 1, e.Stats().BranchesHalted, "a halted branch is never explored again")
		})
	}
}

func TestEngine_RunHonoursCancellation(t *testing.T) {
	t.Parallel()

	e := NewEngine(testutil.StraightTube(100, 0, 99), geometry.Planar{}, DefaultConfig())
	_, err := e.Seed(99, geometry.Point{X: 20, Y: 20})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, e.Run(ctx), context.Canceled)
	assert.Zero(t, e.Stats().AreasCommitted)
}

func TestEngine_SeedErrors(t *testing.T) {
	t.Parallel()

	e := NewEngine(testutil.StraightTube(10, 0, 9), geometry.Planar{}, DefaultConfig())
	_, err := e.Seed(10, geometry.Point{X: 20, Y: 20})
	assert.ErrorContains(t, err, "outside volume")
	_, err = e.Seed(5, geometry.Point{X: 40, Y: 20})
	assert.ErrorContains(t, err, "outside 40x40 slice")
	assert.Empty(t, e.Registry().Live())
}

// forkPhantom is a 60×60 trunk of radius 6 at (30,30) from depth 99 down
// to fork, splitting into two radius 4 tubes that drift apart below it.
func forkPhantom(fork int) *volume.Volume {
	trunk := geometry.PointF{X: 30, Y: 30}
	return volume.Phantom(60, 60, 100,
		volume.Tube{From: trunk, To: trunk, FromDepth: 99, ToDepth: fork, Radius: 6, Intensity: 200},
		volume.Tube{From: geometry.PointF{X: 25, Y: 30}, To: geometry.PointF{X: 10, Y: 30}, FromDepth: fork - 1, ToDepth: 0, Radius: 4, Intensity: 200},
		volume.Tube{From: geometry.PointF{X: 35, Y: 30}, To: geometry.PointF{X: 50, Y: 30}, FromDepth: fork - 1, ToDepth: 0, Radius: 4, Intensity: 200},
	)
}

func TestEngine_Bifurcation(t *testing.T) {
	t.Parallel()

	e := NewEngine(forkPhantom(60), geometry.Planar{}, DefaultConfig())
	rec := &recorder{}
	e.SetObserver(rec)

	root, err := e.Seed(99, geometry.Point{X: 30, Y: 30})
	require.NoError(t, err)
	require.NoError(t, e.Run(context.Background()))

	reg := e.Registry()
	require.Equal(t, []registry.BranchID{root, 2}, reg.Live())
	assert.Equal(t, 100, reg.Branch(root).Length)
	child := reg.Branch(2)
	assert.Equal(t, root, child.Parent)
	assert.Equal(t, 59, child.Length)
	assert.Equal(t, 59, reg.StartDepth(2))

	st := e.Stats()
	assert.Equal(t, 1, st.SplitsConfirmed)
	assert.Equal(t, st.SplitsTriggered, st.SplitsConfirmed+st.SplitsRejected, "every split resolves")
	assert.Equal(t, st.SplitsTriggered, rec.triggered)
	assert.Equal(t, st.SplitsConfirmed, rec.confirmed)
	assert.Equal(t, st.BranchesCreated, rec.created)
	markers := 0
	for d := 0; d < 100; d++ {
		markers += len(reg.Overlay(d))
	}
	assert.GreaterOrEqual(t, markers, 2*st.SplitsTriggered, "each split draws its axis and zone")
	testutil.AssertRegistryConsistent(t, reg)
}

func TestEngine_ShallowForkChildrenDeleted(t *testing.T) {
	t.Parallel()

	// The fork sits too close to depth 0 for any child to survive its
	// confirmation ticks.
	e := NewEngine(forkPhantom(10), geometry.Planar{}, DefaultConfig())
	root, err := e.Seed(99, geometry.Point{X: 30, Y: 30})
	require.NoError(t, err)
	require.NoError(t, e.Run(context.Background()))

	st := e.Stats()
	require.Positive(t, st.SplitsTriggered)
	assert.Zero(t, st.SplitsConfirmed)
	assert.Equal(t, st.SplitsTriggered, st.SplitsRejected)
	assert.Equal(t, st.SplitsRejected, st.BranchesDeleted, "every rejected child is too short to keep")

	reg := e.Registry()
	assert.Equal(t, []registry.BranchID{root}, reg.Live())
	for _, id := range reg.Live() {
		assert.GreaterOrEqual(t, reg.Branch(id).Length, DefaultConfig().MinBranchLength)
	}
	testutil.AssertRegistryConsistent(t, reg)
}

func TestEngine_ConfirmSplitRollsParentBack(t *testing.T) {
	t.Parallel()

	e := NewEngine(testutil.StraightTube(60, 0, 59), geometry.Planar{}, DefaultConfig())
	parent, err := e.Seed(50, geometry.Point{X: 20, Y: 20})
	require.NoError(t, err)
	reg := e.Registry()
	for d := 50; d >= 45; d-- {
		require.NoError(t, reg.AddArea(d, parent, geometry.Contour{{X: 19, Y: 19}, {X: 21, Y: 19}, {X: 21, Y: 21}}, false))
	}
	e.cursor(parent).depth = 44

	child := reg.NewBranch(parent, false)
	e.setCursor(child.ID, cursor{depth: 45})
	e.confirmSplit(child.ID, pendingCommit{parent: parent, target: geometry.Point{X: 22, Y: 20}, depth: 45, radius: 2.5})

	c := e.cursor(parent)
	assert.Equal(t, 45, c.depth)
	assert.Equal(t, 25, c.monitored)
	assert.Equal(t, 25, c.protected)
	b := reg.Branch(parent)
	assert.Equal(t, geometry.Point{X: 22, Y: 20}, b.Target)
	assert.Equal(t, 2.5, b.Radius.Average())
	assert.Equal(t, 1.0, b.Radius.Count())
	assert.Equal(t, 5, b.Length)
	_, ok := reg.AreaOf(45, parent)
	assert.False(t, ok, "area at the split depth is rolled back")
	assert.Equal(t, 1, e.Stats().SplitsConfirmed)
}

func TestEngine_FailedChildLeavesParent(t *testing.T) {
	t.Parallel()

	e := NewEngine(testutil.StraightTube(60, 0, 59), geometry.Planar{}, DefaultConfig())
	parent, err := e.Seed(50, geometry.Point{X: 20, Y: 20})
	require.NoError(t, err)
	reg := e.Registry()
	require.NoError(t, reg.AddArea(50, parent, geometry.Contour{{X: 19, Y: 19}, {X: 21, Y: 19}, {X: 21, Y: 21}}, false))
	e.cursor(parent).depth = 49

	// The child starts on dark background and fails its first tick.
	child := reg.NewBranch(parent, false)
	child.Target = geometry.Point{X: 2, Y: 2}
	child.Radius.Add(1)
	e.setCursor(child.ID, cursor{depth: 50, monitored: 60, protected: 50})
	e.runTask(task{
		branch: child.ID,
		ticks:  20,
		commit: &pendingCommit{parent: parent, target: geometry.Point{X: 25, Y: 25}, depth: 50, radius: 3},
	})

	assert.Equal(t, 1, e.Stats().SplitsRejected)
	assert.Nil(t, reg.Branch(child.ID), "short child deleted")
	assert.Equal(t, 49, e.Pointer(parent))
	assert.Equal(t, geometry.Point{X: 20, Y: 20}, reg.Branch(parent).Target)
	assert.Equal(t, 1, reg.Branch(parent).Length)
}

func TestEngine_ExploreReverse(t *testing.T) {
	t.Parallel()

	t.Run("runs to the deepest slice", func(t *testing.T) {
		t.Parallel()
		e := NewEngine(testutil.StraightTube(100, 0, 99), geometry.Planar{}, DefaultConfig())
		n, err := e.ExploreReverse(context.Background(), 50, geometry.Point{X: 20, Y: 20})
		require.NoError(t, err)
		assert.Equal(t, 50, n)

		ids := e.Registry().Live()
		require.Len(t, ids, 1)
		b := e.Registry().Branch(ids[0])
		assert.True(t, b.Reverse)
		_, ok := e.Registry().AreaOf(99, b.ID)
		assert.True(t, ok)
	})

	t.Run("short reverse branch deleted", func(t *testing.T) {
		t.Parallel()
		e := NewEngine(testutil.StraightTube(100, 0, 99), geometry.Planar{}, DefaultConfig())
		n, err := e.ExploreReverse(context.Background(), 90, geometry.Point{X: 20, Y: 20})
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Empty(t, e.Registry().Live())
	})

	t.Run("seed outside volume", func(t *testing.T) {
		t.Parallel()
		e := NewEngine(testutil.StraightTube(10, 0, 9), geometry.Planar{}, DefaultConfig())
		_, err := e.ExploreReverse(context.Background(), 12, geometry.Point{X: 20, Y: 20})
		assert.Error(t, err)
	})
}
