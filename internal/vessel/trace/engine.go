package trace

import (
	"context"
	"fmt"

	"github.com/banshee-data/vesseltrace/internal/vessel/geometry"
	"github.com/banshee-data/vesseltrace/internal/vessel/region"
	"github.com/banshee-data/vesseltrace/internal/vessel/registry"
	"github.com/banshee-data/vesseltrace/internal/vessel/stats"
	"github.com/banshee-data/vesseltrace/internal/vessel/volume"
)

// halted is the depth pointer of a branch that will never be explored
// again. It sits below every valid depth, so the scheduler never enqueues it.
const halted = -1

// cursor is the engine-side progress of one branch.
type cursor struct {
	depth     int // next depth to explore
	monitored int // areas of other branches are excluded while depth > monitored
	protected int // split tests only run below this depth
	done      bool
}

// pendingCommit is the parent rollback applied once a split child has
// survived all of its confirmation ticks.
type pendingCommit struct {
	parent registry.BranchID
	target geometry.Point
	depth  int
	radius float64
}

// task is one unit of queued work: a single exploration step, or a run of
// confirmation steps for a fresh split child.
type task struct {
	branch    registry.BranchID
	ticks     int
	exclusion []geometry.Contour
	commit    *pendingCommit
}

// Engine traces branches through a volume, from the seed depth towards
// depth 0. It is single-threaded and not safe for concurrent use.
type Engine struct {
	cfg      Config
	vol      *volume.Volume
	geom     geometry.Adapter
	grower   *region.Grower
	reg      *registry.Registry
	observer Observer

	cursors []*cursor // index = branch id
	stack   []task
	current int
	stats   Stats
}

// NewEngine returns an engine over vol with an empty registry.
func NewEngine(vol *volume.Volume, geom geometry.Adapter, cfg Config) *Engine {
	return &Engine{
		cfg:      cfg,
		vol:      vol,
		geom:     geom,
		grower:   region.NewGrower(cfg.Grower, geom),
		reg:      registry.New(vol.Depth(), cfg.NestedLimit),
		observer: nopObserver{},
		current:  vol.Depth() - 1,
	}
}

// SetObserver installs o; nil restores the no-op observer.
func (e *Engine) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	e.observer = o
}

// Registry returns the registry the engine writes into.
func (e *Engine) Registry() *registry.Registry {
	return e.reg
}

// Stats returns the event counters so far.
func (e *Engine) Stats() Stats {
	return e.stats
}

// CurrentDepth returns the depth the scheduler is working on.
func (e *Engine) CurrentDepth() int {
	return e.current
}

// Pointer returns the next depth the branch will explore, or -1 once it
// has halted.
func (e *Engine) Pointer(id registry.BranchID) int {
	if c := e.cursor(id); c != nil {
		return c.depth
	}
	return halted
}

func (e *Engine) cursor(id registry.BranchID) *cursor {
	if id <= 0 || int(id) >= len(e.cursors) {
		return nil
	}
	return e.cursors[id]
}

func (e *Engine) setCursor(id registry.BranchID, c cursor) *cursor {
	if n := int(id) + 1 - len(e.cursors); n > 0 {
		e.cursors = append(e.cursors, make([]*cursor, n)...)
	}
	e.cursors[id] = &c
	return e.cursors[id]
}

// Seed creates a root branch at depth with the given target pixel and
// moves the scheduler to that depth.
func (e *Engine) Seed(depth int, target geometry.Point) (registry.BranchID, error) {
	s := e.vol.Slice(depth)
	if s == nil {
		return 0, fmt.Errorf("seed depth %d outside volume of depth %d", depth, e.vol.Depth())
	}
	if !s.Contains(target) {
		return 0, fmt.Errorf("seed %v outside %dx%d slice", target, s.Width, s.Height)
	}

	b := e.reg.NewBranch(registry.NoParent, false)
	b.Target = target
	b.Intensity.Add(s.At(target.X, target.Y))
	b.Radius = stats.NewRunningAverage(e.cfg.InitialRadius)
	e.setCursor(b.ID, cursor{depth: depth, monitored: depth, protected: depth})
	e.current = depth

	e.stats.BranchesCreated++
	e.observer.BranchCreated(b.ID, registry.NoParent, depth)
	diagf("seeded branch %d at depth %d target=%v intensity=%.1f", b.ID, depth, target, s.At(target.X, target.Y))
	return b.ID, nil
}

// Run drains the queue depth by depth until the stop depth has been
// explored. Cancellation is checked between tasks.
func (e *Engine) Run(ctx context.Context) error {
	stop := e.cfg.StopDepth
	if e.current < stop {
		e.finish()
		return nil
	}
	e.enqueueDue()
	for e.current >= stop {
		for len(e.stack) > 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			t := e.stack[len(e.stack)-1]
			e.stack = e.stack[:len(e.stack)-1]
			e.runTask(t)
		}
		e.observer.DepthCompleted(e.current, e.active())
		tracef("depth %d complete, %d active branches", e.current, e.active())
		e.current--
		if e.current >= stop {
			e.enqueueDue()
		}
	}
	e.finish()
	return nil
}

// finish halts every branch still open once the stop depth is done, which
// applies the minimum length to branches that ran out of volume.
func (e *Engine) finish() {
	for id, c := range e.cursors {
		if c != nil && !c.done {
			e.halt(registry.BranchID(id), "reached stop depth")
		}
	}
}

// enqueueDue queues one step per depth each branch lags behind the current
// depth, in ascending id order so the newest branch is explored first.
func (e *Engine) enqueueDue() {
	for id, c := range e.cursors {
		if c == nil || c.depth < e.current {
			continue
		}
		for i := 0; i < c.depth-e.current+1; i++ {
			e.stack = append(e.stack, task{branch: registry.BranchID(id), ticks: 1})
		}
	}
}

func (e *Engine) active() int {
	n := 0
	for _, c := range e.cursors {
		if c != nil && c.depth != halted {
			n++
		}
	}
	return n
}

func (e *Engine) runTask(t task) {
	if t.commit == nil {
		e.step(t.branch, nil, true)
		return
	}
	for i := 0; i < t.ticks; i++ {
		if !e.step(t.branch, t.exclusion, false) {
			e.halt(t.branch, "split child failed")
			e.stats.SplitsRejected++
			e.observer.SplitResolved(t.commit.parent, t.branch, false)
			diagf("split child %d of %d failed after %d ticks", t.branch, t.commit.parent, i)
			return
		}
	}
	e.confirmSplit(t.branch, *t.commit)
}

// step explores one depth for a branch. exclusion, when non-nil, replaces
// the default exclusion zones. It reports whether the branch is still
// alive afterwards.
func (e *Engine) step(id registry.BranchID, exclusion []geometry.Contour, allowSplit bool) bool {
	b := e.reg.Branch(id)
	c := e.cursor(id)
	if b == nil || c == nil || c.depth == halted {
		return false
	}
	d := c.depth
	s := e.vol.Slice(d)
	if s == nil {
		e.halt(id, "depth out of volume")
		return false
	}

	meanRadius := b.Radius.Average()
	found := region.Locate(s, b.Target, meanRadius, b.Intensity.Average()*e.cfg.Alpha, e.cfg.SearchMargin)
	var res region.Result
	if found != geometry.NoPoint {
		zones := exclusion
		if zones == nil && c.monitored < d {
			for _, a := range e.reg.AreasAt(d) {
				zones = append(zones, a.Contour)
			}
		}
		res = e.grower.Grow(s, found, b.Intensity, meanRadius, zones)
	}
	if res.Empty() {
		e.halt(id, "no region")
		return false
	}

	circle := e.geom.MinEnclosingCircle(res.Contour)
	center := circle.Center.Pixel()
	radius := circle.Radius
	e.reg.AddLabel(d, center, fmt.Sprintf("%.2f,%.2f,%.2f", radius/meanRadius, meanRadius, b.Intensity.Average()))
	tracef("branch %d depth %d target=%v found=%v radius=%.2f mean=%.2f pixels=%d predicted=%v",
		id, d, b.Target, found, radius, meanRadius, res.Pixels, res.Predicted)

	if allowSplit && e.splitSuspected(b, c, d, radius) {
		if last, ok := e.reg.LastArea(id); ok {
			return e.split(b, c, d, last, res, center)
		}
	}

	if radius == 0 {
		e.halt(id, "zero radius")
		return false
	}
	if !e.commit(b, c, d, res, center) {
		return false
	}

	sampleDepth := c.depth
	if sampleDepth < 0 {
		sampleDepth = d
	}
	b.Intensity.Add(e.vol.Slice(sampleDepth).At(center.X, center.Y))
	b.Radius.Add(radius)
	return true
}

// commit records the region at depth d, advances the cursor and moves the
// target to the region's centre.
func (e *Engine) commit(b *registry.Branch, c *cursor, d int, res region.Result, center geometry.Point) bool {
	if err := e.reg.AddArea(d, b.ID, res.Contour, res.Predicted); err != nil {
		opsf("branch %d: %v", b.ID, err)
		e.halt(b.ID, "commit failed")
		return false
	}
	c.depth--
	b.Target = center
	e.stats.AreasCommitted++
	e.observer.AreaCommitted(b.ID, d, res.Predicted)
	return true
}

// halt stops a branch for good and deletes it when it is too short. A
// branch is only halted once.
func (e *Engine) halt(id registry.BranchID, reason string) {
	if c := e.cursor(id); c != nil {
		if c.done {
			return
		}
		c.depth = halted
		c.done = true
	}
	b := e.reg.Branch(id)
	if b == nil {
		return
	}
	length := b.Length
	deleted := length < e.cfg.MinBranchLength
	if deleted {
		e.reg.RemoveBranch(id)
		e.stats.BranchesDeleted++
	}
	e.stats.BranchesHalted++
	e.observer.BranchHalted(id, length, deleted)
	diagf("branch %d halted (%s) length=%d deleted=%v", id, reason, length, deleted)
}
