package trace

import (
	"github.com/banshee-data/vesseltrace/internal/vessel/geometry"
	"github.com/banshee-data/vesseltrace/internal/vessel/region"
	"github.com/banshee-data/vesseltrace/internal/vessel/registry"
	"github.com/banshee-data/vesseltrace/internal/vessel/stats"
)

// splitSuspected reports whether a sudden narrowing at depth d looks like
// a bifurcation. A zero last radius divides to +Inf and never triggers.
func (e *Engine) splitSuspected(b *registry.Branch, c *cursor, d int, radius float64) bool {
	if radius <= e.cfg.SplitMinRadius || c.protected <= d {
		return false
	}
	return radius < b.Radius.Average()*e.cfg.SplitMeanRatio ||
		radius/b.Radius.Last() < e.cfg.SplitLastRatio
}

// split handles a suspected bifurcation. The previous area's min-area
// rectangle gives the split axis: the parent continues towards one end and
// a child is spawned at the other. The child must then survive its
// confirmation ticks before the parent is rolled back onto its new course.
// Meanwhile the parent keeps the region it just found, so a rejected split
// leaves it on its original path.
func (e *Engine) split(b *registry.Branch, c *cursor, d int, last registry.Area, res region.Result, center geometry.Point) bool {
	rect := e.geom.MinAreaRect(last.Contour)
	long, axis := rect.LongSide()
	keep := geometry.PointF{X: rect.Center.X + axis.X/4, Y: rect.Center.Y + axis.Y/4}.Pixel()
	branch := geometry.PointF{X: rect.Center.X - axis.X/4, Y: rect.Center.Y - axis.Y/4}.Pixel()
	exclusionRadius := long / 4

	marker := make(geometry.Contour, 0, 6)
	for _, p := range rect.Corners() {
		marker = append(marker, p.Pixel())
	}
	marker = append(marker, keep, branch)
	e.reg.AddOverlay(d, marker)

	if exclusionRadius < 1 {
		e.halt(b.ID, "split axis too short")
		return false
	}

	w, h := e.vol.Size()
	zone := geometry.CircleContour(e.geom, w, h, keep, int(exclusionRadius))
	e.reg.AddOverlay(d, zone)

	child := e.reg.NewBranch(b.ID, false)
	child.Target = branch
	child.Radius.Add(exclusionRadius)
	e.setCursor(child.ID, cursor{depth: d, monitored: e.vol.Depth(), protected: d})
	e.stack = append(e.stack, task{
		branch:    child.ID,
		ticks:     e.cfg.SplitConfirmTicks,
		exclusion: []geometry.Contour{zone},
		commit: &pendingCommit{
			parent: b.ID,
			target: keep,
			depth:  d,
			radius: exclusionRadius,
		},
	})

	e.stats.BranchesCreated++
	e.stats.SplitsTriggered++
	e.observer.BranchCreated(child.ID, b.ID, d)
	e.observer.SplitTriggered(b.ID, child.ID, d)
	diagf("branch %d split at depth %d: child %d target=%v, parent continues to %v, exclusion r=%.2f",
		b.ID, d, child.ID, branch, keep, exclusionRadius)

	return e.commit(b, c, d, res, center)
}

// confirmSplit rolls the parent back to the split depth and points it at
// the kept half of the bifurcation, with the child's areas excluded for as
// long as the child has already explored.
func (e *Engine) confirmSplit(child registry.BranchID, pc pendingCommit) {
	e.stats.SplitsConfirmed++
	e.observer.SplitResolved(pc.parent, child, true)

	parent := e.reg.Branch(pc.parent)
	c := e.cursor(pc.parent)
	if parent == nil || c == nil {
		opsf("split of %d confirmed by child %d but parent is gone", pc.parent, child)
		return
	}

	parent.Target = pc.target
	parent.Radius = stats.NewRunningAverage(pc.radius)
	c.monitored = pc.depth - e.cfg.SplitConfirmTicks
	c.protected = pc.depth - e.cfg.SplitConfirmTicks
	c.depth = pc.depth
	c.done = false
	if !e.reg.RemoveArea(pc.depth, pc.parent) {
		opsf("split of %d confirmed but no parent area at depth %d", pc.parent, pc.depth)
	}
	diagf("split of %d confirmed by child %d, parent resumes at depth %d towards %v", pc.parent, child, pc.depth, pc.target)
}
