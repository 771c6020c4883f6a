package trace

import (
	"context"
	"fmt"

	"github.com/banshee-data/vesseltrace/internal/vessel/geometry"
	"github.com/banshee-data/vesseltrace/internal/vessel/region"
	"github.com/banshee-data/vesseltrace/internal/vessel/registry"
	"github.com/banshee-data/vesseltrace/internal/vessel/stats"
)

// ExploreReverse follows a vessel from a manual seed towards the deepest
// slice without split handling. It stops at the volume end or the first
// failed step and returns the branch length, or 0 when the branch was too
// short and has been deleted.
func (e *Engine) ExploreReverse(ctx context.Context, depth int, seed geometry.Point) (int, error) {
	s := e.vol.Slice(depth)
	if s == nil {
		return 0, fmt.Errorf("reverse seed depth %d outside volume of depth %d", depth, e.vol.Depth())
	}
	if !s.Contains(seed) {
		return 0, fmt.Errorf("reverse seed %v outside %dx%d slice", seed, s.Width, s.Height)
	}

	b := e.reg.NewBranch(registry.NoParent, true)
	b.Target = seed
	b.Radius = stats.NewRunningAverage(e.cfg.ReverseInitialRadius)
	b.Intensity.Add(s.At(seed.X, seed.Y))
	e.stats.BranchesCreated++
	e.observer.BranchCreated(b.ID, registry.NoParent, depth)
	diagf("reverse branch %d from depth %d target=%v", b.ID, depth, seed)

	for d := depth; d < e.vol.Depth(); d++ {
		if err := ctx.Err(); err != nil {
			return b.Length, err
		}
		s := e.vol.Slice(d)
		meanRadius := b.Radius.Average()
		found := region.Locate(s, b.Target, meanRadius, b.Intensity.Average()*e.cfg.Alpha, e.cfg.SearchMargin)
		if found == geometry.NoPoint {
			break
		}
		res := e.grower.Grow(s, found, b.Intensity, meanRadius, nil)
		if res.Empty() {
			break
		}
		circle := e.geom.MinEnclosingCircle(res.Contour)
		if circle.Radius == 0 {
			break
		}
		center := circle.Center.Pixel()
		if err := e.reg.AddArea(d, b.ID, res.Contour, res.Predicted); err != nil {
			return b.Length, err
		}
		b.Target = center
		b.Intensity.Add(s.At(center.X, center.Y))
		b.Radius.Add(circle.Radius)
		e.stats.AreasCommitted++
		e.observer.AreaCommitted(b.ID, d, res.Predicted)
	}

	length := b.Length
	deleted := length < e.cfg.MinBranchLength
	if deleted {
		e.reg.RemoveBranch(b.ID)
		e.stats.BranchesDeleted++
	}
	e.stats.BranchesHalted++
	e.observer.BranchHalted(b.ID, length, deleted)
	if deleted {
		return 0, nil
	}
	return length, nil
}
