package network

import (
	"image"
	"math"
	"sort"

	"github.com/banshee-data/vesseltrace/internal/config"
	"github.com/banshee-data/vesseltrace/internal/vessel/geometry"
	"github.com/banshee-data/vesseltrace/internal/vessel/registry"
)

// MergeOptions tunes the merge pass.
type MergeOptions struct {
	MinLength         int     // Merged branches shorter than this are pruned; 0 keeps every branch
	EllipseAreaFactor float64 // Ellipse fallback allowed up to factor × summed member area
}

// DefaultMergeOptions returns the stock merge options.
func DefaultMergeOptions() MergeOptions {
	return MergeOptionsFromTuning(config.EmptyTracingConfig())
}

// MergeOptionsFromTuning builds MergeOptions from a loaded TracingConfig.
func MergeOptionsFromTuning(cfg *config.TracingConfig) MergeOptions {
	return MergeOptions{
		MinLength:         cfg.GetMergeMinLength(),
		EllipseAreaFactor: cfg.GetMergeEllipseFactor(),
	}
}

// MergeReport summarises one merge pass.
type MergeReport struct {
	Folds   int // branch pairs folded, counted once per depth
	Dropped int // branches left without areas
	Pruned  int // survivors shorter than MinLength
}

type rank struct {
	start int
	id    registry.BranchID
}

// outranks orders by start depth descending, then id ascending.
func (r rank) outranks(o rank) bool {
	if r.start != o.start {
		return r.start > o.start
	}
	return r.id < o.id
}

// unionFind groups area indices of one depth level.
type unionFind []int

func newUnionFind(n int) unionFind {
	u := make(unionFind, n)
	for i := range u {
		u[i] = i
	}
	return u
}

func (u unionFind) find(i int) int {
	for u[i] != i {
		u[i] = u[u[i]]
		i = u[i]
	}
	return i
}

func (u unionFind) union(a, b int) {
	if ra, rb := u.find(a), u.find(b); ra != rb {
		u[rb] = ra
	}
}

// Merge folds branches whose areas intersect into the highest-ranked
// branch of each group, depth by depth from index 0 upward. A fold made at
// one depth persists at every higher index for as long as the target still
// has an area there. src is not modified.
func Merge(src *registry.Registry, geom geometry.Adapter, opts MergeOptions) (*registry.Registry, MergeReport) {
	out := src.Derive()
	var report MergeReport

	ranks := make(map[registry.BranchID]rank)
	for _, id := range src.Live() {
		ranks[id] = rank{start: src.StartDepth(id), id: id}
	}
	folds := make(map[registry.BranchID]registry.BranchID)

	for d := 0; d < src.Depth(); d++ {
		areas := src.AreasAt(d)
		if len(areas) == 0 {
			continue
		}
		first := make(map[registry.BranchID]int, len(areas))
		for i, a := range areas {
			if _, ok := first[a.Branch]; !ok {
				first[a.Branch] = i
			}
		}
		for b, target := range folds {
			if _, ok := first[target]; !ok {
				diagf("depth %d: fold %d -> %d invalidated, target absent", d, b, target)
				delete(folds, b)
			}
		}

		u := newUnionFind(len(areas))
		for i, a := range areas {
			if target, ok := folds[a.Branch]; ok {
				if j, ok := first[target]; ok {
					u.union(j, i)
				}
			}
		}
		for i := range areas {
			for j := i + 1; j < len(areas); j++ {
				if u.find(i) == u.find(j) {
					continue
				}
				if geometry.ContoursIntersect(geom, areas[i].Contour, areas[j].Contour) {
					u.union(i, j)
				}
			}
		}

		groups := make(map[int][]int)
		var roots []int
		for i := range areas {
			r := u.find(i)
			if _, ok := groups[r]; !ok {
				roots = append(roots, r)
			}
			groups[r] = append(groups[r], i)
		}

		for _, r := range roots {
			members := groups[r]
			if len(members) == 1 {
				a := areas[members[0]]
				addArea(out, d, a.Branch, a.Contour.Clone(), a.Predicted)
				continue
			}

			owner := areas[members[0]].Branch
			for _, i := range members[1:] {
				if b := areas[i].Branch; ranks[b].outranks(ranks[owner]) {
					owner = b
				}
			}
			contours := make([]geometry.Contour, 0, len(members))
			predicted := true
			for _, i := range members {
				a := areas[i]
				contours = append(contours, a.Contour)
				predicted = predicted && a.Predicted
				if a.Branch == owner {
					continue
				}
				if folds[a.Branch] != owner {
					report.Folds++
					tracef("depth %d: branch %d folds into %d", d, a.Branch, owner)
				}
				folds[a.Branch] = owner
			}
			// Re-point chains that ended at a branch that has just been folded.
			for b, target := range folds {
				if t, ok := folds[target]; ok && b != t {
					folds[b] = t
				}
			}
			addArea(out, d, owner, unionContour(geom, contours, opts.EllipseAreaFactor), predicted)
		}
	}

	for _, id := range out.Live() {
		b := out.Branch(id)
		switch {
		case b.Length == 0:
			out.RemoveBranch(id)
			report.Dropped++
		case opts.MinLength > 0 && b.Length < opts.MinLength:
			out.RemoveBranch(id)
			report.Pruned++
		}
	}
	diagf("merge: %d folds, %d branches dropped, %d pruned, %d survive",
		report.Folds, report.Dropped, report.Pruned, len(out.Live()))
	return out, report
}

func addArea(r *registry.Registry, d int, id registry.BranchID, c geometry.Contour, predicted bool) {
	if err := r.AddArea(d, id, c, predicted); err != nil {
		opsf("depth %d: %v", d, err)
	}
}

// unionContour rasterises the members and re-extracts the outer border.
// When the union breaks into pieces it falls back to an ellipse over every
// member point, or to the largest member when the ellipse is too loose.
func unionContour(geom geometry.Adapter, members []geometry.Contour, factor float64) geometry.Contour {
	var box image.Rectangle
	for i, c := range members {
		if i == 0 {
			box = c.Bounds()
		} else {
			box = box.Union(c.Bounds())
		}
	}
	box = box.Inset(-1)

	pieces := rasterise(geom, box, func(m *geometry.Mask, shift geometry.Point) {
		for _, c := range members {
			geom.FillPolygons(m, translate(c, shift))
		}
	})
	if len(pieces) == 1 {
		return pieces[0]
	}

	var (
		pts     []geometry.Point
		sum     float64
		largest geometry.Contour
		best    = -1.0
	)
	for _, c := range members {
		pts = append(pts, c...)
		a := geom.ContourArea(c)
		sum += a
		if a > best {
			best, largest = a, c
		}
	}
	if e, ok := geom.FitEllipse(pts); ok && e.Area() <= factor*sum {
		r := int(math.Ceil(e.SemiMajor)) + 2
		c := e.Center.Pixel()
		ebox := image.Rect(c.X-r, c.Y-r, c.X+r+1, c.Y+r+1)
		shifted := rasterise(geom, ebox, func(m *geometry.Mask, shift geometry.Point) {
			local := e
			local.Center.X += float64(shift.X)
			local.Center.Y += float64(shift.Y)
			if ec := geometry.EllipseContour(geom, m.Width, m.Height, local); len(ec) > 0 {
				geom.FillPolygons(m, ec)
			}
		})
		if len(shifted) > 0 {
			return longestPiece(shifted)
		}
	}
	return largest.Clone()
}

// rasterise paints onto a canvas covering box and returns the external
// contours in absolute coordinates.
func rasterise(geom geometry.Adapter, box image.Rectangle, paint func(m *geometry.Mask, shift geometry.Point)) []geometry.Contour {
	m := geometry.NewMask(box.Dx(), box.Dy())
	paint(m, geometry.Point{X: -box.Min.X, Y: -box.Min.Y})
	pieces := geom.ExternalContours(m)
	back := geometry.Point{X: box.Min.X, Y: box.Min.Y}
	for i, c := range pieces {
		pieces[i] = translate(c, back)
	}
	return pieces
}

func translate(c geometry.Contour, by geometry.Point) geometry.Contour {
	out := make(geometry.Contour, len(c))
	for i, p := range c {
		out[i] = p.Add(by)
	}
	return out
}

func longestPiece(cs []geometry.Contour) geometry.Contour {
	sort.SliceStable(cs, func(i, j int) bool { return len(cs[i]) > len(cs[j]) })
	return cs[0]
}
