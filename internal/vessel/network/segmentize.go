package network

import (
	"github.com/banshee-data/vesseltrace/internal/vessel/geometry"
	"github.com/banshee-data/vesseltrace/internal/vessel/registry"
)

// assigned is one area of the level just processed with its output id.
type assigned struct {
	src  registry.BranchID
	out  registry.BranchID
	area registry.Area
}

// Segmentize re-partitions src so that every output id names one maximal
// unbranched path. Levels are walked from the deepest index; an area
// inherits the id of the intersecting area on the level above it,
// preferring one with the same source id. When two areas claim the same
// parent the path has branched: both get fresh ids whose parent is the
// upstream segment. src is not modified.
func Segmentize(src *registry.Registry, geom geometry.Adapter) *registry.Registry {
	out := registry.New(src.Depth(), src.NestedLimit())
	var upstream []assigned

	for d := src.Depth() - 1; d >= 0; d-- {
		areas := src.AreasAt(d)
		level := make([]assigned, 0, len(areas))
		present := make(map[registry.BranchID]int) // output id -> index into level
		split := make(map[registry.BranchID]bool)  // upstream ids already branched at d

		for _, a := range areas {
			parent, ok := upstreamOf(geom, upstream, a)
			var id registry.BranchID
			switch {
			case !ok:
				id = out.NewBranch(registry.NoParent, false).ID
				tracef("depth %d: source %d starts segment %d", d, a.Branch, id)
			case split[parent.out]:
				id = out.NewBranch(parent.out, false).ID
				diagf("depth %d: segment %d branches again into %d", d, parent.out, id)
			default:
				if i, taken := present[parent.out]; taken {
					cont := out.NewBranch(parent.out, false).ID
					out.RemoveArea(d, parent.out)
					level[i].out = cont
					addArea(out, d, cont, level[i].area.Contour.Clone(), level[i].area.Predicted)
					delete(present, parent.out)
					present[cont] = i
					split[parent.out] = true

					id = out.NewBranch(parent.out, false).ID
					diagf("depth %d: segment %d branches into %d and %d", d, parent.out, cont, id)
				} else {
					id = parent.out
				}
			}
			present[id] = len(level)
			level = append(level, assigned{src: a.Branch, out: id, area: a})
			addArea(out, d, id, a.Contour.Clone(), a.Predicted)
		}
		upstream = level
	}

	for _, id := range out.Live() {
		if out.Branch(id).Length == 0 {
			out.RemoveBranch(id)
		}
	}
	diagf("segmentize: %d segments from %d branches", len(out.Live()), len(src.Live()))
	return out
}

// upstreamOf finds the geometric parent of a among the areas of the
// previous level, preferring one from the same source branch.
func upstreamOf(geom geometry.Adapter, upstream []assigned, a registry.Area) (assigned, bool) {
	var (
		fallback assigned
		found    bool
	)
	for _, u := range upstream {
		if !geometry.ContoursIntersect(geom, u.area.Contour, a.Contour) {
			continue
		}
		if u.src == a.Branch {
			return u, true
		}
		if !found {
			fallback, found = u, true
		}
	}
	return fallback, found
}
