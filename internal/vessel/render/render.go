package render

import (
	"github.com/banshee-data/vesseltrace/internal/vessel/geometry"
	"github.com/banshee-data/vesseltrace/internal/vessel/registry"
)

// Renderer stamps registry contours into voxel volumes of a fixed slice
// size.
type Renderer struct {
	Geom          geometry.Adapter
	Width, Height int
}

// NewRenderer returns a renderer for w×h slices.
func NewRenderer(geom geometry.Adapter, w, h int) *Renderer {
	return &Renderer{Geom: geom, Width: w, Height: h}
}

// Branch renders the branch's trajectory: areas[i] is filled into depth
// offset-i. An unknown or empty branch yields nil.
func (r *Renderer) Branch(reg *registry.Registry, id registry.BranchID) *Voxels {
	areas, offset := reg.Trajectory(id)
	if len(areas) == 0 {
		return nil
	}
	v := NewVoxels(r.Width, r.Height, reg.Depth())
	for i, a := range areas {
		r.Geom.FillPolygons(v.Slices[offset-i], a.Contour)
	}
	return v
}

// Branches renders every live branch.
func (r *Renderer) Branches(reg *registry.Registry) map[registry.BranchID]*Voxels {
	out := make(map[registry.BranchID]*Voxels)
	for _, id := range reg.Live() {
		if v := r.Branch(reg, id); v != nil {
			out[id] = v
		}
	}
	return out
}

// Overlay renders the diagnostic overlay: split axes and exclusion zones.
func (r *Renderer) Overlay(reg *registry.Registry) *Voxels {
	v := NewVoxels(r.Width, r.Height, reg.Depth())
	for d := range v.Slices {
		for _, a := range reg.Overlay(d) {
			r.Geom.FillPolygons(v.Slices[d], a.Contour)
		}
	}
	return v
}
