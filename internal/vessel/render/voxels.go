package render

import "github.com/banshee-data/vesseltrace/internal/vessel/geometry"

// Voxels is a binary volume stored slice by slice.
type Voxels struct {
	Width, Height int
	Slices        []*geometry.Mask // index = depth
}

// NewVoxels returns an empty w×h×depth volume.
func NewVoxels(w, h, depth int) *Voxels {
	v := &Voxels{Width: w, Height: h, Slices: make([]*geometry.Mask, depth)}
	for d := range v.Slices {
		v.Slices[d] = geometry.NewMask(w, h)
	}
	return v
}

// Depth returns the number of slices.
func (v *Voxels) Depth() int {
	return len(v.Slices)
}

// At reports whether the voxel is set. Out-of-range voxels are unset.
func (v *Voxels) At(x, y, d int) bool {
	if d < 0 || d >= len(v.Slices) {
		return false
	}
	return v.Slices[d].At(x, y)
}

// Count returns the number of set voxels.
func (v *Voxels) Count() int {
	n := 0
	for _, s := range v.Slices {
		n += s.Count()
	}
	return n
}

// Extent returns the lowest and highest depth holding a set voxel, or
// (-1, -1) for an empty volume.
func (v *Voxels) Extent() (lo, hi int) {
	lo, hi = -1, -1
	for d, s := range v.Slices {
		if s.Count() == 0 {
			continue
		}
		if lo < 0 {
			lo = d
		}
		hi = d
	}
	return lo, hi
}
