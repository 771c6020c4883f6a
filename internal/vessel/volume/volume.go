// Package volume holds the depth-indexed stack of 2D intensity slices that
// the tracer walks through, along with loaders for image directories and
// synthetic tube phantoms.
package volume

import "github.com/banshee-data/vesseltrace/internal/vessel/geometry"

// Slice is one cross-section; Pix is row-major.
type Slice struct {
	Width  int
	Height int
	Pix    []float64
}

// NewSlice allocates a zeroed w×h slice.
func NewSlice(w, h int) *Slice {
	return &Slice{Width: w, Height: h, Pix: make([]float64, w*h)}
}

// Contains reports whether p is a pixel of s.
func (s *Slice) Contains(p geometry.Point) bool {
	return p.In(s.Width, s.Height)
}

// At returns the intensity at (x,y); callers check bounds first.
func (s *Slice) At(x, y int) float64 {
	return s.Pix[y*s.Width+x]
}

// Set writes the intensity at (x,y). Out-of-range writes are ignored.
func (s *Slice) Set(x, y int, v float64) {
	if x < 0 || y < 0 || x >= s.Width || y >= s.Height {
		return
	}
	s.Pix[y*s.Width+x] = v
}

// Volume is an ordered stack of equally sized slices. Index 0 is the
// shallowest level; tracing runs from high indices towards 0.
type Volume struct {
	Slices []*Slice
}

// New wraps slices as a volume.
func New(slices ...*Slice) *Volume {
	return &Volume{Slices: slices}
}

// Depth returns the number of slices.
func (v *Volume) Depth() int {
	if v == nil {
		return 0
	}
	return len(v.Slices)
}

// Slice returns the slice at depth d, or nil when d is out of range.
func (v *Volume) Slice(d int) *Slice {
	if v == nil || d < 0 || d >= len(v.Slices) {
		return nil
	}
	return v.Slices[d]
}

// Size returns the in-plane dimensions of the first slice.
func (v *Volume) Size() (w, h int) {
	if v.Depth() == 0 {
		return 0, 0
	}
	return v.Slices[0].Width, v.Slices[0].Height
}
