package volume

import (
	"math"

	"github.com/banshee-data/vesseltrace/internal/vessel/geometry"
)

// Tube describes a straight cylindrical phantom whose centre moves linearly
// from From at depth FromDepth to To at depth ToDepth (inclusive).
type Tube struct {
	From, To           geometry.PointF
	FromDepth, ToDepth int
	Radius             float64
	Intensity          float64
}

// CenterAt returns the tube centre at depth d and whether the tube spans d.
func (t Tube) CenterAt(d int) (geometry.PointF, bool) {
	lo, hi := min(t.FromDepth, t.ToDepth), max(t.FromDepth, t.ToDepth)
	if d < lo || d > hi {
		return geometry.PointF{}, false
	}
	if t.FromDepth == t.ToDepth {
		return t.From, true
	}
	f := float64(d-t.FromDepth) / float64(t.ToDepth-t.FromDepth)
	return geometry.PointF{
		X: t.From.X + f*(t.To.X-t.From.X),
		Y: t.From.Y + f*(t.To.Y-t.From.Y),
	}, true
}

// Phantom builds a w×h×depth volume with the given tubes painted over a
// zero background. Overlapping tubes keep the brighter intensity.
func Phantom(w, h, depth int, tubes ...Tube) *Volume {
	v := &Volume{Slices: make([]*Slice, depth)}
	for d := range v.Slices {
		s := NewSlice(w, h)
		for _, t := range tubes {
			c, ok := t.CenterAt(d)
			if !ok {
				continue
			}
			paintDisk(s, c, t.Radius, t.Intensity)
		}
		v.Slices[d] = s
	}
	return v
}

func paintDisk(s *Slice, c geometry.PointF, r, intensity float64) {
	r2 := r * r
	x0, x1 := int(math.Floor(c.X-r)), int(math.Ceil(c.X+r))
	y0, y1 := int(math.Floor(c.Y-r)), int(math.Ceil(c.Y+r))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx, dy := float64(x)-c.X, float64(y)-c.Y
			if dx*dx+dy*dy > r2 {
				continue
			}
			if x >= 0 && y >= 0 && x < s.Width && y < s.Height && s.At(x, y) < intensity {
				s.Set(x, y, intensity)
			}
		}
	}
}
