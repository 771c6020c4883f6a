package geometry

import (
	"image"
	"math"
)

// Point is an integer pixel coordinate.
type Point struct {
	X, Y int
}

// NoPoint is the sentinel returned when a search finds nothing.
var NoPoint = Point{X: -1, Y: -1}

// In reports whether p lies inside a w×h raster.
func (p Point) In(w, h int) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < w && p.Y < h
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// PointF is a sub-pixel coordinate.
type PointF struct {
	X, Y float64
}

// Pixel truncates toward zero, matching an integer cast.
func (p PointF) Pixel() Point {
	return Point{X: int(p.X), Y: int(p.Y)}
}

// Contour is an ordered closed polygon.
type Contour []Point

// Clone returns a copy that shares no storage with c.
func (c Contour) Clone() Contour {
	if c == nil {
		return nil
	}
	out := make(Contour, len(c))
	copy(out, c)
	return out
}

// Bounds returns the inclusive bounding box of the contour. The result is
// the zero rectangle for an empty contour.
func (c Contour) Bounds() image.Rectangle {
	if len(c) == 0 {
		return image.Rectangle{}
	}
	minX, minY := c[0].X, c[0].Y
	maxX, maxY := minX, minY
	for _, p := range c[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// Circle is a center and radius.
type Circle struct {
	Center PointF
	Radius float64
}

// RotatedRect is a rectangle of Width along the unit vector at Angle
// (radians) and Height along its normal.
type RotatedRect struct {
	Center PointF
	Width  float64
	Height float64
	Angle  float64
}

// Corners returns the four corners in winding order.
func (r RotatedRect) Corners() [4]PointF {
	ux, uy := math.Cos(r.Angle), math.Sin(r.Angle)
	vx, vy := -uy, ux
	hw, hh := r.Width/2, r.Height/2
	c := r.Center
	return [4]PointF{
		{c.X - ux*hw - vx*hh, c.Y - uy*hw - vy*hh},
		{c.X + ux*hw - vx*hh, c.Y + uy*hw - vy*hh},
		{c.X + ux*hw + vx*hh, c.Y + uy*hw + vy*hh},
		{c.X - ux*hw + vx*hh, c.Y - uy*hw + vy*hh},
	}
}

// LongSide returns the length of the longer side and the full-length
// vector running along it.
func (r RotatedRect) LongSide() (float64, PointF) {
	ux, uy := math.Cos(r.Angle), math.Sin(r.Angle)
	if r.Width >= r.Height {
		return r.Width, PointF{X: ux * r.Width, Y: uy * r.Width}
	}
	return r.Height, PointF{X: -uy * r.Height, Y: ux * r.Height}
}

// Ellipse is described by its semi-axes; Angle orients the major axis.
type Ellipse struct {
	Center    PointF
	SemiMajor float64
	SemiMinor float64
	Angle     float64
}

// Area returns π·a·b.
func (e Ellipse) Area() float64 {
	return math.Pi * e.SemiMajor * e.SemiMinor
}

// Moments holds the raw spatial moments of a polygon.
type Moments struct {
	M00, M10, M01 float64
}

// Centroid returns m10/m00, m01/m00. ok is false for a zero-area polygon.
func (m Moments) Centroid() (PointF, bool) {
	if m.M00 == 0 {
		return PointF{}, false
	}
	return PointF{X: m.M10 / m.M00, Y: m.M01 / m.M00}, true
}
