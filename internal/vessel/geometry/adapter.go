package geometry

import "math"

// Adapter is the set of contour and measurement primitives the tracer
// consumes. Implementations must be deterministic: identical inputs give
// identical outputs, including contour point order.
type Adapter interface {
	// ExternalContours returns the outer border of every 8-connected
	// component of the mask.
	ExternalContours(m *Mask) []Contour
	// ContourArea returns the absolute polygon area.
	ContourArea(c Contour) float64
	// MinEnclosingCircle returns the smallest circle containing pts.
	MinEnclosingCircle(pts []Point) Circle
	// MinAreaRect returns the minimum-area rectangle containing pts.
	MinAreaRect(pts []Point) RotatedRect
	// Moments returns the polygon moments of c.
	Moments(c Contour) Moments
	// FitEllipse fits an ellipse to a point cloud. ok is false when the
	// cloud is too small or degenerate.
	FitEllipse(pts []Point) (e Ellipse, ok bool)
	// PointPolygonTest returns +1 inside, 0 on the boundary, -1 outside.
	PointPolygonTest(c Contour, p Point) int
	// FillPolygons paints the interior and boundary of each contour.
	FillPolygons(m *Mask, cs ...Contour)
	// DrawCircle paints a one-pixel circle outline.
	DrawCircle(m *Mask, center Point, radius int)
}

// CircleContour rasterises a circle outline on a w×h canvas and returns its
// external contour. Clipped circles that break into pieces yield the
// longest piece.
func CircleContour(a Adapter, w, h int, center Point, radius int) Contour {
	m := NewMask(w, h)
	a.DrawCircle(m, center, radius)
	return longest(a.ExternalContours(m))
}

// EllipseContour rasterises a filled ellipse on a w×h canvas and returns its
// external contour.
func EllipseContour(a Adapter, w, h int, e Ellipse) Contour {
	const steps = 180
	poly := make(Contour, 0, steps)
	sa, ca := math.Sincos(e.Angle)
	for i := 0; i < steps; i++ {
		st, ct := math.Sincos(2 * math.Pi * float64(i) / steps)
		x := e.Center.X + e.SemiMajor*ct*ca - e.SemiMinor*st*sa
		y := e.Center.Y + e.SemiMajor*ct*sa + e.SemiMinor*st*ca
		p := Point{X: int(math.Round(x)), Y: int(math.Round(y))}
		if len(poly) == 0 || poly[len(poly)-1] != p {
			poly = append(poly, p)
		}
	}
	m := NewMask(w, h)
	a.FillPolygons(m, poly)
	return longest(a.ExternalContours(m))
}

func longest(cs []Contour) Contour {
	var best Contour
	for _, c := range cs {
		if len(c) > len(best) {
			best = c
		}
	}
	return best
}

// ContoursIntersect reports whether two contours overlap, one contains the
// other, or their boundaries come within one pixel of each other.
func ContoursIntersect(a Adapter, ref, query Contour) bool {
	if len(ref) == 0 || len(query) == 0 {
		return false
	}
	rb, qb := ref.Bounds(), query.Bounds()
	if !rb.Inset(-1).Overlaps(qb) {
		return false
	}

	if a.PointPolygonTest(ref, query[0]) >= 0 || a.PointPolygonTest(query, ref[0]) >= 0 {
		return true
	}

	border := make(map[Point]struct{}, len(ref))
	for _, p := range ref {
		border[p] = struct{}{}
	}
	for _, p := range query {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if _, ok := border[Point{X: p.X + dx, Y: p.Y + dy}]; ok {
					return true
				}
			}
		}
	}

	for i := range ref {
		ra, rbp := ref[i], ref[(i+1)%len(ref)]
		for j := range query {
			if SegmentsCross(ra, rbp, query[j], query[(j+1)%len(query)]) {
				return true
			}
		}
	}
	return false
}
