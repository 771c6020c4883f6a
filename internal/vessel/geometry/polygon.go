package geometry

import "math"

// ContourArea returns the absolute shoelace area. Contours with fewer than
// three points have zero area.
func ContourArea(c Contour) float64 {
	if len(c) < 3 {
		return 0
	}
	s := 0
	for i, p := range c {
		q := c[(i+1)%len(c)]
		s += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(float64(s)) / 2
}

// PolygonMoments returns the raw moments of the polygon enclosed by c. The
// sign is normalised so M00 is non-negative whatever the winding.
func PolygonMoments(c Contour) Moments {
	var m Moments
	if len(c) < 3 {
		return m
	}
	for i, p := range c {
		q := c[(i+1)%len(c)]
		x0, y0 := float64(p.X), float64(p.Y)
		x1, y1 := float64(q.X), float64(q.Y)
		a := x0*y1 - x1*y0
		m.M00 += a
		m.M10 += (x0 + x1) * a
		m.M01 += (y0 + y1) * a
	}
	m.M00 /= 2
	m.M10 /= 6
	m.M01 /= 6
	if m.M00 < 0 {
		m.M00, m.M10, m.M01 = -m.M00, -m.M10, -m.M01
	}
	return m
}

// Center returns the polygon centroid of c, falling back to the mean of its
// points when the polygon encloses no area.
func Center(a Adapter, c Contour) PointF {
	if p, ok := a.Moments(c).Centroid(); ok {
		return p
	}
	if len(c) == 0 {
		return PointF{}
	}
	var sx, sy float64
	for _, p := range c {
		sx += float64(p.X)
		sy += float64(p.Y)
	}
	n := float64(len(c))
	return PointF{X: sx / n, Y: sy / n}
}

func onSegment(a, b, p Point) bool {
	if (b.X-a.X)*(p.Y-a.Y)-(b.Y-a.Y)*(p.X-a.X) != 0 {
		return false
	}
	return p.X >= min(a.X, b.X) && p.X <= max(a.X, b.X) &&
		p.Y >= min(a.Y, b.Y) && p.Y <= max(a.Y, b.Y)
}

// PointPolygonTest returns +1 when p is strictly inside c, 0 when it lies on
// an edge and -1 otherwise.
func PointPolygonTest(c Contour, p Point) int {
	switch len(c) {
	case 0:
		return -1
	case 1:
		if c[0] == p {
			return 0
		}
		return -1
	}
	inside := false
	for i, a := range c {
		b := c[(i+1)%len(c)]
		if onSegment(a, b, p) {
			return 0
		}
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := float64(a.X) + float64(p.Y-a.Y)*float64(b.X-a.X)/float64(b.Y-a.Y)
			if float64(p.X) < x {
				inside = !inside
			}
		}
	}
	if inside {
		return 1
	}
	return -1
}

func ccw(a, b, c Point) bool {
	return (c.Y-a.Y)*(b.X-a.X) > (b.Y-a.Y)*(c.X-a.X)
}

// SegmentsCross reports whether segment ab properly crosses segment cd.
func SegmentsCross(a, b, c, d Point) bool {
	return ccw(a, c, d) != ccw(b, c, d) && ccw(a, b, c) != ccw(a, b, d)
}
