package geometry

import (
	"math"
	"sort"
)

func cross(o, a, b PointF) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// ConvexHull returns the hull of pts by monotone chain, without repeated or
// collinear points. Fewer than three distinct points are returned as-is.
func ConvexHull(pts []Point) []PointF {
	if len(pts) == 0 {
		return nil
	}
	ps := make([]PointF, len(pts))
	for i, p := range pts {
		ps[i] = PointF{X: float64(p.X), Y: float64(p.Y)}
	}
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].X != ps[j].X {
			return ps[i].X < ps[j].X
		}
		return ps[i].Y < ps[j].Y
	})
	uniq := ps[:1]
	for _, p := range ps[1:] {
		if p != uniq[len(uniq)-1] {
			uniq = append(uniq, p)
		}
	}
	if len(uniq) < 3 {
		return uniq
	}

	hull := make([]PointF, 0, 2*len(uniq))
	for _, p := range uniq {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(uniq) - 2; i >= 0; i-- {
		p := uniq[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

const circleEps = 1e-7

func (c Circle) contains(p PointF) bool {
	return math.Hypot(p.X-c.Center.X, p.Y-c.Center.Y) <= c.Radius+circleEps
}

func circleFrom2(a, b PointF) Circle {
	center := PointF{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
	return Circle{Center: center, Radius: math.Hypot(a.X-center.X, a.Y-center.Y)}
}

func circleFrom3(a, b, c PointF) Circle {
	bx, by := b.X-a.X, b.Y-a.Y
	cx, cy := c.X-a.X, c.Y-a.Y
	d := 2 * (bx*cy - by*cx)
	if math.Abs(d) < 1e-12 {
		best := circleFrom2(a, b)
		for _, alt := range []Circle{circleFrom2(a, c), circleFrom2(b, c)} {
			if alt.Radius > best.Radius {
				best = alt
			}
		}
		return best
	}
	b2 := bx*bx + by*by
	c2 := cx*cx + cy*cy
	ux := (cy*b2 - by*c2) / d
	uy := (bx*c2 - cx*b2) / d
	return Circle{
		Center: PointF{X: a.X + ux, Y: a.Y + uy},
		Radius: math.Hypot(ux, uy),
	}
}

// MinEnclosingCircle returns the smallest circle enclosing pts. Only hull
// vertices can touch the circle, so the incremental search runs on the hull
// in a fixed order and the result is deterministic.
func MinEnclosingCircle(pts []Point) Circle {
	h := ConvexHull(pts)
	if len(h) == 0 {
		return Circle{}
	}
	c := Circle{Center: h[0]}
	for i := 1; i < len(h); i++ {
		if c.contains(h[i]) {
			continue
		}
		c = Circle{Center: h[i]}
		for j := 0; j < i; j++ {
			if c.contains(h[j]) {
				continue
			}
			c = circleFrom2(h[i], h[j])
			for k := 0; k < j; k++ {
				if !c.contains(h[k]) {
					c = circleFrom3(h[i], h[j], h[k])
				}
			}
		}
	}
	return c
}

// MinAreaRect returns the minimum-area bounding rectangle of pts using
// rotating calipers over the hull edges. Widths are measured between point
// coordinates, so a straight run of n pixels has width n-1 and height 0.
func MinAreaRect(pts []Point) RotatedRect {
	h := ConvexHull(pts)
	switch len(h) {
	case 0:
		return RotatedRect{}
	case 1:
		return RotatedRect{Center: h[0]}
	case 2:
		dx, dy := h[1].X-h[0].X, h[1].Y-h[0].Y
		return RotatedRect{
			Center: PointF{X: (h[0].X + h[1].X) / 2, Y: (h[0].Y + h[1].Y) / 2},
			Width:  math.Hypot(dx, dy),
			Angle:  math.Atan2(dy, dx),
		}
	}

	best := RotatedRect{}
	bestArea := math.Inf(1)
	for i := range h {
		a, b := h[i], h[(i+1)%len(h)]
		ex, ey := b.X-a.X, b.Y-a.Y
		l := math.Hypot(ex, ey)
		if l == 0 {
			continue
		}
		ux, uy := ex/l, ey/l
		vx, vy := -uy, ux
		minU, maxU := math.Inf(1), math.Inf(-1)
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, p := range h {
			px, py := p.X-a.X, p.Y-a.Y
			u := px*ux + py*uy
			v := px*vx + py*vy
			minU, maxU = math.Min(minU, u), math.Max(maxU, u)
			minV, maxV = math.Min(minV, v), math.Max(maxV, v)
		}
		area := (maxU - minU) * (maxV - minV)
		if area < bestArea-1e-9 {
			bestArea = area
			mu, mv := (minU+maxU)/2, (minV+maxV)/2
			best = RotatedRect{
				Center: PointF{X: a.X + ux*mu + vx*mv, Y: a.Y + uy*mu + vy*mv},
				Width:  maxU - minU,
				Height: maxV - minV,
				Angle:  math.Atan2(uy, ux),
			}
		}
	}
	return best
}
