package geometry

import (
	"image"
	"image/draw"

	"golang.org/x/image/vector"
)

// coverageThreshold is the minimum alpha for a pixel to count as filled.
const coverageThreshold = 128

// FillPolygons paints every contour into m. Interiors are rasterised with
// pixel centres on integer coordinates, then the boundary is stroked so
// thin and degenerate contours still mark their own points.
func FillPolygons(m *Mask, cs ...Contour) {
	for _, c := range cs {
		if len(c) == 0 {
			continue
		}
		if len(c) >= 3 {
			fillInterior(m, c)
		}
		for i, p := range c {
			q := c[(i+1)%len(c)]
			drawLine(m, p, q)
		}
	}
}

func fillInterior(m *Mask, c Contour) {
	b := c.Bounds().Intersect(image.Rect(0, 0, m.Width, m.Height))
	if b.Empty() {
		return
	}
	w, h := b.Dx(), b.Dy()
	z := vector.NewRasterizer(w, h)
	z.DrawOp = draw.Src
	at := func(p Point) (float32, float32) {
		return float32(p.X-b.Min.X) + 0.5, float32(p.Y-b.Min.Y) + 0.5
	}
	z.MoveTo(at(c[0]))
	for _, p := range c[1:] {
		z.LineTo(at(p))
	}
	z.ClosePath()

	dst := image.NewAlpha(image.Rect(0, 0, w, h))
	z.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if dst.Pix[y*dst.Stride+x] >= coverageThreshold {
				m.Set(b.Min.X+x, b.Min.Y+y)
			}
		}
	}
}

// drawLine is Bresenham's line between two pixels, inclusive.
func drawLine(m *Mask, a, b Point) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	x, y := a.X, a.Y
	for {
		m.Set(x, y)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

// DrawCircle paints a one-pixel outline using the midpoint algorithm. A zero
// radius marks only the centre.
func DrawCircle(m *Mask, c Point, r int) {
	if r <= 0 {
		m.Set(c.X, c.Y)
		return
	}
	x, y := r, 0
	d := 1 - r
	for x >= y {
		for _, o := range [8]Point{
			{X: x, Y: y}, {X: y, Y: x}, {X: -y, Y: x}, {X: -x, Y: y},
			{X: -x, Y: -y}, {X: -y, Y: -x}, {X: y, Y: -x}, {X: x, Y: -y},
		} {
			m.Set(c.X+o.X, c.Y+o.Y)
		}
		y++
		if d < 0 {
			d += 2*y + 1
		} else {
			x--
			d += 2*(y-x) + 1
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
