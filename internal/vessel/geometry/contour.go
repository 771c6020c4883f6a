package geometry

// Chain directions indexed counterclockwise on screen, starting east.
var chain = [8]Point{
	{X: 1, Y: 0},
	{X: 1, Y: -1},
	{X: 0, Y: -1},
	{X: -1, Y: -1},
	{X: -1, Y: 0},
	{X: -1, Y: 1},
	{X: 0, Y: 1},
	{X: 1, Y: 1},
}

const west = 4

func chainIndex(from, to Point) int {
	d := Point{X: to.X - from.X, Y: to.Y - from.Y}
	for i, c := range chain {
		if c == d {
			return i
		}
	}
	return -1
}

// ExternalContours returns one outer border per 8-connected component, in
// raster order of each component's first pixel. Every border point is an
// 8-neighbour of the next, and single-pixel components yield a one-point
// contour.
func ExternalContours(m *Mask) []Contour {
	if m == nil || m.Width == 0 || m.Height == 0 {
		return nil
	}
	labelled := make([]bool, len(m.Pix))
	var out []Contour
	var queue []Point

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			i := y*m.Width + x
			if m.Pix[i] == 0 || labelled[i] {
				continue
			}
			start := Point{X: x, Y: y}

			labelled[i] = true
			queue = append(queue[:0], start)
			for len(queue) > 0 {
				p := queue[0]
				queue = queue[1:]
				for _, d := range chain {
					q := p.Add(d)
					if !m.At(q.X, q.Y) {
						continue
					}
					j := q.Y*m.Width + q.X
					if !labelled[j] {
						labelled[j] = true
						queue = append(queue, q)
					}
				}
			}

			out = append(out, traceBorder(m, start))
		}
	}
	return out
}

// traceBorder follows the outer border of the component containing start,
// which must be its first pixel in raster order.
func traceBorder(m *Mask, start Point) Contour {
	first := -1
	for k := 0; k < 8; k++ {
		d := (west - k + 8) % 8
		q := start.Add(chain[d])
		if m.At(q.X, q.Y) {
			first = d
			break
		}
	}
	if first < 0 {
		return Contour{start}
	}

	p1 := start.Add(chain[first])
	prev, cur := p1, start
	var out Contour
	for {
		back := chainIndex(cur, prev)
		next := cur
		for k := 1; k <= 8; k++ {
			q := cur.Add(chain[(back+k)%8])
			if m.At(q.X, q.Y) {
				next = q
				break
			}
		}
		out = append(out, cur)
		if next == start && cur == p1 {
			return out
		}
		prev, cur = cur, next
	}
}
