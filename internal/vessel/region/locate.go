package region

import (
	"github.com/banshee-data/vesseltrace/internal/vessel/geometry"
	"github.com/banshee-data/vesseltrace/internal/vessel/volume"
)

// DefaultSearchMargin widens the locator gate beyond the mean radius.
const DefaultSearchMargin = 5

// Locate runs a breadth-first search over 8-connected neighbours from seed
// and returns the first pixel brighter than floor. Each pixel is visited at
// most once. A visited pixel is tested before the gate, but its neighbours
// are only queued while it lies within Chebyshev distance radius+margin of
// the seed. geometry.NoPoint is returned when the search is exhausted or
// the seed lies outside the slice.
func Locate(s *volume.Slice, seed geometry.Point, radius, floor float64, margin int) geometry.Point {
	if s == nil || !s.Contains(seed) {
		return geometry.NoPoint
	}
	limit := radius + float64(margin)

	visited := make([]bool, len(s.Pix))
	visited[seed.Y*s.Width+seed.X] = true
	queue := []geometry.Point{seed}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if s.At(p.X, p.Y) > floor {
			return p
		}
		if float64(max(abs(p.X-seed.X), abs(p.Y-seed.Y))) > limit {
			continue
		}
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				q := geometry.Point{X: p.X + dx, Y: p.Y + dy}
				if !s.Contains(q) {
					continue
				}
				i := q.Y*s.Width + q.X
				if !visited[i] {
					visited[i] = true
					queue = append(queue, q)
				}
			}
		}
	}
	return geometry.NoPoint
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
