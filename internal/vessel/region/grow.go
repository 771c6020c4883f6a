package region

import (
	"image"
	"math"

	"github.com/banshee-data/vesseltrace/internal/config"
	"github.com/banshee-data/vesseltrace/internal/vessel/geometry"
	"github.com/banshee-data/vesseltrace/internal/vessel/stats"
	"github.com/banshee-data/vesseltrace/internal/vessel/volume"
)

// UnknownRadiusArea is the anomaly area used when no mean radius is known.
const UnknownRadiusArea = 1e7

// MinExclusionPoints is the size at or below which an exclusion polygon is
// degenerate and never matches.
const MinExclusionPoints = 10

// GrowerConfig controls acceptance and the anomaly policy.
type GrowerConfig struct {
	// Beta is the fraction of the baseline intensity a pixel must reach.
	Beta float64
	// MaxArea is the hard ceiling on accepted pixels.
	MaxArea int
	// AnomalyHalfWidth is the half-width a region must exceed before it is
	// considered anomalous at all.
	AnomalyHalfWidth float64
	// AnomalyRadiusFactor scales the mean radius into the anomalous
	// half-width.
	AnomalyRadiusFactor float64
}

// DefaultGrowerConfig returns the stock grower settings.
func DefaultGrowerConfig() GrowerConfig {
	return GrowerConfigFromTuning(config.EmptyTracingConfig())
}

// GrowerConfigFromTuning derives grower settings from the tuning config.
func GrowerConfigFromTuning(c *config.TracingConfig) GrowerConfig {
	return GrowerConfig{
		Beta:                c.GetBeta(),
		MaxArea:             c.GetMaxVesselArea(),
		AnomalyHalfWidth:    c.GetAnomalyHalfWidth(),
		AnomalyRadiusFactor: c.GetAnomalyRadiusFactor(),
	}
}

// Result is the outcome of one Grow call. An empty Contour means nothing
// usable was segmented.
type Result struct {
	Contour   geometry.Contour
	Predicted bool
	Pixels    int
}

// Empty reports whether the grower produced no contour.
func (r Result) Empty() bool {
	return len(r.Contour) == 0
}

// Grower segments one cross-section by flood fill.
type Grower struct {
	cfg  GrowerConfig
	geom geometry.Adapter
}

// NewGrower returns a Grower using geom for contour work.
func NewGrower(cfg GrowerConfig, geom geometry.Adapter) *Grower {
	return &Grower{cfg: cfg, geom: geom}
}

type exclusion struct {
	poly   geometry.Contour
	bounds image.Rectangle
}

// Grow flood-fills from seed, accepting 8-connected pixels whose intensity
// is at least Beta times the average of intensity and which fall outside
// every non-degenerate exclusion polygon. meanRadius < 0 means the radius
// is unknown.
//
// More than MaxArea accepted pixels always yields an empty result. A region
// wider than AnomalyHalfWidth that is also wider than AnomalyRadiusFactor
// mean radii, or larger than the area of a disk of twice the mean radius,
// is replaced by a circle of the mean radius around seed and marked
// predicted.
func (g *Grower) Grow(s *volume.Slice, seed geometry.Point, intensity *stats.NestedAverage, meanRadius float64, exclude []geometry.Contour) Result {
	if s == nil || !s.Contains(seed) {
		return Result{}
	}
	baseline := g.cfg.Beta * intensity.Average()

	var zones []exclusion
	for _, c := range exclude {
		if len(c) > MinExclusionPoints {
			zones = append(zones, exclusion{poly: c, bounds: c.Bounds()})
		}
	}
	excluded := func(p geometry.Point) bool {
		for _, z := range zones {
			if !image.Pt(p.X, p.Y).In(z.bounds) {
				continue
			}
			if g.geom.PointPolygonTest(z.poly, p) >= 0 {
				return true
			}
		}
		return false
	}

	mask := geometry.NewMask(s.Width, s.Height)
	rejected := make([]bool, len(s.Pix))
	count := 0
	stack := []geometry.Point{seed}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		i := p.Y*s.Width + p.X
		if mask.Pix[i] != 0 || rejected[i] {
			continue
		}
		if s.Pix[i] < baseline || excluded(p) {
			rejected[i] = true
			continue
		}
		mask.Pix[i] = 1
		count++
		if count > g.cfg.MaxArea {
			return Result{Pixels: count}
		}
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				q := geometry.Point{X: p.X + dx, Y: p.Y + dy}
				if s.Contains(q) {
					stack = append(stack, q)
				}
			}
		}
	}
	if count == 0 {
		return Result{}
	}

	contours := g.geom.ExternalContours(mask)
	if len(contours) == 0 {
		return Result{Pixels: count}
	}
	contour := contours[0]

	long, _ := g.geom.MinAreaRect(contour).LongSide()
	halfWidth := long / 2
	unrealistic := UnknownRadiusArea
	if meanRadius >= 0 {
		unrealistic = 4 * math.Pi * meanRadius * meanRadius
	}
	if halfWidth > g.cfg.AnomalyHalfWidth &&
		(halfWidth > g.cfg.AnomalyRadiusFactor*meanRadius || float64(count) > unrealistic) {
		circle := geometry.CircleContour(g.geom, s.Width, s.Height, seed, max(int(meanRadius), 0))
		return Result{Contour: circle, Predicted: true, Pixels: count}
	}
	return Result{Contour: contour, Pixels: count}
}
