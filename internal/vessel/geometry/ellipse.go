package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// minEllipseAxis rejects fits that collapse onto a line.
const minEllipseAxis = 0.5

// FitEllipse fits an ellipse to pts from the eigen-decomposition of their
// covariance. Points sampled uniformly on an ellipse boundary have variance
// a²/2 along the major axis, which fixes the scale. At least five points
// are required.
func FitEllipse(pts []Point) (Ellipse, bool) {
	if len(pts) < 5 {
		return Ellipse{}, false
	}
	n := float64(len(pts))
	var mx, my float64
	for _, p := range pts {
		mx += float64(p.X)
		my += float64(p.Y)
	}
	mx /= n
	my /= n

	var sxx, sxy, syy float64
	for _, p := range pts {
		dx, dy := float64(p.X)-mx, float64(p.Y)-my
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
	}
	cov := mat.NewSymDense(2, []float64{sxx / n, sxy / n, sxy / n, syy / n})

	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return Ellipse{}, false
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// Values are ascending, so column 1 is the major axis.
	major := math.Sqrt(2 * math.Max(vals[1], 0))
	minor := math.Sqrt(2 * math.Max(vals[0], 0))
	if minor < minEllipseAxis {
		return Ellipse{}, false
	}
	return Ellipse{
		Center:    PointF{X: mx, Y: my},
		SemiMajor: major,
		SemiMinor: minor,
		Angle:     math.Atan2(vecs.At(1, 1), vecs.At(0, 1)),
	}, true
}
