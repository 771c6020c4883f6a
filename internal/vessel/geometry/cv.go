//go:build gocv

package geometry

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

// CV is an Adapter backed by OpenCV. Every measurement goes through gocv.
type CV struct{}

var _ Adapter = CV{}

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

func toImage(c Contour) []image.Point {
	out := make([]image.Point, len(c))
	for i, p := range c {
		out[i] = image.Pt(p.X, p.Y)
	}
	return out
}

func fromImage(pts []image.Point) Contour {
	out := make(Contour, len(pts))
	for i, p := range pts {
		out[i] = Point{X: p.X, Y: p.Y}
	}
	return out
}

func maskMat(m *Mask) (gocv.Mat, error) {
	buf := make([]byte, len(m.Pix))
	for i, v := range m.Pix {
		if v != 0 {
			buf[i] = 255
		}
	}
	return gocv.NewMatFromBytes(m.Height, m.Width, gocv.MatTypeCV8U, buf)
}

func copyBack(m *Mask, mat gocv.Mat) {
	for i, v := range mat.ToBytes() {
		if v != 0 {
			m.Pix[i] = 1
		}
	}
}

func (CV) ExternalContours(m *Mask) []Contour {
	mat, err := maskMat(m)
	if err != nil {
		return nil
	}
	defer mat.Close()
	pv := gocv.FindContours(mat, gocv.RetrievalExternal, gocv.ChainApproxNone)
	defer pv.Close()
	raw := pv.ToPoints()
	out := make([]Contour, len(raw))
	for i, pts := range raw {
		out[i] = fromImage(pts)
	}
	return out
}

func (CV) ContourArea(c Contour) float64 {
	if len(c) == 0 {
		return 0
	}
	pv := gocv.NewPointVectorFromPoints(toImage(c))
	defer pv.Close()
	return gocv.ContourArea(pv)
}

func (CV) MinEnclosingCircle(pts []Point) Circle {
	if len(pts) == 0 {
		return Circle{}
	}
	pv := gocv.NewPointVectorFromPoints(toImage(pts))
	defer pv.Close()
	x, y, r := gocv.MinEnclosingCircle(pv)
	return Circle{Center: PointF{X: float64(x), Y: float64(y)}, Radius: float64(r)}
}

func (CV) MinAreaRect(pts []Point) RotatedRect {
	if len(pts) == 0 {
		return RotatedRect{}
	}
	pv := gocv.NewPointVectorFromPoints(toImage(pts))
	defer pv.Close()
	r := gocv.MinAreaRect2(pv)
	return RotatedRect{
		Center: PointF{X: float64(r.Center.X), Y: float64(r.Center.Y)},
		Width:  float64(r.Width),
		Height: float64(r.Height),
		Angle:  r.Angle * math.Pi / 180,
	}
}

func (CV) Moments(c Contour) Moments {
	if len(c) < 3 {
		return Moments{}
	}
	pv := gocv.NewPointVectorFromPoints(toImage(c))
	defer pv.Close()
	mat := gocv.NewMatFromPointVector(pv, true)
	defer mat.Close()
	m := gocv.Moments(mat, false)
	return Moments{M00: m["m00"], M10: m["m10"], M01: m["m01"]}
}

// FitEllipse wraps cv::fitEllipse, whose box holds full axis lengths with
// the angle of the width axis in degrees.
func (CV) FitEllipse(pts []Point) (Ellipse, bool) {
	if len(pts) < 5 {
		return Ellipse{}, false
	}
	pv := gocv.NewPointVectorFromPoints(toImage(pts))
	defer pv.Close()
	r := gocv.FitEllipse(pv)
	w, h := float64(r.Width)/2, float64(r.Height)/2
	angle := r.Angle * math.Pi / 180
	if h > w {
		w, h = h, w
		angle += math.Pi / 2
	}
	if h < minEllipseAxis {
		return Ellipse{}, false
	}
	return Ellipse{
		Center:    PointF{X: float64(r.Center.X), Y: float64(r.Center.Y)},
		SemiMajor: w,
		SemiMinor: h,
		Angle:     angle,
	}, true
}

func (CV) PointPolygonTest(c Contour, p Point) int {
	if len(c) == 0 {
		return -1
	}
	pv := gocv.NewPointVectorFromPoints(toImage(c))
	defer pv.Close()
	d := gocv.PointPolygonTest(pv, image.Pt(p.X, p.Y), false)
	switch {
	case d > 0:
		return 1
	case d == 0:
		return 0
	}
	return -1
}

func (CV) FillPolygons(m *Mask, cs ...Contour) {
	mat, err := maskMat(m)
	if err != nil {
		return
	}
	defer mat.Close()
	polys := make([][]image.Point, 0, len(cs))
	for _, c := range cs {
		if len(c) > 0 {
			polys = append(polys, toImage(c))
		}
	}
	pv := gocv.NewPointsVectorFromPoints(polys)
	defer pv.Close()
	if err := gocv.FillPoly(&mat, pv, white); err != nil {
		return
	}
	copyBack(m, mat)
}

func (CV) DrawCircle(m *Mask, center Point, radius int) {
	mat, err := maskMat(m)
	if err != nil {
		return
	}
	defer mat.Close()
	if err := gocv.Circle(&mat, image.Pt(center.X, center.Y), radius, white, 1); err != nil {
		return
	}
	copyBack(m, mat)
}
