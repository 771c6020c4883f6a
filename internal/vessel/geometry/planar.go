package geometry

// Planar is the pure-Go Adapter.
type Planar struct{}

var _ Adapter = Planar{}

func (Planar) ExternalContours(m *Mask) []Contour { return ExternalContours(m) }
func (Planar) ContourArea(c Contour) float64 { return ContourArea(c) }
func (Planar) MinEnclosingCircle(pts []Point) Circle { return MinEnclosingCircle(pts) }
func (Planar) MinAreaRect(pts []Point) RotatedRect { return MinAreaRect(pts) }
func (Planar) Moments(c Contour) Moments { return PolygonMoments(c) }
func (Planar) FitEllipse(pts []Point) (Ellipse, bool) { return FitEllipse(pts) }
func (Planar) PointPolygonTest(c Contour, p Point) int { return PointPolygonTest(c, p) }
func (Planar) FillPolygons(m *Mask, cs ...Contour) { FillPolygons(m, cs...) }
func (Planar) DrawCircle(m *Mask, center Point, r int) { DrawCircle(m, center, r) }
