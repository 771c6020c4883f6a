// Package monitor renders diagnostic plots of traced branches.
package monitor

import (
	"fmt"
	"image/color"
	"path/filepath"
	"sort"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/vesseltrace/internal/fsutil"
	"github.com/banshee-data/vesseltrace/internal/vessel/geometry"
	"github.com/banshee-data/vesseltrace/internal/vessel/registry"
)

// ProfileSample is one cross-section of a branch.
type ProfileSample struct {
	Depth     int
	Radius    float64 // min enclosing circle radius
	Area      float64 // contour area
	Predicted bool
}

// ProfilePlotter records per-branch cross-section profiles and writes them
// out as radius-over-depth plots.
type ProfilePlotter struct {
	mu        sync.Mutex
	fs        fsutil.FileSystem
	geom      geometry.Adapter
	outputDir string

	samples map[registry.BranchID][]ProfileSample
}

// NewProfilePlotter creates a plotter writing through fs.
func NewProfilePlotter(fs fsutil.FileSystem, geom geometry.Adapter) *ProfilePlotter {
	return &ProfilePlotter{
		fs:      fs,
		geom:    geom,
		samples: make(map[registry.BranchID][]ProfileSample),
	}
}

// Start prepares outputDir and clears earlier samples.
func (pp *ProfilePlotter) Start(outputDir string) error {
	pp.mu.Lock()
	defer pp.mu.Unlock()

	if err := pp.fs.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	pp.outputDir = outputDir
	pp.samples = make(map[registry.BranchID][]ProfileSample)
	return nil
}

// SampleRegistry records the trajectory of every live branch of reg.
func (pp *ProfilePlotter) SampleRegistry(reg *registry.Registry) {
	pp.mu.Lock()
	defer pp.mu.Unlock()

	for _, id := range reg.Live() {
		areas, offset := reg.Trajectory(id)
		for i, a := range areas {
			pp.samples[id] = append(pp.samples[id], ProfileSample{
				Depth:     offset - i,
				Radius:    pp.geom.MinEnclosingCircle(a.Contour).Radius,
				Area:      pp.geom.ContourArea(a.Contour),
				Predicted: a.Predicted,
			})
		}
	}
}

// SampleCount returns the total number of samples collected.
func (pp *ProfilePlotter) SampleCount() int {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	n := 0
	for _, s := range pp.samples {
		n += len(s)
	}
	return n
}

// GeneratePlots writes one radius plot per branch plus an overview with
// every branch. It returns the number of files written.
func (pp *ProfilePlotter) GeneratePlots() (int, error) {
	pp.mu.Lock()
	defer pp.mu.Unlock()

	if pp.outputDir == "" {
		return 0, fmt.Errorf("no output directory configured")
	}
	if len(pp.samples) == 0 {
		return 0, nil
	}

	ids := make([]registry.BranchID, 0, len(pp.samples))
	for id := range pp.samples {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	colors := generateColors(len(ids))

	overview := newProfilePlot("Radius by depth, all branches")
	count := 0
	for i, id := range ids {
		samples := pp.samples[id]
		sort.Slice(samples, func(a, b int) bool { return samples[a].Depth > samples[b].Depth })

		radius := make(plotter.XYs, len(samples))
		var predicted plotter.XYs
		for j, s := range samples {
			radius[j] = plotter.XY{X: float64(s.Depth), Y: s.Radius}
			if s.Predicted {
				predicted = append(predicted, radius[j])
			}
		}

		line, err := plotter.NewLine(radius)
		if err != nil {
			return count, err
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		label := fmt.Sprintf("branch %d", id)
		overview.Add(line)
		overview.Legend.Add(label, line)

		p := newProfilePlot(fmt.Sprintf("Branch %d - Radius by depth", id))
		p.Add(line)
		if len(predicted) > 0 {
			sc, err := plotter.NewScatter(predicted)
			if err != nil {
				return count, err
			}
			sc.Color = color.RGBA{R: 200, A: 255}
			p.Add(sc)
			p.Legend.Add("predicted", sc)
		}
		if err := pp.save(p, fmt.Sprintf("branch_%03d_radius.png", id)); err != nil {
			return count, fmt.Errorf("branch %d: %w", id, err)
		}
		count++
	}

	if err := pp.save(overview, "radius_all.png"); err != nil {
		return count, fmt.Errorf("overview: %w", err)
	}
	return count + 1, nil
}

func newProfilePlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Depth"
	p.Y.Label.Text = "Radius (px)"
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p
}

func (pp *ProfilePlotter) save(p *plot.Plot, name string) error {
	wt, err := p.WriterTo(10*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	path := filepath.Join(pp.outputDir, name)
	w, err := pp.fs.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return w.Close()
}

// generateColors creates a palette of distinct colours, one per branch.
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		r, g, b := hslToRGB(float64(i)/float64(n), 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range).
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64
	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}
	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
