package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/banshee-data/vesseltrace/internal/config"
	"github.com/banshee-data/vesseltrace/internal/fsutil"
	"github.com/banshee-data/vesseltrace/internal/monitoring"
	"github.com/banshee-data/vesseltrace/internal/security"
	"github.com/banshee-data/vesseltrace/internal/vessel"
	"github.com/banshee-data/vesseltrace/internal/vessel/geometry"
	"github.com/banshee-data/vesseltrace/internal/vessel/monitor"
	"github.com/banshee-data/vesseltrace/internal/vessel/network"
	"github.com/banshee-data/vesseltrace/internal/vessel/registry"
	"github.com/banshee-data/vesseltrace/internal/vessel/render"
	"github.com/banshee-data/vesseltrace/internal/vessel/storage/sqlite"
	"github.com/banshee-data/vesseltrace/internal/vessel/trace"
	"github.com/banshee-data/vesseltrace/internal/vessel/volume"
)

var (
	flagSlices        string
	flagPhantom       bool
	flagPhantomDepth  int
	flagSeedDepth     int
	flagSeedX         int
	flagSeedY         int
	flagMerge         bool
	flagSegmentize    bool
	flagPlots         string
	flagRender        string
	flagMetricsListen string
	flagNoStore       bool
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Trace a vessel tree from a seed towards slice 0",
	Long:  "Loads a slice stack (or a synthetic phantom), traces from the seed, and optionally merges, segments, plots, renders and stores the result.",
	Args:  cobra.NoArgs,
	RunE:  runTrace,
}

var reverseCmd = &cobra.Command{
	Use:   "reverse",
	Short: "Follow a vessel from a seed towards the deepest slice",
	Args:  cobra.NoArgs,
	RunE:  runReverse,
}

func addVolumeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagSlices, "slices", "", "directory of PNG/TIFF slices, read in name order as depths 0..n-1")
	cmd.Flags().BoolVar(&flagPhantom, "phantom", false, "trace a synthetic bifurcating phantom instead of --slices")
	cmd.Flags().IntVar(&flagPhantomDepth, "phantom-depth", 100, "number of slices in the phantom")
	cmd.Flags().IntVar(&flagSeedDepth, "seed-depth", -1, "seed depth (default: deepest slice for trace, 0 for reverse)")
	cmd.Flags().IntVar(&flagSeedX, "seed-x", -1, "seed column (default: brightest pixel of the seed slice)")
	cmd.Flags().IntVar(&flagSeedY, "seed-y", -1, "seed row (default: brightest pixel of the seed slice)")
	cmd.Flags().BoolVar(&flagNoStore, "no-store", false, "do not write the run to the database")
}

func init() {
	addVolumeFlags(traceCmd)
	traceCmd.Flags().BoolVar(&flagMerge, "merge", false, "merge overlapping branches after tracing")
	traceCmd.Flags().BoolVar(&flagSegmentize, "segmentize", false, "split the network into unbranched segments after tracing")
	traceCmd.Flags().StringVar(&flagPlots, "plots", "", "write radius profile plots into this directory")
	traceCmd.Flags().StringVar(&flagRender, "render", "", "write per-branch voxel slices into this directory")
	traceCmd.Flags().StringVar(&flagMetricsListen, "metrics-listen", "", "serve Prometheus metrics on this address while tracing (e.g. :9100)")

	addVolumeFlags(reverseCmd)
}

// phantom is a trunk that forks into two daughters halfway down.
func phantom(depth int) *volume.Volume {
	fork := depth / 2
	trunk := geometry.PointF{X: 32, Y: 32}
	return volume.Phantom(64, 64, depth,
		volume.Tube{From: trunk, To: trunk, FromDepth: depth - 1, ToDepth: fork, Radius: 6, Intensity: 200},
		volume.Tube{From: geometry.PointF{X: 27, Y: 32}, To: geometry.PointF{X: 12, Y: 20}, FromDepth: fork - 1, ToDepth: 0, Radius: 4, Intensity: 200},
		volume.Tube{From: geometry.PointF{X: 37, Y: 32}, To: geometry.PointF{X: 52, Y: 44}, FromDepth: fork - 1, ToDepth: 0, Radius: 4, Intensity: 200},
	)
}

func loadVolume() (*volume.Volume, error) {
	switch {
	case flagPhantom:
		if flagPhantomDepth < 2 {
			return nil, fmt.Errorf("--phantom-depth must be at least 2")
		}
		return phantom(flagPhantomDepth), nil
	case flagSlices != "":
		return volume.NewLoader().LoadDir(flagSlices)
	}
	return nil, errors.New("one of --slices or --phantom is required")
}

// resolveSeed fills in defaults for unset seed flags.
func resolveSeed(vol *volume.Volume, defaultDepth int) (int, geometry.Point, error) {
	d := flagSeedDepth
	if d < 0 {
		d = defaultDepth
	}
	s := vol.Slice(d)
	if s == nil {
		return 0, geometry.NoPoint, fmt.Errorf("seed depth %d outside volume of depth %d", d, vol.Depth())
	}
	if flagSeedX >= 0 && flagSeedY >= 0 {
		return d, geometry.Point{X: flagSeedX, Y: flagSeedY}, nil
	}
	return d, brightest(s), nil
}

// brightest returns the first pixel in raster order holding the slice's
// maximum intensity.
func brightest(s *volume.Slice) geometry.Point {
	best, at := -1.0, geometry.Point{}
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			if v := s.At(x, y); v > best {
				best, at = v, geometry.Point{X: x, Y: y}
			}
		}
	}
	return at
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// serveMetrics exposes reg over HTTP until the returned stop func is called.
func serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			vessel.Opsf("metrics server: %v", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			vessel.Opsf("metrics server shutdown: %v", err)
			server.Close()
		}
	}
}

type runSummary struct {
	RunID    string `json:"run_id,omitempty"`
	Kind     string `json:"kind"`
	Branches int    `json:"branches"`
	Areas    int    `json:"areas"`
}

func summarise(reg *registry.Registry, kind sqlite.Kind, runID string) runSummary {
	s := runSummary{RunID: runID, Kind: string(kind), Branches: len(reg.Live())}
	for d := 0; d < reg.Depth(); d++ {
		s.Areas += len(reg.AreasAt(d))
	}
	return s
}

func printSummaries(w io.Writer, sums []runSummary) error {
	if flagFormat == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sums)
	}
	for _, s := range sums {
		id := s.RunID
		if id == "" {
			id = "(not stored)"
		}
		fmt.Fprintf(w, "%-9s %s  branches=%d areas=%d\n", s.Kind, id, s.Branches, s.Areas)
	}
	return nil
}

// store saves reg unless --no-store is set and returns the run id.
func store(runs *sqlite.RunStore, reg *registry.Registry, kind sqlite.Kind, parent string, params []byte) (string, error) {
	if runs == nil {
		return "", nil
	}
	run := &sqlite.Run{Kind: kind, ParentRunID: parent, ParamsJSON: params}
	if err := runs.Save(run, reg); err != nil {
		return "", fmt.Errorf("save %s run: %w", kind, err)
	}
	return run.RunID, nil
}

func openRunStore() (*sqlite.RunStore, func(), error) {
	if flagNoStore {
		return nil, func() {}, nil
	}
	db, err := sqlite.Open(flagDB)
	if err != nil {
		return nil, nil, err
	}
	return sqlite.NewRunStore(db.DB), func() { db.Close() }, nil
}

func runTrace(cmd *cobra.Command, args []string) error {
	tuning, err := loadTuning()
	if err != nil {
		return err
	}
	vol, err := loadVolume()
	if err != nil {
		return err
	}
	depth, seed, err := resolveSeed(vol, vol.Depth()-1)
	if err != nil {
		return err
	}
	runs, closeDB, err := openRunStore()
	if err != nil {
		return err
	}
	defer closeDB()

	geom := newAdapter()
	engine := trace.NewEngine(vol, geom, trace.ConfigFromTuning(tuning))
	promReg := prometheus.NewRegistry()
	engine.SetObserver(monitoring.NewTraceMetrics(promReg))
	if flagMetricsListen != "" {
		stop := serveMetrics(flagMetricsListen, promReg)
		defer stop()
	}

	if _, err := engine.Seed(depth, seed); err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	start := time.Now()
	if err := engine.Run(ctx); err != nil {
		return fmt.Errorf("trace interrupted at depth %d: %w", engine.CurrentDepth(), err)
	}
	st := engine.Stats()
	vessel.Diagf("traced from depth %d %v in %s: %d branches created, %d deleted, %d splits (%d confirmed)",
		depth, seed, time.Since(start).Round(time.Millisecond), st.BranchesCreated, st.BranchesDeleted, st.SplitsTriggered, st.SplitsConfirmed)

	params, err := json.Marshal(tuning)
	if err != nil {
		return fmt.Errorf("encode tuning: %w", err)
	}
	reg := engine.Registry()
	traceID, err := store(runs, reg, sqlite.KindTrace, "", params)
	if err != nil {
		return err
	}
	sums := []runSummary{summarise(reg, sqlite.KindTrace, traceID)}

	final := reg
	if flagMerge {
		merged, report := network.Merge(reg, geom, network.MergeOptionsFromTuning(tuning))
		vessel.Diagf("merge folded %d branches, dropped %d, pruned %d", report.Folds, report.Dropped, report.Pruned)
		id, err := store(runs, merged, sqlite.KindMerged, traceID, params)
		if err != nil {
			return err
		}
		sums = append(sums, summarise(merged, sqlite.KindMerged, id))
		final = merged
		traceID = id
	}
	if flagSegmentize {
		segmented := network.Segmentize(final, geom)
		id, err := store(runs, segmented, sqlite.KindSegmented, traceID, params)
		if err != nil {
			return err
		}
		sums = append(sums, summarise(segmented, sqlite.KindSegmented, id))
		final = segmented
	}

	if err := writeOutputs(geom, vol, final); err != nil {
		return err
	}
	return printSummaries(cmd.OutOrStdout(), sums)
}

// writeOutputs writes the optional plots and voxel renders of reg.
func writeOutputs(geom geometry.Adapter, vol *volume.Volume, reg *registry.Registry) error {
	fs := fsutil.OSFileSystem{}
	for _, dir := range []string{flagPlots, flagRender} {
		if dir == "" {
			continue
		}
		if err := security.ValidateOutputPath(dir); err != nil {
			return err
		}
	}
	if flagPlots != "" {
		pp := monitor.NewProfilePlotter(fs, geom)
		if err := pp.Start(flagPlots); err != nil {
			return err
		}
		pp.SampleRegistry(reg)
		n, err := pp.GeneratePlots()
		if err != nil {
			return fmt.Errorf("plots: %w", err)
		}
		vessel.Diagf("wrote %d plots to %s", n, flagPlots)
	}
	if flagRender != "" {
		w, h := vol.Size()
		r := render.NewRenderer(geom, w, h)
		for id, v := range r.Branches(reg) {
			dir := filepath.Join(flagRender, fmt.Sprintf("branch_%03d", id))
			if err := render.WriteSlices(fs, dir, v); err != nil {
				return err
			}
		}
		if err := render.WriteSlices(fs, filepath.Join(flagRender, "overlay"), r.Overlay(reg)); err != nil {
			return err
		}
	}
	return nil
}

func runReverse(cmd *cobra.Command, args []string) error {
	tuning, err := loadTuning()
	if err != nil {
		return err
	}
	vol, err := loadVolume()
	if err != nil {
		return err
	}
	depth, seed, err := resolveSeed(vol, 0)
	if err != nil {
		return err
	}
	runs, closeDB, err := openRunStore()
	if err != nil {
		return err
	}
	defer closeDB()

	engine := trace.NewEngine(vol, newAdapter(), trace.ConfigFromTuning(tuning))
	ctx, cancel := signalContext()
	defer cancel()
	length, err := engine.ExploreReverse(ctx, depth, seed)
	if err != nil {
		return err
	}
	if length == 0 {
		return fmt.Errorf("reverse branch from depth %d %v was shorter than %d slices", depth, seed, tuning.GetMinBranchLength())
	}

	params, err := json.Marshal(reverseParams{Tuning: tuning, Depth: depth, Seed: [2]int{seed.X, seed.Y}})
	if err != nil {
		return fmt.Errorf("encode tuning: %w", err)
	}
	reg := engine.Registry()
	id, err := store(runs, reg, sqlite.KindTrace, "", params)
	if err != nil {
		return err
	}
	return printSummaries(cmd.OutOrStdout(), []runSummary{summarise(reg, sqlite.KindTrace, id)})
}

type reverseParams struct {
	Tuning *config.TracingConfig `json:"tuning"`
	Depth  int                   `json:"seed_depth"`
	Seed   [2]int                `json:"seed"`
}
