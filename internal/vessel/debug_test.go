package vessel

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/banshee-data/vesseltrace/internal/vessel/geometry"
	"github.com/banshee-data/vesseltrace/internal/vessel/network"
	"github.com/banshee-data/vesseltrace/internal/vessel/trace"
	"github.com/banshee-data/vesseltrace/internal/vessel/volume"
)

func TestSetLogWriters(t *testing.T) {
	var ops, diag, tr bytes.Buffer
	SetLogWriters(LogWriters{Ops: &ops, Diag: &diag, Trace: &tr})
	defer SetLogWriters(LogWriters{})

	Opsf("ops %d", 1)
	Diagf("diag %d", 2)
	Tracef("trace %d", 3)
	if !strings.Contains(ops.String(), "[vessel] ops 1") {
		t.Errorf("ops stream = %q", ops.String())
	}
	if !strings.Contains(diag.String(), "diag 2") || strings.Contains(diag.String(), "ops 1") {
		t.Errorf("diag stream = %q", diag.String())
	}
	if !strings.Contains(tr.String(), "trace 3") {
		t.Errorf("trace stream = %q", tr.String())
	}

	c := geometry.PointF{X: 10, Y: 10}
	vol := volume.Phantom(20, 20, 5, volume.Tube{From: c, To: c, FromDepth: 0, ToDepth: 4, Radius: 3, Intensity: 100})
	e := trace.NewEngine(vol, geometry.Planar{}, trace.DefaultConfig())
	if _, err := e.Seed(4, geometry.Point{X: 10, Y: 10}); err != nil {
		t.Fatal(err)
	}
	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	network.Merge(e.Registry(), geometry.Planar{}, network.DefaultMergeOptions())

	if !strings.Contains(diag.String(), "[trace] seeded branch 1") {
		t.Errorf("trace diag output missing: %q", diag.String())
	}
	if !strings.Contains(diag.String(), "[network] merge:") {
		t.Errorf("network diag output missing: %q", diag.String())
	}
	if !strings.Contains(tr.String(), "[trace] branch 1 depth 4") {
		t.Errorf("trace stream missing step lines: %q", tr.String())
	}
}

func TestLogf_Disabled(t *testing.T) {
	SetLogWriters(LogWriters{})
	// Must not panic with every stream disabled.
	Opsf("x")
	Diagf("x")
	Tracef("x")
}
