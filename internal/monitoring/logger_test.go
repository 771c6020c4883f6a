package monitoring

import (
	"bytes"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) { called = true })
	Logf("migrating")
	if !called {
		t.Error("custom logger was not called")
	}

	called = false
	SetLogger(nil)
	Logf("migrating")
	if called {
		t.Error("nil logger should mute output")
	}
}

func TestWriterLogger(t *testing.T) {
	var buf bytes.Buffer
	logf := WriterLogger(&buf, "[vesseltrace] ")
	logf("applied migration %d", 1)
	logf("done\n")

	want := "[vesseltrace] applied migration 1\n[vesseltrace] done\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}
