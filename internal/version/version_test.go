package version

import "testing"

func TestString(t *testing.T) {
	orig := Version
	Version = "v1.2.3"
	defer func() { Version = orig }()

	if got, want := String("vesseltrace"), "vesseltrace v1.2.3 ("+GitSHA+", built "+BuildTime+")"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
