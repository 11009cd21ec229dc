package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

// noSleep records backoff delays instead of sleeping.
func noSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var delays []time.Duration
	orig := sleep
	sleep = func(d time.Duration) { delays = append(delays, d) }
	t.Cleanup(func() { sleep = orig })
	return &delays
}

func staleErr(path string) error {
	return &fs.PathError{Op: "stat", Path: path, Err: syscall.ESTALE}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()
	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialBackoff != 50*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 50ms", config.InitialBackoff)
	}
	if config.MaxBackoff != 500*time.Millisecond {
		t.Errorf("MaxBackoff = %v, want 500ms", config.MaxBackoff)
	}
}

func TestIsStale(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"bare ESTALE", syscall.ESTALE, true},
		{"wrapped in PathError", staleErr("/x"), true},
		{"wrapped twice", fmt.Errorf("loading: %w", staleErr("/x")), true},
		{"ENOENT", syscall.ENOENT, false},
		{"not exist", os.ErrNotExist, false},
		{"plain error", errors.New("stale"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isStale(tt.err); got != tt.want {
				t.Errorf("isStale(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestVolumeResolverResolve(t *testing.T) {
	vr := NewVolumeResolver(map[string]string{
		"carriers": "/carriers",
		"data":     "/data",
		"results":  "/data/results",
	})

	tests := []struct {
		path string
		want string
	}{
		{"/carriers/144p.png", "carriers"},
		{"/carriers", "carriers"},
		{"/data/db/stego.db", "data"},
		{"/data/results/encoded-1-abcd0123.png", "results"},
		{"/data/results", "results"},
		{"/data/resultsx/file", "data"},
		{"/carriersx/file", "unknown"},
		{"/etc/passwd", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := vr.Resolve(tt.path); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestVolumeResolverNil(t *testing.T) {
	var vr *VolumeResolver
	if got := vr.Resolve("/anything"); got != "unknown" {
		t.Errorf("nil Resolve = %q, want unknown", got)
	}
}

func TestResolveVolumePrefersConfigResolver(t *testing.T) {
	SetDefaultVolumeResolver(NewVolumeResolver(map[string]string{"default": "/srv"}))
	t.Cleanup(func() { SetDefaultVolumeResolver(nil) })

	config := DefaultRetryConfig()
	if got := config.resolveVolume("/srv/a"); got != "default" {
		t.Errorf("fallback resolveVolume = %q, want default", got)
	}

	config.VolumeResolver = NewVolumeResolver(map[string]string{"override": "/srv"})
	if got := config.resolveVolume("/srv/a"); got != "override" {
		t.Errorf("resolveVolume = %q, want override", got)
	}
}

func TestWithRetryRecoversFromStale(t *testing.T) {
	delays := noSleep(t)

	calls := 0
	got, err := withRetry("stat", "/x", DefaultRetryConfig(), func(p string) (int, error) {
		calls++
		if calls < 3 {
			return 0, staleErr(p)
		}
		return 42, nil
	})
	if err != nil || got != 42 {
		t.Fatalf("withRetry() = %d, %v", got, err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	want := []time.Duration{50 * time.Millisecond, 100 * time.Millisecond}
	if len(*delays) != len(want) || (*delays)[0] != want[0] || (*delays)[1] != want[1] {
		t.Errorf("delays = %v, want %v", *delays, want)
	}
}

func TestWithRetryGivesUp(t *testing.T) {
	delays := noSleep(t)

	config := RetryConfig{MaxRetries: 4, InitialBackoff: 100 * time.Millisecond, MaxBackoff: 250 * time.Millisecond}
	calls := 0
	_, err := withRetry("open", "/x", config, func(p string) (struct{}, error) {
		calls++
		return struct{}{}, staleErr(p)
	})
	if !isStale(err) {
		t.Fatalf("err = %v, want ESTALE", err)
	}
	if calls != config.MaxRetries+1 {
		t.Errorf("calls = %d, want %d", calls, config.MaxRetries+1)
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 250 * time.Millisecond, 250 * time.Millisecond}
	if fmt.Sprint(*delays) != fmt.Sprint(want) {
		t.Errorf("delays = %v, want %v", *delays, want)
	}
}

func TestWithRetryDoesNotRetryOtherErrors(t *testing.T) {
	delays := noSleep(t)

	calls := 0
	_, err := withRetry("stat", "/x", DefaultRetryConfig(), func(string) (int, error) {
		calls++
		return 0, os.ErrPermission
	})
	if !errors.Is(err, os.ErrPermission) {
		t.Errorf("err = %v, want ErrPermission", err)
	}
	if calls != 1 || len(*delays) != 0 {
		t.Errorf("calls = %d, delays = %v; want one call, no sleep", calls, *delays)
	}
}

func TestStatAndOpenWithRetry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "carrier.png")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := StatWithRetry(path, DefaultRetryConfig())
	if err != nil {
		t.Fatalf("StatWithRetry() error: %v", err)
	}
	if info.Size() != 4 {
		t.Errorf("Size = %d, want 4", info.Size())
	}

	f, err := OpenWithRetry(path, DefaultRetryConfig())
	if err != nil {
		t.Fatalf("OpenWithRetry() error: %v", err)
	}
	f.Close()

	missing := filepath.Join(dir, "missing.png")
	if _, err := StatWithRetry(missing, DefaultRetryConfig()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("StatWithRetry(missing) = %v, want ErrNotExist", err)
	}
	if _, err := OpenWithRetry(missing, DefaultRetryConfig()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("OpenWithRetry(missing) = %v, want ErrNotExist", err)
	}
}
