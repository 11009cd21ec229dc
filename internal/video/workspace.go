package video

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"stego-server/internal/metrics"
)

const (
	workspacePrefix   = "run-"
	decodeFramePrefix = "decode-frame-"

	// UploadPrefix names request uploads staged in the temp directory so
	// SweepStale also collects ones orphaned by a crash.
	UploadPrefix = "upload-"

	audioFile    = "audio.mka"
	framePattern = "frame-%05d.png"
	firstFrame   = "frame-00001.png"
)

// workspace is the per-run scratch directory.
type workspace struct {
	dir string
}

func newWorkspace(tempDir string) (*workspace, error) {
	name := fmt.Sprintf("%s%d-%s", workspacePrefix, time.Now().UnixNano(), uuid.New().String())
	dir := filepath.Join(tempDir, name)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &workspace{dir: dir}, nil
}

func (w *workspace) audioPath() string    { return filepath.Join(w.dir, audioFile) }
func (w *workspace) framePattern() string { return filepath.Join(w.dir, framePattern) }
func (w *workspace) firstFrame() string   { return filepath.Join(w.dir, firstFrame) }

// frameCount counts the extracted frame files.
func (w *workspace) frameCount() (int, error) {
	matches, err := filepath.Glob(filepath.Join(w.dir, "frame-*.png"))
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}

// remove deletes the files in the workspace and then the directory itself.
func (w *workspace) remove() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	var errs []error
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(w.dir, e.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	if err := os.Remove(w.dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func isScratch(name string) bool {
	for _, prefix := range []string{workspacePrefix, decodeFramePrefix, UploadPrefix} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// SweepStale removes run workspaces, decode frames and staged uploads in
// tempDir older than maxAge. They are left behind only when the process
// dies mid-run.
func SweepStale(tempDir string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(tempDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read temp directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	var errs []error

	for _, e := range entries {
		name := e.Name()
		if !isScratch(name) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(tempDir, name)
		if err := os.RemoveAll(path); err != nil {
			errs = append(errs, err)
			metrics.WorkspaceCleanupFailures.Inc()
			continue
		}
		log.Info("Swept stale %s (modified %v)", name, info.ModTime().Format(time.RFC3339))
		removed++
	}

	metrics.WorkspaceSweptTotal.Add(float64(removed))
	return removed, errors.Join(errs...)
}
