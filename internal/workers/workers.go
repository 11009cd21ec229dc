package workers

import (
	"context"
	"os"
	"runtime"
	"strconv"

	"golang.org/x/sync/semaphore"
)

// OverrideEnv names the environment variable that pins the video worker count.
const OverrideEnv = "VIDEO_WORKERS"

// Count returns the number of concurrent video runs to allow.
// It respects container CPU limits via GOMAXPROCS.
//
// The multiplier scales the CPU count: ffmpeg frame demux and remux are
// CPU-bound, so 1.0 is typical. The limit caps the result; use 0 for no
// limit. A positive VIDEO_WORKERS value overrides the computed count and is
// still capped by limit.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(OverrideEnv); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// Limiter bounds how many heavy jobs run at once.
type Limiter struct {
	sem  *semaphore.Weighted
	size int
}

// NewLimiter creates a limiter with n slots. n < 1 is treated as 1.
func NewLimiter(n int) *Limiter {
	if n < 1 {
		n = 1
	}
	return &Limiter{sem: semaphore.NewWeighted(int64(n)), size: n}
}

// Size returns the number of slots.
func (l *Limiter) Size() int {
	return l.size
}

// Acquire blocks until a slot is free or ctx is done. The returned release
// func must be called exactly once.
func (l *Limiter) Acquire(ctx context.Context) (release func(), err error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { l.sem.Release(1) }, nil
}

// TryAcquire takes a slot only if one is free right now.
func (l *Limiter) TryAcquire() (release func(), ok bool) {
	if !l.sem.TryAcquire(1) {
		return nil, false
	}
	return func() { l.sem.Release(1) }, true
}
