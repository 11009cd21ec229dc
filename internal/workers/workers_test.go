package workers

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCount(t *testing.T) {
	t.Setenv(OverrideEnv, "")

	availableCPU := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		minExpect  int
		maxExpect  int
	}{
		{"CPU-bound", 1.0, 0, 1, availableCPU},
		{"doubled", 2.0, 0, 1, availableCPU * 2},
		{"tiny multiplier floors at 1", 0.0001, 0, 1, 1},
		{"limit caps", 100, 3, 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(tt.multiplier, tt.limit)
			if got < tt.minExpect || got > tt.maxExpect {
				t.Errorf("Count(%v, %d) = %d, want in [%d, %d]", tt.multiplier, tt.limit, got, tt.minExpect, tt.maxExpect)
			}
		})
	}
}

func TestCountOverride(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		limit int
		want  int
	}{
		{"override used", "7", 0, 7},
		{"override capped", "7", 2, 2},
		{"invalid ignored", "lots", 1, 1},
		{"zero ignored", "0", 1, 1},
		{"negative ignored", "-3", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(OverrideEnv, tt.env)
			if got := Count(1.0, tt.limit); got != tt.want {
				t.Errorf("Count() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewLimiterMinimum(t *testing.T) {
	if got := NewLimiter(0).Size(); got != 1 {
		t.Errorf("NewLimiter(0).Size() = %d, want 1", got)
	}
}

func TestLimiterBoundsConcurrency(t *testing.T) {
	const slots = 2
	l := NewLimiter(slots)

	var running, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background())
			if err != nil {
				t.Errorf("Acquire() error = %v", err)
				return
			}
			defer release()

			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&running, -1)
		}()
	}
	wg.Wait()

	if peak > slots {
		t.Errorf("peak concurrency = %d, want <= %d", peak, slots)
	}
}

func TestLimiterAcquireCancelled(t *testing.T) {
	l := NewLimiter(1)
	release, ok := l.TryAcquire()
	if !ok {
		t.Fatal("TryAcquire() on empty limiter failed")
	}
	defer release()

	if _, ok := l.TryAcquire(); ok {
		t.Error("TryAcquire() succeeded on a full limiter")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx); err == nil {
		t.Error("Acquire() on a full limiter returned nil error after ctx timeout")
	}
}
