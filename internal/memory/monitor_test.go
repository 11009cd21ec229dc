package memory

import (
	"context"
	"errors"
	"math"
	"runtime/debug"
	"testing"
	"time"
)

func newTestMonitor(limit int64, alloc *uint64) *Monitor {
	cfg := DefaultConfig()
	cfg.LimitBytes = limit
	cfg.CheckInterval = time.Hour
	m := NewMonitor(cfg)
	m.readMem = func() uint64 { return *alloc }
	return m
}

func TestMonitorPauseAndResume(t *testing.T) {
	alloc := uint64(500)
	m := newTestMonitor(1000, &alloc)

	m.check()
	if m.Paused() {
		t.Fatal("paused at 50% usage")
	}
	if got := m.Usage(); got != 0.5 {
		t.Errorf("Usage() = %v, want 0.5", got)
	}

	alloc = 900
	m.check()
	if !m.Paused() {
		t.Fatal("not paused at 90% usage")
	}

	// Between the marks the state holds.
	alloc = 750
	m.check()
	if !m.Paused() {
		t.Fatal("pause lifted above the high water mark")
	}

	done := make(chan error, 1)
	go func() { done <- m.Wait(context.Background()) }()

	select {
	case err := <-done:
		t.Fatalf("Wait() returned %v while paused", err)
	case <-time.After(20 * time.Millisecond):
	}

	alloc = 100
	m.check()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Wait() = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait() did not return after recovery")
	}
	if m.Paused() {
		t.Error("still paused after recovery")
	}
}

func TestMonitorWaitHonoursContext(t *testing.T) {
	alloc := uint64(990)
	m := newTestMonitor(1000, &alloc)
	m.check()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := m.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() = %v, want DeadlineExceeded", err)
	}
}

func TestMonitorStopReleasesWaiters(t *testing.T) {
	alloc := uint64(990)
	m := newTestMonitor(1000, &alloc)
	m.check()

	done := make(chan error, 1)
	go func() { done <- m.Wait(context.Background()) }()
	m.Stop()
	m.Stop() // idempotent

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Wait() = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Stop() did not release the waiter")
	}
}

func TestMonitorWithoutLimit(t *testing.T) {
	restoreLimit(t)
	debug.SetMemoryLimit(math.MaxInt64)

	m := NewMonitor(DefaultConfig())
	if m.Limit() != 0 {
		t.Fatalf("Limit() = %d, want 0", m.Limit())
	}
	m.Start()
	defer m.Stop()

	if m.Usage() != 0 || m.Paused() {
		t.Error("unlimited monitor reports usage or pause")
	}
	if err := m.Wait(context.Background()); err != nil {
		t.Errorf("Wait() = %v", err)
	}
}
