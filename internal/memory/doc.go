// Package memory keeps the server inside its container memory budget.
//
// # Configuration
//
// Unlike GOMAXPROCS, which Go derives from cgroup CPU limits, GOMEMLIMIT
// must be set explicitly. Call [ConfigureFromEnv] at the top of main:
//
//	func main() {
//	    memory.ConfigureFromEnv()
//	    // ...
//	}
//
// It honours GOMEMLIMIT when set and otherwise derives a limit from
// MEMORY_LIMIT (bytes, typically from the Kubernetes Downward API) scaled by
// MEMORY_RATIO, default [DefaultMemoryRatio]. The remainder is headroom for
// ffmpeg child processes, which the Go runtime cannot see.
//
// # Admission
//
// A video encode decodes and rewrites a full frame PNG and an upload decode
// holds a frame too, so a burst of runs can spike the heap. A [Monitor]
// samples heap usage and, once it crosses CriticalWaterMark, makes
// [Monitor.Wait] block new runs until usage falls below HighWaterMark. Runs
// that already started are not affected.
//
//	mon := memory.NewMonitor(memory.DefaultConfig())
//	mon.Start()
//	defer mon.Stop()
//
//	if err := mon.Wait(ctx); err != nil {
//	    return err // ctx ended while paused
//	}
//
// Usage and pause state are exported as stego_memory_usage_ratio and
// stego_memory_paused.
package memory
