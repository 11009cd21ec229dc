/*
Package workers sizes and enforces the concurrency limit for video runs.

A video encode demuxes every frame of the carrier to PNG and remuxes them
losslessly, which is CPU and disk heavy. Running many at once on a small
container only makes each one slower, so runs take a slot from a Limiter
before touching ffmpeg.

# Sizing

Count uses runtime.GOMAXPROCS(0), which the Go runtime derives from the
container CPU limit, rather than runtime.NumCPU(), which reports host CPUs:

	// Pod limited to 2 CPUs on a 64 core node
	runtime.NumCPU()      // 64
	runtime.GOMAXPROCS(0) // 2

Set VIDEO_WORKERS to pin the value:

	VIDEO_WORKERS=1 ./stego-server

# Limiting

	limiter := workers.NewLimiter(workers.ForCPU(4))

	release, err := limiter.Acquire(ctx)
	if err != nil {
		return err // ctx cancelled while waiting
	}
	defer release()
*/
package workers
