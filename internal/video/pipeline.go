package video

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"stego-server/internal/artifacts"
	"stego-server/internal/carrier"
	"stego-server/internal/logging"
	"stego-server/internal/media"
	"stego-server/internal/memory"
	"stego-server/internal/metrics"
	"stego-server/internal/stego"
	"stego-server/internal/transcoder"
	"stego-server/internal/workers"
)

var log = logging.For("video")

// Transcoder is the subset of *transcoder.Transcoder the pipeline drives.
type Transcoder interface {
	Probe(ctx context.Context, path string) (*transcoder.VideoInfo, error)
	ExtractAudio(ctx context.Context, input, output string) error
	ExtractFrames(ctx context.Context, input, pattern string, rate transcoder.FrameRate) error
	ExtractFrame(ctx context.Context, input, output string) error
	Remux(ctx context.Context, job transcoder.RemuxJob) error
}

// Config holds pipeline dependencies.
type Config struct {
	TempDir string
	Carrier carrier.Video
	Store   *artifacts.Store
	// Limiter bounds concurrent runs. Nil means a single slot.
	Limiter *workers.Limiter
	// Memory, when set, holds new runs while heap usage is critical.
	Memory *memory.Monitor
}

// Pipeline runs video encodes and decodes.
type Pipeline struct {
	tc      Transcoder
	tempDir string
	carrier carrier.Video
	store   *artifacts.Store
	limiter *workers.Limiter
	memory  *memory.Monitor
	probes  singleflight.Group
}

// New creates a Pipeline.
func New(tc Transcoder, cfg Config) *Pipeline {
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = workers.NewLimiter(1)
	}
	return &Pipeline{
		tc:      tc,
		tempDir: cfg.TempDir,
		carrier: cfg.Carrier,
		store:   cfg.Store,
		limiter: limiter,
		memory:  cfg.Memory,
	}
}

// Carrier returns the configured video carrier.
func (p *Pipeline) Carrier() carrier.Video {
	return p.carrier
}

// Encode hides payload in the first frame of the carrier and returns the
// new Matroska artifact.
//
// Waiting for a worker slot honours ctx. Once a run starts it is detached
// from ctx cancellation so the workspace is always cleaned up; stage
// timeouts are enforced by the transcoder.
func (p *Pipeline) Encode(ctx context.Context, payload string) (a *artifacts.Artifact, err error) {
	start := time.Now()
	defer func() { recordOperation("encode", start, err) }()

	bits, err := stego.ToBits(payload)
	if err != nil {
		return nil, err
	}
	if err := carrier.ValidateVideo(len(bits), p.carrier); err != nil {
		return nil, err
	}

	release, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	run := context.WithoutCancel(ctx)

	var info *transcoder.VideoInfo
	err = p.stage("probe", func() error {
		var probeErr error
		info, probeErr = p.probe(run, p.carrier.Path)
		return probeErr
	})
	if err != nil {
		return nil, err
	}
	if info.Width != p.carrier.Width || info.Height != p.carrier.Height {
		log.Warn("Carrier %s is %dx%d, configured as %dx%d; using probed size",
			p.carrier.Path, info.Width, info.Height, p.carrier.Width, p.carrier.Height)
		actual := carrier.Video{Path: p.carrier.Path, Width: info.Width, Height: info.Height}
		if err := carrier.ValidateVideo(len(bits), actual); err != nil {
			return nil, err
		}
	}

	ws, err := newWorkspace(p.tempDir)
	if err != nil {
		return nil, err
	}
	defer p.cleanup(ws)

	audio := ""
	if info.HasAudio {
		audio = ws.audioPath()
		err = p.stage("demux_audio", func() error {
			return p.tc.ExtractAudio(run, p.carrier.Path, audio)
		})
		if err != nil {
			return nil, err
		}
	} else {
		log.Info("Carrier %s has no audio stream; output will be video only", p.carrier.Path)
	}

	err = p.stage("demux_frames", func() error {
		if err := p.tc.ExtractFrames(run, p.carrier.Path, ws.framePattern(), info.FrameRate); err != nil {
			return err
		}
		n, err := ws.frameCount()
		if err != nil {
			return fmt.Errorf("%w: %w", transcoder.ErrFrameExtractionFailed, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: no frames written", transcoder.ErrFrameExtractionFailed)
		}
		log.Debug("Extracted %d frames at %s fps", n, info.FrameRate)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.stage("embed", func() error {
		return media.EmbedFile(ws.firstFrame(), bits)
	})
	if err != nil {
		return nil, err
	}

	a = p.store.Reserve(".mkv")
	err = p.stage("remux", func() error {
		return p.tc.Remux(run, transcoder.RemuxJob{
			FramePattern: ws.framePattern(),
			FrameRate:    info.FrameRate,
			AudioPath:    audio,
			Output:       a.Path,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.PayloadBits.WithLabelValues("video").Observe(float64(len(bits)))
	log.Info("Encoded %d bits into %s -> %s in %v", len(bits), p.carrier.Path, a.Name, time.Since(start))
	return a, nil
}

// Decode reads the payload from the first frame of the video at path.
func (p *Pipeline) Decode(ctx context.Context, path string) (res media.Result, err error) {
	start := time.Now()
	defer func() { recordOperation("decode", start, err) }()

	release, err := p.acquire(ctx)
	if err != nil {
		return media.Result{}, err
	}
	defer release()

	run := context.WithoutCancel(ctx)
	frame := filepath.Join(p.tempDir, decodeFramePrefix+uuid.New().String()+".png")
	defer func() {
		if rmErr := os.Remove(frame); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			metrics.WorkspaceCleanupFailures.Inc()
			log.Error("failed to remove decode frame %s: %v", frame, rmErr)
		}
	}()

	err = p.stage("extract_frame", func() error {
		return p.tc.ExtractFrame(run, path, frame)
	})
	if err != nil {
		return media.Result{}, err
	}

	err = p.stage("decode", func() error {
		var decErr error
		res, decErr = media.DecodeImage(frame)
		return decErr
	})
	return res, err
}

// probe coalesces concurrent probes of the same file.
func (p *Pipeline) probe(ctx context.Context, path string) (*transcoder.VideoInfo, error) {
	v, err, shared := p.probes.Do(path, func() (interface{}, error) {
		return p.tc.Probe(ctx, path)
	})
	if shared {
		metrics.VideoProbeCoalesced.Inc()
	}
	if err != nil {
		return nil, err
	}
	info := *v.(*transcoder.VideoInfo)
	return &info, nil
}

func (p *Pipeline) acquire(ctx context.Context) (func(), error) {
	metrics.VideoRunsWaiting.Inc()
	defer metrics.VideoRunsWaiting.Dec()

	if p.memory != nil {
		if err := p.memory.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for memory: %w", err)
		}
	}
	release, err := p.limiter.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("waiting for video worker: %w", err)
	}
	metrics.VideoRunsInProgress.Inc()
	return func() {
		metrics.VideoRunsInProgress.Dec()
		release()
	}, nil
}

func (p *Pipeline) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.VideoStageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.VideoStageFailures.WithLabelValues(name).Inc()
		log.Error("Stage %s failed after %v: %v", name, time.Since(start), err)
		return err
	}
	log.Debug("Stage %s done in %v", name, time.Since(start))
	return nil
}

// cleanup removes the workspace. Failures are logged only so they never
// replace the run's own error.
func (p *Pipeline) cleanup(ws *workspace) {
	start := time.Now()
	err := ws.remove()
	metrics.VideoStageDuration.WithLabelValues("cleanup").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.VideoStageFailures.WithLabelValues("cleanup").Inc()
		metrics.WorkspaceCleanupFailures.Inc()
		log.Error("failed to clean up workspace %s: %v", ws.dir, err)
	}
}

func recordOperation(op string, start time.Time, err error) {
	status := "success"
	switch {
	case err == nil:
	case errors.Is(err, media.ErrUnreadableImage):
		status = "error_unreadable"
	case errors.Is(err, stego.ErrCapacityExceeded):
		status = "error_capacity"
	default:
		status = "error"
	}
	metrics.StegoOperationsTotal.WithLabelValues(op, "video", status).Inc()
	metrics.StegoOperationDuration.WithLabelValues(op, "video").Observe(time.Since(start).Seconds())
}
