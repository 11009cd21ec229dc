package transcoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"stego-server/internal/logging"
	"stego-server/internal/metrics"
)

// Stage failures. Each wraps the underlying exit error and the tail of the
// tool's stderr.
var (
	ErrProbeFailed           = errors.New("video probe failed")
	ErrAudioExtractionFailed = errors.New("audio extraction failed")
	ErrFrameExtractionFailed = errors.New("frame extraction failed")
	ErrRemuxFailed           = errors.New("video remux failed")
)

// stderrLimit bounds how much tool output is kept for error messages.
const stderrLimit = 2048

var log = logging.For("transcoder")

// Transcoder runs ffprobe/ffmpeg for the video pipeline.
type Transcoder struct {
	ffmpeg       string
	ffprobe      string
	stageTimeout time.Duration

	processes map[*exec.Cmd]string
	processMu sync.Mutex
}

// Options configures a Transcoder. Zero values select "ffmpeg", "ffprobe"
// from PATH and no per-stage timeout.
type Options struct {
	FFmpegPath   string
	FFprobePath  string
	StageTimeout time.Duration
}

// New creates a new Transcoder instance.
func New(opts Options) *Transcoder {
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}
	if opts.FFprobePath == "" {
		opts.FFprobePath = "ffprobe"
	}
	return &Transcoder{
		ffmpeg:       opts.FFmpegPath,
		ffprobe:      opts.FFprobePath,
		stageTimeout: opts.StageTimeout,
		processes:    make(map[*exec.Cmd]string),
	}
}

// Probe reads dimensions, frame rate and audio presence of the video at path.
func (t *Transcoder) Probe(ctx context.Context, path string) (*VideoInfo, error) {
	stdout, err := t.run(ctx, t.ffprobe, "probe "+path, probeArgs(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProbeFailed, err)
	}

	info, err := parseProbeOutput(stdout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProbeFailed, err)
	}

	log.Debug("Probed %s: %dx%d @ %s fps, codec=%s, audio=%v",
		path, info.Width, info.Height, info.FrameRate, info.Codec, info.HasAudio)
	return info, nil
}

// ExtractAudio copies the first audio stream of input into output without
// re-encoding.
func (t *Transcoder) ExtractAudio(ctx context.Context, input, output string) error {
	if _, err := t.run(ctx, t.ffmpeg, "demux audio "+input, audioArgs(input, output)); err != nil {
		return fmt.Errorf("%w: %w", ErrAudioExtractionFailed, err)
	}
	return nil
}

// ExtractFrames writes every frame of input at rate to pattern, a printf
// style path such as "frame-%05d.png".
func (t *Transcoder) ExtractFrames(ctx context.Context, input, pattern string, rate FrameRate) error {
	if !rate.Valid() {
		return fmt.Errorf("%w: invalid frame rate %s", ErrFrameExtractionFailed, rate)
	}
	if _, err := t.run(ctx, t.ffmpeg, "demux frames "+input, framesArgs(input, pattern, rate)); err != nil {
		return fmt.Errorf("%w: %w", ErrFrameExtractionFailed, err)
	}
	return nil
}

// ExtractFrame writes only the first frame of input to output.
func (t *Transcoder) ExtractFrame(ctx context.Context, input, output string) error {
	if _, err := t.run(ctx, t.ffmpeg, "extract frame "+input, frameArgs(input, output)); err != nil {
		return fmt.Errorf("%w: %w", ErrFrameExtractionFailed, err)
	}
	return nil
}

// RemuxJob describes a lossless reassembly of PNG frames and optional audio.
type RemuxJob struct {
	FramePattern string
	FrameRate    FrameRate
	// AudioPath is empty when the carrier had no audio stream.
	AudioPath string
	Output    string
}

// Remux encodes the frames as FFV1 and muxes them with the audio into
// job.Output. An existing output is never overwritten and a partial output
// is removed on failure.
func (t *Transcoder) Remux(ctx context.Context, job RemuxJob) error {
	if !job.FrameRate.Valid() {
		return fmt.Errorf("%w: invalid frame rate %s", ErrRemuxFailed, job.FrameRate)
	}
	if _, err := os.Stat(job.Output); err == nil {
		return fmt.Errorf("%w: output %s already exists", ErrRemuxFailed, job.Output)
	}

	if _, err := t.run(ctx, t.ffmpeg, "remux "+job.Output, remuxArgs(job)); err != nil {
		if rmErr := os.Remove(job.Output); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			log.Warn("failed to remove partial output %s: %v", job.Output, rmErr)
		}
		return fmt.Errorf("%w: %w", ErrRemuxFailed, err)
	}
	return nil
}

// Cleanup stops all running ffmpeg/ffprobe processes.
func (t *Transcoder) Cleanup() {
	t.processMu.Lock()
	defer t.processMu.Unlock()

	for cmd, desc := range t.processes {
		if cmd.Process != nil {
			log.Info("Killing process: %s", desc)
			if err := cmd.Process.Kill(); err != nil {
				log.Warn("failed to kill process %s: %v", desc, err)
			}
		}
	}
}

// run executes one tool invocation under the stage timeout and returns its
// stdout. The stderr tail is folded into the error.
func (t *Transcoder) run(ctx context.Context, tool, desc string, args []string) ([]byte, error) {
	if t.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.stageTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, tool, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug("exec %s %s", tool, strings.Join(args, " "))

	label := toolLabel(tool)
	metrics.TranscoderJobsInProgress.Inc()
	defer metrics.TranscoderJobsInProgress.Dec()

	if err := cmd.Start(); err != nil {
		metrics.TranscoderJobsTotal.WithLabelValues(label, "error").Inc()
		return nil, fmt.Errorf("failed to start %s: %w", tool, err)
	}

	t.processMu.Lock()
	t.processes[cmd] = desc
	t.processMu.Unlock()

	err := cmd.Wait()

	t.processMu.Lock()
	delete(t.processes, cmd)
	t.processMu.Unlock()

	if err != nil {
		metrics.TranscoderJobsTotal.WithLabelValues(label, "error").Inc()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", desc, ctxErr)
		}
		return nil, fmt.Errorf("%s error: %w - %s", label, err, tail(stderr.Bytes(), stderrLimit))
	}

	metrics.TranscoderJobsTotal.WithLabelValues(label, "success").Inc()
	return stdout.Bytes(), nil
}

func toolLabel(tool string) string {
	if strings.Contains(tool, "ffprobe") {
		return "ffprobe"
	}
	return "ffmpeg"
}

func tail(b []byte, n int) string {
	b = bytes.TrimSpace(b)
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(b)
}

func baseArgs() []string {
	return []string{"-hide_banner", "-loglevel", "error", "-nostdin"}
}

func audioArgs(input, output string) []string {
	return append(baseArgs(),
		"-i", input,
		"-vn",
		"-map", "0:a:0",
		"-c:a", "copy",
		"-n", output,
	)
}

func framesArgs(input, pattern string, rate FrameRate) []string {
	return append(baseArgs(),
		"-i", input,
		"-an",
		"-r", rate.String(),
		"-n", pattern,
	)
}

func frameArgs(input, output string) []string {
	return append(baseArgs(),
		"-i", input,
		"-frames:v", "1",
		"-n", output,
	)
}

func remuxArgs(job RemuxJob) []string {
	args := append(baseArgs(),
		"-framerate", job.FrameRate.String(),
		"-i", job.FramePattern,
	)
	if job.AudioPath != "" {
		args = append(args, "-i", job.AudioPath)
	}
	args = append(args, "-map", "0:v:0")
	if job.AudioPath != "" {
		args = append(args, "-map", "1:a:0?", "-c:a", "copy")
	}
	return append(args,
		"-c:v", "ffv1",
		"-pix_fmt", "bgr0",
		"-n", job.Output,
	)
}
