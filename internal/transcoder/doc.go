// Package transcoder wraps the ffprobe and ffmpeg command line tools used by
// the video carrier pipeline.
//
// It supports:
//   - Probing a carrier for dimensions, frame rate and audio presence
//   - Demuxing the primary audio stream without re-encoding
//   - Demuxing every video frame to numbered PNG files
//   - Extracting only the first frame for decoding
//   - Remuxing PNG frames and audio into a lossless FFV1 Matroska file
//
// Every invocation runs under its own timeout and is tracked so Cleanup can
// kill live processes on shutdown. Tool stderr is attached to returned errors
// for logging; callers must not forward it to clients.
package transcoder
