// Package logging provides the leveled logger used across the steganography
// server.
//
// Levels, lowest first:
//   - DEBUG: per-stage detail (ffmpeg arguments, bit counts)
//   - INFO: request and pipeline milestones
//   - WARN: recoverable problems (cleanup failures, unterminated payloads)
//   - ERROR: failed operations
//   - FATAL: startup errors that terminate the process
//
// The level comes from LOG_LEVEL, or DEBUG=true. Component loggers created
// with For prefix every line with the component name:
//
//	log := logging.For("video")
//	log.Info("run %s: extracted %d frames", runID, n)
package logging
