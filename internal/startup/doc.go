// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig]:
//
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - DATA_DIR: Base directory for scratch, results and the database (default: /data)
//   - TEMP_DIR, RESULTS_DIR, DATABASE_DIR: Override the DATA_DIR subdirectories
//   - CARRIER_DIR: Still image carriers (default: /carriers)
//   - VIDEO_CARRIER: Video carrier file (default: CARRIER_DIR/carrier.mp4)
//   - VIDEO_WIDTH, VIDEO_HEIGHT: Declared video carrier dimensions (default: 1280x720)
//   - STAGE_TIMEOUT: Bound on each ffmpeg/ffprobe invocation (default: 10m)
//   - VIDEO_WORKERS: Concurrent video runs (default: one per CPU, at most 4)
//   - SWEEP_MAX_AGE: Age after which abandoned scratch files are removed (default: 2h)
//   - MAX_UPLOAD_MB: Request body limit for uploads (default: 512)
//   - GENERATE_CARRIERS: Generate missing image carriers at startup (default: true)
//   - FFMPEG_PATH, FFPROBE_PATH: Tool binaries (default: looked up in PATH)
//   - AUTH_REQUIRED: Reject unauthenticated API calls (default: true)
//   - SESSION_DURATION: Session lifetime (default: 168h)
//   - GEMINI_API_KEY, GEMINI_MODEL: Speech to text; audio payloads fail without a key
//   - STATIC_DIR: Frontend assets (default: ./static)
//   - LOG_LEVEL, LOG_STATIC_FILES, LOG_HEALTH_CHECKS: Logging controls
//   - MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT: See package memory
//
// The temp, results and database directories are created if missing and
// must be writable. The carrier directory only needs to be writable when
// GENERATE_CARRIERS is on.
//
// # Build Information
//
// Version, Commit and BuildTime are injected via ldflags and exposed via
// [GetBuildInfo].
package startup
