package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stego_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stego_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 180, 600},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stego_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	HTTPUploadBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stego_http_upload_bytes",
			Help:    "Size of multipart uploads accepted by endpoint",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		},
		[]string{"endpoint"},
	)
)

// Steganography metrics
var (
	StegoOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stego_operations_total",
			Help: "Total number of encode/decode operations by carrier kind and outcome",
		},
		[]string{"operation", "carrier", "status"},
	)

	StegoOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stego_operation_duration_seconds",
			Help:    "Encode/decode duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 5, 30, 120, 600},
		},
		[]string{"operation", "carrier"},
	)

	PayloadBits = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stego_payload_bits",
			Help:    "Size of embedded bit streams including the terminator",
			Buckets: prometheus.ExponentialBuckets(64, 4, 10),
		},
		[]string{"carrier"},
	)

	CarrierSelectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stego_carrier_selections_total",
			Help: "Number of times each still image carrier was selected",
		},
		[]string{"carrier"},
	)
)

// Video pipeline metrics
var (
	VideoStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stego_video_stage_duration_seconds",
			Help:    "Duration of each video pipeline stage in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"stage"},
	)

	VideoStageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stego_video_stage_failures_total",
			Help: "Number of video pipeline stage failures",
		},
		[]string{"stage"},
	)

	VideoRunsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stego_video_runs_in_progress",
			Help: "Number of video encode/decode runs currently holding a worker slot",
		},
	)

	VideoRunsWaiting = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stego_video_runs_waiting",
			Help: "Number of video runs waiting for a worker slot",
		},
	)

	VideoProbeCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stego_video_probe_coalesced_total",
			Help: "Number of probes served by an in-flight probe of the same carrier",
		},
	)

	WorkspaceCleanupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stego_workspace_cleanup_failures_total",
			Help: "Number of run workspaces or decode frames that could not be removed",
		},
	)

	WorkspaceSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stego_workspace_swept_total",
			Help: "Number of abandoned workspaces removed by the stale sweep",
		},
	)
)

// Transcoder metrics
var (
	TranscoderJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stego_transcoder_jobs_total",
			Help: "Total number of ffmpeg/ffprobe invocations",
		},
		[]string{"tool", "status"},
	)

	TranscoderJobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stego_transcoder_jobs_in_progress",
			Help: "Number of ffmpeg/ffprobe processes currently running",
		},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stego_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stego_memory_paused",
			Help: "1 while new video runs are held back by memory pressure",
		},
	)

	MemoryWaitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stego_memory_waits_total",
			Help: "Number of video runs that waited for memory pressure to clear",
		},
	)
)

// Transcription metrics
var (
	TranscriptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stego_transcriptions_total",
			Help: "Total number of speech to text requests",
		},
		[]string{"status"},
	)

	TranscriptionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stego_transcription_duration_seconds",
			Help:    "Speech to text round trip duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stego_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stego_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stego_db_size_bytes",
			Help: "Size of SQLite database files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)
)

// Authentication metrics
var (
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stego_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"type", "status"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stego_active_sessions",
			Help: "Number of active user sessions",
		},
	)

	UsersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stego_users_total",
			Help: "Number of registered users",
		},
	)
)

// Filesystem metrics
var (
	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stego_filesystem_stale_errors_total",
			Help: "NFS stale file handle errors by operation and volume",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stego_filesystem_retry_attempts_total",
			Help: "Filesystem operation retries by operation and volume",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stego_filesystem_retry_success_total",
			Help: "Filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stego_filesystem_retry_failures_total",
			Help: "Filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stego_filesystem_operation_duration_seconds",
			Help:    "Duration of retried filesystem operations including backoff",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)

// Artifact metrics
var (
	ArtifactsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stego_artifacts_total",
			Help: "Number of encoded artifacts in the results registry",
		},
		[]string{"kind"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stego_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
