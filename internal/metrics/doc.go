// Package metrics provides Prometheus instrumentation for the stego server.
//
// All metrics are prefixed with "stego_" and registered on the default
// registry through promauto, so importing the package is enough to export
// them. They are grouped as:
//
//   - HTTP: request counts, latency, in-flight requests and upload sizes,
//     recorded by middleware.Metrics.
//   - Steganography: encode/decode outcomes per carrier kind, payload sizes
//     and still image carrier selections.
//   - Video pipeline: per-stage duration and failures, worker slot usage,
//     coalesced probes, workspace cleanup failures and stale sweeps.
//   - Transcoder: ffmpeg/ffprobe invocation counts.
//   - Memory: heap usage ratio and how often video runs were held.
//   - Filesystem: NFS stale handle errors and retries per volume.
//   - Transcription: speech to text outcomes and latency.
//   - Database and auth: query timings, file sizes, sign-in attempts,
//     registered users and active sessions.
//
// InitializeMetrics pre-creates the expected label combinations so dashboards
// see zero values instead of gaps. Collector periodically refreshes the
// gauges that are derived from the database.
//
// # Labels
//
// Status labels use "success" or an "error" prefix ("error_capacity",
// "error_unreadable"). Path labels on HTTP metrics are route templates, not
// raw URLs, to keep cardinality bounded.
package metrics
