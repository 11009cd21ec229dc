package metrics

// Stage labels used by the video pipeline.
var VideoStages = []string{"probe", "demux_audio", "demux_frames", "embed", "remux", "extract_frame", "decode", "cleanup"}

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, op := range []string{"encode", "decode"} {
		for _, c := range []string{"image", "video"} {
			StegoOperationDuration.WithLabelValues(op, c)
			for _, status := range []string{"success", "error", "error_capacity", "error_unreadable"} {
				StegoOperationsTotal.WithLabelValues(op, c, status)
			}
		}
	}

	for _, stage := range VideoStages {
		VideoStageDuration.WithLabelValues(stage)
		VideoStageFailures.WithLabelValues(stage)
	}

	for _, tool := range []string{"ffprobe", "ffmpeg"} {
		TranscoderJobsTotal.WithLabelValues(tool, "success")
		TranscoderJobsTotal.WithLabelValues(tool, "error")
	}

	for _, status := range []string{"success", "error", "unavailable"} {
		TranscriptionsTotal.WithLabelValues(status)
	}

	for _, kind := range []string{"image", "video"} {
		ArtifactsTotal.WithLabelValues(kind)
		PayloadBits.WithLabelValues(kind)
	}

	for _, file := range []string{"main", "wal", "shm"} {
		DBSizeBytes.WithLabelValues(file)
	}

	for _, op := range []string{"initialize_schema", "create_user", "validate_credentials",
		"create_session", "validate_session", "delete_session", "clean_sessions",
		"update_password", "list_users", "record_artifact", "list_artifacts", "count_artifacts", "stats"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, op := range []string{"stat", "open"} {
		for _, volume := range []string{"carriers", "results", "temp"} {
			FilesystemRetryDuration.WithLabelValues(op, volume)
			FilesystemStaleErrors.WithLabelValues(op, volume)
		}
	}

	for _, typ := range []string{"signin", "signup", "session"} {
		AuthAttemptsTotal.WithLabelValues(typ, "success")
		AuthAttemptsTotal.WithLabelValues(typ, "failure")
	}
}
