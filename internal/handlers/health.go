package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"stego-server/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
	statusNotReady = "not_ready"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	Database      bool   `json:"database"`
	DatabaseError string `json:"databaseError,omitempty"`
	ImageCarriers int    `json:"imageCarriers"`
	TotalCarriers int    `json:"totalCarriers"`
	VideoCarrier  bool   `json:"videoCarrier"`
	SpeechToText  bool   `json:"speechToText"`
	AuthRequired  bool   `json:"authRequired"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// readiness reports whether the database answers and at least one image
// carrier is on disk.
func (h *Handlers) readiness(ctx context.Context) (carriers int, dbErr error) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		dbErr = h.db.Ping(ctx)
	}
	for _, img := range h.catalog.Images() {
		if fileExists(img.Path(h.carrierDir)) {
			carriers++
		}
	}
	return carriers, dbErr
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	carriers, dbErr := h.readiness(r.Context())

	response := HealthResponse{
		Version:       startup.Version,
		Uptime:        time.Since(h.startTime).Round(time.Second).String(),
		Database:      dbErr == nil,
		ImageCarriers: carriers,
		TotalCarriers: len(h.catalog.Images()),
		VideoCarrier:  h.video != nil && fileExists(h.video.Carrier().Path),
		SpeechToText:  h.transcriber != nil,
		AuthRequired:  h.authRequired,
		GoVersion:     runtime.Version(),
		NumCPU:        runtime.NumCPU(),
		NumGoroutine:  runtime.NumGoroutine(),
	}
	if dbErr != nil {
		response.DatabaseError = "database unavailable"
		log.Warn("Health check: database ping failed: %v", dbErr)
	}

	response.Ready = dbErr == nil && carriers > 0
	switch {
	case !response.Ready:
		response.Status = statusNotReady
	case carriers < response.TotalCarriers || !response.VideoCarrier:
		response.Status = statusDegraded
	default:
		response.Status = statusHealthy
	}

	// Return 503 only if not ready at all
	code := http.StatusOK
	if !response.Ready {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	// For HEAD requests, only send headers (no body)
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSONStatus(w, http.StatusOK, "alive")
}

// ReadinessCheck returns 200 only when the service is ready to accept traffic
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	carriers, dbErr := h.readiness(r.Context())
	if dbErr != nil || carriers == 0 {
		writeJSONStatus(w, http.StatusServiceUnavailable, statusNotReady)
		return
	}
	writeJSONStatus(w, http.StatusOK, "ready")
}
