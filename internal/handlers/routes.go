package handlers

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"
)

// ResultsPrefix is the URL prefix artifacts are downloaded from. It must
// match the prefix the artifacts.Store was built with.
const ResultsPrefix = "/public/results/"

// RegisterRoutes adds every endpoint to r. Static files are served from
// staticDir when it exists.
func (h *Handlers) RegisterRoutes(r *mux.Router, staticDir string) {
	// Health check and version routes (no auth required)
	r.HandleFunc("/health", h.HealthCheck).Methods("GET").Name("health")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET").Name("healthz")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD").Name("livez")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET").Name("readyz")
	r.HandleFunc("/version", h.GetVersion).Methods("GET").Name("version")

	// Auth routes
	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/signup", h.Signup).Methods("POST").Name("signup")
	auth.HandleFunc("/signin", h.Signin).Methods("POST").Name("signin")
	auth.HandleFunc("/signout", h.Signout).Methods("POST").Name("signout")
	auth.HandleFunc("/check", h.CheckAuth).Methods("GET").Name("auth-check")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/encode", h.Encode).Methods("POST").Name("encode")
	api.HandleFunc("/decode", h.Decode).Methods("POST").Name("decode")
	api.HandleFunc("/speech-to-text", h.SpeechToText).Methods("POST").Name("speech-to-text")
	api.HandleFunc("/carriers", h.GetCarriers).Methods("GET").Name("carriers")
	api.HandleFunc("/results", h.ListResults).Methods("GET").Name("results")

	// Result downloads
	r.HandleFunc(ResultsPrefix+"{name}", h.DownloadResult).Methods("GET", "HEAD").Name("download")

	// Static files
	if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir))).Name("static")
	} else if staticDir != "" {
		log.Warn("Static directory %s not found; UI will not be served", staticDir)
	}
}
