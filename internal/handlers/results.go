package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gorilla/mux"

	"stego-server/internal/artifacts"
	"stego-server/internal/database"
	"stego-server/internal/stego"
)

// CarrierInfo describes one carrier and whether its file is present.
type CarrierInfo struct {
	Name         string `json:"name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	CapacityBits int    `json:"capacityBits"`
	MaxChars     int    `json:"maxChars"`
	Available    bool   `json:"available"`
}

// CarriersResponse is returned by GetCarriers.
type CarriersResponse struct {
	Success bool          `json:"success"`
	Images  []CarrierInfo `json:"images"`
	Video   *CarrierInfo  `json:"video,omitempty"`
}

// ResultsResponse is returned by ListResults.
type ResultsResponse struct {
	Success bool                      `json:"success"`
	Results []database.ArtifactRecord `json:"results"`
}

const (
	defaultResultsLimit = 50
	maxResultsLimit     = 500
)

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// GetCarriers lists the image catalog and the video carrier with their
// capacities.
func (h *Handlers) GetCarriers(w http.ResponseWriter, _ *http.Request) {
	images := h.catalog.Images()
	resp := CarriersResponse{
		Success: true,
		Images:  make([]CarrierInfo, 0, len(images)),
	}
	for _, img := range images {
		resp.Images = append(resp.Images, CarrierInfo{
			Name:         img.Name,
			Width:        img.Width,
			Height:       img.Height,
			CapacityBits: img.Capacity(),
			MaxChars:     stego.MaxChars(img.Capacity()),
			Available:    fileExists(img.Path(h.carrierDir)),
		})
	}

	if h.video != nil {
		v := h.video.Carrier()
		resp.Video = &CarrierInfo{
			Name:         filepath.Base(v.Path),
			Width:        v.Width,
			Height:       v.Height,
			CapacityBits: v.Capacity(),
			MaxChars:     v.MaxChars(),
			Available:    fileExists(v.Path),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListResults returns the signed-in user's artifacts, newest first.
// The optional "limit" query parameter caps the count.
func (h *Handlers) ListResults(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeJSONError(w, "Sign in to see your results.", http.StatusUnauthorized)
		return
	}

	limit := defaultResultsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxResultsLimit)
	}

	records, err := h.db.ListArtifacts(r.Context(), user.ID, limit)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	// Records whose files were removed out of band are not offered.
	available := records[:0]
	for _, rec := range records {
		if _, err := h.store.Open(rec.Name); err == nil {
			available = append(available, rec)
		}
	}

	writeJSON(w, http.StatusOK, ResultsResponse{Success: true, Results: available})
}

// DownloadResult serves a published artifact by name.
func (h *Handlers) DownloadResult(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	path, err := h.store.Open(name)
	if err != nil {
		if !errors.Is(err, artifacts.ErrInvalidName) && !errors.Is(err, os.ErrNotExist) {
			log.Error("failed to open artifact %q: %v", name, err)
		}
		http.NotFound(w, r)
		return
	}

	switch filepath.Ext(name) {
	case ".png":
		w.Header().Set("Content-Type", "image/png")
	case ".mkv":
		w.Header().Set("Content-Type", "video/x-matroska")
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeFile(w, r, path)
}
