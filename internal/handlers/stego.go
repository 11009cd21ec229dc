package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stego-server/internal/artifacts"
	"stego-server/internal/database"
	"stego-server/internal/media"
	"stego-server/internal/metrics"
	"stego-server/internal/stego"
	"stego-server/internal/transcoder"
	"stego-server/internal/transcribe"
	"stego-server/internal/video"
)

// EncodeResponse is returned by a successful encode.
type EncodeResponse struct {
	Success      bool   `json:"success"`
	DownloadURL  string `json:"downloadUrl"`
	Carrier      string `json:"carrier"`
	RequiredBits int    `json:"requiredBits"`
}

// DecodeResponse is returned by a successful decode.
type DecodeResponse struct {
	Success    bool   `json:"success"`
	Text       string `json:"text"`
	Terminated bool   `json:"terminated"`
}

// TranscriptResponse is returned by speech to text.
type TranscriptResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
}

// parseMultipart bounds and parses a multipart body. The caller must defer
// cleanupMultipart.
func (h *Handlers) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return fmt.Errorf("%w: %w", ErrNotMultipart, err)
	}
	return nil
}

func cleanupMultipart(r *http.Request) {
	if r.MultipartForm == nil {
		return
	}
	if err := r.MultipartForm.RemoveAll(); err != nil {
		log.Warn("failed to remove multipart temp files: %v", err)
	}
}

// readAudio returns the named audio part. A missing part is ErrInputMissing.
func readAudio(r *http.Request, field, endpoint string) ([]byte, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, "", fmt.Errorf("%w: no audio file uploaded", ErrInputMissing)
		}
		return nil, "", fmt.Errorf("%w: %w", ErrNotMultipart, err)
	}
	defer closeUpload(file)

	audio, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read audio upload: %w", err)
	}
	if len(audio) == 0 {
		return nil, "", fmt.Errorf("%w: audio file is empty", ErrInputMissing)
	}
	metrics.HTTPUploadBytes.WithLabelValues(endpoint).Observe(float64(len(audio)))

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return audio, mimeType, nil
}

func closeUpload(f multipart.File) {
	if err := f.Close(); err != nil {
		log.Debug("failed to close upload: %v", err)
	}
}

func (h *Handlers) transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if h.transcriber == nil {
		return "", transcribe.ErrNotConfigured
	}
	return h.transcriber.Transcribe(ctx, audio, mimeType)
}

// Encode hides a payload in an image or video carrier.
// Form fields: secretMessage (text), audio (file, used when secretMessage
// is empty) and carrierType ("image" or "video").
func (h *Handlers) Encode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.parseMultipart(w, r); err != nil {
		writeFailure(w, r, err)
		return
	}
	defer cleanupMultipart(r)

	carrierType := strings.ToLower(strings.TrimSpace(r.FormValue("carrierType")))
	if carrierType != string(media.KindImage) && carrierType != string(media.KindVideo) {
		writeFailure(w, r, fmt.Errorf("%w: %q", ErrInvalidCarrierType, carrierType))
		return
	}

	payload := r.FormValue("secretMessage")
	if payload == "" {
		audio, mimeType, err := readAudio(r, "audio", "encode")
		if err != nil {
			if errors.Is(err, ErrInputMissing) {
				err = fmt.Errorf("%w: no secret message provided", ErrInputMissing)
			}
			writeFailure(w, r, err)
			return
		}
		log.Info("No text payload, transcribing %d bytes of %s", len(audio), mimeType)
		payload, err = h.transcribe(ctx, audio, mimeType)
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		if payload == "" {
			writeFailure(w, r, fmt.Errorf("%w: transcript is empty", transcribe.ErrTranscriptionFailed))
			return
		}
	}

	bits, err := stego.ToBits(payload)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	var (
		artifact    *artifacts.Artifact
		carrierName string
	)
	switch media.Kind(carrierType) {
	case media.KindImage:
		img, selErr := h.catalog.SelectImage(len(bits))
		if selErr != nil {
			writeFailure(w, r, selErr)
			return
		}
		carrierName = img.Name
		metrics.CarrierSelectionsTotal.WithLabelValues(img.Name).Inc()
		artifact, err = media.EncodeImage(h.store, img.Path(h.carrierDir), payload)
	case media.KindVideo:
		if h.video == nil {
			writeFailure(w, r, ErrVideoUnavailable)
			return
		}
		carrierName = filepath.Base(h.video.Carrier().Path)
		artifact, err = h.video.Encode(ctx, payload)
	}
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	h.recordArtifact(ctx, artifact, carrierType, carrierName, len(bits))

	writeJSON(w, http.StatusOK, EncodeResponse{
		Success:      true,
		DownloadURL:  artifact.URL,
		Carrier:      carrierName,
		RequiredBits: len(bits),
	})
}

// recordArtifact registers a result. Registry failures are logged only; the
// file is already published.
func (h *Handlers) recordArtifact(ctx context.Context, a *artifacts.Artifact, kind, carrierName string, bits int) {
	if h.db == nil {
		return
	}
	var userID int64
	if user := UserFromContext(ctx); user != nil {
		userID = user.ID
	}
	_, err := h.db.RecordArtifact(ctx, database.ArtifactRecord{
		Name:        a.Name,
		Kind:        kind,
		Carrier:     carrierName,
		PayloadBits: bits,
		UserID:      userID,
		CreatedAt:   a.CreatedAt,
	})
	if err != nil {
		log.Error("failed to record artifact %s: %v", a.Name, err)
	}
}

// Decode recovers a payload from an uploaded image or video (form field
// "file"). The staged upload is removed before the response is written.
func (h *Handlers) Decode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.parseMultipart(w, r); err != nil {
		writeFailure(w, r, err)
		return
	}
	defer cleanupMultipart(r)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeFailure(w, r, fmt.Errorf("%w: no file uploaded", ErrInputMissing))
		return
	}
	defer closeUpload(file)
	metrics.HTTPUploadBytes.WithLabelValues("decode").Observe(float64(header.Size))

	kind := media.ClassifyMIME(header.Header.Get("Content-Type"), header.Filename)
	if kind == media.KindUnknown {
		writeFailure(w, r, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, header.Header.Get("Content-Type")))
		return
	}
	if kind == media.KindVideo && h.video == nil {
		writeFailure(w, r, ErrVideoUnavailable)
		return
	}

	path, err := h.stageUpload(file, header.Filename)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	res, err := h.decodeStaged(ctx, kind, path)
	removeStaged(path)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, DecodeResponse{
		Success:    true,
		Text:       res.Text,
		Terminated: res.Terminated,
	})
}

func (h *Handlers) decodeStaged(ctx context.Context, kind media.Kind, path string) (media.Result, error) {
	if kind == media.KindImage {
		return media.DecodeImage(path)
	}
	res, err := h.video.Decode(ctx, path)
	// ffmpeg failing on an upload means the upload is not a readable video.
	if errors.Is(err, transcoder.ErrFrameExtractionFailed) {
		err = fmt.Errorf("%w: %w", media.ErrUnreadableImage, err)
	}
	return res, err
}

// stageUpload copies an upload into the temp directory under
// video.UploadPrefix, keeping a recognised extension.
func (h *Handlers) stageUpload(src io.Reader, filename string) (path string, err error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !media.ImageExtensions[ext] && !media.VideoExtensions[ext] {
		ext = ""
	}

	dst, err := os.CreateTemp(h.tempDir, video.UploadPrefix+"*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to stage upload: %w", err)
	}
	path = dst.Name()
	defer func() {
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to stage upload: %w", cerr)
		}
		if err != nil {
			removeStaged(path)
			path = ""
		}
	}()

	if _, err = io.Copy(dst, src); err != nil {
		return path, fmt.Errorf("failed to stage upload: %w", err)
	}
	return path, nil
}

func removeStaged(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		metrics.WorkspaceCleanupFailures.Inc()
		log.Error("failed to remove staged upload %s: %v", path, err)
	}
}

// SpeechToText transcribes an uploaded audio blob (form field "audio").
func (h *Handlers) SpeechToText(w http.ResponseWriter, r *http.Request) {
	if err := h.parseMultipart(w, r); err != nil {
		writeFailure(w, r, err)
		return
	}
	defer cleanupMultipart(r)

	audio, mimeType, err := readAudio(r, "audio", "speech_to_text")
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	start := time.Now()
	text, err := h.transcribe(r.Context(), audio, mimeType)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	log.Info("Transcribed %d bytes of %s in %v", len(audio), mimeType, time.Since(start))

	writeJSON(w, http.StatusOK, TranscriptResponse{Success: true, Text: text})
}
