package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"stego-server/internal/carrier"
	"stego-server/internal/media"
	"stego-server/internal/stego"
	"stego-server/internal/transcoder"
	"stego-server/internal/transcribe"
)

var (
	// ErrInputMissing is returned when encode has neither text nor audio, or
	// decode has no file.
	ErrInputMissing = errors.New("input missing")
	// ErrNotMultipart is returned when the request body is not a readable
	// multipart form.
	ErrNotMultipart = fmt.Errorf("%w: expected a multipart form", ErrInputMissing)
	// ErrUnsupportedMediaType is returned when a decode upload is neither an
	// image nor a video.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	// ErrInvalidCarrierType is returned for a carrierType other than image or video.
	ErrInvalidCarrierType = errors.New("invalid carrier type")
	// ErrVideoUnavailable is returned when no video carrier is configured.
	ErrVideoUnavailable = errors.New("video carrier not configured")
)

// failure maps a pipeline error to a status code and a message that is safe
// to return. Order matters: a TooLargeError also matches ErrCapacityExceeded.
func failure(err error) (int, string) {
	var tooLarge *carrier.TooLargeError
	var maxBytes *http.MaxBytesError

	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "Upload is too large."
	case errors.Is(err, ErrNotMultipart):
		return http.StatusBadRequest, "Expected a multipart form."
	case errors.Is(err, ErrInputMissing),
		errors.Is(err, ErrUnsupportedMediaType),
		errors.Is(err, ErrInvalidCarrierType):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &tooLarge):
		return http.StatusBadRequest, tooLarge.Error()
	case errors.Is(err, carrier.ErrNotFound):
		return http.StatusBadRequest, "Message too long for available images."
	case errors.Is(err, stego.ErrCapacityExceeded):
		return http.StatusBadRequest, "Message too long for the selected carrier."
	case errors.Is(err, stego.ErrUnsupportedCharacter):
		return http.StatusBadRequest, "Message contains characters outside the supported 8-bit range."
	case errors.Is(err, stego.ErrTerminatorInPayload):
		return http.StatusBadRequest, "Message contains a reserved byte sequence."
	case errors.Is(err, media.ErrUnreadableImage):
		return http.StatusUnprocessableEntity, "The uploaded file could not be read as a carrier."
	case errors.Is(err, transcribe.ErrNotConfigured):
		return http.StatusServiceUnavailable, "Speech to text is not configured."
	case errors.Is(err, transcribe.ErrTranscriptionFailed):
		return http.StatusBadGateway, "Failed to transcribe audio."
	case errors.Is(err, ErrVideoUnavailable):
		return http.StatusServiceUnavailable, "Video carrier is not available."
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "Request cancelled before processing started."
	case errors.Is(err, transcoder.ErrProbeFailed):
		return http.StatusInternalServerError, "Video processing failed while probing the carrier."
	case errors.Is(err, transcoder.ErrAudioExtractionFailed):
		return http.StatusInternalServerError, "Video processing failed while extracting audio."
	case errors.Is(err, transcoder.ErrFrameExtractionFailed):
		return http.StatusInternalServerError, "Video processing failed while extracting frames."
	case errors.Is(err, transcoder.ErrRemuxFailed):
		return http.StatusInternalServerError, "Video processing failed while assembling the output."
	default:
		return http.StatusInternalServerError, "Internal server error."
	}
}

// writeFailure logs err and writes the mapped JSON failure.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status, message := failure(err)
	if status >= http.StatusInternalServerError {
		log.Error("%s %s failed: %v", r.Method, r.URL.Path, err)
	} else {
		log.Warn("%s %s rejected (%d): %v", r.Method, r.URL.Path, status, err)
	}
	writeJSONError(w, message, status)
}
