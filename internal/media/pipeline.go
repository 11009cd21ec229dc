package media

import (
	"errors"
	"fmt"
	"time"

	"stego-server/internal/artifacts"
	"stego-server/internal/logging"
	"stego-server/internal/metrics"
	"stego-server/internal/stego"
)

var log = logging.For("image")

// Result is a recovered payload.
type Result struct {
	Text string `json:"text"`
	// Terminated is false when the carrier ran out before the terminator was
	// found; Text then holds a best-effort read and is likely garbage.
	Terminated bool `json:"terminated"`
}

// EncodeImage hides payload in the carrier at carrierPath and publishes the
// result as a new PNG artifact in store.
func EncodeImage(store *artifacts.Store, carrierPath, payload string) (a *artifacts.Artifact, err error) {
	start := time.Now()
	defer func() { recordOperation("encode", start, err) }()

	bits, err := stego.ToBits(payload)
	if err != nil {
		return nil, err
	}

	img, err := LoadPixels(carrierPath)
	if err != nil {
		return nil, err
	}
	if err = stego.Embed(img.Pix, bits); err != nil {
		return nil, err
	}

	f, a, err := store.Create(".png")
	if err != nil {
		return nil, err
	}
	if err = EncodePNG(f, img); err != nil {
		_ = f.Close()
		if rmErr := store.Discard(a); rmErr != nil {
			log.Warn("failed to discard partial artifact %s: %v", a.Name, rmErr)
		}
		return nil, fmt.Errorf("failed to write encoded image: %w", err)
	}
	if err = f.Close(); err != nil {
		if rmErr := store.Discard(a); rmErr != nil {
			log.Warn("failed to discard partial artifact %s: %v", a.Name, rmErr)
		}
		return nil, fmt.Errorf("failed to flush encoded image: %w", err)
	}

	metrics.PayloadBits.WithLabelValues("image").Observe(float64(len(bits)))
	log.Info("Encoded %d bits into %s -> %s in %v", len(bits), carrierPath, a.Name, time.Since(start))
	return a, nil
}

// EmbedFile hides bits in the image at path, replacing the file in place.
func EmbedFile(path string, bits stego.BitStream) error {
	img, err := LoadPixels(path)
	if err != nil {
		return err
	}
	if err := stego.Embed(img.Pix, bits); err != nil {
		return err
	}
	return writePNGReplace(path, img)
}

// DecodeImage recovers the payload hidden in the image at path. A missing
// terminator is logged but not treated as an error.
func DecodeImage(path string) (res Result, err error) {
	start := time.Now()
	defer func() { recordOperation("decode", start, err) }()

	img, err := LoadPixels(path)
	if err != nil {
		return Result{}, err
	}

	bits, terminated := stego.Extract(img.Pix)
	if !terminated {
		log.Warn("No terminator found in %s after %d bits; returning best-effort text", path, len(bits))
	}

	return Result{Text: stego.ToText(bits), Terminated: terminated}, nil
}

func recordOperation(op string, start time.Time, err error) {
	status := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrUnreadableImage):
		status = "error_unreadable"
	case errors.Is(err, stego.ErrCapacityExceeded):
		status = "error_capacity"
	default:
		status = "error"
	}
	metrics.StegoOperationsTotal.WithLabelValues(op, "image", status).Inc()
	metrics.StegoOperationDuration.WithLabelValues(op, "image").Observe(time.Since(start).Seconds())
}
