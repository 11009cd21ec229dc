package media

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"stego-server/internal/filesystem"
	"stego-server/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

// ErrUnreadableImage is returned when a file cannot be decoded as a pixel grid.
var ErrUnreadableImage = errors.New("unreadable image")

// LoadPixels decodes the image at path into an NRGBA buffer whose Pix slice
// is tightly packed (Stride == 4*width). EXIF orientation is ignored so the
// pixel order matches the stored file exactly. Carriers are assumed to be 8
// bits per channel; 16-bit inputs are reduced to 8 bits on load.
func LoadPixels(path string) (*image.NRGBA, error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	return DecodePixels(file)
}

// DecodePixels is LoadPixels for an already opened reader.
func DecodePixels(r io.Reader) (*image.NRGBA, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}

	nrgba := imaging.Clone(img)
	if nrgba.Bounds().Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", ErrUnreadableImage)
	}
	return nrgba, nil
}

// EncodePNG writes img losslessly.
func EncodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}

// writePNGReplace encodes img to a temporary file next to path and renames it
// into place, so a crash never leaves a truncated image behind.
func writePNGReplace(path string, img image.Image) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*.png")
	if err != nil {
		return fmt.Errorf("failed to create temp image: %w", err)
	}
	defer func() {
		if err != nil {
			if rmErr := os.Remove(tmp.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				logging.Warn("failed to remove temp image %s: %v", tmp.Name(), rmErr)
			}
		}
	}()

	if err = EncodePNG(tmp, img); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to encode image: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to flush image: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace image: %w", err)
	}
	return nil
}
