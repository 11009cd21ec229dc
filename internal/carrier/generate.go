package carrier

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"os"

	"github.com/disintegration/imaging"

	"stego-server/internal/filesystem"
	"stego-server/internal/logging"
)

// Ensure writes every catalog image missing from dir. Generated carriers are
// deterministic gradients with per-pixel noise, so LSB changes do not show up
// as visible banding. It returns the number of images written.
func (c *Catalog) Ensure(dir string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create carrier directory: %w", err)
	}

	written := 0
	for _, img := range c.images {
		path := img.Path(dir)
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return written, fmt.Errorf("failed to stat carrier %s: %w", img.Name, err)
		}

		logging.Info("Generating carrier %s (%dx%d)", img.Name, img.Width, img.Height)
		if err := imaging.Save(Generate(img.Width, img.Height, int64(img.Width)*31+int64(img.Height)), path); err != nil {
			return written, fmt.Errorf("failed to write carrier %s: %w", img.Name, err)
		}
		written++
	}
	return written, nil
}

// Verify checks that every carrier present in dir has the catalog
// dimensions. Capacity is computed from the catalog, so a mismatched file
// would let SelectImage choose a carrier that cannot hold the payload.
// Missing files are not reported.
func (c *Catalog) Verify(dir string) error {
	var errs []error
	for _, img := range c.images {
		path := img.Path(dir)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		cfg, err := decodeConfig(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("carrier %s: %w", img.Name, err))
			continue
		}
		if cfg.Width != img.Width || cfg.Height != img.Height {
			errs = append(errs, fmt.Errorf("carrier %s is %dx%d, catalog expects %dx%d",
				img.Name, cfg.Width, cfg.Height, img.Width, img.Height))
		}
	}
	return errors.Join(errs...)
}

// decodeConfig reads image dimensions without decoding pixels.
func decodeConfig(path string) (image.Config, error) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return image.Config{}, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close carrier %s: %v", path, err)
		}
	}()
	cfg, _, err := image.DecodeConfig(f)
	return cfg, err
}

// Generate renders an opaque width x height carrier from seed.
func Generate(width, height int, seed int64) *image.NRGBA {
	img := imaging.New(width, height, color.NRGBA{A: 255})
	r := rand.New(rand.NewSource(seed))

	for y := 0; y < height; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for x := 0; x < width; x++ {
			noise := r.Intn(24)
			row[x*4+0] = uint8((x*200)/max(width, 1) + noise)
			row[x*4+1] = uint8((y*200)/max(height, 1) + noise)
			row[x*4+2] = uint8(((x+y)*100)/max(width+height, 1) + 64 + noise)
		}
	}
	return img
}
