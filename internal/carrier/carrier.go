package carrier

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"stego-server/internal/stego"
)

// ErrNotFound is returned when no catalog image can hold the payload.
var ErrNotFound = errors.New("message too long for available images")

// Image is a still-image carrier in the catalog.
type Image struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Capacity returns the number of bits the image can hold.
func (i Image) Capacity() int {
	return stego.Capacity(i.Width, i.Height)
}

// Path returns the carrier file location inside dir.
func (i Image) Path(dir string) string {
	return filepath.Join(dir, i.Name)
}

// Video is the fixed video carrier. Only its first frame carries data.
type Video struct {
	Path   string `json:"-"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Capacity returns the number of bits the first frame can hold.
func (v Video) Capacity() int {
	return stego.Capacity(v.Width, v.Height)
}

// MaxChars returns the approximate character limit shown to users. The
// terminator overhead is deliberately left out of the estimate.
func (v Video) MaxChars() int {
	return v.Capacity() / 8
}

// TooLargeError reports a payload that does not fit the video carrier.
type TooLargeError struct {
	RequiredBits int
	CapacityBits int
	MaxChars     int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("message is too long: max for video is approx %d chars", e.MaxChars)
}

// Unwrap lets errors.Is match stego.ErrCapacityExceeded.
func (e *TooLargeError) Unwrap() error {
	return stego.ErrCapacityExceeded
}

// Catalog is an immutable, capacity-ordered list of still-image carriers.
// It is safe for concurrent use.
type Catalog struct {
	images []Image
}

// DefaultImages lists the standard carriers, 144p through 2160p.
var DefaultImages = []Image{
	{Name: "144p.png", Width: 256, Height: 144},
	{Name: "240p.png", Width: 426, Height: 240},
	{Name: "360p.png", Width: 640, Height: 360},
	{Name: "480p.png", Width: 854, Height: 480},
	{Name: "720p.png", Width: 1280, Height: 720},
	{Name: "1080p.png", Width: 1920, Height: 1080},
	{Name: "1440p.png", Width: 2560, Height: 1440},
	{Name: "2160p.png", Width: 3840, Height: 2160},
}

// NewCatalog builds a catalog from images, ordered by ascending capacity.
// Images of equal capacity keep their given order.
func NewCatalog(images ...Image) *Catalog {
	sorted := make([]Image, len(images))
	copy(sorted, images)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Capacity() < sorted[j].Capacity()
	})
	return &Catalog{images: sorted}
}

// DefaultCatalog returns the catalog of DefaultImages.
func DefaultCatalog() *Catalog {
	return NewCatalog(DefaultImages...)
}

// Images returns a copy of the catalog entries in ascending capacity order.
func (c *Catalog) Images() []Image {
	out := make([]Image, len(c.images))
	copy(out, c.images)
	return out
}

// Largest returns the highest-capacity entry.
func (c *Catalog) Largest() (Image, bool) {
	if len(c.images) == 0 {
		return Image{}, false
	}
	return c.images[len(c.images)-1], true
}

// SelectImage returns the smallest catalog image whose capacity is at least
// requiredBits.
func (c *Catalog) SelectImage(requiredBits int) (Image, error) {
	for _, img := range c.images {
		if img.Capacity() >= requiredBits {
			return img, nil
		}
	}
	return Image{}, fmt.Errorf("%w: need %d bits", ErrNotFound, requiredBits)
}

// ValidateVideo checks that requiredBits fit the first frame of v.
func ValidateVideo(requiredBits int, v Video) error {
	if requiredBits <= v.Capacity() {
		return nil
	}
	return &TooLargeError{
		RequiredBits: requiredBits,
		CapacityBits: v.Capacity(),
		MaxChars:     v.MaxChars(),
	}
}
