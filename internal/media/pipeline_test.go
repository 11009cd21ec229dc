package media

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"stego-server/internal/artifacts"
	"stego-server/internal/carrier"
	"stego-server/internal/stego"
)

func newTestStore(t *testing.T) *artifacts.Store {
	t.Helper()
	return artifacts.NewStore(t.TempDir(), "/public/results/")
}

func saveImage(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := EncodePNG(f, img); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
}

func TestEncodeDecodeImage(t *testing.T) {
	carrierDir := t.TempDir()
	store := newTestStore(t)

	bits, err := stego.ToBits("hi")
	if err != nil {
		t.Fatalf("ToBits() error = %v", err)
	}
	img, err := carrier.DefaultCatalog().SelectImage(len(bits))
	if err != nil {
		t.Fatalf("SelectImage() error = %v", err)
	}
	if img.Name != "144p.png" {
		t.Fatalf("SelectImage() = %s, want 144p.png", img.Name)
	}

	carrierPath := img.Path(carrierDir)
	saveImage(t, carrierPath, carrier.Generate(img.Width, img.Height, 1))

	a, err := EncodeImage(store, carrierPath, "hi")
	if err != nil {
		t.Fatalf("EncodeImage() error = %v", err)
	}
	if filepath.Ext(a.Name) != ".png" {
		t.Errorf("artifact name = %s, want .png extension", a.Name)
	}
	if a.URL != "/public/results/"+a.Name {
		t.Errorf("artifact URL = %s", a.URL)
	}

	res, err := DecodeImage(a.Path)
	if err != nil {
		t.Fatalf("DecodeImage() error = %v", err)
	}
	if !res.Terminated {
		t.Error("DecodeImage() Terminated = false, want true")
	}
	if res.Text != "hi" {
		t.Errorf("DecodeImage() Text = %q, want %q", res.Text, "hi")
	}

	original, err := LoadPixels(carrierPath)
	if err != nil {
		t.Fatalf("LoadPixels(carrier) error = %v", err)
	}
	encoded, err := LoadPixels(a.Path)
	if err != nil {
		t.Fatalf("LoadPixels(artifact) error = %v", err)
	}
	for i := range original.Pix {
		if i%4 == 3 && original.Pix[i] != encoded.Pix[i] {
			t.Fatalf("alpha changed at sample %d: %d -> %d", i, original.Pix[i], encoded.Pix[i])
		}
		if original.Pix[i]>>1 != encoded.Pix[i]>>1 {
			t.Fatalf("high bits changed at sample %d: %d -> %d", i, original.Pix[i], encoded.Pix[i])
		}
	}
}

func TestEncodeImageCapacityExceeded(t *testing.T) {
	tmpDir := t.TempDir()
	store := newTestStore(t)

	carrierPath := filepath.Join(tmpDir, "tiny.png")
	saveImage(t, carrierPath, carrier.Generate(2, 2, 1))

	// 2x2 carries 12 bits, less than a single character plus terminator.
	_, err := EncodeImage(store, carrierPath, "x")
	if !errors.Is(err, stego.ErrCapacityExceeded) {
		t.Fatalf("EncodeImage() error = %v, want ErrCapacityExceeded", err)
	}

	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("results directory has %d entries after failure, want 0", len(entries))
	}
}

func TestEncodeImageRejectsPayload(t *testing.T) {
	tmpDir := t.TempDir()
	carrierPath := filepath.Join(tmpDir, "carrier.png")
	saveImage(t, carrierPath, carrier.Generate(16, 16, 1))

	_, err := EncodeImage(newTestStore(t), carrierPath, "snow ☃")
	if !errors.Is(err, stego.ErrUnsupportedCharacter) {
		t.Errorf("EncodeImage() error = %v, want ErrUnsupportedCharacter", err)
	}
}

func TestEncodeImageMissingCarrier(t *testing.T) {
	_, err := EncodeImage(newTestStore(t), filepath.Join(t.TempDir(), "missing.png"), "hi")
	if !errors.Is(err, ErrUnreadableImage) {
		t.Errorf("EncodeImage() error = %v, want ErrUnreadableImage", err)
	}
}

func TestEmbedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame-00001.png")
	saveImage(t, path, carrier.Generate(32, 18, 7))

	bits, err := stego.ToBits("frame payload")
	if err != nil {
		t.Fatalf("ToBits() error = %v", err)
	}
	if err := EmbedFile(path, bits); err != nil {
		t.Fatalf("EmbedFile() error = %v", err)
	}

	res, err := DecodeImage(path)
	if err != nil {
		t.Fatalf("DecodeImage() error = %v", err)
	}
	if res.Text != "frame payload" || !res.Terminated {
		t.Errorf("DecodeImage() = %+v", res)
	}
}

func TestDecodeImageWithoutTerminator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.png")
	saveImage(t, path, image.NewNRGBA(image.Rect(0, 0, 4, 4)))

	res, err := DecodeImage(path)
	if err != nil {
		t.Fatalf("DecodeImage() error = %v", err)
	}
	if res.Terminated {
		t.Error("DecodeImage() Terminated = true on a zeroed image")
	}
	// 48 zero bits read as six NUL bytes.
	if res.Text != "\x00\x00\x00\x00\x00\x00" {
		t.Errorf("DecodeImage() Text = %q", res.Text)
	}
}

func TestDecodeImageUnreadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(path, []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeImage(path); !errors.Is(err, ErrUnreadableImage) {
		t.Errorf("DecodeImage() error = %v, want ErrUnreadableImage", err)
	}
}
