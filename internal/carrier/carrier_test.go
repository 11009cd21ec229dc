package carrier

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"stego-server/internal/stego"
)

func TestDefaultCatalogOrder(t *testing.T) {
	images := DefaultCatalog().Images()
	if len(images) != 8 {
		t.Fatalf("expected 8 images, got %d", len(images))
	}
	for i := 1; i < len(images); i++ {
		if images[i-1].Capacity() > images[i].Capacity() {
			t.Errorf("catalog not ascending at %d: %s > %s", i, images[i-1].Name, images[i].Name)
		}
	}
	if images[0].Name != "144p.png" {
		t.Errorf("expected 144p.png first, got %s", images[0].Name)
	}
}

func TestNewCatalogSorts(t *testing.T) {
	c := NewCatalog(
		Image{Name: "big", Width: 100, Height: 100},
		Image{Name: "small", Width: 10, Height: 10},
		Image{Name: "small-too", Width: 10, Height: 10},
	)
	images := c.Images()
	if images[0].Name != "small" || images[1].Name != "small-too" || images[2].Name != "big" {
		t.Errorf("unexpected order: %+v", images)
	}
}

func TestSelectImage(t *testing.T) {
	c := DefaultCatalog()
	largest, _ := c.Largest()

	tests := []struct {
		name     string
		bits     int
		expected string
		wantErr  bool
	}{
		{"hi selects smallest", stego.RequiredBits(2), "144p.png", false},
		{"Exactly 144p capacity", 256 * 144 * 3, "144p.png", false},
		{"One bit beyond 144p", 256*144*3 + 1, "240p.png", false},
		{"Exactly largest capacity", largest.Capacity(), "2160p.png", false},
		{"One bit beyond largest", largest.Capacity() + 1, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := c.SelectImage(tt.bits)
			if tt.wantErr {
				if !errors.Is(err, ErrNotFound) {
					t.Fatalf("expected ErrNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SelectImage failed: %v", err)
			}
			if img.Name != tt.expected {
				t.Errorf("SelectImage(%d) = %s, want %s", tt.bits, img.Name, tt.expected)
			}
		})
	}
}

func TestSelectImageEmptyCatalog(t *testing.T) {
	if _, err := NewCatalog().SelectImage(1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, ok := NewCatalog().Largest(); ok {
		t.Error("expected Largest to report false for empty catalog")
	}
}

func TestValidateVideo(t *testing.T) {
	v := Video{Width: 1280, Height: 720}

	if err := ValidateVideo(v.Capacity(), v); err != nil {
		t.Errorf("exact capacity should pass: %v", err)
	}

	err := ValidateVideo(v.Capacity()+1, v)
	var tooLarge *TooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected TooLargeError, got %v", err)
	}
	if tooLarge.MaxChars != 1280*720*3/8 {
		t.Errorf("MaxChars = %d, want %d", tooLarge.MaxChars, 1280*720*3/8)
	}
	if !errors.Is(err, stego.ErrCapacityExceeded) {
		t.Error("TooLargeError should match ErrCapacityExceeded")
	}
}

func TestEnsureWritesMissingCarriers(t *testing.T) {
	dir := t.TempDir()
	c := NewCatalog(
		Image{Name: "a.png", Width: 8, Height: 6},
		Image{Name: "b.png", Width: 16, Height: 9},
	)

	// Pre-existing carriers are left alone.
	if err := os.WriteFile(filepath.Join(dir, "b.png"), []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := c.Ensure(dir)
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 carrier written, got %d", n)
	}

	img, err := imaging.Open(filepath.Join(dir, "a.png"))
	if err != nil {
		t.Fatalf("generated carrier unreadable: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 6 {
		t.Errorf("unexpected size %v", img.Bounds())
	}

	data, _ := os.ReadFile(filepath.Join(dir, "b.png"))
	if string(data) != "keep" {
		t.Error("existing carrier was overwritten")
	}

	n, err = c.Ensure(dir)
	if err != nil || n != 0 {
		t.Errorf("second Ensure = (%d, %v), want (0, nil)", n, err)
	}
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	c := NewCatalog(
		Image{Name: "a.png", Width: 8, Height: 6},
		Image{Name: "b.png", Width: 16, Height: 9},
		Image{Name: "c.png", Width: 4, Height: 4},
	)

	if err := c.Verify(dir); err != nil {
		t.Errorf("Verify on empty dir = %v, want nil", err)
	}
	if _, err := c.Ensure(dir); err != nil {
		t.Fatal(err)
	}
	if err := c.Verify(dir); err != nil {
		t.Errorf("Verify after Ensure = %v, want nil", err)
	}

	if err := imaging.Save(Generate(10, 10, 1), filepath.Join(dir, "b.png")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "c.png"), []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := c.Verify(dir)
	if err == nil {
		t.Fatal("Verify should report mismatched and unreadable carriers")
	}
	for _, want := range []string{"b.png is 10x10", "c.png"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Verify error %q missing %q", err, want)
		}
	}
	if strings.Contains(err.Error(), "a.png") {
		t.Errorf("Verify error %q should not mention a.png", err)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	a := Generate(20, 10, 7)
	b := Generate(20, 10, 7)
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("pixel byte %d differs", i)
		}
	}
	for i := 3; i < len(a.Pix); i += 4 {
		if a.Pix[i] != 255 {
			t.Fatalf("alpha at %d = %d, want 255", i, a.Pix[i])
		}
	}
}
