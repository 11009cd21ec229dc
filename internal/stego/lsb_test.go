package stego

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
)

// newBuffer returns a pseudo-random RGBA buffer for a width x height image.
func newBuffer(t *testing.T, width, height int, seed int64) []byte {
	t.Helper()
	pix := make([]byte, width*height*4)
	r := rand.New(rand.NewSource(seed))
	r.Read(pix)
	return pix
}

func TestSampleIndexSkipsAlpha(t *testing.T) {
	want := []int{0, 1, 2, 4, 5, 6, 8, 9, 10, 12}
	for i, w := range want {
		if got := sampleIndex(i); got != w {
			t.Errorf("sampleIndex(%d) = %d, want %d", i, got, w)
		}
		if sampleIndex(i)%4 == 3 {
			t.Errorf("sampleIndex(%d) landed on an alpha sample", i)
		}
	}
}

func TestCapacity(t *testing.T) {
	if got := Capacity(256, 144); got != 110592 {
		t.Errorf("Capacity(256,144) = %d, want 110592", got)
	}
	if got := BufferCapacity(make([]byte, 40)); got != 30 {
		t.Errorf("BufferCapacity(40 bytes) = %d, want 30", got)
	}
}

func TestEmbedExtractRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		width   int
		height  int
	}{
		{"Short", "hi", 16, 16},
		{"Empty", "", 4, 4},
		{"Sentence", "Meet me at the usual place at noon.", 32, 32},
		{"Latin-1", "déjà vu, naïve façade", 32, 32},
		{"Long", strings.Repeat("0123456789", 200), 128, 128},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pix := newBuffer(t, tt.width, tt.height, int64(i))
			bits, err := ToBits(tt.payload)
			if err != nil {
				t.Fatalf("ToBits failed: %v", err)
			}
			if err := Embed(pix, bits); err != nil {
				t.Fatalf("Embed failed: %v", err)
			}

			got, terminated := Extract(pix)
			if !terminated {
				t.Fatal("expected terminator to be found")
			}
			if text := ToText(got); text != tt.payload {
				t.Errorf("Extract = %q, want %q", text, tt.payload)
			}
		})
	}
}

func TestEmbedPreservesAlphaAndHighBits(t *testing.T) {
	orig := newBuffer(t, 64, 64, 42)
	pix := make([]byte, len(orig))
	copy(pix, orig)

	bits, err := ToBits(strings.Repeat("payload!", 100))
	if err != nil {
		t.Fatalf("ToBits failed: %v", err)
	}
	if err := Embed(pix, bits); err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	for i := range pix {
		if i%4 == 3 {
			if pix[i] != orig[i] {
				t.Fatalf("alpha sample %d changed: %d -> %d", i, orig[i], pix[i])
			}
			continue
		}
		if pix[i]&0xFE != orig[i]&0xFE {
			t.Fatalf("high bits of sample %d changed: %08b -> %08b", i, orig[i], pix[i])
		}
	}
}

func TestEmbedCapacityBoundary(t *testing.T) {
	// 4x4 pixels = 48 usable bits.
	pix := make([]byte, 4*4*4)

	exact := make(BitStream, 48)
	if err := Embed(pix, exact); err != nil {
		t.Errorf("exact capacity should succeed: %v", err)
	}

	over := make(BitStream, 49)
	over[0] = 1
	before := make([]byte, len(pix))
	copy(before, pix)
	err := Embed(pix, over)
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	for i := range pix {
		if pix[i] != before[i] {
			t.Fatal("buffer modified on failed embed")
		}
	}
}

func TestExtractWithoutTerminator(t *testing.T) {
	tests := []struct {
		name string
		pix  []byte
	}{
		{"All zero", make([]byte, 32*32*4)},
		{"Empty", nil},
		{"Partial pixel", []byte{1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Extract panicked: %v", r)
				}
			}()
			bits, terminated := Extract(tt.pix)
			if terminated {
				t.Error("expected no terminator")
			}
			if len(bits) != BufferCapacity(tt.pix) {
				t.Errorf("expected %d bits, got %d", BufferCapacity(tt.pix), len(bits))
			}
			for _, b := range bits {
				if b != 0 && tt.name == "All zero" {
					t.Fatal("expected only zero bits")
				}
			}
		})
	}
}

func TestExtractIgnoresUnalignedTerminator(t *testing.T) {
	// 0x7F 0xFF 0x00 contains fifteen ones followed by a zero starting at
	// bit 1, which must not end the payload.
	payload := "\x7fÿ\x00ok"
	bits, err := ToBits(payload)
	if err != nil {
		t.Fatalf("ToBits failed: %v", err)
	}

	pix := make([]byte, 16*16*4)
	if err := Embed(pix, bits); err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	got, terminated := Extract(pix)
	if !terminated {
		t.Fatal("expected terminator")
	}
	if ToText(got) != payload {
		t.Errorf("got %q, want %q", ToText(got), payload)
	}
}
