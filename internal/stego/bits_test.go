package stego

import (
	"errors"
	"strings"
	"testing"
)

func TestToBits(t *testing.T) {
	bits, err := ToBits("hi")
	if err != nil {
		t.Fatalf("ToBits failed: %v", err)
	}

	want := "01101000" + "01101001" + "1111111111111110"
	if bits.String() != want {
		t.Errorf("ToBits(\"hi\") = %s, want %s", bits.String(), want)
	}
	if len(bits) != 32 {
		t.Errorf("expected 32 bits, got %d", len(bits))
	}
}

func TestToBitsEmptyIsTerminator(t *testing.T) {
	bits, err := ToBits("")
	if err != nil {
		t.Fatalf("ToBits failed: %v", err)
	}
	if got := bits.String(); got != "1111111111111110" {
		t.Errorf("ToBits(\"\") = %s, want 1111111111111110", got)
	}
	if terminatorHi != 0xFF || terminatorLo != 0xFE {
		t.Errorf("terminator bytes = %#x %#x, want 0xff 0xfe", terminatorHi, terminatorLo)
	}
}

func TestToBitsLength(t *testing.T) {
	tests := []string{"", "a", "hello world", strings.Repeat("x", 1000), "café"}

	for _, payload := range tests {
		t.Run(payload, func(t *testing.T) {
			bits, err := ToBits(payload)
			if err != nil {
				t.Fatalf("ToBits failed: %v", err)
			}
			chars := len([]rune(payload))
			if len(bits) != RequiredBits(chars) {
				t.Errorf("len = %d, want %d", len(bits), RequiredBits(chars))
			}
		})
	}
}

func TestToBitsRejectsWideRunes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"CJK", "日本"},
		{"Emoji", "hi 🙂"},
		{"Euro sign", "€5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToBits(tt.payload)
			if !errors.Is(err, ErrUnsupportedCharacter) {
				t.Errorf("expected ErrUnsupportedCharacter, got %v", err)
			}
		})
	}
}

func TestToBitsRejectsTerminatorSequence(t *testing.T) {
	_, err := ToBits("abcÿþdef")
	if !errors.Is(err, ErrTerminatorInPayload) {
		t.Errorf("expected ErrTerminatorInPayload, got %v", err)
	}

	// The bytes in the other order are fine.
	if _, err := ToBits("þÿ"); err != nil {
		t.Errorf("unexpected error for 0xFE 0xFF: %v", err)
	}
}

func TestToText(t *testing.T) {
	tests := []struct {
		name string
		bits string
		want string
	}{
		{"Empty", "", ""},
		{"Single char", "01101000", "h"},
		{"Two chars", "0110100001101001", "hi"},
		{"Trailing partial dropped", "01101000011", "h"},
		{"Latin-1 byte", "11101001", "é"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bits := make(BitStream, len(tt.bits))
			for i, c := range tt.bits {
				bits[i] = uint8(c - '0')
			}
			if got := ToText(bits); got != tt.want {
				t.Errorf("ToText(%s) = %q, want %q", tt.bits, got, tt.want)
			}
		})
	}
}

func TestRoundTripText(t *testing.T) {
	payloads := []string{"", "hi", "The quick brown fox", "naïve façade ÿ", "\x00\x01\x7f"}

	for _, p := range payloads {
		bits, err := ToBits(p)
		if err != nil {
			t.Fatalf("ToBits(%q) failed: %v", p, err)
		}
		got := ToText(bits[:len(bits)-TerminatorBits])
		if got != p {
			t.Errorf("round trip = %q, want %q", got, p)
		}
	}
}

func TestMaxChars(t *testing.T) {
	tests := []struct {
		capacity int
		want     int
	}{
		{0, 0},
		{15, 0},
		{16, 0},
		{24, 1},
		{31, 1},
		{Capacity(256, 144), (256*144*3 - 16) / 8},
	}
	for _, tt := range tests {
		if got := MaxChars(tt.capacity); got != tt.want {
			t.Errorf("MaxChars(%d) = %d, want %d", tt.capacity, got, tt.want)
		}
		if tt.want > 0 && RequiredBits(tt.want) > tt.capacity {
			t.Errorf("RequiredBits(MaxChars(%d)) exceeds capacity", tt.capacity)
		}
	}
}
