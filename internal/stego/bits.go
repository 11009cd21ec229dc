package stego

import (
	"bytes"
	"errors"
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// Terminator marks the end of an embedded payload.
const Terminator uint16 = 0xFFFE

// TerminatorBits is the bit length of Terminator.
const TerminatorBits = 16

// Terminator split into the bytes it is written as, high byte first.
const (
	terminatorHi = byte(Terminator >> 8)
	terminatorLo = byte(Terminator & 0xFF)
)

var (
	// ErrUnsupportedCharacter is returned for payload runes outside Latin-1.
	ErrUnsupportedCharacter = errors.New("payload contains characters outside the 8-bit range")

	// ErrTerminatorInPayload is returned when the payload bytes contain the
	// terminator sequence and could not be recovered intact.
	ErrTerminatorInPayload = errors.New("payload contains the terminator byte sequence 0xFF 0xFE")
)

// BitStream is an ordered sequence of bits, one per element, each 0 or 1.
type BitStream []uint8

// RequiredBits returns the stream length for a payload of n characters.
func RequiredBits(n int) int {
	return 8*n + TerminatorBits
}

// MaxChars returns how many characters fit in capacityBits after the
// terminator.
func MaxChars(capacityBits int) int {
	if capacityBits < TerminatorBits {
		return 0
	}
	return (capacityBits - TerminatorBits) / 8
}

// ToBits expands payload into its terminated bit stream.
// Characters above U+00FF are rejected rather than truncated.
func ToBits(payload string) (BitStream, error) {
	raw, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedCharacter, err)
	}
	if bytes.Contains(raw, []byte{terminatorHi, terminatorLo}) {
		return nil, ErrTerminatorInPayload
	}

	bits := make(BitStream, 0, RequiredBits(len(raw)))
	for _, b := range raw {
		bits = appendByte(bits, b)
	}
	bits = appendByte(bits, terminatorHi)
	bits = appendByte(bits, terminatorLo)
	return bits, nil
}

func appendByte(bits BitStream, b byte) BitStream {
	for shift := 7; shift >= 0; shift-- {
		bits = append(bits, (b>>uint(shift))&1)
	}
	return bits
}

// ToText packs bits into bytes MSB first and decodes them as Latin-1.
// A trailing group shorter than 8 bits is dropped.
func ToText(bits BitStream) string {
	raw := make([]byte, 0, len(bits)/8)
	for i := 0; i+8 <= len(bits); i += 8 {
		var b byte
		for _, bit := range bits[i : i+8] {
			b = b<<1 | bit&1
		}
		raw = append(raw, b)
	}

	// Every byte is valid Latin-1, so decoding cannot fail.
	text, _ := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	return string(text)
}

// String renders the stream as a string of '0' and '1'.
func (b BitStream) String() string {
	buf := make([]byte, len(b))
	for i, bit := range b {
		buf[i] = '0' + bit&1
	}
	return string(buf)
}
