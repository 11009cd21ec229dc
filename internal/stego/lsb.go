package stego

import (
	"errors"
	"fmt"
)

// ErrCapacityExceeded is returned when a bit stream does not fit a buffer.
var ErrCapacityExceeded = errors.New("payload exceeds carrier capacity")

const (
	channelsPerPixel = 4
	usablePerPixel   = 3
)

// Capacity returns the number of bits a width x height carrier can hold.
func Capacity(width, height int) int {
	return width * height * usablePerPixel
}

// BufferCapacity returns the number of bits an RGBA buffer can hold.
func BufferCapacity(pix []byte) int {
	return (len(pix) / channelsPerPixel) * usablePerPixel
}

// sampleIndex maps the i-th usable channel to its offset in an RGBA buffer,
// skipping every alpha sample.
func sampleIndex(i int) int {
	return (i/usablePerPixel)*channelsPerPixel + i%usablePerPixel
}

// Embed writes bits into the least significant bit of consecutive R, G and B
// samples of pix. Only those LSBs change; alpha samples and the upper seven
// bits of every sample are preserved. pix is left untouched on error.
func Embed(pix []byte, bits BitStream) error {
	if capacity := BufferCapacity(pix); len(bits) > capacity {
		return fmt.Errorf("%w: need %d bits, have %d", ErrCapacityExceeded, len(bits), capacity)
	}

	for i, bit := range bits {
		idx := sampleIndex(i)
		pix[idx] = pix[idx]&0xFE | bit&1
	}
	return nil
}

// Extract reads LSBs in the order Embed writes them until the terminator is
// seen on a character boundary. The returned stream excludes the terminator.
// When the buffer runs out first, everything read is returned with
// terminated=false.
func Extract(pix []byte) (bits BitStream, terminated bool) {
	capacity := BufferCapacity(pix)
	bits = make(BitStream, 0, 256)

	var window uint16
	for i := 0; i < capacity; i++ {
		bit := pix[sampleIndex(i)] & 1
		bits = append(bits, bit)
		window = window<<1 | uint16(bit)

		if len(bits) >= TerminatorBits && len(bits)%8 == 0 && window == Terminator {
			return bits[:len(bits)-TerminatorBits], true
		}
	}
	return bits, false
}
