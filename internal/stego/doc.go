// Package stego implements least-significant-bit steganography over raw RGBA
// pixel buffers.
//
// A payload is expanded to one byte per character (Latin-1), each byte emitted
// most-significant bit first, followed by the 16-bit terminator 0xFFFE. The
// resulting bit stream is written into the LSB of the red, green and blue
// samples of consecutive pixels; alpha samples are never touched.
//
// The scheme hides data but does not encrypt it: anyone who knows the layout
// can read the payload back, and any lossy re-encoding of the carrier
// destroys it.
package stego
