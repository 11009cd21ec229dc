// Package media is the still-image side of the steganography pipeline.
//
// It loads carriers into flat RGBA pixel buffers, hands them to the stego
// codec, and writes results back as PNG so every channel value survives
// exactly. The video pipeline reuses EmbedFile and DecodeImage on individual
// frames.
package media
