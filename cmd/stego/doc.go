// Command stego hides and recovers text in images and videos without the
// HTTP server, using the same carriers and pipelines.
//
// Usage:
//
//	stego <command> [flags] [text]
//
// Commands:
//
//	encode-image   Hide text in the smallest catalog carrier that fits, or in
//	               the image given with -carrier. Writes a PNG to -out.
//	decode-image   Print the text hidden in an image.
//	encode-video   Hide text in the first frame of a video carrier. Writes an
//	               FFV1 Matroska file to -out. Needs ffmpeg and ffprobe.
//	decode-video   Print the text hidden in the first frame of a video.
//	carriers       List the image catalog with capacities and availability.
//
// Text is taken from the remaining arguments, or from stdin when none are
// given. Decoders exit with status 2 when no terminator was found; the
// best-effort text is still printed.
//
// Environment:
//
//	CARRIER_DIR - Default for -carriers (default: ./carriers)
//	LOG_LEVEL   - Logging level for pipeline messages (default: info)
package main
