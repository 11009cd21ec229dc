// Package video hides payloads in the first frame of a video carrier.
//
// An encode run is strictly sequential:
//
//	validate -> probe -> demux audio -> demux frames -> embed -> remux -> cleanup
//
// Each run gets its own workspace directory under the temp dir, created only
// after a successful probe and removed on every exit path. The output is an
// FFV1 Matroska file whose first frame carries the payload; every other frame
// and the audio track are carried over unchanged.
//
// Decoding extracts only the first frame, reads it with the image pipeline and
// removes the frame file before returning.
package video
