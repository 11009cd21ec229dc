// Package handlers provides HTTP request handlers for the steganography API.
//
// It includes handlers for:
//   - Encoding a text or transcribed payload into an image or video carrier
//   - Decoding a payload from an uploaded image or video
//   - Speech to text for recorded payloads
//   - Carrier catalog and per-user result listings
//   - Result downloads
//   - User sign up, sign in and sessions
//   - Health checks and version information
//
// Every API response is JSON of the form {"success": bool, ...}. Failures
// carry a user facing "message"; tool output and internal paths are only
// logged.
package handlers
