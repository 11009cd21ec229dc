// Package carrier chooses where a payload is hidden.
//
// Still images come from a fixed catalog ordered by capacity; the smallest
// image that fits the bit stream wins, which keeps the published file as
// small as possible. The video carrier is a single fixed file whose first
// frame holds the payload, so its capacity does not depend on its length.
package carrier
