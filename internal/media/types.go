package media

import (
	"mime"
	"path/filepath"
	"strings"
)

// Kind classifies an upload for decoding.
type Kind string

const (
	// KindImage is a still image upload.
	KindImage Kind = "image"
	// KindVideo is a video upload.
	KindVideo Kind = "video"
	// KindUnknown is anything else.
	KindUnknown Kind = "unknown"
)

// ImageExtensions maps file extensions to whether they are decodable image formats.
var ImageExtensions = map[string]bool{
	".png": true, ".bmp": true, ".tif": true, ".tiff": true,
	".webp": true, ".gif": true, ".jpg": true, ".jpeg": true,
}

// VideoExtensions maps file extensions to whether they are supported video formats.
var VideoExtensions = map[string]bool{
	".mkv": true, ".mp4": true, ".avi": true, ".mov": true,
	".webm": true, ".m4v": true, ".mpeg": true, ".mpg": true,
	".flv": true, ".wmv": true, ".3gp": true, ".ts": true,
}

// ClassifyMIME decides whether an upload is an image or a video. The
// declared MIME type wins; generic or missing types fall back to the file
// extension.
func ClassifyMIME(mimeType, filename string) Kind {
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		switch {
		case strings.HasPrefix(mediaType, "image/"):
			return KindImage
		case strings.HasPrefix(mediaType, "video/"):
			return KindVideo
		case mediaType != "application/octet-stream":
			return KindUnknown
		}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case ImageExtensions[ext]:
		return KindImage
	case VideoExtensions[ext]:
		return KindVideo
	default:
		return KindUnknown
	}
}
