package mediatypes

import (
	"path/filepath"
	"strings"
)

// Kind represents the detected type of a gallery source file.
type Kind string

const (
	// KindImage represents a supported still-image format.
	KindImage Kind = "image"
	// KindVideo represents a supported video format.
	KindVideo Kind = "video"
	// KindOther represents an unrecognized or unsupported file.
	KindOther Kind = "other"
)

// ImageExtensions maps file extensions to whether they are supported image formats.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// VideoExtensions maps file extensions to whether they are supported video formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
	".m4v":  true,
	".mpg":  true,
	".mpeg": true,
}

// KindOf classifies a file path by its extension.
func KindOf(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	if ImageExtensions[ext] {
		return KindImage
	}
	if VideoExtensions[ext] {
		return KindVideo
	}
	return KindOther
}

// MimeType returns the media MIME type for a video container extension, or
// an empty string when the extension is not a recognized video format.
func MimeType(ext string) string {
	switch strings.ToLower(ext) {
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/quicktime"
	case ".avi":
		return "video/x-msvideo"
	case ".mkv":
		return "video/x-matroska"
	case ".mpg", ".mpeg":
		return "video/mpeg"
	default:
		return ""
	}
}
