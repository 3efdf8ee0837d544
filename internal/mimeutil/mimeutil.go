package mimeutil

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const fallbackType = "application/octet-stream"

// mimeTypes maps lowercase file extensions to MIME types for the formats
// commonly dropped into a watched directory.
var mimeTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
	"bmp":  "image/bmp",
	"ico":  "image/x-icon",
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"mov":  "video/quicktime",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
	"flac": "audio/flac",
	"pdf":  "application/pdf",
	"txt":  "text/plain",
	"md":   "text/markdown",
	"html": "text/html",
	"css":  "text/css",
	"csv":  "text/csv",
	"js":   "application/javascript",
	"json": "application/json",
	"xml":  "application/xml",
	"zip":  "application/zip",
	"tar":  "application/x-tar",
	"gz":   "application/gzip",
	"7z":   "application/x-7z-compressed",
	"rar":  "application/vnd.rar",
}

// TypeByExtension resolves a MIME type from the file extension alone: the
// static table first, then the platform MIME database, then the generic
// fallback for unrecognized or missing extensions. Content never influences
// the result.
func TypeByExtension(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := mimeTypes[strings.TrimPrefix(ext, ".")]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return stripParams(mt)
	}
	return fallbackType
}

// Sniff detects a MIME type from content. Used to flag files whose
// extension disagrees with what they actually contain; the declared
// extension type still wins for the upload itself.
func Sniff(data []byte) string {
	return stripParams(mimetype.Detect(data).String())
}

func stripParams(mt string) string {
	bare, _, _ := strings.Cut(mt, ";")
	return strings.TrimSpace(bare)
}
