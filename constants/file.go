package constants

import "strings"

// MaxImageBytesDefault caps a single upload before any external call is made.
const MaxImageBytesDefault = 10 << 20

// ImageMimeTypes maps the accepted receipt photo extensions to their MIME types.
var ImageMimeTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MimeTypeFor returns the MIME type for an extension, or false when it is not an accepted image.
func MimeTypeFor(ext string) (string, bool) {
	mt, ok := ImageMimeTypes[NormalizeExt(ext)]
	return mt, ok
}
