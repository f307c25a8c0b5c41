package main

import "strings"

// defaultMIME is returned for unrecognized or missing extensions.
const defaultMIME = "application/octet-stream"

// mimeByExtension is the closed extension -> MIME table this server
// responds with. It intentionally does not delegate to
// mime.TypeByExtension: that function consults the host's mime.types
// database, which varies by OS and does not register several of the
// entries below (.md, .webmanifest).
var mimeByExtension = map[string]string{
	"css":         "text/css",
	"docx":        "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"html":        "text/html; charset=UTF-8",
	"ico":         "image/x-icon",
	"jpg":         "image/jpeg",
	"jpeg":        "image/jpeg",
	"js":          "application/javascript",
	"md":          "text/markdown",
	"png":         "image/png",
	"svg":         "image/svg+xml",
	"webmanifest": "application/manifest+json",
	"xml":         "text/xml",
}

// mimeForPath infers the MIME type from the case-insensitive suffix
// following the last '.' in path.
func mimeForPath(path string) string {
	dot := strings.LastIndexByte(path, '.')
	if dot == -1 || dot == len(path)-1 {
		return defaultMIME
	}
	ext := strings.ToLower(path[dot+1:])
	if mime, ok := mimeByExtension[ext]; ok {
		return mime
	}
	return defaultMIME
}
