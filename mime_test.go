package main

import "testing"

func TestMimeForPathTable(t *testing.T) {
	cases := map[string]string{
		"/a.css":         "text/css",
		"/a.CSS":         "text/css",
		"/a.docx":        "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"/a.html":        "text/html; charset=UTF-8",
		"/a.HTML":        "text/html; charset=UTF-8",
		"/a.ico":         "image/x-icon",
		"/a.jpg":         "image/jpeg",
		"/a.jpeg":        "image/jpeg",
		"/a.JPEG":        "image/jpeg",
		"/a.js":          "application/javascript",
		"/a.md":          "text/markdown",
		"/a.png":         "image/png",
		"/a.svg":         "image/svg+xml",
		"/a.webmanifest": "application/manifest+json",
		"/a.xml":         "text/xml",
	}
	for path, want := range cases {
		expectEqual(t, want, mimeForPath(path))
	}
}

func TestMimeForPathUnknownOrMissing(t *testing.T) {
	for _, path := range []string{"/a.unknownext", "/noext", "/trailing.", ""} {
		expectEqual(t, defaultMIME, mimeForPath(path))
	}
}
