package main

import (
	"bytes"
	"fmt"
	"sync"
	"time"
)

// responseBufPool recycles the bytes.Buffer values WriteResponse assembles
// headers and body into, so a busy server doesn't allocate a fresh buffer
// per request. Oversized buffers are not returned to the pool.
var responseBufPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

const responseBufPoolMaxCap = 1 << 20

// Status is an HTTP status code this server ever produces.
type Status int

const (
	StatusOK                  Status = 200
	StatusBadRequest          Status = 400
	StatusNotFound            Status = 404
	StatusInternalServerError Status = 500
	StatusNotImplemented      Status = 501
)

var reasonPhrase = map[Status]string{
	StatusOK:                  "200 OK",
	StatusBadRequest:          "400 Bad Request",
	StatusNotFound:            "404 Not Found",
	StatusInternalServerError: "500 Internal Server Error",
	StatusNotImplemented:      "501 Not Implemented",
}

// errorPagePath is where the dispatcher looks for a body to accompany each
// non-200 status. The paths are fixed, not configurable.
var errorPagePath = map[Status]string{
	StatusBadRequest:          "/error/400/index.html",
	StatusNotFound:            "/error/404/index.html",
	StatusInternalServerError: "/error/500/index.html",
	StatusNotImplemented:      "/error/501/index.html",
}

// syntheticEntry builds a minimal text/plain body for a status whose error
// page is absent from the cache.
func syntheticEntry(status Status) CacheEntry {
	body := []byte(reasonPhrase[status])
	return CacheEntry{
		Path:   errorPagePath[status],
		Bytes:  body,
		Length: len(body),
		MIME:   "text/plain",
	}
}

// WriteResponse formats the status line, Date/Content-Type/Content-Length
// headers, any extra pre-joined headers, and (for GET) the body, then sends
// the whole thing through t's short-write-tolerant Write loop. For HEAD, the
// body is omitted but Content-Length still reflects entry.Length.
func WriteResponse(t *Transport, status Status, entry CacheEntry, extraHeaders string, method Method) error {
	phrase, ok := reasonPhrase[status]
	if !ok {
		phrase = fmt.Sprintf("%d", int(status))
	}
	date := time.Now().UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT")

	buf := responseBufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		if buf.Cap() <= responseBufPoolMaxCap {
			responseBufPool.Put(buf)
		}
	}()

	fmt.Fprintf(buf, "HTTP/1.1 %s\r\nDate: %s\r\nContent-Type: %s\r\nContent-Length: %d\r\n%s\r\n",
		phrase, date, entry.MIME, entry.Length, extraHeaders)
	if method != MethodHead {
		buf.Write(entry.Bytes)
	}

	_, err := t.Write(buf.Bytes())
	return err
}
