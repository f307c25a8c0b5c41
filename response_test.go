package main

import (
	"net"
	"strings"
	"testing"
)

func TestWriteResponseGet(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	entry := CacheEntry{Path: "/index.html", Bytes: []byte("<body>"), Length: 6, MIME: "text/html; charset=UTF-8"}
	done := make(chan error, 1)
	go func() {
		done <- WriteResponse(NewTransport(server), StatusOK, entry, "", MethodGet)
	}()

	buf := make([]byte, 4096)
	n, err := client.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	out := string(buf[:n])
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n") {
		t.Errorf("bad status line: %q", out)
	}
	if !strings.Contains(out, "Content-Type: text/html; charset=UTF-8\r\n") {
		t.Errorf("missing content-type: %q", out)
	}
	if !strings.Contains(out, "Content-Length: 6\r\n") {
		t.Errorf("missing content-length: %q", out)
	}
	if !strings.HasSuffix(out, "\r\n\r\n<body>") {
		t.Errorf("bad header/body framing: %q", out)
	}
}

func TestWriteResponseHeadOmitsBody(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	entry := CacheEntry{Path: "/index.html", Bytes: []byte("<body>"), Length: 6, MIME: "text/html; charset=UTF-8"}
	done := make(chan error, 1)
	go func() {
		done <- WriteResponse(NewTransport(server), StatusOK, entry, "", MethodHead)
	}()

	buf := make([]byte, 4096)
	n, err := client.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	out := string(buf[:n])
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out, "Content-Length: 6\r\n") {
		t.Errorf("Content-Length must reflect entry length even for HEAD: %q", out)
	}
	if strings.Contains(out, "<body>") {
		t.Errorf("HEAD response must not include a body: %q", out)
	}
}

func TestSyntheticEntryIsPlainText(t *testing.T) {
	e := syntheticEntry(StatusNotFound)
	expectEqual(t, "text/plain", e.MIME)
	expectEqual(t, "404 Not Found", string(e.Bytes))
	expectEqual(t, len(e.Bytes), e.Length)
}
