package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestWriteAndRemovePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nvhttpd.pid")
	if err := writePIDFile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		t.Fatalf("pid file contents not an integer: %q", data)
	}
	expectEqual(t, os.Getpid(), pid)

	removePIDFile(path)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected pid file to be removed, stat err = %v", err)
	}
}

func TestPIDFileEmptyPathIsNoOp(t *testing.T) {
	if err := writePIDFile(""); err != nil {
		t.Fatal(err)
	}
	removePIDFile("") // must not panic
}
