package main

import (
	"fmt"
	"os"
)

// writePIDFile writes the current process's PID to path. An empty path
// disables the PID file.
func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("pidfile: error creating %s: %w", path, err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		return fmt.Errorf("pidfile: error writing %s: %w", path, err)
	}
	return nil
}

// removePIDFile unlinks path on exit. A missing file is not an error.
func removePIDFile(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}
