//go:build unix

package testutil

import (
	"syscall"
	"testing"
)

// Mkfifo creates a named pipe at path, skipping the test on failure.
func Mkfifo(t *testing.T, path string) {
	t.Helper()
	if err := syscall.Mkfifo(path, 0o644); err != nil {
		t.Skipf("mkfifo not supported: %v", err)
	}
}
