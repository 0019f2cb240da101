// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// MustWriteFile writes content to dir/name, creating missing parent
// directories, and returns the full path.
func MustWriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// MustClose fails the test when closing c fails.
func MustClose(t testing.TB, c io.Closer) {
	t.Helper()

	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

// SetHomeDir points os.UserHomeDir at dir for the rest of the test.
func SetHomeDir(t testing.TB, dir string) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", dir)
		return
	}
	t.Setenv("HOME", dir)
}
