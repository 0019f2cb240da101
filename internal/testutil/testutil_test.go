// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFakeClock(t *testing.T) {
	t.Parallel()

	c := NewFakeClock(time.Time{})
	if !c.Now().Equal(Epoch) {
		t.Errorf("Now() = %v, want %v", c.Now(), Epoch)
	}
	c.Advance(90 * time.Minute)
	c.Advance(30 * time.Minute)
	if got := c.Now().Sub(Epoch); got != 2*time.Hour {
		t.Errorf("advanced by %v, want 2h", got)
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	logger, buf := NewLogger()
	logger.Debug("Missing attr", "path", "/hero_GRP")
	if out := buf.String(); !strings.Contains(out, "Missing attr") || !strings.Contains(out, "/hero_GRP") {
		t.Errorf("log output = %q", out)
	}
}

func TestMustWriteFile(t *testing.T) {
	t.Parallel()

	path := MustWriteFile(t, t.TempDir(), filepath.Join("shots", "sh010.cue"), "context: {}")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "context: {}" {
		t.Errorf("content = %q", data)
	}
}

func TestSetHomeDir(t *testing.T) {
	home := t.TempDir()
	SetHomeDir(t, home)

	got, err := os.UserHomeDir()
	if err != nil || got != home {
		t.Errorf("UserHomeDir() = %q, %v", got, err)
	}
}
