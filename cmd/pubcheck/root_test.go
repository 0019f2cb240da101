// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pubcheck/pubcheck/internal/issue"
	"github.com/pubcheck/pubcheck/pkg/types"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	tests := []struct {
		name                   string
		version, commit, built string
		want                   string
	}{
		{"ldflags version", "v1.2.3", "abc1234", "2026-06-15T10:00:00Z", "v1.2.3 (commit: abc1234, built: 2026-06-15T10:00:00Z)"},
		{"dev build", "dev", "unknown", "unknown", "dev (built from source)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
			t.Cleanup(func() {
				Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
			})

			Version, Commit, BuildDate = tt.version, tt.commit, tt.built
			if got := getVersionString(); got != tt.want {
				t.Errorf("getVersionString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewRootCommand_Subcommands(t *testing.T) {
	t.Parallel()

	root := NewRootCommand(newTestApp(t, nil).App)
	for _, name := range []string{"validate", "repair", "publish", "inventory", "reconcile", "ids", "db", "plugins", "config", "watch"} {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	for _, flag := range []string{"verbose", "config", "format", "asset-db", "project"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
}

func TestFormatErrorForDisplay(t *testing.T) {
	t.Parallel()

	plain := errors.New("plain failure")
	if got := formatErrorForDisplay(plain, false); got != "plain failure" {
		t.Errorf("plain error = %q", got)
	}

	actionable := issue.Wrap(plain, "load workfile", issue.On("shot.cue"))
	got := formatErrorForDisplay(actionable, true)
	if got == "" || got == plain.Error() {
		t.Errorf("actionable errors should be expanded, got %q", got)
	}
}

func TestExitError(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	tests := []struct {
		name     string
		err      error
		wantMsg  string
		wantCode types.ExitCode
	}{
		{"validation", validationError(cause), "boom", types.ExitValidationFailed},
		{"plug-in", pluginError(cause), "boom", types.ExitPluginErrored},
		{"code only", &ExitError{Code: types.ExitUsage}, "usage error", types.ExitUsage},
		{"wrapped", fmt.Errorf("run: %w", validationError(cause)), "run: boom", types.ExitValidationFailed},
		{"plain error", cause, "boom", types.ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := exitCode(tt.err); got != tt.wantCode {
				t.Errorf("exitCode() = %v, want %v", got, tt.wantCode)
			}
		})
	}

	if exitCode(nil) != types.ExitOK {
		t.Error("nil error must exit 0")
	}
	if !errors.Is(usageError(cause), cause) {
		t.Error("Unwrap must expose the cause")
	}
}
