// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"testing"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code      ExitCode
		wantValue int
		wantLabel string
		wantErr   bool
	}{
		{ExitOK, 0, "ok", false},
		{ExitValidationFailed, 1, "validation failed", false},
		{ExitUsage, 2, "usage error", false},
		{ExitPluginErrored, 3, "plug-in errored", false},
		{42, 42, "42", false},
		{-1, -1, "-1", true},
		{256, 256, "256", true},
	}

	for _, tt := range tests {
		t.Run(tt.wantLabel, func(t *testing.T) {
			t.Parallel()

			if int(tt.code) != tt.wantValue {
				t.Errorf("value = %d, want %d", tt.code, tt.wantValue)
			}
			if got := tt.code.String(); got != tt.wantLabel {
				t.Errorf("String() = %q, want %q", got, tt.wantLabel)
			}
			err := tt.code.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidExitCode) {
				t.Errorf("Validate() = %v, want ErrInvalidExitCode", err)
			}
			if tt.code.IsSuccess() != (tt.code == ExitOK) {
				t.Errorf("IsSuccess() = %v", tt.code.IsSuccess())
			}
		})
	}
}
