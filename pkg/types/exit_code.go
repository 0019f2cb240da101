// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strconv"
)

// Process exit statuses of pubcheck commands.
const (
	ExitOK ExitCode = iota
	// ExitValidationFailed means a validator rejected scene content, or a
	// strict comparison found differences.
	ExitValidationFailed
	// ExitUsage means the command could not start: bad flags, an unreadable
	// workfile, an unknown plug-in or instance.
	ExitUsage
	// ExitPluginErrored means a plug-in failed for a reason other than
	// validation.
	ExitPluginErrored
)

// ErrInvalidExitCode is wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

var exitLabels = map[ExitCode]string{
	ExitOK:               "ok",
	ExitValidationFailed: "validation failed",
	ExitUsage:            "usage error",
	ExitPluginErrored:    "plug-in errored",
}

type (
	// ExitCode is a process exit status in the POSIX range 0-255.
	ExitCode int

	// InvalidExitCodeError reports an ExitCode outside 0-255.
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d out of range 0-255", e.Value)
}

func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Validate rejects codes a process cannot return.
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// IsSuccess reports a clean run.
func (c ExitCode) IsSuccess() bool { return c == ExitOK }

// String returns the label of a pubcheck status, or the bare number.
func (c ExitCode) String() string {
	if label, ok := exitLabels[c]; ok {
		return label
	}
	return strconv.Itoa(int(c))
}
