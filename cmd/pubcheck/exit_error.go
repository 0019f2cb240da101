// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"

	"github.com/pubcheck/pubcheck/pkg/types"
)

// ExitError carries the process status out of a RunE handler; Execute is
// the only place that calls os.Exit.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Code.String()
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func usageError(err error) error {
	return &ExitError{Code: types.ExitUsage, Err: err}
}

func validationError(err error) error {
	return &ExitError{Code: types.ExitValidationFailed, Err: err}
}

func pluginError(err error) error {
	return &ExitError{Code: types.ExitPluginErrored, Err: err}
}

// exitCode maps a command error onto a process status. Errors that carry
// no ExitError are usage errors.
func exitCode(err error) types.ExitCode {
	if err == nil {
		return types.ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return types.ExitUsage
}
