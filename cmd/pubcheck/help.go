// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/pubcheck/pubcheck/internal/issue"
)

var (
	// ErrValidationFailed is returned when a validator reported invalid content.
	ErrValidationFailed = errors.New("validation failed")
	// ErrPluginErrored is returned when a plug-in failed unexpectedly.
	ErrPluginErrored = errors.New("plug-in errored")
	// ErrRepairIncomplete is returned when a repaired target still fails.
	ErrRepairIncomplete = errors.New("repair incomplete")
)

// formatErrorForDisplay expands actionable errors with their hints, and
// with the cause chain in verbose mode.
func formatErrorForDisplay(err error, verbose bool) string {
	if ae, ok := asActionable(err); ok {
		return ae.Format(verbose)
	}
	return err.Error()
}

// printIssueHelp renders the issue page linked from err, if any. A page
// that fails to render is printed as raw Markdown.
func printIssueHelp(w io.Writer, err error, verbose bool) {
	ae, ok := asActionable(err)
	if !ok || ae.Issue() == nil {
		return
	}
	page := ae.Issue()
	out, renderErr := page.Render("dark")
	if renderErr != nil {
		if verbose {
			fmt.Fprintln(w, VerboseStyle.Render("cannot render help: "+renderErr.Error()))
		}
		out = page.Markdown()
	}
	fmt.Fprint(w, out)
}

func asActionable(err error) (*issue.ActionableError, bool) {
	var ae *issue.ActionableError
	ok := errors.As(err, &ae)
	return ae, ok
}
