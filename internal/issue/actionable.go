// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

// ActionableError is an error returned to the command line. It names the
// step that failed and the file or entity it failed on, and may point the
// user at hints and an issue page.
//
//	return issue.Wrap(err, "load workfile",
//		issue.On(path),
//		issue.Hint("Check the workfile path"),
//		issue.See(issue.SceneNotFoundId))
type ActionableError struct {
	Operation string
	Resource  string
	Hints     []string
	Cause     error
	// Ref is the issue rendered in verbose mode; zero means none.
	Ref Id
}

// Detail decorates an ActionableError built by Wrap.
type Detail func(*ActionableError)

// On names the file or entity the operation failed on.
func On(resource string) Detail {
	return func(e *ActionableError) { e.Resource = resource }
}

// Hint appends remediation steps.
func Hint(hints ...string) Detail {
	return func(e *ActionableError) { e.Hints = append(e.Hints, hints...) }
}

// See links the issue page explaining the failure.
func See(id Id) Detail {
	return func(e *ActionableError) { e.Ref = id }
}

// Wrap annotates err with the failed operation. A nil err stays nil.
func Wrap(err error, operation string, details ...Detail) error {
	if err == nil {
		return nil
	}
	ae := &ActionableError{Operation: operation, Cause: err}
	for _, d := range details {
		d(ae)
	}
	return ae
}

func (e *ActionableError) Error() string {
	parts := make([]string, 0, 3)
	parts = append(parts, "cannot "+e.Operation)
	if e.Resource != "" {
		parts = append(parts, e.Resource)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *ActionableError) Unwrap() error { return e.Cause }

// Issue returns the linked issue, or nil.
func (e *ActionableError) Issue() *Issue {
	if e.Ref == 0 {
		return nil
	}
	return Get(e.Ref)
}

// Format renders the error followed by its hints. Verbose output also
// walks the cause chain.
func (e *ActionableError) Format(verbose bool) string {
	var b strings.Builder
	b.WriteString(e.Error())

	if len(e.Hints) > 0 {
		b.WriteString("\n\nTry:")
		for _, h := range e.Hints {
			b.WriteString("\n  - " + h)
		}
	}

	if verbose && e.Cause != nil {
		b.WriteString("\n\nCaused by:")
		for i, err := 1, e.Cause; err != nil; i, err = i+1, errors.Unwrap(err) {
			fmt.Fprintf(&b, "\n  %d. %s", i, err)
		}
	}
	return b.String()
}
