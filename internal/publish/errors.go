// SPDX-License-Identifier: MPL-2.0

package publish

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pubcheck/pubcheck/pkg/types"
)

var (
	// ErrPluginNotFound is returned when a plug-in name is not registered.
	ErrPluginNotFound = errors.New("plug-in not found")
	// ErrNotRepairable is returned when repair is requested from a plug-in
	// without a repair.
	ErrNotRepairable = errors.New("plug-in has no repair")
	// ErrDuplicatePlugin is returned when two plug-ins share a name.
	ErrDuplicatePlugin = errors.New("duplicate plug-in name")
	// ErrInstanceNotFound is returned when an instance name does not exist.
	ErrInstanceNotFound = errors.New("instance not found")
)

// ValidationError reports a failed check. It carries the offending nodes so
// reports and selection tools can point at them.
type ValidationError struct {
	Title   string
	Message string
	// Description is markdown explaining the problem and how to fix it.
	Description string
	Invalid     []string
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "validation failed"
	}
	if len(e.Invalid) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(e.Invalid, ", "))
	}
	if e.Title != "" {
		return e.Title + ": " + msg
	}
	return msg
}

// Fail builds a ValidationError listing the invalid nodes.
func Fail(title, message string, invalid ...types.NodePath) *ValidationError {
	out := make([]string, len(invalid))
	for i, node := range invalid {
		out[i] = string(node)
	}
	return &ValidationError{Title: title, Message: message, Invalid: out}
}

// WithDescription attaches a markdown description.
func (e *ValidationError) WithDescription(md string) *ValidationError {
	e.Description = md
	return e
}

// AsValidation unwraps a ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
