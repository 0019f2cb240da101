// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue/errors"
)

// Problem is one failing field of a CUE document.
type Problem struct {
	// Path is the field in selector form, e.g. "scene.nodes[3].type".
	Path    string
	Message string
}

func (p Problem) String() string {
	if p.Path == "" {
		return p.Message
	}
	return p.Path + ": " + p.Message
}

// DecodeError collects the problems CUE reported for one file.
type DecodeError struct {
	File     string
	Problems []Problem
}

func (e *DecodeError) Error() string {
	if len(e.Problems) == 1 {
		return e.File + ": " + e.Problems[0].String()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d problems:", e.File, len(e.Problems))
	for _, p := range e.Problems {
		b.WriteString("\n  " + p.String())
	}
	return b.String()
}

// FormatError turns a CUE error into a *DecodeError naming file. Errors that
// do not come from CUE are only prefixed with the file name.
func FormatError(err error, file string) error {
	if err == nil {
		return nil
	}
	list := errors.Errors(err)
	if len(list) == 0 {
		return fmt.Errorf("%s: %w", file, err)
	}

	de := &DecodeError{File: file, Problems: make([]Problem, 0, len(list))}
	for _, e := range list {
		path := formatPath(errors.Path(e))
		msg := e.Error()
		if rest, ok := strings.CutPrefix(msg, path); ok && path != "" {
			msg = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
		}
		de.Problems = append(de.Problems, Problem{Path: path, Message: msg})
	}
	return de
}

// formatPath joins CUE path elements, rendering list indexes in brackets
// after the first element.
func formatPath(elems []string) string {
	var b strings.Builder
	for i, el := range elems {
		if i == 0 {
			b.WriteString(el)
			continue
		}
		if _, err := strconv.ParseUint(el, 10, 64); err == nil {
			b.WriteString("[" + el + "]")
			continue
		}
		b.WriteString("." + el)
	}
	return b.String()
}

// CheckFileSize rejects data larger than limit bytes.
func CheckFileSize(data []byte, limit int64, file string) error {
	if n := int64(len(data)); n > limit {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", file, n, limit)
	}
	return nil
}
