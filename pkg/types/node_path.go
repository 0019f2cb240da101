// SPDX-License-Identifier: MPL-2.0

// Package types defines the value types shared by the scene, snapshot and
// publish packages. These types carry validation but no domain behavior.
//
// This package is a leaf dependency: it imports only the standard library.
package types

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ScenePathSeparator separates segments of a scene node path ("|grp|mesh").
	ScenePathSeparator = "|"
	// ArchivePathSeparator separates segments of an archive object path ("/grp/mesh").
	ArchivePathSeparator = "/"
)

// ErrInvalidNodePath is the sentinel error wrapped by InvalidNodePathError.
var ErrInvalidNodePath = errors.New("invalid node path")

type (
	// NodePath is a structural path to a node. Scene paths are pipe-delimited
	// and archive paths are slash-delimited; each segment may carry namespace
	// prefixes ("ns:child:name"). Non-DAG nodes (sets, reference nodes) are
	// addressed by their bare name.
	NodePath string

	// InvalidNodePathError is returned when a NodePath is empty or whitespace-only.
	InvalidNodePathError struct {
		Value NodePath
	}
)

// String returns the string representation of the NodePath.
func (p NodePath) String() string { return string(p) }

// IsValid returns whether the NodePath is usable as a key.
func (p NodePath) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidNodePathError{Value: p}}
	}
	return true, nil
}

// IsDAG reports whether the path addresses a node in the scene hierarchy.
func (p NodePath) IsDAG() bool {
	return strings.HasPrefix(string(p), ScenePathSeparator)
}

// Parent returns the parent path of a DAG node and false for top-level or
// non-DAG nodes.
func (p NodePath) Parent() (NodePath, bool) {
	idx := strings.LastIndex(string(p), ScenePathSeparator)
	if idx <= 0 {
		return "", false
	}
	return p[:idx], true
}

// Leaf returns the last segment of the path.
func (p NodePath) Leaf() string {
	s := string(p)
	if idx := strings.LastIndex(s, ScenePathSeparator); idx >= 0 {
		return s[idx+1:]
	}
	return s
}

// IsDescendantOf reports whether p lies strictly below root in the hierarchy.
func (p NodePath) IsDescendantOf(root NodePath) bool {
	return strings.HasPrefix(string(p), string(root)+ScenePathSeparator)
}

// ToArchive converts a scene path into the equivalent archive path.
func (p NodePath) ToArchive() NodePath {
	return NodePath(strings.ReplaceAll(string(p), ScenePathSeparator, ArchivePathSeparator))
}

// ToScene converts an archive path into the equivalent scene path.
func (p NodePath) ToScene() NodePath {
	return NodePath(strings.ReplaceAll(string(p), ArchivePathSeparator, ScenePathSeparator))
}

// Error implements the error interface.
func (e *InvalidNodePathError) Error() string {
	return fmt.Sprintf("invalid node path %q: must not be empty or whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidNodePath for errors.Is() compatibility.
func (e *InvalidNodePathError) Unwrap() error { return ErrInvalidNodePath }
