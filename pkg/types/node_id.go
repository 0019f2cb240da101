// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidNodeID is the sentinel error wrapped by InvalidNodeIDError.
var ErrInvalidNodeID = errors.New("invalid node id")

type (
	// NodeID is the opaque identifier attached to a node out-of-band. It stays
	// stable across renames and re-parents. The zero value means "no id".
	NodeID string

	// InvalidNodeIDError is returned when a non-empty NodeID contains whitespace.
	InvalidNodeIDError struct {
		Value NodeID
	}
)

// String returns the string representation of the NodeID.
func (id NodeID) String() string { return string(id) }

// IsZero reports whether no id is set.
func (id NodeID) IsZero() bool { return id == "" }

// IsValid returns whether the NodeID is valid. The zero value is valid.
func (id NodeID) IsValid() (bool, []error) {
	if id == "" {
		return true, nil
	}
	if strings.ContainsAny(string(id), " \t\r\n") {
		return false, []error{&InvalidNodeIDError{Value: id}}
	}
	return true, nil
}

// Folder returns the folder prefix of ids in the "<folderId>:<uuid>" form.
func (id NodeID) Folder() string {
	folder, _, found := strings.Cut(string(id), ":")
	if !found {
		return ""
	}
	return folder
}

// Error implements the error interface.
func (e *InvalidNodeIDError) Error() string {
	return fmt.Sprintf("invalid node id %q: must not contain whitespace", e.Value)
}

// Unwrap returns ErrInvalidNodeID for errors.Is() compatibility.
func (e *InvalidNodeIDError) Unwrap() error { return ErrInvalidNodeID }
