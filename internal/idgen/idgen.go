// SPDX-License-Identifier: MPL-2.0

// Package idgen generates database row ids and node ids.
//
// Node ids take the form "<folderId>:<uuid>" so the folder a node was
// authored for can be recovered from the id alone.
package idgen

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/pubcheck/pubcheck/pkg/types"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator of time-sortable RFC 9562 UUID v7 strings.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// UUIDv4 returns a Generator of random UUID v4 strings.
func UUIDv4() Generator {
	return func() string {
		return uuid.NewString()
	}
}

// Sequence returns a deterministic Generator producing prefix-1, prefix-2, ...
// for tests and reproducible fixtures.
func Sequence(prefix string) Generator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// NodeID builds a fresh node id for a node authored in folderID.
func NodeID(folderID string, gen Generator) types.NodeID {
	return types.NodeID(folderID + ":" + gen())
}

// Parse validates a UUID string and returns its canonical form.
func Parse(s string) (string, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid UUID: %w", err)
	}
	return u.String(), nil
}
