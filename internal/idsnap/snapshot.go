// SPDX-License-Identifier: MPL-2.0

// Package idsnap captures and compares snapshots of node ids keyed by node
// path: reconciliation against a previously recorded snapshot, duplicate-id
// detection and cross-instance id clashes.
//
// Snapshots are immutable once built; every function in this package is pure.
package idsnap

import (
	"maps"
	"slices"

	"github.com/pubcheck/pubcheck/pkg/types"
)

type (
	// Record is one (path, id) pair of a snapshot.
	Record struct {
		Path types.NodePath `json:"path" yaml:"path" toml:"path"`
		ID   types.NodeID   `json:"id" yaml:"id" toml:"id"`
	}

	// Snapshot maps node paths to ids. The zero value is an empty snapshot.
	Snapshot struct {
		ids map[types.NodePath]types.NodeID
	}

	// IDReader reads the id attached to a node.
	IDReader interface {
		ID(node types.NodePath) types.NodeID
	}
)

// New builds a snapshot from a path to id mapping. The mapping is copied.
func New(ids map[types.NodePath]types.NodeID) Snapshot {
	return Snapshot{ids: maps.Clone(ids)}
}

// Capture reads the ids of nodes from a scene. Nodes without an id are skipped.
func Capture(r IDReader, nodes []types.NodePath) Snapshot {
	ids := make(map[types.NodePath]types.NodeID, len(nodes))
	for _, n := range nodes {
		if id := r.ID(n); !id.IsZero() {
			ids[n] = id
		}
	}
	return Snapshot{ids: ids}
}

// Len returns the number of paths in the snapshot.
func (s Snapshot) Len() int { return len(s.ids) }

// Get returns the id recorded for path.
func (s Snapshot) Get(path types.NodePath) (types.NodeID, bool) {
	id, ok := s.ids[path]
	return id, ok
}

// Paths returns the snapshot's paths in sorted order.
func (s Snapshot) Paths() []types.NodePath {
	return slices.Sorted(maps.Keys(s.ids))
}

// Records returns the snapshot's records sorted by path.
func (s Snapshot) Records() []Record {
	out := make([]Record, 0, len(s.ids))
	for _, p := range s.Paths() {
		out = append(out, Record{Path: p, ID: s.ids[p]})
	}
	return out
}

// ToArchive returns a copy of the snapshot with scene paths converted to
// archive paths so it can be compared with an archive snapshot.
func (s Snapshot) ToArchive() Snapshot {
	ids := make(map[types.NodePath]types.NodeID, len(s.ids))
	for p, id := range s.ids {
		ids[p.ToArchive()] = id
	}
	return Snapshot{ids: ids}
}
