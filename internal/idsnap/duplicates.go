// SPDX-License-Identifier: MPL-2.0

package idsnap

import (
	"maps"
	"slices"

	"github.com/pubcheck/pubcheck/pkg/types"
)

type (
	// Conflict is an id carried by more than one path.
	Conflict struct {
		ID    types.NodeID     `json:"id" yaml:"id" toml:"id"`
		Paths []types.NodePath `json:"paths" yaml:"paths" toml:"paths"`
	}

	// Clash is an id of the unit under test that is also used by another
	// unit. Local and Foreign are never mixed: only Local may be remediated.
	Clash struct {
		ID      types.NodeID     `json:"id" yaml:"id" toml:"id"`
		Local   []types.NodePath `json:"local" yaml:"local" toml:"local"`
		Foreign []types.NodePath `json:"foreign" yaml:"foreign" toml:"foreign"`
	}
)

// Duplicates groups the paths of all snapshots by id and returns every id
// used by more than one distinct path. Conflicts are sorted by id and their
// paths by path.
func Duplicates(snaps ...Snapshot) []Conflict {
	byID := make(map[types.NodeID]map[types.NodePath]struct{})
	for _, s := range snaps {
		for path, id := range s.ids {
			if id.IsZero() {
				continue
			}
			if byID[id] == nil {
				byID[id] = make(map[types.NodePath]struct{})
			}
			byID[id][path] = struct{}{}
		}
	}

	var out []Conflict
	for _, id := range slices.Sorted(maps.Keys(byID)) {
		if len(byID[id]) < 2 {
			continue
		}
		out = append(out, Conflict{ID: id, Paths: slices.Sorted(maps.Keys(byID[id]))})
	}
	return out
}

// Clashes returns the ids of local that also appear in any foreign snapshot.
// A path shared by local and foreign is reported on both sides.
func Clashes(local Snapshot, foreign ...Snapshot) []Clash {
	foreignByID := make(map[types.NodeID]map[types.NodePath]struct{})
	for _, s := range foreign {
		for path, id := range s.ids {
			if id.IsZero() {
				continue
			}
			if foreignByID[id] == nil {
				foreignByID[id] = make(map[types.NodePath]struct{})
			}
			foreignByID[id][path] = struct{}{}
		}
	}

	localByID := make(map[types.NodeID][]types.NodePath)
	for _, path := range local.Paths() {
		id := local.ids[path]
		if _, ok := foreignByID[id]; ok {
			localByID[id] = append(localByID[id], path)
		}
	}

	out := make([]Clash, 0, len(localByID))
	for _, id := range slices.Sorted(maps.Keys(localByID)) {
		out = append(out, Clash{
			ID:      id,
			Local:   localByID[id],
			Foreign: slices.Sorted(maps.Keys(foreignByID[id])),
		})
	}
	return out
}

// LocalPaths returns every local path involved in a clash, sorted and
// deduplicated.
func LocalPaths(clashes []Clash) []types.NodePath {
	var out []types.NodePath
	for _, c := range clashes {
		out = append(out, c.Local...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
