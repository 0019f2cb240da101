// SPDX-License-Identifier: MPL-2.0

package idsnap

import (
	"slices"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/pubcheck/pubcheck/pkg/types"
)

type (
	// Change is a path present in both snapshots with a different id.
	Change struct {
		Path     types.NodePath `json:"path" yaml:"path" toml:"path"`
		Previous types.NodeID   `json:"previous" yaml:"previous" toml:"previous"`
		Current  types.NodeID   `json:"current" yaml:"current" toml:"current"`
	}

	// Delta is the result of reconciling a current snapshot against a
	// reference snapshot. The three sets are disjoint and sorted by path.
	Delta struct {
		Changed []Change         `json:"changed" yaml:"changed" toml:"changed"`
		Added   []types.NodePath `json:"added" yaml:"added" toml:"added"`
		Removed []types.NodePath `json:"removed" yaml:"removed" toml:"removed"`
	}
)

// Reconcile compares current against reference. Paths only in current are
// added, paths only in reference are removed, and paths in both with
// different ids are changed.
func Reconcile(current, reference Snapshot) Delta {
	var d Delta
	for _, path := range current.Paths() {
		cur := current.ids[path]
		prev, ok := reference.ids[path]
		switch {
		case !ok:
			d.Added = append(d.Added, path)
		case prev != cur:
			d.Changed = append(d.Changed, Change{Path: path, Previous: prev, Current: cur})
		}
	}
	for _, path := range reference.Paths() {
		if _, ok := current.ids[path]; !ok {
			d.Removed = append(d.Removed, path)
		}
	}
	return d
}

// Empty reports whether the snapshots matched exactly.
func (d Delta) Empty() bool {
	return len(d.Changed) == 0 && len(d.Added) == 0 && len(d.Removed) == 0
}

// ChangedPaths returns the paths of the changed entries.
func (d Delta) ChangedPaths() []types.NodePath {
	out := make([]types.NodePath, 0, len(d.Changed))
	for _, c := range d.Changed {
		out = append(out, c.Path)
	}
	return out
}

// UnifiedDiff renders the two snapshots as "path id" lines and returns their
// unified diff, or "" when they are identical.
func UnifiedDiff(current, reference Snapshot, currentName, referenceName string) (string, error) {
	a := snapshotLines(reference)
	b := snapshotLines(current)
	if slices.Equal(a, b) {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        a,
		B:        b,
		FromFile: referenceName,
		ToFile:   currentName,
		Context:  2,
	})
}

func snapshotLines(s Snapshot) []string {
	out := make([]string, 0, s.Len())
	for _, r := range s.Records() {
		var b strings.Builder
		b.WriteString(string(r.Path))
		b.WriteByte(' ')
		b.WriteString(string(r.ID))
		b.WriteByte('\n')
		out = append(out, b.String())
	}
	return out
}
