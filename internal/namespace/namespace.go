// SPDX-License-Identifier: MPL-2.0

// Package namespace strips namespace prefixes from node paths and detects
// distinct nodes that collapse onto the same path once stripped.
package namespace

import (
	"maps"
	"slices"
	"strings"

	"github.com/pubcheck/pubcheck/pkg/types"
)

// Separator separates nested namespaces and the node name ("ns:sub:name").
const Separator = ":"

// Collision is a stripped path shared by two or more original paths.
type Collision struct {
	Stripped types.NodePath   `json:"stripped" yaml:"stripped" toml:"stripped"`
	Paths    []types.NodePath `json:"paths" yaml:"paths" toml:"paths"`
	// Reported is false when the direct parent collides as well. Such
	// collisions are still invalid but left out of warnings.
	Reported bool `json:"reported" yaml:"reported" toml:"reported"`
}

// Strip removes every namespace from each segment of a scene path and drops
// the leading root separator: "|aa:bb:cc|hello:world|foo:bar" becomes
// "cc|world|bar".
func Strip(path types.NodePath) types.NodePath {
	segments := strings.Split(strings.TrimPrefix(string(path), types.ScenePathSeparator), types.ScenePathSeparator)
	for i, seg := range segments {
		if idx := strings.LastIndex(seg, Separator); idx >= 0 {
			segments[i] = seg[idx+1:]
		}
	}
	return types.NodePath(strings.Join(segments, types.ScenePathSeparator))
}

// Of returns the namespace of the last segment of a path, without the
// leading root namespace separator. A name without namespace returns the
// name itself, which never matches a real namespace scope.
func Of(path types.NodePath) string {
	leaf := path.Leaf()
	idx := strings.LastIndex(leaf, Separator)
	if idx < 0 {
		return leaf
	}
	return strings.TrimPrefix(leaf[:idx], Separator)
}

// Collisions groups paths by their stripped form and returns every group
// with at least two distinct originals, sorted by stripped path.
func Collisions(paths []types.NodePath) []Collision {
	groups := make(map[types.NodePath][]types.NodePath)
	for _, p := range paths {
		key := Strip(p)
		if !slices.Contains(groups[key], p) {
			groups[key] = append(groups[key], p)
		}
	}

	var out []Collision
	for _, key := range slices.Sorted(maps.Keys(groups)) {
		members := groups[key]
		if len(members) < 2 {
			continue
		}
		slices.Sort(members)
		out = append(out, Collision{
			Stripped: key,
			Paths:    members,
			Reported: !parentCollides(key, groups),
		})
	}
	return out
}

func parentCollides(stripped types.NodePath, groups map[types.NodePath][]types.NodePath) bool {
	idx := strings.LastIndex(string(stripped), types.ScenePathSeparator)
	if idx < 0 {
		return false
	}
	return len(groups[stripped[:idx]]) > 1
}

// Invalid flattens collisions into the original paths they involve, sorted.
func Invalid(collisions []Collision) []types.NodePath {
	var out []types.NodePath
	for _, c := range collisions {
		out = append(out, c.Paths...)
	}
	slices.Sort(out)
	return out
}
