// SPDX-License-Identifier: MPL-2.0

// Package refedit finds and removes reference edits that must not exist: edits
// landing on attributes of a disallowed set, on transform or camera nodes
// inside a reference's own namespace.
package refedit

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/pubcheck/pubcheck/internal/namespace"
	"github.com/pubcheck/pubcheck/internal/scene"
	"github.com/pubcheck/pubcheck/pkg/types"
)

type (
	// AttributeSet is a static set of attribute names.
	AttributeSet map[string]struct{}

	// NodeTyper resolves the type of a node.
	NodeTyper interface {
		NodeType(node types.NodePath) (scene.NodeType, error)
	}

	// EditLog is the part of the host the filter and removal step need.
	EditLog interface {
		NodeTyper
		ReferenceNamespace(ref types.NodePath) (string, error)
		ReferenceEdits(ref types.NodePath, kind scene.EditKind) ([]scene.Edit, error)
		RemoveReferenceEdits(ref types.NodePath, plug scene.Plug, kind scene.EditKind) error
	}
)

// AllowedNodeTypes are the node types whose edits are subject to filtering.
var AllowedNodeTypes = []scene.NodeType{scene.TypeTransform, scene.TypeCamera}

// NewAttributeSet builds an AttributeSet from names.
func NewAttributeSet(names ...string) AttributeSet {
	s := make(AttributeSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// DefaultAttributes returns the camera transform attributes that references
// must never override.
func DefaultAttributes() AttributeSet {
	return NewAttributeSet(
		"translate", "translateX", "translateY", "translateZ",
		"rotate", "rotateX", "rotateY", "rotateZ",
		"scale", "scaleX", "scaleY", "scaleZ",
		"shear", "shearXY", "shearXZ", "shearYZ",
		"rotateAxis", "rotateAxisX", "rotateAxisY", "rotateAxisZ",
		"rotateOrder", "offsetParentMatrix", "focalLength",
	)
}

// Contains reports whether name is in the set.
func (s AttributeSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the set's names sorted.
func (s AttributeSet) Names() []string {
	return slices.Sorted(maps.Keys(s))
}

// Disallowed returns the destination plugs of edits that land in scope on an
// allowed node type and a disallowed attribute. For connect and disconnect
// edits only the destination side is considered. The result is sorted and
// deduplicated. Type lookups are memoized for the duration of the call.
func Disallowed(edits []scene.Edit, scope string, typer NodeTyper, attrs AttributeSet) []scene.Plug {
	nodeTypes := make(map[types.NodePath]scene.NodeType)
	found := make(map[scene.Plug]struct{})

	for _, e := range edits {
		plug := e.Destination()
		node, attr := plug.Node(), plug.Attribute()

		if namespace.Of(node) != scope {
			continue
		}

		t, ok := nodeTypes[node]
		if !ok {
			var err error
			if t, err = typer.NodeType(node); err != nil {
				t = ""
			}
			nodeTypes[node] = t
		}
		if !slices.Contains(AllowedNodeTypes, t) {
			continue
		}

		if !attrs.Contains(attr) {
			continue
		}
		found[plug] = struct{}{}
	}

	return slices.Sorted(maps.Keys(found))
}

// Query gathers every successful edit recorded on ref and returns the
// disallowed destination plugs within the reference's namespace.
func Query(host EditLog, ref types.NodePath, attrs AttributeSet) ([]scene.Plug, error) {
	var edits []scene.Edit
	for _, kind := range scene.AllEditKinds() {
		e, err := host.ReferenceEdits(ref, kind)
		if err != nil {
			return nil, fmt.Errorf("query %s edits of %s: %w", kind, ref, err)
		}
		edits = append(edits, e...)
	}

	ns, err := host.ReferenceNamespace(ref)
	if err != nil {
		return nil, fmt.Errorf("query namespace of %s: %w", ref, err)
	}
	return Disallowed(edits, strings.TrimLeft(ns, namespace.Separator), host, attrs), nil
}

// Remove issues a removal for every edit kind on each plug. Failures are
// collected and the remaining plugs are still processed.
func Remove(host EditLog, ref types.NodePath, plugs []scene.Plug) error {
	var errs []error
	for _, plug := range plugs {
		for _, kind := range scene.AllEditKinds() {
			if err := host.RemoveReferenceEdits(ref, plug, kind); err != nil {
				errs = append(errs, fmt.Errorf("remove %s edits to %s on %s: %w", kind, plug, ref, err))
			}
		}
	}
	return errors.Join(errs...)
}
