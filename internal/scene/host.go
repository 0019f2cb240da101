// SPDX-License-Identifier: MPL-2.0

// Package scene defines the capability surface the publish plug-ins need from
// a host scene graph, and an in-memory implementation of it.
//
// Plug-ins never talk to a host directly: they query nodes, ids, sets,
// references and reference edits through Host, so every algorithm can run
// against Memory in tests and from the command line.
package scene

import (
	"errors"
	"strings"

	"github.com/pubcheck/pubcheck/pkg/types"
)

const (
	// TypeTransform is a DAG transform node.
	TypeTransform NodeType = "transform"
	// TypeCamera is a camera shape.
	TypeCamera NodeType = "camera"
	// TypeMesh is a polygon mesh shape.
	TypeMesh NodeType = "mesh"
	// TypeNurbsCurve is a curve shape.
	TypeNurbsCurve NodeType = "nurbsCurve"
	// TypeLocator is a locator shape.
	TypeLocator NodeType = "locator"
	// TypeObjectSet is a set node.
	TypeObjectSet NodeType = "objectSet"
	// TypeReference is a reference node.
	TypeReference NodeType = "reference"
	// TypeUnknown is a node whose plug-in is not available.
	TypeUnknown NodeType = "unknown"
	// TypeRenderGlobals holds the scene render settings.
	TypeRenderGlobals NodeType = "renderGlobals"
	// TypeArnoldOptions holds the Arnold renderer options.
	TypeArnoldOptions NodeType = "aiOptions"

	// TypeShape matches every shape type in queries.
	TypeShape NodeType = "shape"
	// TypeDAGNode matches every node in the hierarchy in queries.
	TypeDAGNode NodeType = "dagNode"

	// EditConnect records a connectAttr edit.
	EditConnect EditKind = "connectAttr"
	// EditDisconnect records a disconnectAttr edit.
	EditDisconnect EditKind = "disconnectAttr"
	// EditSetAttr records a setAttr edit.
	EditSetAttr EditKind = "setAttr"
)

var (
	// ErrNodeNotFound is returned when a node does not exist (or is hidden by an unloaded reference).
	ErrNodeNotFound = errors.New("node not found")
	// ErrNotAReference is returned when a reference query targets a non-reference node.
	ErrNotAReference = errors.New("not a reference node")
	// ErrNotASet is returned when a set query targets a non-set node.
	ErrNotASet = errors.New("not an object set")
	// ErrPluginInUse is returned when an unknown plug-in still has nodes in the scene.
	ErrPluginInUse = errors.New("plug-in still has nodes in the scene")

	shapeTypes = map[NodeType]bool{
		TypeMesh:       true,
		TypeNurbsCurve: true,
		TypeCamera:     true,
		TypeLocator:    true,
	}
)

type (
	// NodeType is the host type name of a node.
	NodeType string

	// EditKind is the command that produced a reference edit.
	EditKind string

	// Plug addresses an attribute on a node as "node.attribute".
	Plug string

	// Edit is a recorded modification against a referenced sub-scene.
	// Source is only set for connect and disconnect edits.
	Edit struct {
		Kind   EditKind
		Source Plug
		Target Plug
	}

	// Query selects nodes for Host.List.
	Query struct {
		// Nodes restricts the result to these nodes. Empty means the whole scene.
		Nodes []types.NodePath
		// Descendants also includes every DAG descendant of Nodes.
		Descendants bool
		// Types keeps only nodes matching one of these types. TypeShape and
		// TypeDAGNode act as type families.
		Types []NodeType
		// NoIntermediate drops intermediate (history) shapes.
		NoIntermediate bool
	}

	// Host is the scene capability interface consumed by plug-ins.
	Host interface {
		Exists(node types.NodePath) bool
		NodeType(node types.NodePath) (NodeType, error)
		List(q Query) []types.NodePath

		ID(node types.NodePath) types.NodeID
		SetID(node types.NodePath, id types.NodeID) error
		Attr(plug Plug) (any, error)
		SetAttr(plug Plug, value any) error

		// SetMembers returns the nodes in a set; plug entries resolve to their node.
		SetMembers(set types.NodePath) ([]types.NodePath, error)
		// SetEntries returns raw set entries, including plug entries.
		SetEntries(set types.NodePath) ([]string, error)
		AddToSet(set types.NodePath, entries ...string) error
		RemoveFromSet(set types.NodePath, entries ...string) error

		ReferenceNamespace(ref types.NodePath) (string, error)
		ReferenceNodes(ref types.NodePath) ([]types.NodePath, error)
		ReferenceLoaded(ref types.NodePath) (bool, error)
		LoadReference(ref types.NodePath) error
		// ReferenceOf returns the reference node a node is sourced from.
		ReferenceOf(node types.NodePath) (types.NodePath, bool)
		// AssociatedPlugs returns the reference plugs the given nodes connect
		// into (e.g. "rigRN.associatedNode[0]").
		AssociatedPlugs(nodes []types.NodePath) []Plug
		ReferenceEdits(ref types.NodePath, kind EditKind) ([]Edit, error)
		// RemoveReferenceEdits removes edits of kind touching plug. It is a
		// no-op when nothing matches.
		RemoveReferenceEdits(ref types.NodePath, plug Plug, kind EditKind) error

		UnknownPlugins() []string
		UnknownNodePlugin(node types.NodePath) (string, error)
		RemoveUnknownPlugin(name string) error
		// Delete unlocks and deletes a node together with its DAG descendants.
		Delete(node types.NodePath) error
	}
)

// AllEditKinds lists every edit kind in the order the host reports them.
func AllEditKinds() []EditKind {
	return []EditKind{EditConnect, EditDisconnect, EditSetAttr}
}

// IsShape reports whether t is one of the shape types.
func (t NodeType) IsShape() bool { return shapeTypes[t] }

// String returns the string representation of the NodeType.
func (t NodeType) String() string { return string(t) }

// PlugOf builds a plug from a node and attribute name.
func PlugOf(node types.NodePath, attr string) Plug {
	return Plug(string(node) + "." + attr)
}

// Node returns the node part of the plug.
func (p Plug) Node() types.NodePath {
	node, _, _ := strings.Cut(string(p), ".")
	return types.NodePath(node)
}

// Attribute returns the attribute part of the plug, or "" when absent.
func (p Plug) Attribute() string {
	_, attr, _ := strings.Cut(string(p), ".")
	return attr
}

// String returns the string representation of the Plug.
func (p Plug) String() string { return string(p) }

// Destination returns the plug an edit lands on.
func (e Edit) Destination() Plug { return e.Target }

// Matches reports whether a node of type t satisfies the query type want.
func Matches(node types.NodePath, t NodeType, want NodeType) bool {
	switch want {
	case TypeShape:
		return t.IsShape()
	case TypeDAGNode:
		return node.IsDAG()
	default:
		return t == want
	}
}
