// SPDX-License-Identifier: MPL-2.0

package scene

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/pubcheck/pubcheck/pkg/types"
)

// ErrAttributeNotFound is returned when a plug names an attribute the node does not carry.
var ErrAttributeNotFound = errors.New("attribute not found")

type (
	// NodeSpec describes one node of an in-memory scene.
	NodeSpec struct {
		Path         types.NodePath `json:"path"`
		Type         NodeType       `json:"type"`
		ID           types.NodeID   `json:"id,omitempty"`
		Attrs        map[string]any `json:"attrs,omitempty"`
		Reference    types.NodePath `json:"reference,omitempty"`
		Intermediate bool           `json:"intermediate,omitempty"`
		Locked       bool           `json:"locked,omitempty"`
		Plugin       string         `json:"plugin,omitempty"`
	}

	// EditSpec describes one recorded reference edit.
	EditSpec struct {
		Kind   EditKind `json:"kind"`
		Source Plug     `json:"source,omitempty"`
		Target Plug     `json:"target"`
	}

	// ReferenceSpec describes a reference node, its namespace and edit log.
	// Associated lists the nodes connected to the reference's associatedNode
	// array, in index order.
	ReferenceSpec struct {
		Node       types.NodePath   `json:"node"`
		Namespace  string           `json:"namespace"`
		Loaded     bool             `json:"loaded"`
		Associated []types.NodePath `json:"associated,omitempty"`
		Edits      []EditSpec       `json:"edits,omitempty"`
	}

	// SetSpec describes an object set and its raw entries.
	SetSpec struct {
		Name    types.NodePath `json:"name"`
		Entries []string       `json:"entries,omitempty"`
	}

	// Description is the serializable form of a Memory scene.
	Description struct {
		Nodes          []NodeSpec      `json:"nodes"`
		References     []ReferenceSpec `json:"references,omitempty"`
		Sets           []SetSpec       `json:"sets,omitempty"`
		UnknownPlugins []string        `json:"unknown_plugins,omitempty"`
	}

	// Memory is an in-memory Host. It is not safe for concurrent use; the
	// publish pass is single-threaded.
	Memory struct {
		nodes          map[types.NodePath]*NodeSpec
		order          []types.NodePath
		refs           map[types.NodePath]*ReferenceSpec
		refOrder       []types.NodePath
		sets           map[types.NodePath]*SetSpec
		unknownPlugins []string
	}
)

var _ Host = (*Memory)(nil)

// NewMemory builds a Memory scene from a description. Reference and set
// nodes are created implicitly when the description does not list them.
func NewMemory(d Description) (*Memory, error) {
	m := &Memory{
		nodes: make(map[types.NodePath]*NodeSpec, len(d.Nodes)),
		refs:  make(map[types.NodePath]*ReferenceSpec, len(d.References)),
		sets:  make(map[types.NodePath]*SetSpec, len(d.Sets)),
	}

	for i := range d.Nodes {
		n := d.Nodes[i]
		if ok, errs := n.Path.IsValid(); !ok {
			return nil, fmt.Errorf("nodes[%d]: %w", i, errs[0])
		}
		if _, dup := m.nodes[n.Path]; dup {
			return nil, fmt.Errorf("nodes[%d]: duplicate node %q", i, n.Path)
		}
		n.Attrs = maps.Clone(n.Attrs)
		m.addNode(&n)
	}

	for i := range d.References {
		r := d.References[i]
		if ok, errs := r.Node.IsValid(); !ok {
			return nil, fmt.Errorf("references[%d]: %w", i, errs[0])
		}
		r.Associated = slices.Clone(r.Associated)
		r.Edits = slices.Clone(r.Edits)
		m.refs[r.Node] = &r
		m.refOrder = append(m.refOrder, r.Node)
		if _, ok := m.nodes[r.Node]; !ok {
			m.addNode(&NodeSpec{Path: r.Node, Type: TypeReference})
		}
	}

	for i := range d.Sets {
		s := d.Sets[i]
		if ok, errs := s.Name.IsValid(); !ok {
			return nil, fmt.Errorf("sets[%d]: %w", i, errs[0])
		}
		s.Entries = slices.Clone(s.Entries)
		m.sets[s.Name] = &s
		if _, ok := m.nodes[s.Name]; !ok {
			m.addNode(&NodeSpec{Path: s.Name, Type: TypeObjectSet})
		}
	}

	for path, n := range m.nodes {
		if n.Reference == "" {
			continue
		}
		if _, ok := m.refs[n.Reference]; !ok {
			return nil, fmt.Errorf("node %q: unknown reference %q", path, n.Reference)
		}
	}

	m.unknownPlugins = slices.Clone(d.UnknownPlugins)
	return m, nil
}

// Describe returns the current scene state in serializable form.
func (m *Memory) Describe() Description {
	d := Description{UnknownPlugins: slices.Clone(m.unknownPlugins)}
	for _, path := range m.order {
		n := *m.nodes[path]
		n.Attrs = maps.Clone(n.Attrs)
		d.Nodes = append(d.Nodes, n)
	}
	for _, path := range m.refOrder {
		r := *m.refs[path]
		r.Associated = slices.Clone(r.Associated)
		r.Edits = slices.Clone(r.Edits)
		d.References = append(d.References, r)
	}
	for _, path := range m.order {
		if s, ok := m.sets[path]; ok {
			c := *s
			c.Entries = slices.Clone(s.Entries)
			d.Sets = append(d.Sets, c)
		}
	}
	return d
}

func (m *Memory) addNode(n *NodeSpec) {
	m.nodes[n.Path] = n
	m.order = append(m.order, n.Path)
}

// lookup returns a node only when it is visible, i.e. not hidden behind an
// unloaded reference.
func (m *Memory) lookup(path types.NodePath) (*NodeSpec, bool) {
	n, ok := m.nodes[path]
	if !ok {
		return nil, false
	}
	if n.Reference != "" && !m.refs[n.Reference].Loaded {
		return nil, false
	}
	return n, true
}

func (m *Memory) mustLookup(path types.NodePath) (*NodeSpec, error) {
	n, ok := m.lookup(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, path)
	}
	return n, nil
}

// Exists reports whether the node exists and is visible.
func (m *Memory) Exists(node types.NodePath) bool {
	_, ok := m.lookup(node)
	return ok
}

// NodeType returns the node's type.
func (m *Memory) NodeType(node types.NodePath) (NodeType, error) {
	n, err := m.mustLookup(node)
	if err != nil {
		return "", err
	}
	return n.Type, nil
}

// List returns the visible nodes selected by q in scene order.
func (m *Memory) List(q Query) []types.NodePath {
	var wanted map[types.NodePath]bool
	if len(q.Nodes) > 0 {
		wanted = make(map[types.NodePath]bool, len(q.Nodes))
		for _, n := range q.Nodes {
			wanted[n] = true
		}
	}

	var out []types.NodePath
	for _, path := range m.order {
		n, ok := m.lookup(path)
		if !ok {
			continue
		}
		if wanted != nil && !wanted[path] && !(q.Descendants && m.underAny(path, q.Nodes)) {
			continue
		}
		if q.NoIntermediate && n.Intermediate {
			continue
		}
		if len(q.Types) > 0 && !slices.ContainsFunc(q.Types, func(t NodeType) bool { return Matches(path, n.Type, t) }) {
			continue
		}
		out = append(out, path)
	}
	return out
}

func (m *Memory) underAny(path types.NodePath, roots []types.NodePath) bool {
	for _, root := range roots {
		if root.IsDAG() && path.IsDescendantOf(root) {
			return true
		}
	}
	return false
}

// ID returns the node's id, or the zero id when unset or missing.
func (m *Memory) ID(node types.NodePath) types.NodeID {
	n, ok := m.lookup(node)
	if !ok {
		return ""
	}
	return n.ID
}

// SetID overwrites the node's id.
func (m *Memory) SetID(node types.NodePath, id types.NodeID) error {
	n, err := m.mustLookup(node)
	if err != nil {
		return err
	}
	if ok, errs := id.IsValid(); !ok {
		return errs[0]
	}
	n.ID = id
	return nil
}

// Attr returns the value of a plug.
func (m *Memory) Attr(plug Plug) (any, error) {
	n, err := m.mustLookup(plug.Node())
	if err != nil {
		return nil, err
	}
	v, ok := n.Attrs[plug.Attribute()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAttributeNotFound, plug)
	}
	return v, nil
}

// SetAttr sets the value of a plug, creating the attribute when needed.
func (m *Memory) SetAttr(plug Plug, value any) error {
	n, err := m.mustLookup(plug.Node())
	if err != nil {
		return err
	}
	if n.Attrs == nil {
		n.Attrs = make(map[string]any)
	}
	n.Attrs[plug.Attribute()] = value
	return nil
}

func (m *Memory) set(name types.NodePath) (*SetSpec, error) {
	if _, err := m.mustLookup(name); err != nil {
		return nil, err
	}
	s, ok := m.sets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotASet, name)
	}
	return s, nil
}

// SetMembers returns the visible nodes in a set, resolving plug entries to
// their node.
func (m *Memory) SetMembers(set types.NodePath) ([]types.NodePath, error) {
	s, err := m.set(set)
	if err != nil {
		return nil, err
	}
	var out []types.NodePath
	seen := make(map[types.NodePath]bool, len(s.Entries))
	for _, entry := range s.Entries {
		node := Plug(entry).Node()
		if seen[node] || !m.Exists(node) {
			continue
		}
		seen[node] = true
		out = append(out, node)
	}
	return out, nil
}

// SetEntries returns the raw entries of a set.
func (m *Memory) SetEntries(set types.NodePath) ([]string, error) {
	s, err := m.set(set)
	if err != nil {
		return nil, err
	}
	return slices.Clone(s.Entries), nil
}

// AddToSet appends entries that are not already in the set.
func (m *Memory) AddToSet(set types.NodePath, entries ...string) error {
	s, err := m.set(set)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !slices.Contains(s.Entries, e) {
			s.Entries = append(s.Entries, e)
		}
	}
	return nil
}

// RemoveFromSet removes entries from the set. Missing entries are ignored.
func (m *Memory) RemoveFromSet(set types.NodePath, entries ...string) error {
	s, err := m.set(set)
	if err != nil {
		return err
	}
	s.Entries = slices.DeleteFunc(s.Entries, func(e string) bool { return slices.Contains(entries, e) })
	return nil
}

func (m *Memory) reference(ref types.NodePath) (*ReferenceSpec, error) {
	r, ok := m.refs[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotAReference, ref)
	}
	return r, nil
}

// ReferenceNamespace returns the namespace of the reference, with the
// leading root separator the host reports (":rig").
func (m *Memory) ReferenceNamespace(ref types.NodePath) (string, error) {
	r, err := m.reference(ref)
	if err != nil {
		return "", err
	}
	return ":" + r.Namespace, nil
}

// ReferenceNodes returns the nodes sourced from the reference. Unloaded
// references contribute no nodes.
func (m *Memory) ReferenceNodes(ref types.NodePath) ([]types.NodePath, error) {
	r, err := m.reference(ref)
	if err != nil {
		return nil, err
	}
	if !r.Loaded {
		return nil, nil
	}
	var out []types.NodePath
	for _, path := range m.order {
		if m.nodes[path].Reference == ref {
			out = append(out, path)
		}
	}
	return out, nil
}

// ReferenceLoaded reports whether the reference is loaded.
func (m *Memory) ReferenceLoaded(ref types.NodePath) (bool, error) {
	r, err := m.reference(ref)
	if err != nil {
		return false, err
	}
	return r.Loaded, nil
}

// LoadReference loads the reference, making its nodes visible.
func (m *Memory) LoadReference(ref types.NodePath) error {
	r, err := m.reference(ref)
	if err != nil {
		return err
	}
	r.Loaded = true
	return nil
}

// ReferenceOf returns the reference node the node is sourced from.
func (m *Memory) ReferenceOf(node types.NodePath) (types.NodePath, bool) {
	n, ok := m.lookup(node)
	if !ok || n.Reference == "" {
		return "", false
	}
	return n.Reference, true
}

// AssociatedPlugs returns the associatedNode plugs the given nodes connect into.
func (m *Memory) AssociatedPlugs(nodes []types.NodePath) []Plug {
	var out []Plug
	for _, ref := range m.refOrder {
		for i, assoc := range m.refs[ref].Associated {
			if slices.Contains(nodes, assoc) {
				out = append(out, PlugOf(ref, fmt.Sprintf("associatedNode[%d]", i)))
			}
		}
	}
	return out
}

// ReferenceEdits returns the successful edits of one kind recorded on the reference.
func (m *Memory) ReferenceEdits(ref types.NodePath, kind EditKind) ([]Edit, error) {
	r, err := m.reference(ref)
	if err != nil {
		return nil, err
	}
	var out []Edit
	for _, e := range r.Edits {
		if e.Kind == kind {
			out = append(out, Edit{Kind: e.Kind, Source: e.Source, Target: e.Target})
		}
	}
	return out, nil
}

// RemoveReferenceEdits removes edits of kind that touch plug on either side.
func (m *Memory) RemoveReferenceEdits(ref types.NodePath, plug Plug, kind EditKind) error {
	r, err := m.reference(ref)
	if err != nil {
		return err
	}
	r.Edits = slices.DeleteFunc(r.Edits, func(e EditSpec) bool {
		return e.Kind == kind && (e.Target == plug || e.Source == plug)
	})
	return nil
}

// UnknownPlugins returns the plug-ins recorded as required but unavailable.
func (m *Memory) UnknownPlugins() []string {
	return slices.Clone(m.unknownPlugins)
}

// UnknownNodePlugin returns the plug-in an unknown node belongs to.
func (m *Memory) UnknownNodePlugin(node types.NodePath) (string, error) {
	n, err := m.mustLookup(node)
	if err != nil {
		return "", err
	}
	if n.Type != TypeUnknown {
		return "", fmt.Errorf("node %s is not an unknown node (type %s)", node, n.Type)
	}
	return n.Plugin, nil
}

// RemoveUnknownPlugin forgets an unknown plug-in requirement. It fails while
// nodes of that plug-in remain in the scene.
func (m *Memory) RemoveUnknownPlugin(name string) error {
	if !slices.Contains(m.unknownPlugins, name) {
		return fmt.Errorf("unknown plug-in %q is not recorded in the scene", name)
	}
	for _, path := range m.order {
		if n := m.nodes[path]; n.Type == TypeUnknown && n.Plugin == name {
			return fmt.Errorf("%w: %s (%s)", ErrPluginInUse, name, path)
		}
	}
	m.unknownPlugins = slices.DeleteFunc(m.unknownPlugins, func(p string) bool { return p == name })
	return nil
}

// Delete unlocks and removes the node, its DAG descendants and every set
// entry pointing at them.
func (m *Memory) Delete(node types.NodePath) error {
	if _, err := m.mustLookup(node); err != nil {
		return err
	}
	removed := make(map[types.NodePath]bool)
	m.order = slices.DeleteFunc(m.order, func(p types.NodePath) bool {
		if p == node || (node.IsDAG() && p.IsDescendantOf(node)) {
			removed[p] = true
			return true
		}
		return false
	})
	for p := range removed {
		delete(m.nodes, p)
		delete(m.sets, p)
	}
	for _, s := range m.sets {
		s.Entries = slices.DeleteFunc(s.Entries, func(e string) bool { return removed[Plug(e).Node()] })
	}
	return nil
}
