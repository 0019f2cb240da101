// SPDX-License-Identifier: MPL-2.0

// Package refrepair restores the out_SET and controls_SET members of an
// animation instance by searching the references its members come from.
//
// The search runs an ordered list of strategies to collect candidate
// references, then walks the candidates until one supplies both sets. The
// outcome is a tagged Result: Found or Exhausted.
package refrepair

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/pubcheck/pubcheck/internal/scene"
	"github.com/pubcheck/pubcheck/pkg/types"
)

const (
	// OutSetSuffix identifies the set holding the exported hierarchy.
	OutSetSuffix = "out_SET"
	// ControlsSetSuffix identifies the set holding the animation controls.
	ControlsSetSuffix = "controls_SET"
)

var associatedPlugPattern = regexp.MustCompile(`\.associatedNode\[\d+\]$`)

type (
	// Scene is the part of the host the search needs.
	Scene interface {
		NodeType(node types.NodePath) (scene.NodeType, error)
		List(q scene.Query) []types.NodePath
		SetMembers(set types.NodePath) ([]types.NodePath, error)
		AssociatedPlugs(nodes []types.NodePath) []scene.Plug
		ReferenceOf(node types.NodePath) (types.NodePath, bool)
		ReferenceNodes(ref types.NodePath) ([]types.NodePath, error)
	}

	// Strategy finds reference nodes related to the members of a set.
	Strategy struct {
		Name string
		Find func(s Scene, members []types.NodePath) []types.NodePath
	}

	// Result is the outcome of a search: Found or Exhausted.
	Result interface {
		isResult()
		String() string
	}

	// Found means a reference supplied both required sets. Reference is
	// empty when the sets were already among the root's members.
	Found struct {
		Reference   types.NodePath `json:"reference,omitempty" yaml:"reference,omitempty"`
		OutSet      types.NodePath `json:"out_set" yaml:"out_set"`
		ControlsSet types.NodePath `json:"controls_set" yaml:"controls_set"`
	}

	// Exhausted means no candidate reference supplied both sets.
	Exhausted struct {
		Tried []types.NodePath `json:"tried" yaml:"tried"`
	}
)

// Strategies returns the reference-finding strategies in the order they run.
func Strategies() []Strategy {
	return []Strategy{
		{Name: "backlink", Find: ByBacklink},
		{Name: "reference-members", Find: ByReferenceMembers},
		{Name: "referenced-members", Find: ByReferencedMembers},
	}
}

// ByBacklink follows associatedNode connections from members to the
// reference node that owns them. A root group is usually not referenced
// itself but is connected to its reference this way.
func ByBacklink(s Scene, members []types.NodePath) []types.NodePath {
	var out []types.NodePath
	for _, plug := range s.AssociatedPlugs(members) {
		if !associatedPlugPattern.MatchString(string(plug)) {
			continue
		}
		ref := plug.Node()
		if t, err := s.NodeType(ref); err != nil || t != scene.TypeReference {
			continue
		}
		out = append(out, ref)
	}
	return out
}

// ByReferenceMembers returns the members that are reference nodes.
func ByReferenceMembers(s Scene, members []types.NodePath) []types.NodePath {
	if len(members) == 0 {
		return nil
	}
	return s.List(scene.Query{Nodes: members, Types: []scene.NodeType{scene.TypeReference}})
}

// ByReferencedMembers resolves the reference of every referenced member.
func ByReferencedMembers(s Scene, members []types.NodePath) []types.NodePath {
	var out []types.NodePath
	for _, m := range members {
		if ref, ok := s.ReferenceOf(m); ok {
			out = append(out, ref)
		}
	}
	return out
}

// FindReferences runs every strategy against the members of root and returns
// the references found, deduplicated in discovery order.
func FindReferences(s Scene, root types.NodePath) ([]types.NodePath, []string, error) {
	members, err := s.SetMembers(root)
	if err != nil {
		return nil, nil, err
	}

	var (
		refs  []types.NodePath
		trail []string
	)
	for _, st := range Strategies() {
		found := st.Find(s, members)
		trail = append(trail, fmt.Sprintf("%s: %s", st.Name, joinPaths(found)))
		for _, ref := range found {
			if !slices.Contains(refs, ref) {
				refs = append(refs, ref)
			}
		}
	}
	return refs, trail, nil
}

// FindSets returns the first out_SET and controls_SET among nodes, matched by
// name suffix on object sets only.
func FindSets(s Scene, nodes []types.NodePath) (out, controls types.NodePath) {
	if len(nodes) == 0 {
		return "", ""
	}
	for _, n := range s.List(scene.Query{Nodes: nodes, Types: []scene.NodeType{scene.TypeObjectSet}}) {
		switch {
		case out == "" && strings.HasSuffix(string(n), OutSetSuffix):
			out = n
		case controls == "" && strings.HasSuffix(string(n), ControlsSetSuffix):
			controls = n
		}
		if out != "" && controls != "" {
			break
		}
	}
	return out, controls
}

// Search walks refs in order and stops at the first reference whose nodes
// contain both required sets.
func Search(s Scene, refs []types.NodePath) (Result, []string) {
	var (
		tried []types.NodePath
		trail []string
	)
	for _, ref := range refs {
		if slices.Contains(tried, ref) {
			continue
		}
		tried = append(tried, ref)

		nodes, err := s.ReferenceNodes(ref)
		if err != nil {
			trail = append(trail, fmt.Sprintf("%s: %v", ref, err))
			continue
		}
		out, controls := FindSets(s, nodes)
		if out != "" && controls != "" {
			trail = append(trail, fmt.Sprintf("%s: found %s, %s", ref, out, controls))
			return Found{Reference: ref, OutSet: out, ControlsSet: controls}, trail
		}
		trail = append(trail, fmt.Sprintf("%s: missing sets (out=%q controls=%q)", ref, out, controls))
	}
	return Exhausted{Tried: tried}, trail
}

func (Found) isResult() {}

func (f Found) String() string {
	if f.Reference == "" {
		return fmt.Sprintf("found %s, %s among members", f.OutSet, f.ControlsSet)
	}
	return fmt.Sprintf("found %s, %s in %s", f.OutSet, f.ControlsSet, f.Reference)
}

func (Exhausted) isResult() {}

func (e Exhausted) String() string {
	return "exhausted after " + joinPaths(e.Tried)
}

func joinPaths(paths []types.NodePath) string {
	if len(paths) == 0 {
		return "none"
	}
	parts := make([]string, len(paths))
	for i, p := range paths {
		parts[i] = string(p)
	}
	return strings.Join(parts, ", ")
}
