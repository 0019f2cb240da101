// SPDX-License-Identifier: MPL-2.0

package plugins

import (
	"context"
	"strings"

	"github.com/pubcheck/pubcheck/internal/publish"
	"github.com/pubcheck/pubcheck/internal/scene"
	"github.com/pubcheck/pubcheck/pkg/types"
)

const (
	outSetSuffix = "out_SET"
	// OutHierarchyKey is the instance data key of the rig output hierarchy.
	OutHierarchyKey = "out_hierarchy"
)

type (
	// CollectInstanceMembers fills SetMembers and Members of every instance,
	// including inactive ones so cross-instance checks can see them.
	CollectInstanceMembers struct{ base }

	// CollectAnimationOutHierarchy records the rig output hierarchy of
	// animation instances: the out_SET members and their descendants.
	CollectAnimationOutHierarchy struct{ base }
)

// NewCollectInstanceMembers returns the member collector.
func NewCollectInstanceMembers() *CollectInstanceMembers {
	return &CollectInstanceMembers{base{
		name:  "CollectInstanceMembers",
		label: "Collect Instance Members",
		order: publish.CollectorOrder,
	}}
}

// Collect reads the set members of every instance and expands them to
// their descendants.
func (c *CollectInstanceMembers) Collect(_ context.Context, pass *publish.Pass) error {
	for _, inst := range pass.Instances {
		collectMembers(pass, inst)
	}
	return nil
}

func collectMembers(pass *publish.Pass, inst *publish.Instance) {
	members, err := pass.Host.SetMembers(inst.Node)
	if err != nil {
		pass.Logger().Warn("Cannot read instance members", "instance", inst.Name, "err", err)
		inst.SetMembers, inst.Members = nil, nil
		return
	}
	inst.SetMembers = members
	if len(members) == 0 {
		inst.Members = nil
		return
	}
	inst.Members = pass.Host.List(scene.Query{Nodes: members, Descendants: true})
}

// NewCollectAnimationOutHierarchy returns the output hierarchy collector.
func NewCollectAnimationOutHierarchy() *CollectAnimationOutHierarchy {
	return &CollectAnimationOutHierarchy{base{
		name:     "CollectAnimationOutHierarchy",
		label:    "Collect Animation Output Hierarchy",
		order:    publish.CollectorOrder + 0.4,
		families: []string{"animation"},
	}}
}

// After keeps the hierarchy collection behind member collection.
func (c *CollectAnimationOutHierarchy) After() []string {
	return []string{"CollectInstanceMembers"}
}

// Collect stores the output hierarchy of each animation instance.
func (c *CollectAnimationOutHierarchy) Collect(_ context.Context, pass *publish.Pass) error {
	for _, inst := range pass.Instances {
		if inst.HasFamily(c.families...) {
			collectOutHierarchy(pass, inst)
		}
	}
	return nil
}

func collectOutHierarchy(pass *publish.Pass, inst *publish.Instance) {
	delete(inst.Data, OutHierarchyKey)
	outSet, ok := findBySuffix(inst.SetMembers, outSetSuffix)
	if !ok {
		pass.Logger().Debug("No out_SET in instance", "instance", inst.Name)
		return
	}
	members, err := pass.Host.SetMembers(outSet)
	if err != nil {
		pass.Logger().Warn("Cannot read out_SET members", "set", outSet, "err", err)
		return
	}
	var hierarchy []types.NodePath
	if len(members) > 0 {
		hierarchy = pass.Host.List(scene.Query{Nodes: members, Descendants: true, Types: []scene.NodeType{scene.TypeDAGNode}})
	}
	inst.SetData(OutHierarchyKey, hierarchy)
}

func findBySuffix(nodes []types.NodePath, suffix string) (types.NodePath, bool) {
	for _, n := range nodes {
		if strings.HasSuffix(string(n), suffix) {
			return n, true
		}
	}
	return "", false
}

func filterBySuffix(nodes []types.NodePath, suffix string) []types.NodePath {
	var out []types.NodePath
	for _, n := range nodes {
		if strings.HasSuffix(string(n), suffix) {
			out = append(out, n)
		}
	}
	return out
}
