// SPDX-License-Identifier: MPL-2.0

package plugins

import (
	"context"
	"fmt"
	"slices"

	"github.com/pubcheck/pubcheck/internal/publish"
	"github.com/pubcheck/pubcheck/internal/scene"
	"github.com/pubcheck/pubcheck/pkg/types"
)

var sceneHygieneFamilies = []string{"model", "rig", "mayaScene", "look", "renderlayer", "yetiRig"}

type (
	// ValidateSceneUnknownNodes rejects scenes containing unknown nodes.
	ValidateSceneUnknownNodes struct{ base }

	// ValidateSceneUnknownPlugins rejects scenes that require plug-ins which
	// are not loaded, except the ignored ones.
	ValidateSceneUnknownPlugins struct{ base }
)

// NewValidateSceneUnknownNodes returns the unknown node check.
func NewValidateSceneUnknownNodes() *ValidateSceneUnknownNodes {
	return &ValidateSceneUnknownNodes{base{
		name:     "ValidateSceneUnknownNodes",
		label:    "Unknown Nodes",
		order:    publish.ValidateContentsOrder,
		families: sceneHygieneFamilies,
		optional: true,
	}}
}

// ValidateContext fails when the scene holds any unknown node.
func (v *ValidateSceneUnknownNodes) ValidateContext(_ context.Context, pass *publish.Pass) error {
	invalid := pass.Host.List(scene.Query{Types: []scene.NodeType{scene.TypeUnknown}})
	if len(invalid) == 0 {
		return nil
	}
	return publish.Fail(
		"Unknown nodes found",
		fmt.Sprintf("%d unknown nodes found.", len(invalid)),
		invalid...,
	)
}

// RepairContext deletes the unknown nodes.
func (v *ValidateSceneUnknownNodes) RepairContext(_ context.Context, pass *publish.Pass) error {
	for _, node := range pass.Host.List(scene.Query{Types: []scene.NodeType{scene.TypeUnknown}}) {
		deleteNode(pass, node)
	}
	return nil
}

// NewValidateSceneUnknownPlugins returns the unknown plug-in check.
func NewValidateSceneUnknownPlugins() *ValidateSceneUnknownPlugins {
	return &ValidateSceneUnknownPlugins{base{
		name:     "ValidateSceneUnknownPlugins",
		label:    "Unknown Plug-ins",
		order:    publish.ValidateContentsOrder,
		families: sceneHygieneFamilies,
		optional: true,
	}}
}

// ValidateContext lists the required plug-ins that are neither loaded nor
// ignored.
func (v *ValidateSceneUnknownPlugins) ValidateContext(_ context.Context, pass *publish.Pass) error {
	invalid := unknownPlugins(pass)
	if len(invalid) == 0 {
		return nil
	}
	paths := make([]types.NodePath, len(invalid))
	for i, name := range invalid {
		paths[i] = types.NodePath(name)
	}
	return publish.Fail(
		"Unknown plug-ins found",
		fmt.Sprintf("%d unknown plug-ins found: %v", len(invalid), invalid),
		paths...,
	)
}

// RepairContext removes the nodes created by each unknown plug-in and then
// the plug-in requirement itself.
func (v *ValidateSceneUnknownPlugins) RepairContext(_ context.Context, pass *publish.Pass) error {
	logger := pass.Logger()
	unknownNodes := pass.Host.List(scene.Query{Types: []scene.NodeType{scene.TypeUnknown}})
	for _, plugin := range unknownPlugins(pass) {
		for _, node := range unknownNodes {
			owner, err := pass.Host.UnknownNodePlugin(node)
			if err != nil || owner != plugin {
				continue
			}
			deleteNode(pass, node)
		}
		logger.Info("Removing unknown plug-in", "plugin", plugin)
		if err := pass.Host.RemoveUnknownPlugin(plugin); err != nil {
			logger.Warn("Cannot remove unknown plug-in", "plugin", plugin, "err", err)
		}
	}
	return nil
}

func unknownPlugins(pass *publish.Pass) []string {
	var out []string
	for _, name := range pass.Host.UnknownPlugins() {
		if !slices.Contains(pass.Settings.UnknownPluginsIgnore, name) {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// deleteNode removes node if it still exists. Deleting a parent earlier in
// the loop may already have removed it.
func deleteNode(pass *publish.Pass, node types.NodePath) {
	if !pass.Host.Exists(node) {
		return
	}
	pass.Logger().Info("Deleting node", "node", node)
	if err := pass.Host.Delete(node); err != nil {
		pass.Logger().Error("Cannot delete node", "node", node, "err", err)
	}
}
