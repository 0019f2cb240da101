// SPDX-License-Identifier: MPL-2.0

// Package plugins holds the publish plug-ins and inventory actions: member
// collection, the model id and namespace checks, the animation rig checks,
// scene hygiene and render settings validators, the model archive extractor
// and integrator, and the camera reference edit cleanup.
package plugins

import (
	"slices"

	"github.com/pubcheck/pubcheck/internal/publish"
)

type base struct {
	name     string
	label    string
	order    float64
	families []string
	optional bool
}

// Name returns the plug-in identifier used in settings and on the command line.
func (b *base) Name() string { return b.name }

// Label returns the human readable name.
func (b *base) Label() string { return b.label }

// Order returns the position of the plug-in within the pass.
func (b *base) Order() float64 { return b.order }

// Families returns a copy of the families the plug-in applies to.
func (b *base) Families() []string { return slices.Clone(b.families) }

// Optional reports whether an artist may switch the plug-in off.
func (b *base) Optional() bool { return b.optional }

// cbidOnly disables a plug-in when the project does not use node ids.
type cbidOnly struct{}

// Enabled reports whether node ids are in use.
func (cbidOnly) Enabled(s publish.Settings) bool { return s.UseCbidWorkflow }

// Default returns every publish plug-in in registration order.
func Default() []publish.Plugin {
	return []publish.Plugin{
		NewCollectInstanceMembers(),
		NewCollectAnimationOutHierarchy(),
		NewValidateNodeIDsUniqueInstanceClash(),
		NewValidateSubsetsLastVersionTask(),
		NewValidateModelIDsToExistingVersion(),
		NewValidateStripNamespacesUniqueness(),
		NewValidateAnimationContent(),
		NewValidateAnimationProductTypePublish(),
		NewValidateSceneUnknownNodes(),
		NewValidateSceneUnknownPlugins(),
		NewValidateRenderSettingsFrameFormat(),
		NewValidateRenderArnoldAutoTx(),
		NewValidateLookViewportSubdivs(),
		NewExtractModelArchive(),
		NewIntegrateAssetVersion(),
	}
}

// Inventory returns every inventory action.
func Inventory() []publish.InventoryAction {
	return []publish.InventoryAction{
		NewRemoveCameraTransformReferenceEdits(),
	}
}

// InventoryAction looks up an inventory action by name.
func InventoryAction(name string) (publish.InventoryAction, bool) {
	for _, a := range Inventory() {
		if a.Name() == name {
			return a, true
		}
	}
	return nil, false
}
