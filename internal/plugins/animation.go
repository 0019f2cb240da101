// SPDX-License-Identifier: MPL-2.0

package plugins

import (
	"context"
	"fmt"

	"github.com/pubcheck/pubcheck/internal/publish"
	"github.com/pubcheck/pubcheck/internal/refrepair"
	"github.com/pubcheck/pubcheck/pkg/types"
)

const animationFBXFamily = "animation.fbx"

type (
	// ValidateAnimationContent checks the instance carries exactly one rig
	// out_SET and that every node of the output hierarchy is a member.
	ValidateAnimationContent struct{ base }

	// ValidateAnimationProductTypePublish requires at least one enabled
	// animation extractor.
	ValidateAnimationProductTypePublish struct{ base }
)

// NewValidateAnimationContent returns the animation content validator.
func NewValidateAnimationContent() *ValidateAnimationContent {
	return &ValidateAnimationContent{base{
		name:     "ValidateAnimationContent",
		label:    "Animation Content",
		order:    publish.ValidateContentsOrder,
		families: []string{"animation"},
	}}
}

// Validate reports hierarchy nodes that are not members of the instance.
func (v *ValidateAnimationContent) Validate(_ context.Context, pass *publish.Pass, inst *publish.Instance) error {
	if _, ok := findBySuffix(inst.SetMembers, outSetSuffix); !ok {
		return publish.Fail(
			"Missing out_SET",
			"Instance has no out_SET. Load the referenced rig or disable this instance.",
		)
	}

	hierarchy, ok := inst.Paths(OutHierarchyKey)
	if !ok {
		return publish.Fail("Missing output hierarchy", "Instance is missing its output hierarchy.")
	}

	if sets := filterBySuffix(inst.Members, outSetSuffix); len(sets) != 1 {
		return publish.Fail(
			"Invalid out_SET",
			fmt.Sprintf("Instance must have exactly one out_SET, found %d.", len(sets)),
			sets...,
		)
	}

	var invalid []types.NodePath
	for _, node := range hierarchy {
		if !inst.Contains(node) {
			invalid = append(invalid, node)
		}
	}
	if len(invalid) == 0 {
		return nil
	}
	pass.Logger().Error("Output hierarchy nodes missing from instance", "nodes", invalid)
	return publish.Fail("Invalid animation content", "Animation content is invalid. See log.", invalid...)
}

// Repair restores the rig sets of the instance and collects it again. The
// instance is collected even when some rig sets could not be restored.
func (v *ValidateAnimationContent) Repair(_ context.Context, pass *publish.Pass, inst *publish.Instance) error {
	report, err := refrepair.Repair(pass.Host, inst.Node, pass.Logger())
	if err != nil {
		pass.Logger().Error("Rig set repair failed", "instance", inst.Name, "err", err)
	} else {
		pass.Logger().Info("Rig set repair finished", "instance", inst.Name, "result", report.Result)
	}

	collectMembers(pass, inst)
	collectOutHierarchy(pass, inst)
	return err
}

// NewValidateAnimationProductTypePublish returns the extractor check for
// animation instances.
func NewValidateAnimationProductTypePublish() *ValidateAnimationProductTypePublish {
	return &ValidateAnimationProductTypePublish{base{
		name:     "ValidateAnimationProductTypePublish",
		label:    "Animation Product Type Publish",
		order:    publish.ValidateContentsOrder,
		families: []string{"animation"},
	}}
}

// Validate passes FBX animation instances unconditionally.
func (v *ValidateAnimationProductTypePublish) Validate(_ context.Context, _ *publish.Pass, inst *publish.Instance) error {
	if inst.HasFamily(animationFBXFamily) {
		return nil
	}
	for _, extractor := range []string{"ExtractAnimation", "ExtractMayaUsdAnim"} {
		if inst.PluginActive(extractor) {
			return nil
		}
	}
	return publish.Fail(
		"No animation extractor enabled",
		"At least one of the animation extractors must be enabled: Alembic, FBX or USD.",
		types.NodePath(inst.Name),
	)
}
