// SPDX-License-Identifier: MPL-2.0

package plugins

import (
	"context"
	"errors"
	"fmt"

	"github.com/pubcheck/pubcheck/internal/publish"
	"github.com/pubcheck/pubcheck/internal/scene"
	"github.com/pubcheck/pubcheck/pkg/types"
)

const (
	renderGlobalsNode types.NodePath = "defaultRenderGlobals"
	arnoldOptionsNode types.NodePath = "defaultArnoldRenderOptions"
)

const (
	arnoldRenderer   = "arnold"
	rendererKey      = "renderer"
	arnoldAutoTxAttr = "autotx"
)

const autoTxDescription = `### Disable Auto TX

Arnold converts textures to tx on render when auto tx is enabled. The
farm renders the textures as published, so the option must be switched
off before publishing.

Repair disables the option on ` + "`defaultArnoldRenderOptions`."

// frameFormat holds the render globals that make image sequences use the
// "name.####.ext" pattern.
var frameFormat = []struct {
	attr  string
	value any
}{
	{"outFormatControl", 0},
	{"putFrameBeforeExt", true},
	{"periodInExt", 1},
}

type (
	// ValidateRenderSettingsFrameFormat checks the render globals produce
	// "name.####.ext" frame names.
	ValidateRenderSettingsFrameFormat struct{ base }

	// ValidateRenderArnoldAutoTx rejects Arnold scenes with auto tx enabled.
	ValidateRenderArnoldAutoTx struct{ base }
)

// NewValidateRenderSettingsFrameFormat returns the frame format check.
func NewValidateRenderSettingsFrameFormat() *ValidateRenderSettingsFrameFormat {
	return &ValidateRenderSettingsFrameFormat{base{
		name:     "ValidateRenderSettingsFrameFormat",
		label:    "Render Frame Format",
		order:    publish.ValidateContentsOrder,
		families: []string{"renderlayer"},
		optional: true,
	}}
}

// Validate checks every frame format attribute of the render globals.
func (v *ValidateRenderSettingsFrameFormat) Validate(_ context.Context, pass *publish.Pass, inst *publish.Instance) error {
	var invalid []string
	for _, want := range frameFormat {
		plug := scene.PlugOf(renderGlobalsNode, want.attr)
		got, err := pass.Host.Attr(plug)
		if err != nil {
			pass.Logger().Error("Cannot read render setting", "plug", plug, "err", err)
			invalid = append(invalid, want.attr)
			continue
		}
		if !scene.ValueEqual(got, want.value) {
			pass.Logger().Error("Invalid render setting", "plug", plug, "value", got, "expected", want.value)
			invalid = append(invalid, want.attr)
		}
	}
	if len(invalid) == 0 {
		return nil
	}
	return publish.Fail(
		"Invalid Render Frame Format",
		fmt.Sprintf("Invalid render settings found for '%s'!", inst.Name),
		renderGlobalsNode,
	)
}

// Repair writes the expected frame format values.
func (v *ValidateRenderSettingsFrameFormat) Repair(_ context.Context, pass *publish.Pass, _ *publish.Instance) error {
	var errs []error
	for _, want := range frameFormat {
		if err := pass.Host.SetAttr(scene.PlugOf(renderGlobalsNode, want.attr), want.value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewValidateRenderArnoldAutoTx returns the Arnold auto tx check.
func NewValidateRenderArnoldAutoTx() *ValidateRenderArnoldAutoTx {
	return &ValidateRenderArnoldAutoTx{base{
		name:     "ValidateRenderArnoldAutoTx",
		label:    "Arnold Auto TX",
		order:    publish.ValidateContentsOrder,
		families: []string{"renderlayer"},
		optional: true,
	}}
}

// Validate only applies to layers rendered with Arnold.
func (v *ValidateRenderArnoldAutoTx) Validate(_ context.Context, pass *publish.Pass, inst *publish.Instance) error {
	if inst.String(rendererKey) != arnoldRenderer || !pass.Host.Exists(arnoldOptionsNode) {
		return nil
	}
	value, err := pass.Host.Attr(scene.PlugOf(arnoldOptionsNode, arnoldAutoTxAttr))
	if err != nil {
		return err
	}
	if !scene.Truthy(value) {
		return nil
	}
	return publish.Fail(
		"Disable Auto TX",
		"Arnold auto tx is enabled.",
		arnoldOptionsNode,
	).WithDescription(autoTxDescription)
}

// Repair switches auto tx off.
func (v *ValidateRenderArnoldAutoTx) Repair(_ context.Context, pass *publish.Pass, _ *publish.Instance) error {
	return pass.Host.SetAttr(scene.PlugOf(arnoldOptionsNode, arnoldAutoTxAttr), false)
}
