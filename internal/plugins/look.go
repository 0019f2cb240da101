// SPDX-License-Identifier: MPL-2.0

package plugins

import (
	"context"
	"slices"

	"github.com/pubcheck/pubcheck/internal/publish"
	"github.com/pubcheck/pubcheck/internal/scene"
	"github.com/pubcheck/pubcheck/pkg/types"
)

const displaySmoothnessAttr = "displaySmoothness"

// ValidateLookViewportSubdivs warns about meshes displayed smoothed in the
// viewport. Smooth preview is slow to draw but never blocks a publish.
type ValidateLookViewportSubdivs struct{ base }

// NewValidateLookViewportSubdivs returns the viewport smoothing warning.
func NewValidateLookViewportSubdivs() *ValidateLookViewportSubdivs {
	return &ValidateLookViewportSubdivs{base{
		name:     "ValidateLookViewportSubdivs",
		label:    "Look Viewport Subdivisions",
		order:    publish.ValidateContentsOrder,
		families: []string{"look"},
	}}
}

// Validate logs the smoothed meshes and always passes.
func (v *ValidateLookViewportSubdivs) Validate(_ context.Context, pass *publish.Pass, inst *publish.Instance) error {
	if len(inst.Members) == 0 {
		return nil
	}
	var smoothed []types.NodePath
	for _, mesh := range pass.Host.List(scene.Query{Nodes: inst.Members, Types: []scene.NodeType{scene.TypeMesh}}) {
		value, err := pass.Host.Attr(scene.PlugOf(mesh, displaySmoothnessAttr))
		if err != nil {
			continue
		}
		if n, ok := scene.Number(value); ok && n > 1 {
			if parent, ok := mesh.Parent(); ok && !slices.Contains(smoothed, parent) {
				smoothed = append(smoothed, parent)
			}
		}
	}
	if len(smoothed) > 0 {
		slices.Sort(smoothed)
		pass.Logger().Warn("Meshes use smooth mesh preview in the viewport", "nodes", smoothed)
	}
	return nil
}
