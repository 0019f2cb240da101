// SPDX-License-Identifier: MPL-2.0

package plugins

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pubcheck/pubcheck/internal/publish"
	"github.com/pubcheck/pubcheck/internal/refedit"
	"github.com/pubcheck/pubcheck/internal/scene"
	"github.com/pubcheck/pubcheck/pkg/types"
)

const (
	referenceLoader = "ReferenceLoader"
	cameraPrefix    = "camera"
)

// RemoveCameraTransformReferenceEdits removes reference edits that override
// the transform or lens of referenced cameras.
type RemoveCameraTransformReferenceEdits struct{}

// NewRemoveCameraTransformReferenceEdits returns the camera cleanup action.
func NewRemoveCameraTransformReferenceEdits() *RemoveCameraTransformReferenceEdits {
	return &RemoveCameraTransformReferenceEdits{}
}

// Name returns the action identifier.
func (a *RemoveCameraTransformReferenceEdits) Name() string {
	return "RemoveCameraTransformReferenceEdits"
}

// Label returns the menu label of the action.
func (a *RemoveCameraTransformReferenceEdits) Label() string {
	return "Remove camera transform reference edits"
}

// Compatible accepts referenced containers whose name starts with "camera".
func (a *RemoveCameraTransformReferenceEdits) Compatible(c publish.Container) bool {
	return c.Loader == referenceLoader && strings.HasPrefix(c.Name, cameraPrefix)
}

// Process removes the camera edits of each container. Failures are joined
// and the remaining containers are still processed.
func (a *RemoveCameraTransformReferenceEdits) Process(_ context.Context, pass *publish.Pass, containers []publish.Container) error {
	logger := pass.Logger()
	attrs := refedit.DefaultAttributes()
	if names := pass.Settings.CameraEditAttributes; len(names) > 0 {
		attrs = refedit.NewAttributeSet(names...)
	}

	var errs []error
	for _, c := range containers {
		if c.Loader != referenceLoader {
			logger.Info("Not a reference, skipping", "container", c.Name)
			continue
		}
		members, err := pass.Host.SetMembers(c.ObjectName)
		if err != nil {
			errs = append(errs, fmt.Errorf("container %s: %w", c.Name, err))
			continue
		}
		ref, ok := referenceNode(pass.Host, members)
		if !ok {
			logger.Warn("No reference node in container", "container", c.Name)
			continue
		}

		plugs, err := refedit.Query(pass.Host, ref, attrs)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(plugs) == 0 {
			logger.Info("Reference is ok", "reference", ref)
			continue
		}
		for _, plug := range plugs {
			logger.Info("Removing reference edits", "plug", plug, "reference", ref)
		}
		if err := refedit.Remove(pass.Host, ref, plugs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// referenceNode returns the reference node among members, or the reference
// the members are sourced from.
func referenceNode(host scene.Host, members []types.NodePath) (types.NodePath, bool) {
	for _, m := range members {
		if t, err := host.NodeType(m); err == nil && t == scene.TypeReference {
			return m, true
		}
	}
	for _, m := range members {
		if ref, ok := host.ReferenceOf(m); ok {
			return ref, true
		}
	}
	return "", false
}
