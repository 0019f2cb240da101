// SPDX-License-Identifier: MPL-2.0

package plugins

import (
	"context"
	"errors"
	"strings"

	"github.com/pubcheck/pubcheck/internal/idgen"
	"github.com/pubcheck/pubcheck/internal/idsnap"
	"github.com/pubcheck/pubcheck/internal/publish"
	"github.com/pubcheck/pubcheck/internal/scene"
	"github.com/pubcheck/pubcheck/pkg/types"
)

const idClashDescription = `## Clashing node ids across model instances

Node ids to be published must be unique across all model instances of the
same folder in this scene, including instances currently disabled for
publishing.

This does not check previous publishes or other scenes.

Repairing generates new ids for the nodes of the instance being validated.
Nodes of the other instances are never touched.`

// ValidateNodeIDsUniqueInstanceClash rejects ids shared with another model
// instance of the same folder.
type ValidateNodeIDsUniqueInstanceClash struct {
	base
	cbidOnly
}

// NewValidateNodeIDsUniqueInstanceClash returns the cross-instance id check.
func NewValidateNodeIDsUniqueInstanceClash() *ValidateNodeIDsUniqueInstanceClash {
	return &ValidateNodeIDsUniqueInstanceClash{base: base{
		name:     "ValidateNodeIDsUniqueInstanceClash",
		label:    "Clashing node ids across model instances",
		order:    publish.ValidatorOrder - 0.1,
		families: []string{"model"},
		optional: true,
	}}
}

// Validate fails when a node id of inst is shared with another model instance.
func (v *ValidateNodeIDsUniqueInstanceClash) Validate(_ context.Context, pass *publish.Pass, inst *publish.Instance) error {
	invalid := v.invalid(pass, inst)
	if len(invalid) == 0 {
		return nil
	}
	return publish.Fail(
		"Clashing node ids",
		"Found nodes between different model instances that share the same `cbId`.",
		invalid...,
	).WithDescription(idClashDescription)
}

// Repair regenerates the ids of the local clashing nodes.
func (v *ValidateNodeIDsUniqueInstanceClash) Repair(_ context.Context, pass *publish.Pass, inst *publish.Instance) error {
	var errs []error
	for _, node := range v.invalid(pass, inst) {
		id := idgen.NodeID(inst.FolderID, pass.NewID)
		pass.Logger().Info("Generating new id", "node", node, "id", id)
		if err := pass.Host.SetID(node, id); err != nil {
			pass.Logger().Error("Cannot set id", "node", node, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (v *ValidateNodeIDsUniqueInstanceClash) invalid(pass *publish.Pass, inst *publish.Instance) []types.NodePath {
	var foreign []idsnap.Snapshot
	for _, other := range pass.Instances {
		if other == inst || other.FolderPath != inst.FolderPath || !other.HasFamily(v.families...) {
			continue
		}
		foreign = append(foreign, instanceIDs(pass.Host, other))
	}
	if len(foreign) == 0 {
		return nil
	}

	clashes := idsnap.Clashes(instanceIDs(pass.Host, inst), foreign...)
	for _, c := range clashes {
		others := make([]string, len(c.Foreign))
		for i, p := range c.Foreign {
			others[i] = "- " + string(p)
		}
		pass.Logger().Error("ID clashes with nodes from other model instances",
			"id", c.ID, "nodes", c.Local, "others", strings.Join(others, "\n"))
	}
	return idsnap.LocalPaths(clashes)
}

// instanceIDs snapshots the ids of the transforms and non-intermediate
// shapes of an instance.
func instanceIDs(host scene.Host, inst *publish.Instance) idsnap.Snapshot {
	if len(inst.Members) == 0 {
		return idsnap.Snapshot{}
	}
	nodes := host.List(scene.Query{
		Nodes:          inst.Members,
		Types:          []scene.NodeType{scene.TypeTransform, scene.TypeShape},
		NoIntermediate: true,
	})
	return idsnap.Capture(host, nodes)
}
