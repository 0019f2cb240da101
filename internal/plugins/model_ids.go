// SPDX-License-Identifier: MPL-2.0

package plugins

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/pubcheck/pubcheck/internal/archive"
	"github.com/pubcheck/pubcheck/internal/idsnap"
	"github.com/pubcheck/pubcheck/internal/publish"
	"github.com/pubcheck/pubcheck/internal/scene"
	"github.com/pubcheck/pubcheck/pkg/types"
)

// ArchiveRepresentation is the representation name of model archives.
const ArchiveRepresentation = "abc"

const modelIDsDescription = `## Model node ids changed since last version
When comparing the node ids of the current workfile to the latest published
archive of the product, node names were found in the previous publish whose
` + "`cbId`" + ` attribute had a different value. Node ids should be preserved
over time as much as possible.

Repairing this validator sets the id to match the previous publish.`

// ValidateModelIDsToExistingVersion compares the ids of the model against
// the latest published archive of the same product. Nodes present in both
// whose id changed are invalid.
type ValidateModelIDsToExistingVersion struct {
	base
	cbidOnly
}

// NewValidateModelIDsToExistingVersion returns the id stability check.
func NewValidateModelIDsToExistingVersion() *ValidateModelIDsToExistingVersion {
	return &ValidateModelIDsToExistingVersion{base: base{
		name:     "ValidateModelIDsToExistingVersion",
		label:    "Model ids match latest version",
		order:    publish.ValidateContentsOrder,
		families: []string{"model"},
		optional: true,
	}}
}

// Validate reports nodes whose id differs from the published archive.
func (v *ValidateModelIDsToExistingVersion) Validate(ctx context.Context, pass *publish.Pass, inst *publish.Instance) error {
	changes, err := v.mismatches(ctx, pass, inst)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		return nil
	}

	logger := pass.Logger()
	invalid := make([]types.NodePath, 0, len(changes))
	for _, c := range changes {
		node := c.Path.ToScene()
		logger.Error("Id changed", "node", node, "old", c.Previous, "new", c.Current)
		invalid = append(invalid, node)
	}
	return publish.Fail(
		"Model ids have changed",
		fmt.Sprintf("Detected changed ids on %d nodes", len(invalid)),
		invalid...,
	).WithDescription(modelIDsDescription)
}

// Repair restores the published ids.
func (v *ValidateModelIDsToExistingVersion) Repair(ctx context.Context, pass *publish.Pass, inst *publish.Instance) error {
	changes, err := v.mismatches(ctx, pass, inst)
	if err != nil {
		return err
	}
	var errs []error
	for _, c := range changes {
		node := c.Path.ToScene()
		pass.Logger().Info("Updating id", "node", node, "id", c.Previous)
		if err := pass.Host.SetID(node, c.Previous); err != nil {
			pass.Logger().Error("Cannot update id", "node", node, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// mismatches returns the changed ids keyed by archive path. A product
// without a previous version or archive has nothing to compare against.
func (v *ValidateModelIDsToExistingVersion) mismatches(ctx context.Context, pass *publish.Pass, inst *publish.Instance) ([]idsnap.Change, error) {
	logger := pass.Logger()
	if pass.Assets == nil {
		logger.Debug("No asset database, skipping id comparison")
		return nil, nil
	}

	version, err := pass.Assets.LastVersionByProductName(ctx, pass.Project, inst.ProductName, inst.FolderID)
	if err != nil {
		return nil, err
	}
	if version == nil {
		logger.Debug("Product does not exist yet", "product", inst.ProductName)
		return nil, nil
	}
	rep, err := pass.Assets.RepresentationByName(ctx, pass.Project, ArchiveRepresentation, version.ID)
	if err != nil || rep == nil {
		return nil, err
	}

	logger.Info("Comparing model changes", "product", inst.ProductName, "version", version.Version)
	path := pass.Assets.RepresentationPath(rep)
	if _, statErr := os.Stat(path); path == "" || statErr != nil {
		logger.Warn("Representation path does not exist", "path", path)
		return nil, nil
	}

	published := archive.PathsByProperty(path, pass.Settings.IDAttribute, archive.WithLogger(logger))
	current := captureDAG(pass.Host, inst.Members).ToArchive()
	delta := idsnap.Reconcile(current, published)

	if pass.Settings.LogChangedHierarchies {
		for _, p := range delta.Removed {
			logger.Warn("Detected removed path", "path", p)
		}
		for _, p := range delta.Added {
			logger.Warn("Detected new path", "path", p)
		}
	}
	return delta.Changed, nil
}

// captureDAG snapshots the ids of the hierarchy nodes among members.
func captureDAG(host scene.Host, members []types.NodePath) idsnap.Snapshot {
	if len(members) == 0 {
		return idsnap.Snapshot{}
	}
	nodes := host.List(scene.Query{Nodes: members, Types: []scene.NodeType{scene.TypeDAGNode}})
	return idsnap.Capture(host, nodes)
}
