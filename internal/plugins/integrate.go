// SPDX-License-Identifier: MPL-2.0

package plugins

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pubcheck/pubcheck/internal/assetdb"
	"github.com/pubcheck/pubcheck/internal/publish"
)

// VersionKey is the instance data key of the registered version.
const VersionKey = "version"

// ErrNoAssets is returned by the integrator when the pass has no asset
// database.
var ErrNoAssets = errors.New("no asset database")

// IntegrateAssetVersion copies the extracted representations below the
// asset root and registers them as a new version of the product.
type IntegrateAssetVersion struct{ base }

// NewIntegrateAssetVersion returns the version integrator.
func NewIntegrateAssetVersion() *IntegrateAssetVersion {
	return &IntegrateAssetVersion{base{
		name:     "IntegrateAssetVersion",
		label:    "Integrate Asset Version",
		order:    publish.IntegratorOrder,
		families: []string{publish.AllFamilies},
	}}
}

// Integrate copies the representations of inst and registers the version.
func (i *IntegrateAssetVersion) Integrate(ctx context.Context, pass *publish.Pass, inst *publish.Instance) error {
	if len(inst.Representations) == 0 {
		pass.Logger().Debug("Nothing to integrate", "instance", inst.Name)
		return nil
	}
	if pass.Assets == nil {
		return ErrNoAssets
	}

	dir := path.Join(pass.Project, strings.Trim(inst.FolderPath, "/"), inst.ProductName, pass.NewID())
	templates := make(map[string]string, len(inst.Representations))
	for name, src := range inst.Representations {
		rel := path.Join(dir, filepath.Base(src))
		dst := filepath.Join(pass.Assets.Root(), filepath.FromSlash(rel))
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("integrate %s %s: %w", inst.Name, name, err)
		}
		templates[name] = assetdb.RootPlaceholder + "/" + rel
	}

	task := inst.Task
	if task == "" {
		task = pass.Task
	}
	version, err := pass.Assets.RegisterVersion(ctx, assetdb.Publish{
		Project:         pass.Project,
		FolderID:        inst.FolderID,
		FolderPath:      inst.FolderPath,
		Product:         inst.ProductName,
		ProductType:     inst.ProductType,
		Task:            task,
		Source:          pass.Workfile,
		Representations: templates,
	})
	if err != nil {
		return err
	}
	inst.SetData(VersionKey, *version)
	pass.Logger().Info("Registered version", "product", inst.ProductName, "version", version.Version)
	return nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	_, err = io.Copy(out, in)
	return err
}
