// SPDX-License-Identifier: MPL-2.0

package plugins

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/pubcheck/pubcheck/internal/archive"
	"github.com/pubcheck/pubcheck/internal/publish"
)

// ErrNoStagingDir is returned by extractors when the pass has no staging
// directory.
var ErrNoStagingDir = errors.New("no staging directory")

// ExtractModelArchive writes the hierarchy and node ids of a model instance
// to an archive file in the staging directory.
type ExtractModelArchive struct{ base }

// NewExtractModelArchive returns the model archive extractor.
func NewExtractModelArchive() *ExtractModelArchive {
	return &ExtractModelArchive{base{
		name:     "ExtractModelArchive",
		label:    "Extract Model Archive",
		order:    publish.ExtractorOrder,
		families: []string{"model"},
	}}
}

// Extract writes the archive and records it as the instance representation.
func (e *ExtractModelArchive) Extract(_ context.Context, pass *publish.Pass, inst *publish.Instance) error {
	if pass.StagingDir == "" {
		return ErrNoStagingDir
	}
	snap := captureDAG(pass.Host, inst.Members).ToArchive()
	a := archive.FromSnapshot(snap, pass.Settings.IDAttribute)

	path := filepath.Join(pass.StagingDir, inst.Name, inst.ProductName+".abc.yaml")
	if err := archive.WriteFile(path, a); err != nil {
		return fmt.Errorf("extract %s: %w", inst.Name, err)
	}
	if inst.Representations == nil {
		inst.Representations = make(map[string]string)
	}
	inst.Representations[ArchiveRepresentation] = path
	pass.Logger().Info("Extracted model archive", "instance", inst.Name, "path", path, "nodes", snap.Len())
	return nil
}
