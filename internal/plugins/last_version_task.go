// SPDX-License-Identifier: MPL-2.0

package plugins

import (
	"context"
	"fmt"
	"regexp"

	"github.com/pubcheck/pubcheck/internal/assetdb"
	"github.com/pubcheck/pubcheck/internal/publish"
	"github.com/pubcheck/pubcheck/pkg/types"
)

const lastVersionsKey = "last_versions"

var workTaskPattern = regexp.MustCompile(`/work/([^/]+)/`)

// ValidateSubsetsLastVersionTask rejects publishing a product from a task
// other than the one that published its latest version.
type ValidateSubsetsLastVersionTask struct{ base }

// NewValidateSubsetsLastVersionTask returns the last version task check.
func NewValidateSubsetsLastVersionTask() *ValidateSubsetsLastVersionTask {
	return &ValidateSubsetsLastVersionTask{base{
		name:     "ValidateSubsetsLastVersionTask",
		label:    "Last Version Task",
		order:    publish.ValidatorOrder,
		families: []string{"animation", "pointcache"},
		optional: true,
	}}
}

// Validate compares the current task with the task of the latest version.
func (v *ValidateSubsetsLastVersionTask) Validate(ctx context.Context, pass *publish.Pass, inst *publish.Instance) error {
	if pass.Assets == nil {
		return nil
	}
	versions, err := publish.Memo(pass, lastVersionsKey, func() (map[string]assetdb.Version, error) {
		return v.lastVersions(ctx, pass)
	})
	if err != nil {
		return err
	}

	last, ok := versions[inst.FolderID+"/"+inst.ProductName]
	if !ok {
		return nil
	}
	task := inst.Task
	if task == "" {
		task = pass.Task
	}
	lastTask := versionTask(last)
	if lastTask == "" || lastTask == task {
		return nil
	}
	return publish.Fail(
		"Publish from different task",
		fmt.Sprintf("Product %q was last published from task %q, not the current task %q.",
			inst.ProductName, lastTask, task),
		types.NodePath(inst.Name),
	)
}

// lastVersions maps "folderID/product" to the latest version of every
// product published by an active matching instance.
func (v *ValidateSubsetsLastVersionTask) lastVersions(ctx context.Context, pass *publish.Pass) (map[string]assetdb.Version, error) {
	names := make(map[string][]string)
	for _, inst := range pass.ActiveInstances() {
		if inst.HasFamily(v.families...) {
			names[inst.FolderID] = append(names[inst.FolderID], inst.ProductName)
		}
	}
	if len(names) == 0 {
		return nil, nil
	}

	products, err := pass.Assets.Products(ctx, pass.Project, names)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(products))
	byID := make(map[string]assetdb.Product, len(products))
	for i, p := range products {
		ids[i] = p.ID
		byID[p.ID] = p
	}
	last, err := pass.Assets.LastVersions(ctx, pass.Project, ids)
	if err != nil {
		return nil, err
	}

	out := make(map[string]assetdb.Version, len(last))
	for id, version := range last {
		p := byID[id]
		out[p.FolderID+"/"+p.Name] = version
	}
	return out, nil
}

// versionTask reads the task from the work directory of the source
// workfile, falling back to the recorded task.
func versionTask(v assetdb.Version) string {
	if m := workTaskPattern.FindStringSubmatch(v.Source); m != nil {
		return m[1]
	}
	return v.Task
}
