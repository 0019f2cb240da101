// SPDX-License-Identifier: MPL-2.0

package plugins

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/pubcheck/pubcheck/internal/assetdb"
	"github.com/pubcheck/pubcheck/internal/idgen"
	"github.com/pubcheck/pubcheck/internal/publish"
	"github.com/pubcheck/pubcheck/internal/scene"
	"github.com/pubcheck/pubcheck/internal/testutil"
	"github.com/pubcheck/pubcheck/internal/workfile"
)

const animationFixture = "../workfile/testdata/sh010_animation.cue"

func openStore(t *testing.T) *assetdb.Store {
	t.Helper()

	dir := t.TempDir()
	store, err := assetdb.Open(filepath.Join(dir, "assets.db"),
		assetdb.WithRoot(filepath.Join(dir, "publish")),
		assetdb.WithIDGenerator(idgen.Sequence("row")))
	if err != nil {
		t.Fatalf("assetdb.Open() error: %v", err)
	}
	t.Cleanup(func() { testutil.MustClose(t, store) })
	return store
}

func failedPlugins(report *publish.Report) []string {
	var out []string
	for _, res := range report.Failures() {
		out = append(out, res.Plugin)
	}
	return out
}

func TestModelPublish_IDsReconciledWithLastVersion(t *testing.T) {
	t.Parallel()

	d := modelScene()
	d.Sets = d.Sets[:1]
	pass := newPass(t, d, modelInstance("modelMain", "/assets/hero"))
	pass.FolderID = "f1"
	pass.Workfile = "/projects/demo/assets/hero/work/modeling/hero_v001.ma"
	pass.Assets = openStore(t)
	pass.StagingDir = t.TempDir()
	pass.NewID = idgen.Sequence("publish")

	runner, err := publish.NewRunner(Default(), pass.Settings)
	if err != nil {
		t.Fatal(err)
	}

	report, err := runner.Run(t.Context(), pass, publish.RunOptions{})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if report.HasFailures() || report.Stopped {
		t.Fatalf("first publish failed: %v", report.Failures())
	}
	inst := pass.Instances[0]
	v, ok := inst.Data[VersionKey].(assetdb.Version)
	if !ok || v.Version != 1 || v.Task != "modeling" {
		t.Fatalf("registered version = %+v", inst.Data[VersionKey])
	}
	if _, err := os.Stat(inst.Representations[ArchiveRepresentation]); err != nil {
		t.Errorf("extracted archive missing: %v", err)
	}

	// An id edited after publishing is reported against the last version.
	if err := pass.Host.SetID("|model_GRP|body", "f1:edited"); err != nil {
		t.Fatal(err)
	}
	report, err = runner.Run(t.Context(), pass, publish.ValidateOnly)
	if err != nil {
		t.Fatal(err)
	}
	if got := failedPlugins(report); !slices.Equal(got, []string{"ValidateModelIDsToExistingVersion"}) {
		t.Fatalf("failures = %v", got)
	}
	if got := report.Failures()[0].Invalid; !slices.Equal(got, []string{"|model_GRP|body"}) {
		t.Errorf("Invalid = %v", got)
	}

	repair, err := runner.Repair(t.Context(), pass, "ValidateModelIDsToExistingVersion", "modelMain")
	if err != nil || !repair.OK() {
		t.Fatalf("Repair() = %+v, %v", repair, err)
	}
	if got := pass.Host.ID("|model_GRP|body"); got != "f1:body" {
		t.Errorf("id after repair = %q, want the published f1:body", got)
	}

	report, err = runner.Run(t.Context(), pass, publish.ValidateOnly)
	if err != nil || report.HasFailures() {
		t.Errorf("validation after repair: %v, %v", failedPlugins(report), err)
	}
}

func TestModelPublish_ExtractNeedsStagingDir(t *testing.T) {
	t.Parallel()

	pass := newPass(t, modelScene(), modelInstance("modelMain", "/assets/hero"))
	collect(t, pass)
	if err := NewExtractModelArchive().Extract(t.Context(), pass, pass.Instances[0]); !errors.Is(err, ErrNoStagingDir) {
		t.Errorf("Extract() = %v, want ErrNoStagingDir", err)
	}

	inst := pass.Instances[0]
	inst.Representations = map[string]string{ArchiveRepresentation: "nowhere"}
	if err := NewIntegrateAssetVersion().Integrate(t.Context(), pass, inst); !errors.Is(err, ErrNoAssets) {
		t.Errorf("Integrate() = %v, want ErrNoAssets", err)
	}
}

func TestValidateSubsetsLastVersionTask(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		source   string
		task     string
		wantFail bool
	}{
		{"same work directory", "/projects/demo/shots/sh010/work/animation/sh010_v003.ma", "", false},
		{"other work directory", "/projects/demo/shots/sh010/work/layout/sh010_v001.ma", "animation", true},
		{"task from version", "/elsewhere/sh010.ma", "layout", true},
		{"no previous version", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := openStore(t)
			if tt.source != "" {
				if _, err := store.RegisterVersion(t.Context(), assetdb.Publish{
					Project:  "demo",
					FolderID: "f-sh010",
					Product:  "animMain",
					Task:     tt.task,
					Source:   tt.source,
				}); err != nil {
					t.Fatal(err)
				}
			}

			pass := newPass(t, rigScene(), animInstance("animMain", "animMain"))
			pass.Task = "animation"
			pass.Assets = store
			err := NewValidateSubsetsLastVersionTask().Validate(t.Context(), pass, pass.Instances[0])
			if (err != nil) != tt.wantFail {
				t.Fatalf("Validate() = %v, wantFail %v", err, tt.wantFail)
			}
			if tt.wantFail && mustFail(t, err).Title != "Publish from different task" {
				t.Errorf("unexpected failure %v", err)
			}
		})
	}
}

func TestAnimationWorkfile_RepairAndInventory(t *testing.T) {
	t.Parallel()

	wf, err := workfile.Load(animationFixture)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	host, err := wf.Open()
	if err != nil {
		t.Fatal(err)
	}
	pass := wf.NewPass(host)
	runner, err := publish.NewRunner(Default(), pass.Settings)
	if err != nil {
		t.Fatal(err)
	}

	report, err := runner.Run(t.Context(), pass, publish.ValidateOnly)
	if err != nil {
		t.Fatal(err)
	}
	if got := failedPlugins(report); !slices.Equal(got, []string{"ValidateAnimationContent"}) {
		t.Fatalf("failures = %v", got)
	}

	if repair, err := runner.Repair(t.Context(), pass, "ValidateAnimationContent", ""); err != nil || !repair.OK() {
		t.Fatalf("Repair() = %+v, %v", repair, err)
	}
	report, err = runner.Run(t.Context(), pass, publish.ValidateOnly)
	if err != nil || report.HasFailures() {
		t.Fatalf("validation after repair: %v, %v", failedPlugins(report), err)
	}

	action, _ := InventoryAction("RemoveCameraTransformReferenceEdits")
	processed, err := publish.RunInventory(t.Context(), pass, action, wf.Containers)
	if err != nil {
		t.Fatalf("RunInventory() error: %v", err)
	}
	if len(processed) != 1 || processed[0].Name != "cameraMain_01" {
		t.Errorf("processed = %+v", processed)
	}
	edits, _ := host.ReferenceEdits("cameraMainRN", scene.EditSetAttr)
	if len(edits) != 1 || edits[0].Target != "|cameraMain:cam|cameraMain:camShape.nearClipPlane" {
		t.Errorf("remaining camera edits = %+v", edits)
	}
	if rig, _ := host.ReferenceEdits("char_rigRN", scene.EditSetAttr); len(rig) != 1 {
		t.Errorf("rig edits must be untouched, got %+v", rig)
	}
}
