// SPDX-License-Identifier: MPL-2.0

package plugins

import (
	"slices"
	"testing"

	"github.com/pubcheck/pubcheck/internal/publish"
	"github.com/pubcheck/pubcheck/internal/scene"
	"github.com/pubcheck/pubcheck/pkg/types"
)

func newPass(t *testing.T, d scene.Description, instances ...*publish.Instance) *publish.Pass {
	t.Helper()

	host, err := scene.NewMemory(d)
	if err != nil {
		t.Fatalf("NewMemory() error: %v", err)
	}
	pass := publish.NewPass(host)
	pass.Project = "demo"
	pass.Task = "modeling"
	pass.Instances = instances
	return pass
}

// collect runs the default collectors over the pass.
func collect(t *testing.T, pass *publish.Pass) {
	t.Helper()

	runner, err := publish.NewRunner(Default(), pass.Settings)
	if err != nil {
		t.Fatalf("NewRunner() error: %v", err)
	}
	if err := runner.Collect(t.Context(), pass); err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
}

func mustFail(t *testing.T, err error) *publish.ValidationError {
	t.Helper()

	ve, ok := publish.AsValidation(err)
	if !ok {
		t.Fatalf("expected a validation failure, got %v", err)
	}
	return ve
}

func paths(ps ...string) []types.NodePath {
	out := make([]types.NodePath, len(ps))
	for i, p := range ps {
		out[i] = types.NodePath(p)
	}
	return out
}

func TestDefault(t *testing.T) {
	t.Parallel()

	runner, err := publish.NewRunner(Default(), publish.DefaultSettings())
	if err != nil {
		t.Fatalf("NewRunner() error: %v", err)
	}

	var names []string
	for _, p := range runner.Plugins() {
		names = append(names, p.Name())
	}
	if len(names) != len(Default()) {
		t.Fatalf("runner has %d plug-ins, want %d", len(names), len(Default()))
	}
	if !slices.Equal(names[:2], []string{"CollectInstanceMembers", "CollectAnimationOutHierarchy"}) {
		t.Errorf("collectors must run first, got %v", names[:2])
	}
	if names[len(names)-1] != "IntegrateAssetVersion" {
		t.Errorf("integrator must run last, got %v", names)
	}
	clash := slices.Index(names, "ValidateNodeIDsUniqueInstanceClash")
	for i, p := range runner.Plugins() {
		if _, ok := p.(publish.InstanceValidator); ok && i < clash {
			t.Errorf("%s runs before the id clash check", p.Name())
		}
	}
}

func TestDefault_OrderAndFamilies(t *testing.T) {
	t.Parallel()

	hygiene := []string{"model", "rig", "mayaScene", "look", "renderlayer", "yetiRig"}
	tests := []struct {
		plugin   publish.Plugin
		order    float64
		families []string
	}{
		{NewValidateAnimationContent(), publish.ValidateContentsOrder, []string{"animation"}},
		{NewValidateAnimationProductTypePublish(), publish.ValidateContentsOrder, []string{"animation"}},
		{NewValidateSceneUnknownNodes(), publish.ValidateContentsOrder, hygiene},
		{NewValidateSceneUnknownPlugins(), publish.ValidateContentsOrder, hygiene},
		{NewValidateNodeIDsUniqueInstanceClash(), publish.ValidatorOrder - 0.1, []string{"model"}},
	}

	for _, tt := range tests {
		t.Run(tt.plugin.Name(), func(t *testing.T) {
			t.Parallel()

			if got := tt.plugin.Order(); got != tt.order {
				t.Errorf("Order() = %v, want %v", got, tt.order)
			}
			if got := tt.plugin.Families(); !slices.Equal(got, tt.families) {
				t.Errorf("Families() = %v, want %v", got, tt.families)
			}
		})
	}
}

func TestValidateSceneUnknownPlugins_Families(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		inst    *publish.Instance
		wantRun bool
	}{
		{"look instance", lookInstance(), true},
		{"animation only", animInstance("animMain", "lookMain"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pass := newPass(t, hygieneScene(), tt.inst)
			runner, err := publish.NewRunner(Default(), pass.Settings)
			if err != nil {
				t.Fatalf("NewRunner() error: %v", err)
			}
			report, err := runner.Run(t.Context(), pass, publish.RunOptions{})
			if err != nil {
				t.Fatalf("Run() error: %v", err)
			}
			ran := slices.ContainsFunc(report.Results, func(r publish.Result) bool {
				return r.Plugin == "ValidateSceneUnknownPlugins"
			})
			if ran != tt.wantRun {
				t.Errorf("ValidateSceneUnknownPlugins ran = %v, want %v", ran, tt.wantRun)
			}
		})
	}
}

func TestDefault_WithoutNodeIDs(t *testing.T) {
	t.Parallel()

	settings := publish.DefaultSettings()
	settings.UseCbidWorkflow = false
	runner, err := publish.NewRunner(Default(), settings)
	if err != nil {
		t.Fatalf("NewRunner() error: %v", err)
	}
	for _, name := range []string{"ValidateNodeIDsUniqueInstanceClash", "ValidateModelIDsToExistingVersion"} {
		if _, ok := runner.Lookup(name); ok {
			t.Errorf("%s should be disabled without node ids", name)
		}
	}
	if _, ok := runner.Lookup("ValidateAnimationContent"); !ok {
		t.Error("ValidateAnimationContent should stay enabled")
	}
}

func TestRepairable(t *testing.T) {
	t.Parallel()

	want := map[string]bool{
		"ValidateNodeIDsUniqueInstanceClash": true,
		"ValidateModelIDsToExistingVersion":  true,
		"ValidateAnimationContent":           true,
		"ValidateSceneUnknownNodes":          true,
		"ValidateSceneUnknownPlugins":        true,
		"ValidateRenderSettingsFrameFormat":  true,
		"ValidateRenderArnoldAutoTx":         true,
		"ValidateStripNamespacesUniqueness":  false,
		"ValidateSubsetsLastVersionTask":     false,
		"ValidateLookViewportSubdivs":        false,
	}
	for _, p := range Default() {
		expected, listed := want[p.Name()]
		if !listed {
			continue
		}
		if got := publish.IsRepairable(p); got != expected {
			t.Errorf("IsRepairable(%s) = %v, want %v", p.Name(), got, expected)
		}
	}
}

func TestInventoryAction(t *testing.T) {
	t.Parallel()

	a, ok := InventoryAction("RemoveCameraTransformReferenceEdits")
	if !ok {
		t.Fatal("InventoryAction() did not find the camera action")
	}
	if a.Label() != "Remove camera transform reference edits" {
		t.Errorf("Label() = %q", a.Label())
	}
	if _, ok := InventoryAction("Nope"); ok {
		t.Error("InventoryAction(Nope) should not be found")
	}
}
