// SPDX-License-Identifier: MPL-2.0

package publish

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/pubcheck/pubcheck/pkg/types"
)

func TestInstance_HasFamily(t *testing.T) {
	t.Parallel()

	inst := &Instance{ProductType: "animation", Families: []string{"animation", "pointcache"}}
	if got := inst.AllFamilies(); !slices.Equal(got, []string{"animation", "pointcache"}) {
		t.Errorf("AllFamilies() = %v", got)
	}

	tests := []struct {
		families []string
		want     bool
	}{
		{nil, true},
		{[]string{AllFamilies}, true},
		{[]string{"pointcache"}, true},
		{[]string{"model", "animation"}, true},
		{[]string{"model"}, false},
	}
	for _, tt := range tests {
		if got := inst.HasFamily(tt.families...); got != tt.want {
			t.Errorf("HasFamily(%v) = %v, want %v", tt.families, got, tt.want)
		}
	}
}

func TestInstance_PluginActive(t *testing.T) {
	t.Parallel()

	inst := &Instance{PublishAttributes: map[string]map[string]any{
		"ValidateOff":    {"active": false},
		"ValidateOn":     {"active": true},
		"ValidateNoFlag": {"threshold": 2},
	}}

	tests := []struct {
		plugin string
		want   bool
	}{
		{"ValidateOff", false},
		{"ValidateOn", true},
		{"ValidateNoFlag", true},
		{"ValidateMissing", true},
	}
	for _, tt := range tests {
		if got := inst.PluginActive(tt.plugin); got != tt.want {
			t.Errorf("PluginActive(%q) = %v, want %v", tt.plugin, got, tt.want)
		}
	}
	if v, ok := inst.PluginAttr("ValidateNoFlag", "threshold"); !ok || v != 2 {
		t.Errorf("PluginAttr() = %v, %v", v, ok)
	}
}

func TestInstance_Paths(t *testing.T) {
	t.Parallel()

	inst := &Instance{}
	inst.SetData("typed", []types.NodePath{"|a", "|b"})
	inst.SetData("decoded", []any{"|a", "|b"})
	inst.SetData("strings", []string{"|a", "|b"})
	inst.SetData("mixed", []any{"|a", 3})
	inst.SetData("renderer", "arnold")

	want := []types.NodePath{"|a", "|b"}
	for _, key := range []string{"typed", "decoded", "strings"} {
		got, ok := inst.Paths(key)
		if !ok || !slices.Equal(got, want) {
			t.Errorf("Paths(%q) = %v, %v", key, got, ok)
		}
	}
	for _, key := range []string{"mixed", "renderer", "missing"} {
		if _, ok := inst.Paths(key); ok {
			t.Errorf("Paths(%q) should fail", key)
		}
	}
	if inst.String("renderer") != "arnold" || inst.String("typed") != "" {
		t.Error("String() mismatch")
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := Fail("Non-unique ids", "found duplicates", "|a", "|b").WithDescription("## Fix\nRegenerate ids.")
	if got := err.Error(); got != "Non-unique ids: found duplicates: |a, |b" {
		t.Errorf("Error() = %q", got)
	}

	wrapped := errors.Join(errors.New("context"), err)
	ve, ok := AsValidation(wrapped)
	if !ok || ve.Description == "" {
		t.Errorf("AsValidation() = %+v, %v", ve, ok)
	}
	if _, ok := AsValidation(errors.New("plain")); ok {
		t.Error("plain error is not a validation error")
	}
	if got := (&ValidationError{}).Error(); got != "validation failed" {
		t.Errorf("empty Error() = %q", got)
	}
}

type fakeAction struct {
	processed []Container
	err       error
}

func (a *fakeAction) Name() string  { return "FakeAction" }
func (a *fakeAction) Label() string { return "Fake" }

func (a *fakeAction) Compatible(c Container) bool { return c.Loader == "ReferenceLoader" }

func (a *fakeAction) Process(_ context.Context, _ *Pass, containers []Container) error {
	a.processed = containers
	return a.err
}

func TestRunInventory(t *testing.T) {
	t.Parallel()

	containers := []Container{
		{Name: "cam", Loader: "ReferenceLoader", ObjectName: "camMain_CON"},
		{Name: "gpu", Loader: "GpuCacheLoader", ObjectName: "gpu_CON"},
	}

	action := &fakeAction{}
	got, err := RunInventory(context.Background(), newTestPass(), action, containers)
	if err != nil || len(got) != 1 || got[0].Name != "cam" {
		t.Fatalf("RunInventory() = %v, %v", got, err)
	}

	none, err := RunInventory(context.Background(), newTestPass(), action, containers[1:])
	if err != nil || none != nil {
		t.Errorf("no compatible containers: %v, %v", none, err)
	}

	errLocked := errors.New("locked")
	failing := &fakeAction{err: errLocked}
	partial, err := RunInventory(context.Background(), newTestPass(), failing, containers)
	if !errors.Is(err, errLocked) {
		t.Errorf("RunInventory() error = %v, want %v", err, errLocked)
	}
	if len(partial) != 1 || partial[0].Name != "cam" {
		t.Errorf("failed action must still report the processed containers, got %v", partial)
	}
}
