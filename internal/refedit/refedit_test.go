// SPDX-License-Identifier: MPL-2.0

package refedit

import (
	"slices"
	"testing"

	"github.com/pubcheck/pubcheck/internal/scene"
	"github.com/pubcheck/pubcheck/pkg/types"
)

type countingTyper struct {
	byNode map[types.NodePath]scene.NodeType
	calls  map[types.NodePath]int
}

func (c *countingTyper) NodeType(node types.NodePath) (scene.NodeType, error) {
	c.calls[node]++
	t, ok := c.byNode[node]
	if !ok {
		return "", scene.ErrNodeNotFound
	}
	return t, nil
}

func newTyper() *countingTyper {
	return &countingTyper{
		byNode: map[types.NodePath]scene.NodeType{
			"|cam:cam":              scene.TypeTransform,
			"|cam:cam|cam:camShape": scene.TypeCamera,
			"|cam:grp|cam:mesh":     scene.TypeMesh,
			"|other:ctrl":           scene.TypeTransform,
		},
		calls: make(map[types.NodePath]int),
	}
}

func TestDisallowed(t *testing.T) {
	t.Parallel()

	edits := []scene.Edit{
		{Kind: scene.EditSetAttr, Target: "|cam:cam.translateX"},
		{Kind: scene.EditSetAttr, Target: "|cam:cam.translateX"},
		{Kind: scene.EditSetAttr, Target: "|cam:cam|cam:camShape.focalLength"},
		{Kind: scene.EditSetAttr, Target: "|cam:cam.visibility"},
		{Kind: scene.EditSetAttr, Target: "|cam:grp|cam:mesh.translateX"},
		{Kind: scene.EditSetAttr, Target: "|cam:missing.translateX"},
		// Source side inside the scope is not a violation.
		{Kind: scene.EditConnect, Source: "|cam:cam.rotateY", Target: "|other:ctrl.rotateY"},
		{Kind: scene.EditDisconnect, Source: "|other:ctrl.rotateX", Target: "|cam:cam.rotateX"},
		{Kind: scene.EditSetAttr, Target: "|cam:cam.rotateOrder"},
	}

	typer := newTyper()
	got := Disallowed(edits, "cam", typer, DefaultAttributes())
	want := []scene.Plug{
		"|cam:cam.rotateOrder",
		"|cam:cam.rotateX",
		"|cam:cam.translateX",
		"|cam:cam|cam:camShape.focalLength",
	}
	if !slices.Equal(got, want) {
		t.Errorf("Disallowed() = %v, want %v", got, want)
	}
	if n := typer.calls["|cam:cam"]; n != 1 {
		t.Errorf("node type of |cam:cam looked up %d times, want 1", n)
	}
}

func TestDisallowed_Filters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		edit scene.Edit
	}{
		{"attribute not disallowed", scene.Edit{Kind: scene.EditSetAttr, Target: "|cam:cam.visibility"}},
		{"node type not allowed", scene.Edit{Kind: scene.EditSetAttr, Target: "|cam:grp|cam:mesh.translateX"}},
		{"other namespace", scene.Edit{Kind: scene.EditSetAttr, Target: "|other:ctrl.translateX"}},
		{"source side only", scene.Edit{Kind: scene.EditConnect, Source: "|cam:cam.translateX", Target: "|other:ctrl.visibility"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Disallowed([]scene.Edit{tt.edit}, "cam", newTyper(), DefaultAttributes()); len(got) != 0 {
				t.Errorf("Disallowed() = %v, want none", got)
			}
		})
	}
}

func newCameraScene(t *testing.T) *scene.Memory {
	t.Helper()
	m, err := scene.NewMemory(scene.Description{
		Nodes: []scene.NodeSpec{
			{Path: "|cam:cam", Type: scene.TypeTransform, Reference: "camRN"},
			{Path: "|cam:cam|cam:camShape", Type: scene.TypeCamera, Reference: "camRN"},
			{Path: "|world", Type: scene.TypeTransform},
		},
		References: []scene.ReferenceSpec{{
			Node: "camRN", Namespace: "cam", Loaded: true,
			Edits: []scene.EditSpec{
				{Kind: scene.EditSetAttr, Target: "|cam:cam.translateX"},
				{Kind: scene.EditConnect, Source: "|world.rotateY", Target: "|cam:cam.rotateY"},
				{Kind: scene.EditSetAttr, Target: "|cam:cam|cam:camShape.focalLength"},
				{Kind: scene.EditSetAttr, Target: "|cam:cam|cam:camShape.nearClipPlane"},
			},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestRemove_Idempotent(t *testing.T) {
	t.Parallel()
	host := newCameraScene(t)

	plugs, err := Query(host, "camRN", DefaultAttributes())
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(plugs) != 3 {
		t.Fatalf("Query() = %v, want 3 plugs", plugs)
	}

	if err := Remove(host, "camRN", plugs); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	again, err := Query(host, "camRN", DefaultAttributes())
	if err != nil || len(again) != 0 {
		t.Fatalf("Query() after Remove = %v, %v; want empty", again, err)
	}
	if err := Remove(host, "camRN", again); err != nil {
		t.Errorf("second Remove() error: %v", err)
	}
	if err := Remove(host, "camRN", plugs); err != nil {
		t.Errorf("Remove() of already removed plugs error: %v", err)
	}

	left, _ := host.ReferenceEdits("camRN", scene.EditSetAttr)
	if len(left) != 1 || left[0].Target != "|cam:cam|cam:camShape.nearClipPlane" {
		t.Errorf("allowed edit should be kept, got %v", left)
	}
}

func TestQuery_NotAReference(t *testing.T) {
	t.Parallel()
	host := newCameraScene(t)

	if _, err := Query(host, "|world", DefaultAttributes()); err == nil {
		t.Error("Query() on a non-reference node should fail")
	}
	if err := Remove(host, "|world", []scene.Plug{"|world.translateX"}); err == nil {
		t.Error("Remove() on a non-reference node should fail")
	}
}
