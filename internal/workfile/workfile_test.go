// SPDX-License-Identifier: MPL-2.0

package workfile

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/pubcheck/pubcheck/internal/issue"
	"github.com/pubcheck/pubcheck/internal/scene"
	"github.com/pubcheck/pubcheck/internal/testutil"
	"github.com/pubcheck/pubcheck/pkg/types"
)

const fixture = "testdata/sh010_animation.cue"

func absFixture(t *testing.T) string {
	t.Helper()

	abs, err := filepath.Abs(fixture)
	if err != nil {
		t.Fatal(err)
	}
	return filepath.ToSlash(abs)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	wf, err := Load(fixture)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if wf.Context.Project != "demo" || wf.Context.Workfile != "" {
		t.Errorf("Context = %+v", wf.Context)
	}
	if want := absFixture(t); wf.Path() != want {
		t.Errorf("Path() = %q, want %q", wf.Path(), want)
	}
	if len(wf.Instances) != 1 || !wf.Instances[0].Active {
		t.Fatalf("Instances = %+v", wf.Instances)
	}
	if len(wf.Scene.References) != 2 || !wf.Scene.References[0].Loaded {
		t.Errorf("references should default to loaded: %+v", wf.Scene.References)
	}

	host, err := wf.Open()
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if got := host.ID("|char_rig:root|char_rig:geo"); got != "f-char:geo" {
		t.Errorf("ID() = %q", got)
	}
	v, err := host.Attr(scene.PlugOf("defaultRenderGlobals", "periodInExt"))
	if n, ok := scene.Number(v); err != nil || !ok || n != 1 {
		t.Errorf("periodInExt = %v, %v", v, err)
	}
	edits, err := host.ReferenceEdits("char_rigRN", scene.EditConnect)
	if err != nil || len(edits) != 1 || edits[0].Source != "|camMain.translate" {
		t.Errorf("ReferenceEdits() = %+v, %v", edits, err)
	}
}

func TestWorkfile_NewPass(t *testing.T) {
	t.Parallel()

	wf, err := Load(fixture)
	if err != nil {
		t.Fatal(err)
	}
	host, err := wf.Open()
	if err != nil {
		t.Fatal(err)
	}
	pass := wf.NewPass(host)

	if pass.Project != "demo" || pass.FolderID != "f-sh010" || pass.Workfile != absFixture(t) {
		t.Errorf("pass context = %q %q %q", pass.Project, pass.FolderID, pass.Workfile)
	}
	inst, ok := pass.Instance("animationMain")
	if !ok {
		t.Fatal("instance animationMain missing")
	}
	if inst.ProductName != "animationMain" || inst.Task != "animation" || inst.FolderPath != "/shots/sq01/sh010" {
		t.Errorf("instance defaults not filled: %+v", inst)
	}
	if !inst.HasFamily("animation") || inst.Node != "animationMain" {
		t.Errorf("instance = %+v", inst)
	}

	inst.PublishAttributes["ValidateAnimationContent"]["active"] = false
	if !wf.Instances[0].PublishAttributes["ValidateAnimationContent"]["active"].(bool) {
		t.Error("pass instances must not alias the workfile")
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		src      string
		contains string
		is       error
	}{
		{
			name:     "unknown node type",
			src:      `context: {}, scene: nodes: [{path: "|a", type: "joint"}]`,
			contains: "type",
		},
		{
			name:     "unknown node without plugin",
			src:      `context: {}, scene: nodes: [{path: "foo", type: "unknown"}]`,
			contains: "plugin",
		},
		{
			name:     "connect edit without source",
			src:      `context: {}, scene: {nodes: [], references: [{node: "rRN", namespace: "r", edits: [{kind: "connectAttr", target: "|a.tx"}]}]}`,
			contains: "source",
		},
		{
			name:     "unknown field",
			src:      `context: {}, scene: nodes: [], shaders: []`,
			contains: "shaders",
		},
		{
			name: "instance on a transform",
			src: `context: {}, scene: nodes: [{path: "|a", type: "transform"}]
instances: [{name: "modelMain", product_type: "model", node: "|a"}]`,
			is: ErrInstanceNode,
		},
		{
			name: "duplicate instance",
			src: `context: {}, scene: {nodes: [], sets: [{name: "s"}]}
instances: [{name: "m", product_type: "model", node: "s"}, {name: "m", product_type: "model", node: "s"}]`,
			is: ErrDuplicateInstance,
		},
		{
			name: "container without node",
			src: `context: {}, scene: nodes: []
containers: [{name: "c", loader: "ReferenceLoader", object_name: "ghostRN"}]`,
			is: scene.ErrNodeNotFound,
		},
		{
			name:     "duplicate node",
			src:      `context: {}, scene: nodes: [{path: "|a", type: "transform"}, {path: "|a", type: "mesh"}]`,
			contains: "duplicate node",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.src), "test.cue")
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.contains != "" && !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q does not mention %q", err, tt.contains)
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("error %v is not %v", err, tt.is)
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.cue"))
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.Ref != issue.SceneNotFoundId {
		t.Errorf("missing file: %v", err)
	}

	bad := testutil.MustWriteFile(t, t.TempDir(), "bad.cue", `scene: nodes: [`)
	_, err = Load(bad)
	if !errors.As(err, &ae) || ae.Ref != issue.SceneParseErrorId {
		t.Errorf("syntax error: %v", err)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	t.Parallel()

	wf, err := Load(fixture)
	if err != nil {
		t.Fatal(err)
	}
	host, err := wf.Open()
	if err != nil {
		t.Fatal(err)
	}
	if err := host.SetID("|char_rig:root|char_rig:geo", "f-char:regenerated"); err != nil {
		t.Fatal(err)
	}
	if err := host.RemoveReferenceEdits("char_rigRN", "|char_rig:root.translate", scene.EditConnect); err != nil {
		t.Fatal(err)
	}
	wf.Sync(host)

	path := filepath.Join(t.TempDir(), "saved.cue")
	if err := Save(path, wf); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load(saved) error: %v", err)
	}
	again, err := reloaded.Open()
	if err != nil {
		t.Fatal(err)
	}

	if got := again.ID("|char_rig:root|char_rig:geo"); got != "f-char:regenerated" {
		t.Errorf("saved id = %q", got)
	}
	if edits, _ := again.ReferenceEdits("char_rigRN", scene.EditConnect); len(edits) != 0 {
		t.Errorf("removed edit came back: %+v", edits)
	}
	members, err := again.SetMembers("char_rig:out_SET")
	if err != nil || !slices.Equal(members, []types.NodePath{"|char_rig:root|char_rig:geo"}) {
		t.Errorf("SetMembers() = %v, %v", members, err)
	}
	v, err := again.Attr(scene.PlugOf("|camMain|camMainShape", "focalLength"))
	if n, ok := scene.Number(v); err != nil || !ok || n != 35 {
		t.Errorf("focalLength = %v, %v", v, err)
	}
	if reloaded.Instances[0].Name != "animationMain" || len(reloaded.Containers) != 2 {
		t.Errorf("instances/containers lost: %+v %+v", reloaded.Instances, reloaded.Containers)
	}
}

func TestSave_KeepsLoadPathOutOfContext(t *testing.T) {
	t.Parallel()

	wf, err := Load(fixture)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "saved.cue")
	if err := Save(path, wf); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "workfile:") || strings.Contains(string(data), "sh010_animation") {
		t.Errorf("saved workfile records the load path:\n%s", data)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(filepath.FromSlash(reloaded.Path())) || !strings.HasSuffix(reloaded.Path(), "/saved.cue") {
		t.Errorf("Path() = %q, want the absolute saved location", reloaded.Path())
	}

	reloaded.Context.Workfile = "/projects/demo/work/animation/sh010_v003.ma"
	if got := reloaded.Path(); got != reloaded.Context.Workfile {
		t.Errorf("Path() = %q, an authored workfile source wins", got)
	}
}

func TestEncode_EmptyScene(t *testing.T) {
	t.Parallel()

	data, err := Encode(&Workfile{Context: Context{Project: "demo"}})
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if _, err := Parse(data, "empty.cue"); err != nil {
		t.Errorf("encoded empty workfile does not parse: %v\n%s", err, data)
	}
}
