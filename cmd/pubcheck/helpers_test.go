// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pubcheck/pubcheck/internal/config"
	"github.com/pubcheck/pubcheck/internal/testutil"
)

const animationFixture = "../../internal/workfile/testdata/sh010_animation.cue"

const modelWorkfile = `context: {
	project:     "demo"
	task:        "modeling"
	folder_path: "/assets/hero"
	folder_id:   "f1"
}

scene: {
	nodes: [
		{path: "|model_GRP", type: "transform", id: "f1:grp"},
		{path: "|model_GRP|body", type: "transform", id: "f1:body"},
		{path: "|model_GRP|body|bodyShape", type: "mesh", id: "f1:bodyShape"},
	]
	sets: [{name: "modelMain", entries: ["|model_GRP"]}]
}

instances: [{
	name:         "modelMain"
	product_type: "model"
	node:         "modelMain"
}]
`

type stubConfig struct {
	cfg  *config.Config
	err  error
	path string
}

func (s stubConfig) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	if s.err != nil {
		return nil, s.err
	}
	c := *s.cfg
	return &c, nil
}

func (s stubConfig) Path(config.LoadOptions) (string, error) { return s.path, nil }

type testApp struct {
	*App
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	dir    string
}

// newTestApp returns an app with default settings, project "demo" and an
// asset database inside a temporary directory.
func newTestApp(t *testing.T, mutate func(*config.Config)) *testApp {
	t.Helper()

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.ProjectName = "demo"
	cfg.AssetDB = filepath.Join(dir, "assets.db")
	if mutate != nil {
		mutate(cfg)
	}

	ta := &testApp{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}, dir: dir}
	app, err := NewApp(Dependencies{Config: stubConfig{cfg: cfg}, Stdout: ta.stdout, Stderr: ta.stderr})
	if err != nil {
		t.Fatalf("NewApp() error: %v", err)
	}
	ta.App = app
	return ta
}

func (ta *testApp) run(t *testing.T, args ...string) error {
	t.Helper()

	ta.stdout.Reset()
	root := NewRootCommand(ta.App)
	root.SetArgs(args)
	root.SetOut(ta.stdout)
	root.SetErr(ta.stderr)
	return root.ExecuteContext(t.Context())
}

// copyFixture copies the animation workfile into dir.
func copyFixture(t *testing.T, dir string) string {
	t.Helper()

	data, err := os.ReadFile(animationFixture)
	if err != nil {
		t.Fatal(err)
	}
	return testutil.MustWriteFile(t, dir, "sh010.cue", string(data))
}
