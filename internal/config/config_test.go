// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"runtime"
	"slices"
	"strings"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/pubcheck/pubcheck/internal/issue"
	"github.com/pubcheck/pubcheck/internal/testutil"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.AssetDB != DefaultAssetDB || cfg.IDAttribute != "cbId" {
		t.Errorf("defaults = %+v", cfg)
	}
	if !cfg.UseCbidWorkflow || !cfg.LogChangedHierarchies {
		t.Error("cbId workflow and hierarchy logging should default to on")
	}
	if !slices.Equal(cfg.UnknownPluginsIgnore, []string{"stereoCamera"}) {
		t.Errorf("UnknownPluginsIgnore = %v", cfg.UnknownPluginsIgnore)
	}
	if cfg.ReportFormat != ReportText || cfg.UI.ColorScheme != ColorSchemeAuto || cfg.UI.Verbose {
		t.Errorf("report/ui defaults = %q %+v", cfg.ReportFormat, cfg.UI)
	}
	if ok, errs := cfg.IsValid(); !ok {
		t.Errorf("default config invalid: %v", errs)
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader().Load(t.Context(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !sameConfig(cfg, DefaultConfig()) {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustWriteFile(t, dir, "config.cue", `
project_name: "demo"
asset_db: ":memory:"
log_changed_hierarchies: false
disabled_plugins: ["ValidateLookViewportSubdivs"]
ui: verbose: true
`)

	p := NewLoader()
	cfg, err := p.Load(t.Context(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ProjectName != "demo" || cfg.AssetDB != ":memory:" || cfg.LogChangedHierarchies {
		t.Errorf("Load() = %+v", cfg)
	}
	if !cfg.UI.Verbose || cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("ui = %+v", cfg.UI)
	}
	if !slices.Equal(cfg.DisabledPlugins, []string{"ValidateLookViewportSubdivs"}) {
		t.Errorf("DisabledPlugins = %v", cfg.DisabledPlugins)
	}
	if cfg.IDAttribute != "cbId" {
		t.Errorf("unset keys should keep defaults, IDAttribute = %q", cfg.IDAttribute)
	}

	path, err := p.Path(LoadOptions{ConfigDirPath: dir})
	if err != nil || path != filepath.Join(dir, "config.cue") {
		t.Errorf("Path() = %q, %v", path, err)
	}
}

// Not parallel: changes the working directory.
func TestLoad_WorkingDirectoryFallback(t *testing.T) {
	dir := t.TempDir()
	testutil.MustWriteFile(t, dir, "config.cue", "project_name: \"local\"\n")
	t.Chdir(dir)

	opts := LoadOptions{ConfigDirPath: t.TempDir()}
	cfg, err := NewLoader().Load(t.Context(), opts)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ProjectName != "local" {
		t.Errorf("ProjectName = %q, want the ./config.cue value", cfg.ProjectName)
	}
	if path, _ := NewLoader().Path(opts); path != "config.cue" {
		t.Errorf("Path() = %q", path)
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		contains string
	}{
		{"unknown report format", `report_format: "xml"`, "report_format"},
		{"unknown key", `container_engine: "docker"`, "container_engine"},
		{"bad id attribute", `id_attribute: "9id"`, "id_attribute"},
		{"wrong type", `use_cbid_workflow: "yes"`, "use_cbid_workflow"},
		{"syntax", `asset_db: "x`, "config.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := testutil.MustWriteFile(t, t.TempDir(), "config.cue", tt.content)

			_, err := NewLoader().Load(t.Context(), LoadOptions{ConfigFilePath: path})
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q does not mention %q", err, tt.contains)
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) || ae.Ref != issue.ConfigLoadFailedId {
				t.Errorf("error should be an actionable config error, got %T", err)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := NewLoader().Load(t.Context(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue"),
	})
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.Ref != issue.FileNotFoundId {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if _, err := NewLoader().Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	testutil.MustWriteFile(t, dir, "config.cue", `asset_db: "from-file.db"`)

	t.Setenv("PUBCHECK_ASSET_DB", "from-env.db")
	t.Setenv("PUBCHECK_UI_VERBOSE", "true")
	t.Setenv("PUBCHECK_REPORT_FORMAT", "json")

	cfg, err := NewLoader().Load(t.Context(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.AssetDB != "from-env.db" || !cfg.UI.Verbose || cfg.ReportFormat != ReportJSON {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestLoad_EnvInvalidValue(t *testing.T) {
	t.Setenv("PUBCHECK_REPORT_FORMAT", "xml")

	_, err := NewLoader().Load(t.Context(), LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, ErrInvalidReportFormat) {
		t.Errorf("Load() error = %v, want ErrInvalidReportFormat", err)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.ProjectName = "demo"
	cfg.RepresentationRoot = "/mnt/projects"
	cfg.CameraEditAttributes = []string{"translateX", "focalLength"}
	cfg.UI.ColorScheme = ColorSchemeDark

	dir := t.TempDir()
	src, err := GenerateCUE(cfg)
	if err != nil {
		t.Fatalf("GenerateCUE() error: %v", err)
	}
	testutil.MustWriteFile(t, dir, "config.cue", string(src))

	loaded, err := NewLoader().Load(t.Context(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load(GenerateCUE()) error: %v", err)
	}
	if !sameConfig(loaded, cfg) {
		t.Errorf("round trip:\n got %+v\nwant %+v", loaded, cfg)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "pubcheck")
	path, err := CreateDefaultConfig(dir)
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error: %v", err)
	}
	again, err := CreateDefaultConfig(dir)
	if err != nil || again != path {
		t.Errorf("second CreateDefaultConfig() = %q, %v", again, err)
	}
	if _, err := NewLoader().Load(t.Context(), LoadOptions{ConfigFilePath: path}); err != nil {
		t.Errorf("generated default config does not load: %v", err)
	}
}

func TestConfigDir_XDG(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("XDG_CONFIG_HOME is only honoured on Unix-like systems")
	}
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	got, err := ConfigDir()
	if err != nil || got != filepath.Join(xdg, AppName) {
		t.Errorf("ConfigDir() = %q, %v", got, err)
	}
}

func TestConfigDir_Home(t *testing.T) {
	home := t.TempDir()
	testutil.SetHomeDir(t, home)
	t.Setenv("XDG_CONFIG_HOME", "")

	got, err := ConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != AppName {
		t.Errorf("ConfigDir() = %q, want a %s directory", got, AppName)
	}
}

func TestValueTypes(t *testing.T) {
	t.Parallel()

	if ok, _ := ColorScheme("sepia").IsValid(); ok {
		t.Error("sepia should not be a valid color scheme")
	}
	_, errs := ReportFormat("xml").IsValid()
	if len(errs) != 1 || !errors.Is(errs[0], ErrInvalidReportFormat) {
		t.Errorf("ReportFormat errors = %v", errs)
	}

	cfg := DefaultConfig()
	cfg.IDAttribute = " "
	cfg.UI.ColorScheme = "sepia"
	ok, errs := cfg.IsValid()
	if ok || len(errs) != 1 || !errors.Is(errs[0], ErrInvalidConfig) {
		t.Fatalf("IsValid() = %v, %v", ok, errs)
	}
	var cfgErr *InvalidConfigError
	if !errors.As(errs[0], &cfgErr) || len(cfgErr.FieldErrors) != 2 {
		t.Errorf("field errors = %+v", cfgErr)
	}
}

// The schema and the Go struct must name the same keys.
func TestSchemaMatchesStruct(t *testing.T) {
	t.Parallel()

	schema := cuecontext.New().CompileString(configSchema)
	if schema.Err() != nil {
		t.Fatal(schema.Err())
	}

	check := func(def string, typ reflect.Type) {
		t.Helper()
		val := schema.LookupPath(cue.ParsePath(def))
		iter, err := val.Fields(cue.Optional(true))
		if err != nil {
			t.Fatal(err)
		}
		var cueFields []string
		for iter.Next() {
			cueFields = append(cueFields, strings.TrimSuffix(iter.Selector().String(), "?"))
		}
		var goFields []string
		for i := range typ.NumField() {
			name, _, _ := strings.Cut(typ.Field(i).Tag.Get("json"), ",")
			goFields = append(goFields, name)
		}
		slices.Sort(cueFields)
		slices.Sort(goFields)
		if !slices.Equal(cueFields, goFields) {
			t.Errorf("%s fields:\n cue %v\n  go %v", def, cueFields, goFields)
		}
	}

	check("#Config", reflect.TypeFor[Config]())
	check("#UIConfig", reflect.TypeFor[UIConfig]())
}

// sameConfig compares configs treating nil and empty lists alike.
func sameConfig(a, b *Config) bool {
	return a.ProjectName == b.ProjectName &&
		a.AssetDB == b.AssetDB &&
		a.RepresentationRoot == b.RepresentationRoot &&
		a.IDAttribute == b.IDAttribute &&
		a.UseCbidWorkflow == b.UseCbidWorkflow &&
		a.LogChangedHierarchies == b.LogChangedHierarchies &&
		slices.Equal(a.DisabledPlugins, b.DisabledPlugins) &&
		slices.Equal(a.UnknownPluginsIgnore, b.UnknownPluginsIgnore) &&
		slices.Equal(a.CameraEditAttributes, b.CameraEditAttributes) &&
		a.ReportFormat == b.ReportFormat &&
		a.UI == b.UI
}
