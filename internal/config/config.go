// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"github.com/pubcheck/pubcheck/internal/cueutil"
	"github.com/pubcheck/pubcheck/internal/issue"
)

const (
	AppName = "pubcheck"
	// FileName is the config file looked up in the config directory and
	// the working directory.
	FileName = "config.cue"
	// EnvPrefix prefixes environment overrides, e.g. PUBCHECK_ASSET_DB.
	EnvPrefix = "PUBCHECK"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the pubcheck directory under the user config directory
// (os.UserConfigDir).
//
//nolint:revive // config.Dir would read ambiguously at call sites
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// loadWithOptions layers defaults, the config file and the environment, in
// that order of precedence from lowest. It also returns the file it read,
// "" when there was none.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}

	v := viper.New()
	for key, val := range defaultValues(DefaultConfig()) {
		v.SetDefault(key, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := resolveConfigFile(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		values, err := readConfigFile(path)
		if err == nil {
			err = v.MergeConfigMap(values)
		}
		if err != nil {
			return nil, "", issue.Wrap(err, "load configuration",
				issue.On(path),
				issue.Hint("Check that the file contains valid CUE syntax",
					"Compare it with the output of 'pubcheck config dump'"),
				issue.See(issue.ConfigLoadFailedId))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("decode config: %w", err)
	}
	if ok, errs := cfg.IsValid(); !ok {
		return nil, "", issue.Wrap(errs[0], "validate configuration",
			issue.On(path),
			issue.Hint("Check the "+EnvPrefix+"_* environment variables"),
			issue.See(issue.ConfigLoadFailedId))
	}
	return &cfg, path, nil
}

// defaultValues flattens d into viper keys. Every key must have a default
// for AutomaticEnv to pick up its override during Unmarshal.
func defaultValues(d *Config) map[string]any {
	return map[string]any{
		"project_name":            d.ProjectName,
		"asset_db":                d.AssetDB,
		"representation_root":     d.RepresentationRoot,
		"id_attribute":            d.IDAttribute,
		"use_cbid_workflow":       d.UseCbidWorkflow,
		"log_changed_hierarchies": d.LogChangedHierarchies,
		"disabled_plugins":        d.DisabledPlugins,
		"unknown_plugins_ignore":  d.UnknownPluginsIgnore,
		"camera_edit_attributes":  d.CameraEditAttributes,
		"report_format":           string(d.ReportFormat),
		"ui.color_scheme":         string(d.UI.ColorScheme),
		"ui.verbose":              d.UI.Verbose,
	}
}

// resolveConfigFile picks the file to load. An explicit file must exist;
// otherwise the config directory and then the working directory are tried,
// and no file at all is not an error.
func resolveConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !isFile(opts.ConfigFilePath) {
			return "", issue.Wrap(fs.ErrNotExist, "load configuration",
				issue.On(opts.ConfigFilePath),
				issue.Hint("Verify the file path is correct",
					"Use 'pubcheck config show' to see the default configuration"),
				issue.See(issue.FileNotFoundId))
		}
		return opts.ConfigFilePath, nil
	}

	dir := opts.ConfigDirPath
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	for _, candidate := range []string{filepath.Join(dir, FileName), FileName} {
		if isFile(candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

// readConfigFile validates a config file against #Config. Every field is
// optional, so the file is checked non-concrete and decoded into a map for
// viper to merge.
func readConfigFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(configSchema).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("config schema: %w", err)
	}
	file := ctx.CompileBytes(data, cue.Filename(path))
	if err := file.Err(); err != nil {
		return nil, cueutil.FormatError(err, path)
	}

	merged := schema.Unify(file)
	if err := merged.Validate(); err != nil {
		return nil, cueutil.FormatError(err, path)
	}
	var values map[string]any
	if err := merged.Decode(&values); err != nil {
		return nil, cueutil.FormatError(err, path)
	}
	return values, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// CreateDefaultConfig writes the default configuration into dir unless a
// config file is already there, and returns the file path.
func CreateDefaultConfig(dir string) (string, error) {
	path := filepath.Join(dir, FileName)
	if isFile(path) {
		return path, nil
	}
	src, err := GenerateCUE(DefaultConfig())
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, src, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// GenerateCUE renders cfg as config file source. Empty strings are left
// out since the schema rejects them.
func GenerateCUE(cfg *Config) ([]byte, error) {
	values := make(map[string]any)
	for key, val := range defaultValues(cfg) {
		switch v := val.(type) {
		case string:
			if v == "" {
				continue
			}
		case []string:
			if v == nil {
				val = []string{}
			}
		}
		if head, tail, nested := strings.Cut(key, "."); nested {
			sub, _ := values[head].(map[string]any)
			if sub == nil {
				sub = make(map[string]any)
				values[head] = sub
			}
			sub[tail] = val
			continue
		}
		values[key] = val
	}
	src, err := cueutil.Encode(values)
	if err != nil {
		return nil, fmt.Errorf("render config: %w", err)
	}
	return append([]byte("// pubcheck configuration file\n\n"), src...), nil
}
