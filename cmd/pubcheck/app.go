// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/pubcheck/pubcheck/internal/assetdb"
	"github.com/pubcheck/pubcheck/internal/config"
	"github.com/pubcheck/pubcheck/internal/issue"
	"github.com/pubcheck/pubcheck/internal/plugins"
	"github.com/pubcheck/pubcheck/internal/publish"
	"github.com/pubcheck/pubcheck/internal/scene"
	"github.com/pubcheck/pubcheck/internal/workfile"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives it and reaches configuration through it.
	App struct {
		Config ConfigProvider
		stdout io.Writer
		stderr io.Writer
		flags  rootFlags
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
		Path(opts config.LoadOptions) (string, error)
	}

	// session is the state of one command invocation: the effective
	// configuration after flag overrides and the logger built from it.
	session struct {
		cfg     *config.Config
		log     *log.Logger
		verbose bool
		project string
	}

	// openedWorkfile is a loaded workfile with its scene and a pass over it.
	openedWorkfile struct {
		path string
		wf   *workfile.Workfile
		host *scene.Memory
		pass *publish.Pass
	}
)

// NewApp creates an App, filling nil dependencies with defaults.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewLoader()
	}

	return &App{
		Config: deps.Config,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}, nil
}

// loadConfigWithFallback loads configuration via the provider. An explicit
// --config file must load; a broken default file is reported and replaced by
// defaults so commands stay operational.
func (a *App) loadConfigWithFallback(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.flags.configFile})
	if err == nil {
		return cfg, nil
	}
	if a.flags.configFile != "" {
		return nil, err
	}
	fmt.Fprintln(a.stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, a.flags.verbose))
	return config.DefaultConfig(), nil
}

// newSession loads the configuration and applies the persistent flags.
func (a *App) newSession(ctx context.Context) (*session, error) {
	cfg, err := a.loadConfigWithFallback(ctx)
	if err != nil {
		return nil, err
	}

	if a.flags.format != "" {
		cfg.ReportFormat = config.ReportFormat(a.flags.format)
		if ok, errs := cfg.ReportFormat.IsValid(); !ok {
			return nil, errs[0]
		}
	}
	if a.flags.assetDB != "" {
		cfg.AssetDB = a.flags.assetDB
	}

	s := &session{
		cfg:     cfg,
		verbose: a.flags.verbose || cfg.UI.Verbose,
		project: cmp.Or(a.flags.project, cfg.ProjectName),
	}
	s.log = log.NewWithOptions(a.stderr, log.Options{Prefix: config.AppName})
	if s.verbose {
		s.log.SetLevel(log.DebugLevel)
	}
	return s, nil
}

// settings maps the configuration onto plug-in settings.
func (s *session) settings() publish.Settings {
	return publish.Settings{
		IDAttribute:           s.cfg.IDAttribute,
		UseCbidWorkflow:       s.cfg.UseCbidWorkflow,
		LogChangedHierarchies: s.cfg.LogChangedHierarchies,
		DisabledPlugins:       s.cfg.DisabledPlugins,
		UnknownPluginsIgnore:  s.cfg.UnknownPluginsIgnore,
		CameraEditAttributes:  s.cfg.CameraEditAttributes,
	}
}

// openWorkfile loads the workfile at path and prepares a pass over its scene.
func (s *session) openWorkfile(path string) (*openedWorkfile, error) {
	wf, err := workfile.Load(path)
	if err != nil {
		return nil, err
	}
	host, err := wf.Open()
	if err != nil {
		return nil, issue.Wrap(err, "open workfile scene",
			issue.On(path),
			issue.Hint("Check that every set and reference entry names an existing node"),
			issue.See(issue.SceneParseErrorId))
	}

	pass := wf.NewPass(host)
	pass.Settings = s.settings()
	pass.Log = s.log
	pass.Project = cmp.Or(pass.Project, s.project)
	return &openedWorkfile{path: path, wf: wf, host: host, pass: pass}, nil
}

// save writes the scene state back to the workfile, or to out when set.
func (o *openedWorkfile) save(out string) (string, error) {
	o.wf.Sync(o.host)
	dest := cmp.Or(out, o.path)
	if err := workfile.Save(dest, o.wf); err != nil {
		return "", issue.Wrap(err, "save workfile", issue.On(dest))
	}
	return dest, nil
}

// openAssets opens the configured asset database. Unless create is set, a
// database file that does not exist yet yields a nil store.
func (s *session) openAssets(create bool) (*assetdb.Store, error) {
	path := s.cfg.AssetDB
	if path == "" {
		return nil, nil
	}
	if !create {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			s.log.Debug("no asset database, skipping version checks", "path", path)
			return nil, nil
		}
	}

	root := s.cfg.RepresentationRoot
	if root == "" {
		root = filepath.Join(filepath.Dir(path), "publish")
	}
	store, err := assetdb.Open(path, assetdb.WithRoot(root))
	if err != nil {
		return nil, issue.Wrap(err, "open asset database", issue.On(path), issue.See(issue.AssetDBUnavailableId))
	}
	return store, nil
}

// attachAssets opens the asset database and hands it to the pass. The
// returned close function is never nil.
func (s *session) attachAssets(pass *publish.Pass, create bool) (func(), error) {
	store, err := s.openAssets(create)
	if err != nil {
		return func() {}, err
	}
	if store == nil {
		return func() {}, nil
	}
	pass.Assets = store
	return func() {
		if err := store.Close(); err != nil {
			s.log.Warn("failed to close asset database", "err", err)
		}
	}, nil
}

// newRunner orders the registered plug-ins under the session settings.
func (s *session) newRunner() (*publish.Runner, error) {
	runner, err := publish.NewRunner(plugins.Default(), s.settings())
	if err != nil {
		return nil, issue.Wrap(err, "order plug-ins", issue.See(issue.PluginOrderCycleId))
	}
	return runner, nil
}

// checkInstance fails when a requested instance is not authored.
func checkInstance(pass *publish.Pass, name string) error {
	if name == "" {
		return nil
	}
	if _, ok := pass.Instance(name); !ok {
		return usageError(fmt.Errorf("%w: %s", publish.ErrInstanceNotFound, name))
	}
	return nil
}
