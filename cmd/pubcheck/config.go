// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pubcheck/pubcheck/internal/config"
	"github.com/pubcheck/pubcheck/internal/issue"
)

// newConfigCommand creates the `pubcheck config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage pubcheck configuration",
		Long: `Manage pubcheck configuration.

Configuration is read from config.cue in:
  - Linux: ~/.config/pubcheck/
  - macOS: ~/Library/Application Support/pubcheck/
  - Windows: %APPDATA%\pubcheck\
and then from the working directory. PUBCHECK_* environment variables
override file values, e.g. PUBCHECK_ASSET_DB.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	var initDir string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app, initDir)
		},
	}
	initCmd.Flags().StringVar(&initDir, "dir", "", "directory to create config.cue in (default: the config directory)")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: app.flags.configFile})
			if err != nil {
				return err
			}
			src, err := config.GenerateCUE(cfg)
			if err != nil {
				return err
			}
			_, err = app.stdout.Write(src)
			return err
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	opts := config.LoadOptions{ConfigFilePath: app.flags.configFile}
	cfg, err := app.Config.Load(ctx, opts)
	if err != nil {
		return err
	}

	none := SubtitleStyle.Render("(none)")
	str := func(v string) string {
		if v == "" {
			return none
		}
		return SuccessStyle.Render(v)
	}
	list := func(items []string) string { return str(strings.Join(items, ", ")) }
	boolean := func(b bool) string { return str(strconv.FormatBool(b)) }

	source := SubtitleStyle.Render("(using defaults)")
	if path, _ := app.Config.Path(opts); path != "" {
		source = path
	}

	rows := [][2]string{
		{"config file", source},
		{"project_name", str(cfg.ProjectName)},
		{"asset_db", str(cfg.AssetDB)},
		{"representation_root", str(cfg.RepresentationRoot)},
		{"id_attribute", str(cfg.IDAttribute)},
		{"use_cbid_workflow", boolean(cfg.UseCbidWorkflow)},
		{"log_changed_hierarchies", boolean(cfg.LogChangedHierarchies)},
		{"disabled_plugins", list(cfg.DisabledPlugins)},
		{"unknown_plugins_ignore", list(cfg.UnknownPluginsIgnore)},
		{"camera_edit_attributes", list(cfg.CameraEditAttributes)},
		{"report_format", str(string(cfg.ReportFormat))},
		{"ui.color_scheme", str(string(cfg.UI.ColorScheme))},
		{"ui.verbose", boolean(cfg.UI.Verbose)},
	}

	key := CmdStyle.Width(25)
	fmt.Fprintln(app.stdout, TitleStyle.Render("Current configuration"))
	for _, r := range rows {
		fmt.Fprintln(app.stdout, key.Render(r[0])+r[1])
	}
	return nil
}

func initConfig(app *App, dir string) error {
	if dir == "" {
		var err error
		if dir, err = config.ConfigDir(); err != nil {
			return err
		}
	}
	path, err := config.CreateDefaultConfig(dir)
	if err != nil {
		return issue.Wrap(err, "create configuration", issue.On(dir))
	}
	fmt.Fprintf(app.stdout, "%s wrote %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func showConfigPath(app *App) error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "Config directory: %s\n", cfgDir)

	path, err := app.Config.Path(config.LoadOptions{ConfigFilePath: app.flags.configFile})
	if err != nil {
		return err
	}
	if path == "" {
		path = SubtitleStyle.Render("(none, using defaults)")
	}
	fmt.Fprintf(app.stdout, "Config file: %s\n", path)
	return nil
}
