// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pubcheck/pubcheck/internal/assetdb"
	"github.com/pubcheck/pubcheck/internal/idgen"
	"github.com/pubcheck/pubcheck/internal/plugins"
	"github.com/pubcheck/pubcheck/internal/publish"
)

type (
	publishOptions struct {
		instance   string
		stagingDir string
	}

	// publishedVersion is a version registered by the integrator.
	publishedVersion struct {
		Instance string          `json:"instance" yaml:"instance" toml:"instance"`
		Version  assetdb.Version `json:"version" yaml:"version" toml:"version"`
	}

	publishReport struct {
		Results  []publish.Result   `json:"results" yaml:"results" toml:"results"`
		Stopped  bool               `json:"stopped" yaml:"stopped" toml:"stopped"`
		Versions []publishedVersion `json:"versions" yaml:"versions" toml:"versions"`
	}
)

func newPublishCommand(app *App) *cobra.Command {
	var opts publishOptions

	cmd := &cobra.Command{
		Use:   "publish <workfile>",
		Short: "Validate, extract and register new versions",
		Long: `Run every plug-in over a workfile. When validation passes, the
extractors write their output to the staging directory and the integrator
copies it under the representation root and registers a new version in the
asset database. The database is created when missing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(cmd.Context(), app, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.instance, "instance", "", "only publish the named instance")
	cmd.Flags().StringVar(&opts.stagingDir, "staging-dir", "", "directory for extracted files (default: a temporary directory)")
	return cmd
}

func runPublish(ctx context.Context, app *App, path string, opts publishOptions) error {
	s, err := app.newSession(ctx)
	if err != nil {
		return err
	}
	opened, err := s.openWorkfile(path)
	if err != nil {
		return err
	}
	pass := opened.pass
	if err := checkInstance(pass, opts.instance); err != nil {
		return err
	}
	closeAssets, err := s.attachAssets(pass, true)
	if err != nil {
		return err
	}
	defer closeAssets()

	pass.StagingDir = opts.stagingDir
	if pass.StagingDir == "" {
		dir, err := os.MkdirTemp("", "pubcheck-staging-*")
		if err != nil {
			return fmt.Errorf("failed to create staging directory: %w", err)
		}
		defer os.RemoveAll(dir)
		pass.StagingDir = dir
	}
	pass.NewID = idgen.UUIDv7()

	runner, err := s.newRunner()
	if err != nil {
		return err
	}
	report, err := runner.Run(ctx, pass, publish.RunOptions{Only: opts.instance})
	if err != nil {
		return err
	}

	out := publishReport{Results: report.Results, Stopped: report.Stopped}
	for _, inst := range pass.Instances {
		if v, ok := inst.Data[plugins.VersionKey].(assetdb.Version); ok {
			out.Versions = append(out.Versions, publishedVersion{Instance: inst.Name, Version: v})
		}
	}

	if err := s.writeReport(app.stdout, out, func(w io.Writer) error {
		if err := s.renderRunReport(w, "Publish "+path, report); err != nil {
			return err
		}
		for _, v := range out.Versions {
			fmt.Fprintf(w, "%s %s %s\n",
				SuccessStyle.Render("registered"),
				CmdStyle.Render(v.Instance),
				SubtitleStyle.Render(fmt.Sprintf("v%03d (%s)", v.Version.Version, v.Version.ID)))
		}
		return nil
	}); err != nil {
		return err
	}
	return runExit(report)
}
