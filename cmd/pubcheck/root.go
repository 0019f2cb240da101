// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/pubcheck/pubcheck/pkg/types"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlags are the persistent flags shared by every command.
type rootFlags struct {
	verbose    bool
	configFile string
	format     string
	assetDB    string
	project    string
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pubcheck",
		Short: "Validate, repair and publish scene workfiles",
		Long: TitleStyle.Render("pubcheck") + SubtitleStyle.Render(" - publish checks for scene workfiles") + `

pubcheck runs the publish plug-ins over a workfile: collectors gather the
members of every instance, validators check node ids, namespaces, rig
content and render settings, and the extractor and integrator write and
register a new version in the asset database.

` + SubtitleStyle.Render("Examples:") + `
  pubcheck validate shot.cue                          Validate every instance
  pubcheck repair shot.cue --plugin ValidateAnimationContent
  pubcheck publish shot.cue                           Validate, extract and register
  pubcheck inventory remove-camera-edits shot.cue     Clean camera reference edits
  pubcheck reconcile shot.cue modelMain_v001.abc.yaml Compare node ids`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	flags.StringVar(&app.flags.configFile, "config", "", "config file (default is $HOME/.config/pubcheck/config.cue)")
	flags.StringVarP(&app.flags.format, "format", "f", "", "report format: text, json, yaml or toml")
	flags.StringVar(&app.flags.assetDB, "asset-db", "", "asset database file")
	flags.StringVar(&app.flags.project, "project", "", "project name when the workfile does not set one")

	rootCmd.AddCommand(
		newValidateCommand(app),
		newRepairCommand(app),
		newPublishCommand(app),
		newInventoryCommand(app),
		newReconcileCommand(app),
		newIDsCommand(app),
		newDBCommand(app),
		newPluginsCommand(app),
		newConfigCommand(app),
		newWatchCommand(app),
	)
	return rootCmd
}

func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. It is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(int(types.ExitUsage))
	}

	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		printIssueHelp(os.Stderr, err, app.flags.verbose)
		os.Exit(int(exitCode(err)))
	}
}
