// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/pubcheck/pubcheck/internal/plugins"
	"github.com/pubcheck/pubcheck/internal/publish"
)

// inventoryCommands maps subcommand names to inventory actions.
var inventoryCommands = []struct {
	use    string
	action string
	short  string
}{
	{"remove-camera-edits", "RemoveCameraTransformReferenceEdits", "Remove transform and camera edits from referenced cameras"},
}

type (
	inventoryOptions struct {
		containers []string
		write      string
	}

	inventoryReport struct {
		Action    string              `json:"action" yaml:"action" toml:"action"`
		Processed []publish.Container `json:"processed" yaml:"processed" toml:"processed"`
	}
)

func newInventoryCommand(app *App) *cobra.Command {
	invCmd := &cobra.Command{
		Use:   "inventory",
		Short: "Run inventory actions on loaded containers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	for _, ic := range inventoryCommands {
		var opts inventoryOptions
		sub := &cobra.Command{
			Use:   ic.use + " <workfile>",
			Short: ic.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runInventory(cmd.Context(), app, ic.action, args[0], opts)
			},
		}
		sub.Flags().StringSliceVar(&opts.containers, "container", nil, "only process the named containers")
		sub.Flags().StringVarP(&opts.write, "write", "w", "", "write the workfile here instead of in place")
		invCmd.AddCommand(sub)
	}
	return invCmd
}

func runInventory(ctx context.Context, app *App, actionName, path string, opts inventoryOptions) error {
	action, ok := plugins.InventoryAction(actionName)
	if !ok {
		return usageError(fmt.Errorf("%w: %s", publish.ErrPluginNotFound, actionName))
	}

	s, err := app.newSession(ctx)
	if err != nil {
		return err
	}
	opened, err := s.openWorkfile(path)
	if err != nil {
		return err
	}

	containers := opened.wf.Containers
	if len(opts.containers) > 0 {
		containers = slices.DeleteFunc(slices.Clone(containers), func(c publish.Container) bool {
			return !slices.Contains(opts.containers, c.Name)
		})
	}

	processed, err := publish.RunInventory(ctx, opened.pass, action, containers)
	if err != nil {
		s.log.Error("inventory action failed", "action", actionName, "err", err)
	}

	out := inventoryReport{Action: action.Name(), Processed: processed}
	if werr := s.writeReport(app.stdout, out, func(w io.Writer) error {
		fmt.Fprintln(w, TitleStyle.Render(action.Label()))
		if len(processed) == 0 {
			fmt.Fprintln(w, SubtitleStyle.Render("no compatible containers"))
		}
		for _, c := range processed {
			fmt.Fprintf(w, "%s %s %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(c.Name), SubtitleStyle.Render(string(c.ObjectName)))
		}
		return nil
	}); werr != nil {
		return werr
	}

	// A failed action may still have cleaned part of the containers.
	if len(processed) > 0 || err != nil || opts.write != "" {
		dest, serr := opened.save(opts.write)
		if serr != nil {
			return serr
		}
		s.log.Info("workfile saved", "path", dest)
	}
	if err != nil {
		return pluginError(err)
	}
	return nil
}
