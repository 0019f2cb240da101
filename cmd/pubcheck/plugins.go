// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pubcheck/pubcheck/internal/plugins"
	"github.com/pubcheck/pubcheck/internal/publish"
)

type (
	pluginInfo struct {
		Name       string       `json:"name" yaml:"name" toml:"name"`
		Label      string       `json:"label" yaml:"label" toml:"label"`
		Kind       publish.Kind `json:"kind" yaml:"kind" toml:"kind"`
		Order      float64      `json:"order" yaml:"order" toml:"order"`
		Families   []string     `json:"families" yaml:"families" toml:"families"`
		Optional   bool         `json:"optional" yaml:"optional" toml:"optional"`
		Repairable bool         `json:"repairable" yaml:"repairable" toml:"repairable"`
	}

	actionInfo struct {
		Name  string `json:"name" yaml:"name" toml:"name"`
		Label string `json:"label" yaml:"label" toml:"label"`
	}

	pluginsReport struct {
		Plugins   []pluginInfo `json:"plugins" yaml:"plugins" toml:"plugins"`
		Inventory []actionInfo `json:"inventory" yaml:"inventory" toml:"inventory"`
	}
)

func newPluginsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List the enabled plug-ins in run order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listPlugins(cmd.Context(), app)
		},
	}
}

func listPlugins(ctx context.Context, app *App) error {
	s, err := app.newSession(ctx)
	if err != nil {
		return err
	}
	runner, err := s.newRunner()
	if err != nil {
		return err
	}

	var out pluginsReport
	for _, p := range runner.Plugins() {
		out.Plugins = append(out.Plugins, pluginInfo{
			Name:       p.Name(),
			Label:      p.Label(),
			Kind:       publish.KindOf(p),
			Order:      p.Order(),
			Families:   p.Families(),
			Optional:   publish.IsOptional(p),
			Repairable: publish.IsRepairable(p),
		})
	}
	for _, a := range plugins.Inventory() {
		out.Inventory = append(out.Inventory, actionInfo{Name: a.Name(), Label: a.Label()})
	}

	return s.writeReport(app.stdout, out, func(w io.Writer) error {
		fmt.Fprintln(w, TitleStyle.Render("Plug-ins"))
		for _, p := range out.Plugins {
			var flags []string
			if p.Optional {
				flags = append(flags, "optional")
			}
			if p.Repairable {
				flags = append(flags, "repair")
			}
			fmt.Fprintf(w, "  %5.2f %-11s %s %s %s\n", p.Order, p.Kind, CmdStyle.Render(p.Name),
				SubtitleStyle.Render(strings.Join(p.Families, ",")), VerboseStyle.Render(strings.Join(flags, " ")))
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, TitleStyle.Render("Inventory actions"))
		for _, a := range out.Inventory {
			fmt.Fprintf(w, "  %s %s\n", CmdStyle.Render(a.Name), SubtitleStyle.Render(a.Label))
		}
		return nil
	})
}
