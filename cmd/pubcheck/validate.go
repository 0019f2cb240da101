// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/pubcheck/pubcheck/internal/publish"
)

func newValidateCommand(app *App) *cobra.Command {
	var instance string

	cmd := &cobra.Command{
		Use:   "validate <workfile>",
		Short: "Run collectors and validators over a workfile",
		Long: `Run collectors and validators over a workfile without writing anything.

Exits with status 1 when a validator reports invalid content and 3 when a
plug-in fails unexpectedly. The asset database is consulted when it exists.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), app, args[0], instance)
		},
	}
	cmd.Flags().StringVar(&instance, "instance", "", "only validate the named instance")
	return cmd
}

func runValidate(ctx context.Context, app *App, path, instance string) error {
	s, err := app.newSession(ctx)
	if err != nil {
		return err
	}
	opened, err := s.openWorkfile(path)
	if err != nil {
		return err
	}
	if err := checkInstance(opened.pass, instance); err != nil {
		return err
	}
	closeAssets, err := s.attachAssets(opened.pass, false)
	if err != nil {
		return err
	}
	defer closeAssets()

	runner, err := s.newRunner()
	if err != nil {
		return err
	}
	opts := publish.ValidateOnly
	opts.Only = instance
	report, err := runner.Run(ctx, opened.pass, opts)
	if err != nil {
		return err
	}

	if err := s.writeReport(app.stdout, report, func(w io.Writer) error {
		return s.renderRunReport(w, "Validate "+path, report)
	}); err != nil {
		return err
	}
	return runExit(report)
}
