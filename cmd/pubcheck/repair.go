// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/pubcheck/pubcheck/internal/issue"
	"github.com/pubcheck/pubcheck/internal/publish"
)

type repairOptions struct {
	plugin   string
	instance string
	write    string
}

func newRepairCommand(app *App) *cobra.Command {
	var opts repairOptions

	cmd := &cobra.Command{
		Use:   "repair <workfile>",
		Short: "Repair what a validator reports",
		Long: `Collect, then run the repair of one validator on every target it fails
on and validate again.

The repaired scene is written back to the workfile, or to --write when set.
Repairs are never run implicitly by validate or publish.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepair(cmd.Context(), app, args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.plugin, "plugin", "p", "", "validator to repair (required)")
	cmd.Flags().StringVar(&opts.instance, "instance", "", "only repair the named instance")
	cmd.Flags().StringVarP(&opts.write, "write", "w", "", "write the repaired workfile here instead of in place")
	_ = cmd.MarkFlagRequired("plugin")
	return cmd
}

func runRepair(ctx context.Context, app *App, path string, opts repairOptions) error {
	s, err := app.newSession(ctx)
	if err != nil {
		return err
	}
	opened, err := s.openWorkfile(path)
	if err != nil {
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
	report, err := runner.Repair(ctx, opened.pass, opts.plugin, opts.instance)
	switch {
	case errors.Is(err, publish.ErrPluginNotFound):
		return usageError(issue.Wrap(err, "repair workfile", issue.See(issue.PluginNotFoundId)))
	case errors.Is(err, publish.ErrNotRepairable), errors.Is(err, publish.ErrInstanceNotFound):
		return usageError(err)
	case err != nil:
		return err
	}

	if err := s.writeReport(app.stdout, report, func(w io.Writer) error {
		return s.renderRepairReport(w, report)
	}); err != nil {
		return err
	}

	if repaired(report) || opts.write != "" {
		dest, err := opened.save(opts.write)
		if err != nil {
			return err
		}
		s.log.Info("workfile saved", "path", dest)
	}

	if !report.OK() {
		return validationError(issue.Wrap(ErrRepairIncomplete, "repair workfile", issue.See(issue.RepairFailedId)))
	}
	return nil
}

func repaired(report *publish.RepairReport) bool {
	for _, r := range report.Repairs {
		if r.Repaired {
			return true
		}
	}
	return false
}
