// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pubcheck/pubcheck/internal/idsnap"
)

type (
	reconcileOptions struct {
		diff   bool
		strict bool
	}

	reconcileReport struct {
		Current   string       `json:"current" yaml:"current" toml:"current"`
		Reference string       `json:"reference" yaml:"reference" toml:"reference"`
		Delta     idsnap.Delta `json:"delta" yaml:"delta" toml:"delta"`
	}
)

func newReconcileCommand(app *App) *cobra.Command {
	var opts reconcileOptions

	cmd := &cobra.Command{
		Use:   "reconcile <current> <reference>",
		Short: "Compare node ids between workfiles and archives",
		Long: `Compare the node ids of current against reference. Each side is a
workfile (.cue) or a published archive.

Paths only in current are added, paths only in reference are removed and
paths in both with a different id are changed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd.Context(), app, args[0], args[1], opts)
		},
	}
	cmd.Flags().BoolVar(&opts.diff, "diff", false, "print a unified diff of both id lists (text format only)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "exit with status 1 when ids changed")
	return cmd
}

func runReconcile(ctx context.Context, app *App, currentPath, referencePath string, opts reconcileOptions) error {
	s, err := app.newSession(ctx)
	if err != nil {
		return err
	}
	current, err := s.loadSnapshot(currentPath)
	if err != nil {
		return err
	}
	reference, err := s.loadSnapshot(referencePath)
	if err != nil {
		return err
	}

	delta := idsnap.Reconcile(current, reference)
	for _, p := range delta.Removed {
		s.log.Debug("Detected removed path", "path", p)
	}
	for _, p := range delta.Added {
		s.log.Debug("Detected new path", "path", p)
	}

	out := reconcileReport{Current: currentPath, Reference: referencePath, Delta: delta}
	if err := s.writeReport(app.stdout, out, func(w io.Writer) error {
		fmt.Fprintln(w, TitleStyle.Render("Reconcile "+currentPath)+SubtitleStyle.Render(" against "+referencePath))
		if delta.Empty() {
			fmt.Fprintln(w, SuccessStyle.Render("ids match"))
			return nil
		}
		for _, c := range delta.Changed {
			fmt.Fprintf(w, "%s %s %s\n", ErrorStyle.Render("changed"), CmdStyle.Render(string(c.Path)),
				SubtitleStyle.Render(fmt.Sprintf("%s -> %s", c.Previous, c.Current)))
		}
		for _, p := range delta.Added {
			fmt.Fprintf(w, "%s %s\n", SuccessStyle.Render("added  "), CmdStyle.Render(string(p)))
		}
		for _, p := range delta.Removed {
			fmt.Fprintf(w, "%s %s\n", WarningStyle.Render("removed"), CmdStyle.Render(string(p)))
		}
		if !opts.diff {
			return nil
		}
		diff, err := idsnap.UnifiedDiff(current, reference, currentPath, referencePath)
		if err != nil {
			return err
		}
		fmt.Fprintln(w)
		fmt.Fprint(w, diff)
		return nil
	}); err != nil {
		return err
	}

	if changed := delta.ChangedPaths(); opts.strict && len(changed) > 0 {
		return validationError(fmt.Errorf("%d node ids changed: %v", len(changed), changed))
	}
	return nil
}
