// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pubcheck/pubcheck/internal/archive"
	"github.com/pubcheck/pubcheck/internal/idsnap"
)

type duplicatesReport struct {
	Conflicts []idsnap.Conflict `json:"conflicts" yaml:"conflicts" toml:"conflicts"`
}

func newIDsCommand(app *App) *cobra.Command {
	idsCmd := &cobra.Command{
		Use:   "ids",
		Short: "Inspect node ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	idsCmd.AddCommand(&cobra.Command{
		Use:   "duplicates <file>...",
		Short: "List ids carried by more than one node",
		Long: `List every id carried by more than one node across the given workfiles
and archives. Exits with status 1 when duplicates exist.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDuplicates(cmd.Context(), app, args)
		},
	})

	idsCmd.AddCommand(&cobra.Command{
		Use:   "export <workfile> <archive>",
		Short: "Write the scene ids of a workfile to an archive file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), app, args[0], args[1])
		},
	})

	return idsCmd
}

func runDuplicates(ctx context.Context, app *App, paths []string) error {
	s, err := app.newSession(ctx)
	if err != nil {
		return err
	}
	snaps := make([]idsnap.Snapshot, 0, len(paths))
	for _, p := range paths {
		snap, err := s.loadSnapshot(p)
		if err != nil {
			return err
		}
		snaps = append(snaps, snap)
	}

	out := duplicatesReport{Conflicts: idsnap.Duplicates(snaps...)}
	if err := s.writeReport(app.stdout, out, func(w io.Writer) error {
		if len(out.Conflicts) == 0 {
			fmt.Fprintln(w, SuccessStyle.Render("no duplicate ids"))
			return nil
		}
		for _, c := range out.Conflicts {
			names := make([]string, 0, len(c.Paths))
			for _, p := range c.Paths {
				names = append(names, string(p))
			}
			fmt.Fprintf(w, "%s\n%s\n", ErrorStyle.Render(string(c.ID)), invalidStyle.Render(strings.Join(names, "\n")))
		}
		return nil
	}); err != nil {
		return err
	}

	if len(out.Conflicts) > 0 {
		return validationError(fmt.Errorf("%d duplicate ids", len(out.Conflicts)))
	}
	return nil
}

func runExport(ctx context.Context, app *App, path, dest string) error {
	s, err := app.newSession(ctx)
	if err != nil {
		return err
	}
	opened, err := s.openWorkfile(path)
	if err != nil {
		return err
	}
	snap := sceneSnapshot(opened.host)
	if err := archive.WriteFile(dest, archive.FromSnapshot(snap, s.cfg.IDAttribute)); err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "%s wrote %d ids to %s\n", SuccessStyle.Render("✓"), snap.Len(), dest)
	return nil
}
