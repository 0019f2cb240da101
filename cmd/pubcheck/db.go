// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pubcheck/pubcheck/internal/assetdb"
	"github.com/pubcheck/pubcheck/internal/plugins"
)

// ErrNoProject is returned when neither --project nor the configuration name
// a project.
var ErrNoProject = errors.New("no project: pass --project or set project_name")

type (
	registerOptions struct {
		publish assetdb.Publish
	}

	lastVersionOptions struct {
		folderID       string
		product        string
		representation string
	}

	lastVersionReport struct {
		Version *assetdb.Version `json:"version" yaml:"version" toml:"version,omitempty"`
		// Path is the resolved file of the requested representation.
		Path string `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
	}
)

func newDBCommand(app *App) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Query and update the asset database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var reg registerOptions
	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new version of a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd.Context(), app, reg)
		},
	}
	f := registerCmd.Flags()
	f.StringVar(&reg.publish.FolderID, "folder-id", "", "folder id (required)")
	f.StringVar(&reg.publish.FolderPath, "folder-path", "", "folder path")
	f.StringVar(&reg.publish.Product, "product", "", "product name (required)")
	f.StringVar(&reg.publish.ProductType, "type", "", "product type")
	f.StringVar(&reg.publish.Task, "task", "", "task the version was published from")
	f.StringVar(&reg.publish.Source, "source", "", "workfile the version was published from")
	f.StringToStringVar(&reg.publish.Representations, "representation", nil, "representation name=path template, repeatable")
	_ = registerCmd.MarkFlagRequired("folder-id")
	_ = registerCmd.MarkFlagRequired("product")
	dbCmd.AddCommand(registerCmd)

	var last lastVersionOptions
	lastCmd := &cobra.Command{
		Use:   "last-version",
		Short: "Show the last version of a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLastVersion(cmd.Context(), app, last)
		},
	}
	lastCmd.Flags().StringVar(&last.folderID, "folder-id", "", "folder id (required)")
	lastCmd.Flags().StringVar(&last.product, "product", "", "product name (required)")
	lastCmd.Flags().StringVar(&last.representation, "representation", plugins.ArchiveRepresentation, "representation to resolve")
	_ = lastCmd.MarkFlagRequired("folder-id")
	_ = lastCmd.MarkFlagRequired("product")
	dbCmd.AddCommand(lastCmd)

	return dbCmd
}

// openStore opens the asset database for the db commands.
func (s *session) openStore(create bool) (*assetdb.Store, error) {
	if s.project == "" {
		return nil, usageError(ErrNoProject)
	}
	store, err := s.openAssets(create)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, usageError(fmt.Errorf("asset database %q does not exist", s.cfg.AssetDB))
	}
	return store, nil
}

func runRegister(ctx context.Context, app *App, opts registerOptions) error {
	s, err := app.newSession(ctx)
	if err != nil {
		return err
	}
	store, err := s.openStore(true)
	if err != nil {
		return err
	}
	defer store.Close()

	p := opts.publish
	p.Project = s.project
	v, err := store.RegisterVersion(ctx, p)
	if err != nil {
		return err
	}
	return s.writeReport(app.stdout, lastVersionReport{Version: v}, func(w io.Writer) error {
		fmt.Fprintf(w, "%s %s v%03d %s\n", SuccessStyle.Render("registered"), CmdStyle.Render(p.Product),
			v.Version, SubtitleStyle.Render(v.ID))
		return nil
	})
}

func runLastVersion(ctx context.Context, app *App, opts lastVersionOptions) error {
	s, err := app.newSession(ctx)
	if err != nil {
		return err
	}
	store, err := s.openStore(false)
	if err != nil {
		return err
	}
	defer store.Close()

	v, err := store.LastVersionByProductName(ctx, s.project, opts.product, opts.folderID)
	if err != nil {
		return err
	}
	out := lastVersionReport{Version: v}
	if v != nil && opts.representation != "" {
		r, err := store.RepresentationByName(ctx, s.project, opts.representation, v.ID)
		if err != nil {
			return err
		}
		out.Path = store.RepresentationPath(r)
	}

	return s.writeReport(app.stdout, out, func(w io.Writer) error {
		if v == nil {
			fmt.Fprintln(w, SubtitleStyle.Render("never published"))
			return nil
		}
		fmt.Fprintf(w, "%s v%03d %s\n", CmdStyle.Render(opts.product), v.Version, SubtitleStyle.Render(v.ID))
		fmt.Fprintf(w, "  task:    %s\n  source:  %s\n  created: %s\n", v.Task, v.Source, v.CreatedAt.Format("2006-01-02 15:04:05"))
		if out.Path != "" {
			fmt.Fprintf(w, "  %s: %s\n", opts.representation, out.Path)
		}
		return nil
	})
}
