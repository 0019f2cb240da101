// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pubcheck/pubcheck/internal/watch"
	"github.com/pubcheck/pubcheck/pkg/types"
)

type watchFlags struct {
	patterns []string
	ignore   []string
	debounce time.Duration
	clear    bool
}

func newWatchCommand(app *App) *cobra.Command {
	var flags watchFlags

	cmd := &cobra.Command{
		Use:   "watch [dir|workfile]",
		Short: "Re-validate workfiles whenever they are saved",
		Long: `Watch a directory and validate every workfile that changes.

A workfile argument watches only that file and validates it once up front.
Validation failures are reported and watching continues; repairs are never
applied. Stop with Ctrl+C.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) == 1 {
				target = args[0]
			}
			return runWatch(cmd.Context(), app, target, flags)
		},
	}
	cmd.Flags().StringSliceVar(&flags.patterns, "pattern", nil, "glob selecting workfiles (default **/*.cue)")
	cmd.Flags().StringSliceVar(&flags.ignore, "ignore", nil, "additional glob of paths to ignore")
	cmd.Flags().DurationVar(&flags.debounce, "debounce", watch.DefaultDebounce, "quiet period before validating")
	cmd.Flags().BoolVar(&flags.clear, "clear", false, "clear the terminal before each run")
	return cmd
}

func runWatch(ctx context.Context, app *App, target string, flags watchFlags) error {
	s, err := app.newSession(ctx)
	if err != nil {
		return err
	}

	dir, patterns := target, flags.patterns
	var initial []string
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		dir, patterns = filepath.Dir(target), []string{filepath.Base(target)}
		initial = patterns
	}

	w, err := watch.New(watch.Options{
		Dir:      dir,
		Patterns: patterns,
		Ignore:   flags.ignore,
		Debounce: flags.debounce,
		Logger:   s.log,
		OnChange: func(ctx context.Context, changed []string) error {
			if flags.clear {
				fmt.Fprint(app.stdout, "\033[2J\033[H")
			}
			validateChanged(ctx, app, s, dir, changed)
			return nil
		},
	})
	if err != nil {
		return usageError(err)
	}

	if len(initial) > 0 {
		validateChanged(ctx, app, s, dir, initial)
	}
	s.log.Info("watching workfiles", "dir", w.Dir(), "directories", w.Directories())
	return w.Run(ctx)
}

// validateChanged validates each changed workfile in turn. Outcomes are
// logged; only the report goes to stdout.
func validateChanged(ctx context.Context, app *App, s *session, dir string, changed []string) {
	for _, rel := range changed {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			s.log.Info("workfile removed", "workfile", rel)
			continue
		}

		err := runValidate(ctx, app, path, "")
		switch {
		case err == nil:
			s.log.Info("workfile valid", "workfile", rel)
		case exitCode(err) == types.ExitValidationFailed:
			s.log.Warn("validation failed", "workfile", rel)
		default:
			s.log.Error("cannot validate workfile", "workfile", rel, "err", formatErrorForDisplay(err, s.verbose))
		}
	}
}
