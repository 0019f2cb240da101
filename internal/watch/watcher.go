// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs a callback when workfiles under a directory change.
//
// Filesystem events are filtered through doublestar patterns and coalesced
// over a quiet period, so an editor that writes a temp file and renames it
// over the workfile produces a single callback.
package watch

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Options.Debounce is unset.
const DefaultDebounce = 300 * time.Millisecond

// DefaultPatterns selects CUE workfiles.
var DefaultPatterns = []string{"**/*.cue"}

var defaultIgnores = []string{
	"**/.git/**",
	"**/publish/**",
	"**/*.swp",
	"**/*~",
	"**/.#*",
	"**/.DS_Store",
}

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

type (
	// Options configures a Watcher.
	Options struct {
		// Dir is watched recursively. Empty means the working directory.
		Dir string
		// Patterns select the files that trigger OnChange, relative to Dir.
		// Empty means DefaultPatterns.
		Patterns []string
		// Ignore is merged with the built-in ignores (VCS metadata, the
		// publish tree, editor swap files).
		Ignore   []string
		Debounce time.Duration
		// OnChange receives the changed paths relative to Dir, sorted.
		// Errors are logged and do not stop the watcher.
		OnChange func(ctx context.Context, changed []string) error
		Logger   *log.Logger
	}

	// Watcher dispatches debounced change notifications. Callbacks run on
	// the event loop, so they never overlap; events that arrive meanwhile
	// are queued by fsnotify and reported in the next batch.
	Watcher struct {
		opts     Options
		dir      string
		ignores  []string
		fsw      *fsnotify.Watcher
		log      *log.Logger
		started  atomic.Bool
		watching int
	}
)

// New validates the patterns, resolves Dir and registers every directory
// below it that is not ignored.
func New(opts Options) (*Watcher, error) {
	if len(opts.Patterns) == 0 {
		opts.Patterns = DefaultPatterns
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if err := validPatterns("watch", opts.Patterns); err != nil {
		return nil, err
	}
	if err := validPatterns("ignore", opts.Ignore); err != nil {
		return nil, err
	}

	dir, err := filepath.Abs(cmp.Or(opts.Dir, "."))
	if err != nil {
		return nil, fmt.Errorf("watch: resolve %q: %w", opts.Dir, err)
	}
	if info, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("watch: %s is not a directory", dir)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}

	w := &Watcher{
		opts:    opts,
		dir:     dir,
		ignores: append(slices.Clone(defaultIgnores), opts.Ignore...),
		fsw:     fsw,
		log:     logger,
	}
	if err := w.addTree(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Dir is the absolute watched directory.
func (w *Watcher) Dir() string { return w.dir }

// Directories reports how many directories are registered.
func (w *Watcher) Directories() int { return w.watching }

// Run processes events until ctx is cancelled. It returns nil on
// cancellation and an error when the underlying watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := w.fsw.Close(); err != nil {
			w.log.Warn("close watcher", "err", err)
		}
	}()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			rel, ok := w.relevant(evt)
			if !ok {
				continue
			}
			pending[rel] = struct{}{}
			timer.Reset(w.opts.Debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := slices.Sorted(maps.Keys(pending))
			clear(pending)
			w.log.Debug("workfiles changed", "files", changed)
			if w.opts.OnChange == nil {
				continue
			}
			if err := w.opts.OnChange(ctx, changed); err != nil {
				w.log.Error("change handler failed", "err", err)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			if isFatal(err) {
				return fmt.Errorf("watch: %w", err)
			}
			w.log.Warn("watcher error", "err", err)
		}
	}
}

// relevant maps an event to its path relative to Dir and reports whether
// it should trigger a callback. New directories are registered on the way.
func (w *Watcher) relevant(evt fsnotify.Event) (string, bool) {
	if evt.Has(fsnotify.Chmod) && !evt.Has(fsnotify.Write) {
		return "", false
	}
	rel, err := filepath.Rel(w.dir, evt.Name)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if matchAny(w.ignores, rel) {
		return "", false
	}
	if evt.Has(fsnotify.Create) {
		if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
			if err := w.addTree(evt.Name); err != nil {
				w.log.Warn("watch new directory", "dir", evt.Name, "err", err)
			}
			return "", false
		}
	}
	if !matchAny(w.opts.Patterns, rel) {
		return "", false
	}
	return rel, true
}

func (w *Watcher) addTree(root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.log.Warn("skipping unreadable path", "path", path, "err", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel, err := filepath.Rel(w.dir, path); err == nil && rel != "." {
			rel = filepath.ToSlash(rel)
			if matchAny(w.ignores, rel) || matchAny(w.ignores, rel+"/") {
				return filepath.SkipDir
			}
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add %s: %w", path, err)
		}
		w.watching++
		return nil
	})
	return err
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func validPatterns(label string, patterns []string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid %s pattern %q", label, pat)
		}
	}
	return nil
}
