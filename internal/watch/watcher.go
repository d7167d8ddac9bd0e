// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs a build when scene documents under a project root change.
//
// Directories under the root are registered with fsnotify. Events whose
// root-relative path matches a doublestar pattern, and no ignore pattern, are
// collected until the debounce window passes quietly; the callback then runs
// once with the sorted set of changed paths.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Options.Debounce is not positive.
const DefaultDebounce = 250 * time.Millisecond

var (
	// ErrAlreadyStarted is returned by a second call to Run.
	ErrAlreadyStarted = errors.New("watch: Run called more than once")
	// ErrInvalidPattern is wrapped by New for globs doublestar rejects.
	ErrInvalidPattern = errors.New("watch: invalid pattern")
)

// builtinIgnores are always excluded. Generated embedded documents land in
// the project tree and must never retrigger a build.
var builtinIgnores = []string{
	"**/.git/**",
	"**/*_generated_*",
	"**/*.swp",
	"**/*~",
	"**/.DS_Store",
}

type (
	// Options configures a Watcher.
	Options struct {
		// Patterns select the root-relative paths that trigger a rebuild. An
		// empty slice matches every non-ignored file.
		Patterns []string
		// Ignore is merged with the built-in ignores.
		Ignore []string
		// Debounce is the quiet period before OnChange runs.
		Debounce time.Duration
		// OnChange receives the sorted root-relative paths that changed. Errors
		// are logged and watching continues.
		OnChange func(ctx context.Context, changed []string) error
		// Logger receives watcher diagnostics. Nil discards them.
		Logger *log.Logger
	}

	// Watcher fires a debounced callback when matching files change.
	Watcher struct {
		root     string
		opts     Options
		ignores  []string
		debounce time.Duration
		logger   *log.Logger
		fsw      *fsnotify.Watcher
		started  atomic.Bool
	}

	// batch accumulates changed paths between debounce timer firings.
	batch struct {
		mu      sync.Mutex
		pending map[string]struct{}
		timer   *time.Timer
		busy    atomic.Bool
	}
)

// New validates the patterns and registers every non-ignored directory under
// root with fsnotify.
func New(root string, opts Options) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve root: %w", err)
	}

	for _, pattern := range slices.Concat(opts.Patterns, opts.Ignore) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w %q", ErrInvalidPattern, pattern)
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:     absRoot,
		opts:     opts,
		ignores:  slices.Concat(builtinIgnores, opts.Ignore),
		debounce: debounce,
		logger:   logger,
		fsw:      fsw,
	}
	if err := w.addTree(absRoot); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Warn("close watcher after init failure", "err", closeErr)
		}
		return nil, err
	}
	return w, nil
}

// Root returns the absolute directory being watched.
func (w *Watcher) Root() string { return w.root }

// Run blocks until ctx is canceled, dispatching debounced callbacks. It
// returns nil on cancellation and an error when fsnotify fails fatally.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	b := &batch{pending: make(map[string]struct{})}
	defer func() {
		b.mu.Lock()
		if b.timer != nil {
			b.timer.Stop()
		}
		b.mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close watcher", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			w.handle(ctx, b, evt)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			if fatal(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, b *batch, evt fsnotify.Event) {
	rel, err := filepath.Rel(w.root, evt.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if w.ignored(rel) {
		return
	}

	// New directories extend the recursive watch.
	if evt.Has(fsnotify.Create) {
		if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
			if err := w.addTree(evt.Name); err != nil {
				w.logger.Warn("watch new directory", "path", rel, "err", err)
			}
			return
		}
	}

	if !w.Matches(rel) {
		return
	}
	w.logger.Debug("change", "path", rel, "op", evt.Op.String())

	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[rel] = struct{}{}
	if b.timer == nil {
		b.timer = time.AfterFunc(w.debounce, func() { w.fire(ctx, b) })
	} else {
		b.timer.Reset(w.debounce)
	}
}

// fire drains the batch. A callback still running from the previous batch
// defers this one by another debounce period.
func (w *Watcher) fire(ctx context.Context, b *batch) {
	if ctx.Err() != nil {
		return
	}
	if !b.busy.CompareAndSwap(false, true) {
		b.mu.Lock()
		b.timer.Reset(w.debounce)
		b.mu.Unlock()
		return
	}
	defer b.busy.Store(false)

	b.mu.Lock()
	changed := slices.Sorted(maps.Keys(b.pending))
	clear(b.pending)
	b.mu.Unlock()

	if len(changed) == 0 || w.opts.OnChange == nil {
		return
	}
	if err := w.opts.OnChange(ctx, changed); err != nil {
		w.logger.Error("rebuild failed", "err", err)
	}
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("skipping inaccessible path", "path", p, "err", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.root, p)
		if err != nil {
			return nil //nolint:nilerr // unreachable for paths under root
		}
		rel = filepath.ToSlash(rel)
		if rel != "." && (w.ignored(rel) || w.ignored(rel+"/")) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) ignored(rel string) bool {
	return matchAny(w.ignores, rel)
}

// Matches reports whether the root-relative slash path would trigger a
// rebuild.
func (w *Watcher) Matches(rel string) bool {
	if w.ignored(rel) {
		return false
	}
	return len(w.opts.Patterns) == 0 || matchAny(w.opts.Patterns, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// BuiltinIgnores returns a copy of the patterns that are always ignored.
func BuiltinIgnores() []string {
	return slices.Clone(builtinIgnores)
}
