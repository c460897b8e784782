// Package watch re-runs a conversion whenever one of its inputs changes.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses bursts of events (e.g. an editor saving a file
// in several steps) into one run.
const DefaultDebounce = 500 * time.Millisecond

// Func is invoked once per burst of changes.
type Func func(ctx context.Context) error

// Watcher observes a set of input files and folders.
type Watcher struct {
	inputs   []string
	ignore   []string
	debounce time.Duration
	log      *slog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.log = l }
}

// WithIgnore skips events below the given folders, typically the output
// folder when it lives inside an input folder.
func WithIgnore(dirs ...string) Option {
	return func(w *Watcher) {
		for _, d := range dirs {
			if abs, err := filepath.Abs(d); err == nil {
				w.ignore = append(w.ignore, abs)
			}
		}
	}
}

// New creates a watcher for the given inputs.
func New(inputs []string, opts ...Option) *Watcher {
	w := &Watcher{debounce: DefaultDebounce, log: slog.Default()}
	for _, in := range inputs {
		if abs, err := filepath.Abs(in); err == nil {
			w.inputs = append(w.inputs, abs)
		}
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is cancelled and calls fn after every debounced
// burst of relevant changes. Errors from fn are logged, not returned.
func (w *Watcher) Run(ctx context.Context, fn Func) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: new watcher: %w", err)
	}
	defer fw.Close()

	files := map[string]bool{}
	for _, in := range w.inputs {
		info, err := os.Stat(in)
		if err != nil {
			return fmt.Errorf("watch: stat %s: %w", in, err)
		}
		if info.IsDir() {
			if err := w.addDirsRecursive(fw, in); err != nil {
				return fmt.Errorf("watch: add %s: %w", in, err)
			}
			continue
		}
		// Single files are watched through their folder so that atomic
		// replaces (write temp, rename) are noticed.
		files[in] = true
		if err := fw.Add(filepath.Dir(in)); err != nil {
			return fmt.Errorf("watch: add %s: %w", in, err)
		}
	}

	w.log.Info("watch: started", slog.Int("inputs", len(w.inputs)))

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
			fire = timer.C
		} else {
			timer.Reset(w.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.log.Info("watch: stopped")
			return nil

		case <-fire:
			w.log.Info("watch: change detected, converting again")
			if err := fn(ctx); err != nil {
				w.log.Error("watch: run failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev.Name, files) {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := w.addDirsRecursive(fw, ev.Name); addErr != nil {
						w.log.Warn("watch: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
				}
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			w.log.Debug("watch: event", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watch: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (w *Watcher) relevant(path string, files map[string]bool) bool {
	if w.ignored(path) || isHidden(filepath.Base(path)) {
		return false
	}
	if len(files) == 0 || files[path] {
		return true
	}
	// Events from the parent folder of a single-file input are only
	// relevant if they hit a watched directory input.
	for _, in := range w.inputs {
		if !files[in] && within(path, in) {
			return true
		}
	}
	return false
}

func (w *Watcher) ignored(path string) bool {
	for _, dir := range w.ignore {
		if within(path, dir) {
			return true
		}
	}
	return false
}

// addDirsRecursive adds root and all its non-hidden subdirectories.
func (w *Watcher) addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (isHidden(d.Name()) || w.ignored(path)) {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}

func within(path, dir string) bool {
	return path == dir || strings.HasPrefix(path, dir+string(filepath.Separator))
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
