package cssscan

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// Watch generates the output once, then again after every change to a
// matching stylesheet until ctx is cancelled. notify, if non-nil, receives
// the outcome of each generation; failed generations are logged and do not
// stop the watch.
func (s *Scanner) Watch(ctx context.Context, notify func(*Result, error)) error {
	if len(s.patterns) == 0 {
		return ErrNoPatterns
	}
	for _, p := range s.patterns {
		if !doublestar.ValidatePathPattern(p) {
			return fmt.Errorf("%w: %q", ErrBadPattern, p)
		}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	for _, p := range s.patterns {
		base, _ := doublestar.SplitPattern(filepath.ToSlash(p))
		if err := s.watchTree(w, filepath.FromSlash(base)); err != nil {
			return err
		}
	}

	s.generate(notify)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				// New directories may hold future stylesheets.
				_ = s.watchTree(w, ev.Name)
			}
			if !s.relevant(ev) {
				continue
			}
			s.logger.Debug("stylesheet changed", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watch error", "error", err)
		case <-fire:
			fire = nil
			s.generate(notify)
		}
	}
}

func (s *Scanner) generate(notify func(*Result, error)) {
	res, err := s.Generate()
	if err != nil {
		s.logger.Error("generating candidate set", "set", s.set, "error", err)
	}
	if notify != nil {
		notify(res, err)
	}
}

// relevant reports whether ev touches a stylesheet matched by the patterns.
func (s *Scanner) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(ev.Name)
	if name == filepath.Clean(s.output) || name == filepath.Clean(s.output+".tmp") {
		return false
	}
	for _, p := range s.patterns {
		if ok, err := doublestar.PathMatch(filepath.Clean(p), name); err == nil && ok {
			return true
		}
	}
	return false
}

// watchTree adds root and every directory below it.
func (s *Scanner) watchTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("watching %s: %w", root, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}
