// Package cssscan generates the css-classes candidate set from stylesheets.
//
// A Scanner expands doublestar patterns to stylesheet files, collects the
// class names their selectors use and writes them as one candidate set into
// a generated candidate JSON file, leaving the file's other sets untouched.
// Watch regenerates the file whenever a matching stylesheet changes.
package cssscan

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dshills/lmlassist/internal/candidates"
)

var (
	// ErrNoPatterns indicates a scanner without stylesheet patterns.
	ErrNoPatterns = errors.New("no stylesheet patterns")

	// ErrBadPattern indicates a malformed glob pattern.
	ErrBadPattern = errors.New("bad stylesheet pattern")

	// ErrNoFiles indicates the patterns matched no stylesheet.
	ErrNoFiles = errors.New("no stylesheets matched")
)

// Scanner turns stylesheets into a candidate set.
type Scanner struct {
	patterns []string
	output   string
	set      string
	sorted   bool
	debounce time.Duration
	logger   *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithSet names the generated set. The default is candidates.SetCSSClasses.
func WithSet(name string) Option {
	return func(s *Scanner) {
		if name != "" {
			s.set = name
		}
	}
}

// WithSorted orders the classes by name instead of first appearance.
func WithSorted(sorted bool) Option {
	return func(s *Scanner) {
		s.sorted = sorted
	}
}

// WithDebounce sets how long Watch waits for changes to settle.
func WithDebounce(d time.Duration) Option {
	return func(s *Scanner) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a scanner writing to output.
func New(patterns []string, output string, opts ...Option) *Scanner {
	s := &Scanner{
		patterns: slices.Clone(patterns),
		output:   output,
		set:      candidates.SetCSSClasses,
		debounce: 250 * time.Millisecond,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result describes one generation.
type Result struct {
	Set    *candidates.Set
	Files  []string
	Output string
}

// Files expands the patterns to the sorted list of matching files.
func (s *Scanner) Files() ([]string, error) {
	if len(s.patterns) == 0 {
		return nil, ErrNoPatterns
	}
	var files []string
	for _, p := range s.patterns {
		if !doublestar.ValidatePathPattern(p) {
			return nil, fmt.Errorf("%w: %q", ErrBadPattern, p)
		}
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expanding %q: %w", p, err)
		}
		files = append(files, matches...)
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

// Scan reads the stylesheets and builds the candidate set.
func (s *Scanner) Scan() (*Result, error) {
	files, err := s.Files()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoFiles, s.patterns)
	}

	var names []string
	seen := map[string]bool{}
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading stylesheet: %w", err)
		}
		found := ExtractClasses(string(data))
		s.logger.Debug("scanned stylesheet", "path", f, "classes", len(found))
		for _, n := range found {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	if s.sorted {
		slices.Sort(names)
	}
	return &Result{
		Set:    candidates.NewSet(s.set, candidates.Contains, Candidates(names)),
		Files:  files,
		Output: s.output,
	}, nil
}

// Generate scans and writes the set into the output file.
func (s *Scanner) Generate() (*Result, error) {
	res, err := s.Scan()
	if err != nil {
		return nil, err
	}

	existing, err := os.ReadFile(s.output)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", s.output, err)
	}
	data, err := candidates.WriteJSON(existing, res.Set)
	if err != nil {
		return nil, fmt.Errorf("writing set %s: %w", s.set, err)
	}
	if err := writeAtomic(s.output, data); err != nil {
		return nil, err
	}

	s.logger.Info("generated candidate set",
		"set", s.set,
		"path", s.output,
		"files", len(res.Files),
		"classes", res.Set.Len(),
	)
	return res, nil
}

// Candidates converts class names into candidates that insert ".name ".
func Candidates(names []string) []candidates.Candidate {
	out := make([]candidates.Candidate, len(names))
	for i, n := range names {
		out[i] = candidates.Candidate{Text: "." + n + " ", DisplayText: n}
	}
	return out
}

func writeAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
