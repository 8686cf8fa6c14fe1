package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dshills/lmlassist/internal/candidates"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "lmlassist.toml"

// Config holds all lmlassist settings.
type Config struct {
	Grammar    GrammarConfig    `toml:"grammar"`
	Candidates CandidatesConfig `toml:"candidates"`
	Completion CompletionConfig `toml:"completion"`
	CSS        CSSConfig        `toml:"css"`
	Logging    LoggingConfig    `toml:"logging"`

	// Source is the config file that was read, empty when none was.
	Source string `toml:"-"`
}

// GrammarConfig selects and extends the rule tables.
type GrammarConfig struct {
	// Default is the grammar documents are tokenized with.
	Default string `toml:"default"`

	// Files are extra rule tables (.json, .yaml, .yml, .lua).
	Files []string `toml:"files"`
}

// CandidatesConfig locates candidate sets.
type CandidatesConfig struct {
	// Files are generated candidate JSON files, loaded in order.
	Files []string `toml:"files"`

	// Store is the SQLite candidate store. Empty disables it.
	Store string `toml:"store"`

	// Policies overrides the match policy per set name.
	Policies map[string]string `toml:"policies"`
}

// CompletionConfig tunes the completion engine.
type CompletionConfig struct {
	// MaxResults bounds the candidates per request. 0 means unbounded.
	MaxResults int `toml:"maxResults"`

	// DefaultSet is used when a request names no set.
	DefaultSet string `toml:"defaultSet"`

	// Shortcuts binds keys to candidate set names. Keys compare
	// case-insensitively with "+" read as "-"; a key from the config file
	// replaces the default bound to the same key.
	Shortcuts map[string]string `toml:"shortcuts"`
}

// CSSConfig drives the stylesheet scanner.
type CSSConfig struct {
	// Sources are doublestar patterns of stylesheets.
	Sources []string `toml:"sources"`

	// Output is the generated candidate JSON file.
	Output string `toml:"output"`

	// Set is the name the classes are written under.
	Set string `toml:"set"`

	// Debounce delays regeneration in watch mode, e.g. "250ms".
	Debounce string `toml:"debounce"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Grammar: GrammarConfig{
			Default: "lml",
		},
		Candidates: CandidatesConfig{
			Policies: map[string]string{},
		},
		Completion: CompletionConfig{
			DefaultSet: candidates.SetKeywords,
			Shortcuts: map[string]string{
				"ctrl-1": candidates.SetCSSClasses,
				"ctrl-2": candidates.SetTopicKeys,
				"ctrl-3": candidates.SetPaths,
				"ctrl-4": candidates.SetKeywords,
			},
		},
		CSS: CSSConfig{
			Set:      candidates.SetCSSClasses,
			Debounce: "250ms",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks every setting and returns the first problem found.
func (c *Config) Validate() error {
	if c.Grammar.Default == "" {
		return &ValidationError{Path: "grammar.default", Message: "must not be empty", Value: c.Grammar.Default}
	}
	for _, name := range sortedKeys(c.Candidates.Policies) {
		if _, err := candidates.ParsePolicy(c.Candidates.Policies[name]); err != nil {
			return &ValidationError{Path: "candidates.policies." + name, Message: "unknown match policy", Value: c.Candidates.Policies[name]}
		}
	}
	if c.Completion.MaxResults < 0 {
		return &ValidationError{Path: "completion.maxResults", Message: "must not be negative", Value: c.Completion.MaxResults}
	}
	seen := make(map[string]string, len(c.Completion.Shortcuts))
	for _, key := range sortedKeys(c.Completion.Shortcuts) {
		if c.Completion.Shortcuts[key] == "" {
			return &ValidationError{Path: "completion.shortcuts." + key, Message: "must name a set", Value: ""}
		}
		ck := canonicalKey(key)
		if prev, ok := seen[ck]; ok {
			return &ValidationError{Path: "completion.shortcuts." + key, Message: fmt.Sprintf("same shortcut as %q", prev), Value: key}
		}
		seen[ck] = key
	}
	if c.CSS.Set == "" {
		return &ValidationError{Path: "css.set", Message: "must not be empty", Value: c.CSS.Set}
	}
	if d, err := time.ParseDuration(c.CSS.Debounce); err != nil || d < 0 {
		return &ValidationError{Path: "css.debounce", Message: "must be a non-negative duration", Value: c.CSS.Debounce}
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return &ValidationError{Path: "logging.level", Message: "unknown level", Value: c.Logging.Level}
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return &ValidationError{Path: "logging.format", Message: "must be text or json", Value: c.Logging.Format}
	}
	return nil
}

// SetForShortcut returns the set bound to key. Keys compare
// case-insensitively and "+" is accepted for "-", so "ctrl+1" finds "Ctrl-1".
func (c *Config) SetForShortcut(key string) (string, bool) {
	want := canonicalKey(key)
	if set, ok := c.Completion.Shortcuts[want]; ok {
		return set, true
	}
	// Keys set in code may not be canonical. Validate rejects two keys for
	// the same shortcut, so at most one matches.
	for _, k := range sortedKeys(c.Completion.Shortcuts) {
		if canonicalKey(k) == want {
			return c.Completion.Shortcuts[k], true
		}
	}
	return "", false
}

// mergeShortcuts returns base with the bindings of over applied on top, all
// keyed by canonical form. Two keys of over naming the same shortcut are an
// error.
func mergeShortcuts(base, over map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(base)+len(over))
	for _, k := range sortedKeys(base) {
		out[canonicalKey(k)] = base[k]
	}
	seen := make(map[string]string, len(over))
	for _, k := range sortedKeys(over) {
		ck := canonicalKey(k)
		if prev, ok := seen[ck]; ok {
			return nil, &ValidationError{Path: "completion.shortcuts." + k, Message: fmt.Sprintf("same shortcut as %q", prev), Value: k}
		}
		seen[ck] = k
		out[ck] = over[k]
	}
	return out, nil
}

// Policy returns the configured match policy override for set.
func (c *Config) Policy(set string) (candidates.MatchPolicy, bool) {
	s, ok := c.Candidates.Policies[set]
	if !ok {
		return candidates.Contains, false
	}
	p, err := candidates.ParsePolicy(s)
	if err != nil {
		return candidates.Contains, false
	}
	return p, true
}

// SlogLevel returns the slog level. Invalid levels fall back to info.
func (l LoggingConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// DebounceDuration returns the parsed debounce delay.
func (c CSSConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Debounce)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// StorePath returns the store path with a leading "~" expanded.
func (c CandidatesConfig) StorePath() string {
	return expandHome(c.Store)
}

func canonicalKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.ReplaceAll(key, "+", "-")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
